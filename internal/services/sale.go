package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/validation"
)

// IVA, fixed at 19 % of the subtotal.
var taxRate = decimal.NewFromFloat(0.19)

// SaleService orchestrates sale persistence: header + lines + totals +
// folio are written in one transaction so readers never observe a sale
// with mismatched lines and aggregates.
type SaleService struct {
	DB *gorm.DB
}

func NewSaleService(db *gorm.DB) *SaleService { return &SaleService{DB: db} }

// LineInput is one line operation within a sale save. ID zero means
// create; Delete removes an existing line.
type LineInput struct {
	ID          uint
	ProductID   uint
	Quantity    int
	UnitPrice   *decimal.Decimal // nil: snapshot the product's current price
	DiscountPct decimal.Decimal
	Delete      bool
}

// SaleInput is the header payload plus its line operations.
type SaleInput struct {
	ID         uint // zero: create
	CustomerID uint
	Date       time.Time // zero: now
	Channel    string
	Discount   decimal.Decimal
	AmountPaid *decimal.Decimal // nil: defaults to the computed total
	Lines      []LineInput
}

// Totals holds the recomputed aggregate fields of a sale.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	Change     decimal.Decimal
}

// ComputeTotals aggregates line subtotals into the header amounts:
// subtotal is the rounded sum, tax is 19 % of it, total is clamped at
// zero after the header discount, and change derives from amount paid
// (defaulting to the total, so change is zero when omitted).
func ComputeTotals(lineSubtotals []decimal.Decimal, discount decimal.Decimal, amountPaid *decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, s := range lineSubtotals {
		subtotal = subtotal.Add(s)
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax).Sub(discount).Round(2)
	if total.IsNegative() {
		total = decimal.Zero.Round(2)
	}
	paid := total
	if amountPaid != nil {
		paid = amountPaid.Round(2)
	}
	change := paid.Sub(total).Round(2)
	if change.IsNegative() {
		change = decimal.Zero.Round(2)
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total, AmountPaid: paid, Change: change}
}

// BuildLine validates a line input and returns the model ready to persist.
// When no unit price is supplied the product's current catalog price is
// snapshotted; later product price changes never touch saved lines.
func BuildLine(tx *gorm.DB, in LineInput) (models.SaleLine, error) {
	v := validation.Violations{}
	if in.ProductID == 0 {
		v["product"] = "required"
	}
	validation.PositiveInt("quantity", in.Quantity, v)
	validation.RangeDecimal("discount_pct", in.DiscountPct, decimal.Zero, decimal.NewFromInt(100), v)

	var price decimal.Decimal
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	} else if in.ProductID != 0 {
		var product models.Product
		if err := tx.First(&product, in.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				v["product"] = "required"
				return models.SaleLine{}, NewValidationError(v)
			}
			return models.SaleLine{}, err
		}
		price = product.UnitPrice
	}
	validation.PositiveDecimal("unit_price", price, v)

	if err := NewValidationError(v); err != nil {
		return models.SaleLine{}, err
	}
	return models.SaleLine{
		ID:          in.ID,
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		UnitPrice:   price.Round(2),
		DiscountPct: in.DiscountPct,
	}, nil
}

// Save persists a sale and its line operations atomically: header first
// (placeholder totals on create), then line deletions, then line
// creates/updates, then a full totals recompute and folio assignment.
// Any validation failure rolls back the whole unit.
func (s *SaleService) Save(ctx context.Context, in SaleInput) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateHeader(tx, &in); err != nil {
			return err
		}

		if in.ID == 0 {
			sale = models.Sale{
				CustomerID: in.CustomerID,
				Date:       in.Date,
				Channel:    in.Channel,
				Discount:   in.Discount.Round(2),
				Subtotal:   decimal.Zero,
				Tax:        decimal.Zero,
				Total:      decimal.Zero,
				AmountPaid: decimal.Zero,
				Change:     decimal.Zero,
			}
			if err := tx.Create(&sale).Error; err != nil {
				return err
			}
		} else {
			if err := tx.First(&sale, in.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			sale.CustomerID = in.CustomerID
			sale.Date = in.Date
			sale.Channel = in.Channel
			sale.Discount = in.Discount.Round(2)
		}

		// Deletions first so a delete+recreate of the same product in one
		// request does not trip over the old row.
		for _, li := range in.Lines {
			if li.Delete && li.ID != 0 {
				if err := tx.Where("id = ? AND sale_id = ?", li.ID, sale.ID).Delete(&models.SaleLine{}).Error; err != nil {
					return err
				}
			}
		}
		for _, li := range in.Lines {
			if li.Delete {
				continue
			}
			// Editing a line without an explicit price keeps its snapshot
			// instead of re-reading the live catalog price.
			if li.ID != 0 && li.UnitPrice == nil {
				var existing models.SaleLine
				if err := tx.Where("id = ? AND sale_id = ?", li.ID, sale.ID).First(&existing).Error; err == nil {
					if li.ProductID == existing.ProductID {
						price := existing.UnitPrice
						li.UnitPrice = &price
					}
				}
			}
			line, err := BuildLine(tx, li)
			if err != nil {
				return err
			}
			line.SaleID = sale.ID
			if line.ID == 0 {
				if err := tx.Create(&line).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Model(&models.SaleLine{}).
					Where("id = ? AND sale_id = ?", line.ID, sale.ID).
					Updates(map[string]any{
						"product_id":   line.ProductID,
						"quantity":     line.Quantity,
						"unit_price":   line.UnitPrice,
						"discount_pct": line.DiscountPct,
					}).Error; err != nil {
					return err
				}
			}
		}

		if err := s.recompute(tx, &sale, in.AmountPaid); err != nil {
			return err
		}

		if sale.Folio == "" {
			sale.Folio = fmt.Sprintf("VENT-%05d", sale.ID)
		}
		return tx.Save(&sale).Error
	})
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Preload("Lines").Preload("Customer").First(&sale, sale.ID).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *SaleService) validateHeader(tx *gorm.DB, in *SaleInput) error {
	v := validation.Violations{}
	if in.CustomerID == 0 {
		v["customer"] = "required"
	} else {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", in.CustomerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			v["customer"] = "required"
		}
	}
	if in.Channel == "" {
		in.Channel = models.ChannelLocal
	}
	if !models.ValidChannel(in.Channel) {
		v["channel"] = "invalid_channel"
	}
	validation.NonNegativeDecimal("discount", in.Discount, v)
	if in.AmountPaid != nil {
		validation.NonNegativeDecimal("amount_paid", *in.AmountPaid, v)
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	return NewValidationError(v)
}

// recompute rebuilds the header aggregates from the persisted line set.
// Idempotent: recomputing an unchanged line set yields identical values.
func (s *SaleService) recompute(tx *gorm.DB, sale *models.Sale, amountPaid *decimal.Decimal) error {
	var lines []models.SaleLine
	if err := tx.Where("sale_id = ?", sale.ID).Order("id").Find(&lines).Error; err != nil {
		return err
	}
	subtotals := make([]decimal.Decimal, len(lines))
	for i, l := range lines {
		subtotals[i] = l.Subtotal()
	}
	t := ComputeTotals(subtotals, sale.Discount, amountPaid)
	sale.Subtotal = t.Subtotal
	sale.Tax = t.Tax
	sale.Total = t.Total
	sale.AmountPaid = t.AmountPaid
	sale.Change = t.Change
	return nil
}

// Recompute reloads the sale, rebuilds its totals from the current line
// set and persists them, keeping the previously paid amount.
func (s *SaleService) Recompute(ctx context.Context, saleID uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&sale, saleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		paid := sale.AmountPaid
		if err := s.recompute(tx, &sale, &paid); err != nil {
			return err
		}
		return tx.Save(&sale).Error
	})
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Get loads a sale with customer and lines (product preloaded per line).
func (s *SaleService) Get(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.DB.WithContext(ctx).
		Preload("Customer").
		Preload("Lines").
		Preload("Lines.Product").
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Delete removes a sale and its lines in one transaction. Lines are
// owned exclusively by the sale, so they are cascade-deleted explicitly.
func (s *SaleService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("sale_id = ?", id).Delete(&models.SaleLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sale).Error
	})
}
