package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/validation"
)

// ProductService covers catalog mutations and the protect-on-delete rule.
type ProductService struct {
	DB *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService { return &ProductService{DB: db} }

// Validate checks the catalog invariants: positive price, expiry after
// production, stock_min < stock_max, non-negative stock.
func (s *ProductService) Validate(p *models.Product) error {
	v := validation.Violations{}
	validation.Required("name", p.Name, v)
	validation.PositiveDecimal("unit_price", p.UnitPrice, v)
	if p.ExpiryDate.IsZero() {
		v["expiry_date"] = "required"
	}
	validation.DateAfter("expiry_date", p.ProductionDate, p.ExpiryDate, v)
	validation.NonNegativeInt("stock_current", p.StockCurrent, v)
	validation.LessThanInt("stock_min", p.StockMin, p.StockMax, v)
	if p.Kind != models.KindPropia && p.Kind != models.KindEnvasado {
		v["kind"] = "out_of_range"
	}
	if p.CategoryID == 0 {
		v["category"] = "required"
	}
	return NewValidationError(v)
}

// Save creates or updates a product together with its nutrition profile.
func (s *ProductService) Save(ctx context.Context, p *models.Product) error {
	if p.Kind == "" {
		p.Kind = models.KindPropia
	}
	if err := s.Validate(p); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.NutritionProfileID == 0 {
			if err := tx.Create(&p.NutritionProfile).Error; err != nil {
				return err
			}
			p.NutritionProfileID = p.NutritionProfile.ID
		}
		return tx.Save(p).Error
	})
}

// Get loads a product with its category and nutrition profile.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).Preload("Category").Preload("NutritionProfile").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete soft-deletes a product unless sale lines reference it. The
// referential check runs inside the delete transaction so a concurrent
// sale cannot slip between check and delete.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var refs int64
		if err := tx.Model(&models.SaleLine{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrIntegrity
		}
		return tx.Delete(&p).Error
	})
}
