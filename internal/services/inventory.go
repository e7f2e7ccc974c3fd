package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/validation"
)

// ExpiryAlertWindow is how far ahead expiring products raise an alert.
const ExpiryAlertWindow = 7 * 24 * time.Hour

// InventoryService records stock movements and maintains alerts.
type InventoryService struct {
	DB *gorm.DB
}

func NewInventoryService(db *gorm.DB) *InventoryService { return &InventoryService{DB: db} }

// RecordMovement persists a movement and applies it to the product's
// current stock: entrada adds, salida subtracts, ajuste sets the level
// to the given quantity. Stock can never go negative.
func (s *InventoryService) RecordMovement(ctx context.Context, m *models.StockMovement) error {
	v := validation.Violations{}
	if m.ProductID == 0 {
		v["product"] = "required"
	}
	if !models.ValidMovementType(m.Type) {
		v["type"] = "out_of_range"
	}
	if m.Type == models.MovementAdjust {
		validation.NonNegativeInt("quantity", m.Quantity, v)
	} else {
		validation.PositiveInt("quantity", m.Quantity, v)
	}
	if err := NewValidationError(v); err != nil {
		return err
	}
	if m.Date.IsZero() {
		m.Date = time.Now()
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, m.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		switch m.Type {
		case models.MovementIn:
			product.StockCurrent += m.Quantity
		case models.MovementOut:
			if m.Quantity > product.StockCurrent {
				return NewValidationError(validation.Violations{"quantity": "out_of_range"})
			}
			product.StockCurrent -= m.Quantity
		case models.MovementAdjust:
			product.StockCurrent = m.Quantity
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock_current", product.StockCurrent).Error; err != nil {
			return err
		}
		return raiseLowStockAlert(tx, &product)
	})
}

// raiseLowStockAlert opens a pending low-stock alert when the product is
// at or below its minimum, unless one is already pending.
func raiseLowStockAlert(tx *gorm.DB, p *models.Product) error {
	if p.StockCurrent > p.StockMin {
		return nil
	}
	var pending int64
	err := tx.Model(&models.Alert{}).
		Where("product_id = ? AND type = ? AND state = ?", p.ID, models.AlertLowStock, models.AlertPending).
		Count(&pending).Error
	if err != nil || pending > 0 {
		return err
	}
	return tx.Create(&models.Alert{
		ProductID:   p.ID,
		Type:        models.AlertLowStock,
		Message:     p.Name + ": stock bajo el mínimo",
		State:       models.AlertPending,
		GeneratedAt: time.Now(),
	}).Error
}

// EvaluateExpiryAlerts opens pending alerts for products expiring within
// the alert window. Idempotent per product while an alert is pending.
func (s *InventoryService) EvaluateExpiryAlerts(ctx context.Context, now time.Time) (int, error) {
	limit := now.Add(ExpiryAlertWindow)
	var products []models.Product
	err := s.DB.WithContext(ctx).
		Where("expiry_date > ? AND expiry_date <= ?", now, limit).
		Find(&products).Error
	if err != nil {
		return 0, err
	}
	created := 0
	for i := range products {
		p := &products[i]
		var pending int64
		err := s.DB.WithContext(ctx).Model(&models.Alert{}).
			Where("product_id = ? AND type = ? AND state = ?", p.ID, models.AlertExpiry, models.AlertPending).
			Count(&pending).Error
		if err != nil {
			return created, err
		}
		if pending > 0 {
			continue
		}
		alert := models.Alert{
			ProductID:   p.ID,
			Type:        models.AlertExpiry,
			Message:     p.Name + ": vence el " + p.ExpiryDate.Format("2006-01-02"),
			State:       models.AlertPending,
			GeneratedAt: now,
		}
		if err := s.DB.WithContext(ctx).Create(&alert).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// AttendAlert marks a pending alert as attended.
func (s *InventoryService) AttendAlert(ctx context.Context, id uint) error {
	result := s.DB.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ?", id).
		Update("state", models.AlertAttended)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
