package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/forneria/shop/internal/models"
	"github.com/forneria/shop/internal/validation"
)

type CustomerService struct {
	DB *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService { return &CustomerService{DB: db} }

// Validate checks required fields and RUT uniqueness (when present).
func (s *CustomerService) Validate(ctx context.Context, c *models.Customer) error {
	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	if c.RUT != nil {
		rut := strings.TrimSpace(*c.RUT)
		if rut == "" {
			c.RUT = nil
		} else {
			c.RUT = &rut
			var n int64
			q := s.DB.WithContext(ctx).Model(&models.Customer{}).Where("rut = ?", rut)
			if c.ID != 0 {
				q = q.Where("id <> ?", c.ID)
			}
			if err := q.Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				v["rut"] = "rut_taken"
			}
		}
	}
	return NewValidationError(v)
}

func (s *CustomerService) Save(ctx context.Context, c *models.Customer) error {
	if err := s.Validate(ctx, c); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Save(c).Error
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.DB.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete soft-deletes a customer unless sales reference them.
func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var refs int64
		if err := tx.Model(&models.Sale{}).Where("customer_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrIntegrity
		}
		return tx.Delete(&c).Error
	})
}
