package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Catalog master data
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;unique" json:"name"`
	Description string `gorm:"size:200" json:"description,omitempty"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// NutritionProfile holds the per-product nutrition facts panel.
// All values are per presentation unit; zero means not declared.
type NutritionProfile struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Calories  decimal.Decimal `gorm:"type:decimal(10,2)" json:"calories"`
	Protein   decimal.Decimal `gorm:"type:decimal(10,2)" json:"protein"`
	Fat       decimal.Decimal `gorm:"type:decimal(10,2)" json:"fat"`
	Carbs     decimal.Decimal `gorm:"type:decimal(10,2)" json:"carbs"`
	Sugar     decimal.Decimal `gorm:"type:decimal(10,2)" json:"sugar"`
	Sodium    decimal.Decimal `gorm:"type:decimal(10,2)" json:"sodium"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product kinds: in-house preparation vs packaged goods.
const (
	KindPropia   = "propia"
	KindEnvasado = "envasado"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null;index" json:"name"`
	Brand       string          `gorm:"size:100" json:"brand,omitempty"`
	Description string          `gorm:"size:300" json:"description,omitempty"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	// ExpiryDate must be strictly after ProductionDate when both are set.
	ExpiryDate     time.Time  `gorm:"not null" json:"expiry_date"`
	ProductionDate *time.Time `json:"production_date,omitempty"`
	Kind           string     `gorm:"size:20;not null;default:'propia'" json:"kind"`
	CategoryID     uint       `gorm:"not null;index" json:"category_id"`
	Category       Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	// Stock thresholds: StockMin < StockMax, StockCurrent >= 0.
	StockCurrent       int              `gorm:"not null;default:0" json:"stock_current"`
	StockMin           int              `gorm:"not null;default:5" json:"stock_min"`
	StockMax           int              `gorm:"not null;default:100" json:"stock_max"`
	Presentation       string           `gorm:"size:100" json:"presentation,omitempty"`
	Format             string           `gorm:"size:100" json:"format,omitempty"`
	NutritionProfileID uint             `gorm:"not null" json:"nutrition_profile_id"`
	NutritionProfile   NutritionProfile `gorm:"foreignKey:NutritionProfileID" json:"-"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	// Products referenced by historical sales are soft-deleted, never removed.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
