package models

import (
	"time"

	"gorm.io/gorm"
)

// Stock movement types.
const (
	MovementIn     = "entrada"
	MovementOut    = "salida"
	MovementAdjust = "ajuste"
)

// ValidMovementType reports whether s is a known stock movement type.
func ValidMovementType(s string) bool {
	switch s {
	case MovementIn, MovementOut, MovementAdjust:
		return true
	}
	return false
}

type StockMovement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type      string    `gorm:"size:20;not null" json:"type"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Alert types and states.
const (
	AlertLowStock = "Stock bajo"
	AlertExpiry   = "Vencimiento próximo"
	AlertPending  = "pendiente"
	AlertAttended = "atendida"
)

type Alert struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	Product     Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Type        string    `gorm:"size:30;not null" json:"type"`
	Message     string    `gorm:"size:255;not null" json:"message"`
	State       string    `gorm:"size:20;not null;default:'pendiente'" json:"state"`
	GeneratedAt time.Time `gorm:"not null;index" json:"generated_at"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
