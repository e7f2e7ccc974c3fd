package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer of the bakery. RUT is the Chilean tax identifier; optional for
// walk-in customers but unique when present.
type Customer struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	RUT       *string `gorm:"size:12;uniqueIndex" json:"rut,omitempty"`
	Name      string  `gorm:"size:150;not null;index" json:"name"`
	Email     string  `gorm:"size:100" json:"email,omitempty"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
