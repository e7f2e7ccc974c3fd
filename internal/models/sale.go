package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale channels.
const (
	ChannelLocal     = "Local"
	ChannelUberEats  = "UberEats"
	ChannelInstagram = "Instagram"
	ChannelWhatsApp  = "WhatsApp"
)

// Channels lists the valid sale channels in display order.
func Channels() []string {
	return []string{ChannelLocal, ChannelUberEats, ChannelInstagram, ChannelWhatsApp}
}

// ValidChannel reports whether s is a known sale channel.
func ValidChannel(s string) bool {
	switch s {
	case ChannelLocal, ChannelUberEats, ChannelInstagram, ChannelWhatsApp:
		return true
	}
	return false
}

// Sale header. Aggregate fields (Subtotal, Tax, Total, Change) are always
// recomputed from the full line set inside the persistence transaction;
// the header never carries stale totals.
// Invariants: Total = max(0, Subtotal + Tax - Discount),
// Change = max(0, AmountPaid - Total).
type Sale struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Customer   Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Date       time.Time `gorm:"not null;index" json:"date"`
	Channel    string    `gorm:"size:20;not null;default:'Local'" json:"channel"`
	// Folio is the human-readable receipt number, assigned on first
	// successful save when absent (VENT-%05d from the sale ID).
	Folio      string          `gorm:"size:20;uniqueIndex" json:"folio"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Tax        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax"`
	Discount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Total      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"amount_paid"`
	Change     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"change"`
	Lines      []SaleLine      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// SaleLine is one product entry within a sale. UnitPrice is a snapshot of
// the catalog price at sale time; later product price changes never touch it.
type SaleLine struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"not null;index" json:"sale_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	Product     Product         `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_pct"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// Subtotal returns quantity * unit price * (1 - discount/100), rounded to
// 2 decimal places.
func (l SaleLine) Subtotal() decimal.Decimal {
	gross := decimal.NewFromInt(int64(l.Quantity)).Mul(l.UnitPrice)
	factor := decimal.NewFromInt(1).Sub(l.DiscountPct.Div(hundred))
	return gross.Mul(factor).Round(2)
}
