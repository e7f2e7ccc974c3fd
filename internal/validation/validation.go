// Package validation collects field-level violations for inline form
// display or JSON error details.
package validation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeInt(field string, val int, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

// RangeDecimal checks minVal <= val <= maxVal.
func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

// DateAfter checks that later is strictly after earlier when both are set.
// Used for the expiry-after-production rule.
func DateAfter(field string, earlier *time.Time, later time.Time, v Violations) {
	if earlier == nil || later.IsZero() {
		return
	}
	if !later.After(*earlier) {
		v[field] = "must_be_after_production_date"
	}
}

// LessThanInt checks a < b (stock_min < stock_max rule).
func LessThanInt(field string, a, b int, v Violations) {
	if a >= b {
		v[field] = "must_be_less_than_max"
	}
}
