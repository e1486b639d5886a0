package core

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DeductionRate is the flat share of the gross rate withheld as taxes and contributions.
	DeductionRate = 0.35
	// NetFactor is the share of the gross rate that is kept.
	NetFactor = 1 - DeductionRate
)

var (
	ErrEmptyRate    = errors.New("empty gross daily rate")
	ErrInvalidRate  = errors.New("gross daily rate must be a positive number")
	ErrNegativeRate = errors.New("gross daily rate cannot be negative")
)

// NetDailyRate converts a gross daily rate into the estimated take-home rate.
func NetDailyRate(gross float64) float64 {
	return gross * NetFactor
}

// ParseRate parses a user supplied gross daily rate.
//
// Both "450.50" and "450,50" are accepted. Empty or non numeric input is an
// error rather than a silent zero, and so is a zero rate.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyRate
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidRate
	}
	if d.IsNegative() {
		return 0, ErrNegativeRate
	}
	if d.IsZero() {
		return 0, ErrInvalidRate
	}
	f, _ := d.Float64()
	if err := ValidateRate(f); err != nil {
		return 0, err
	}
	return f, nil
}

// ValidateRate checks an already parsed rate.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return ErrInvalidRate
	}
	if rate < 0 {
		return ErrNegativeRate
	}
	if rate == 0 {
		return ErrInvalidRate
	}
	return nil
}
