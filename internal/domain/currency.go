package domain

import (
	"fmt"
	"strings"
	"time"
)

// Currency is immutable reference data describing a unit of account.
type Currency struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	DecimalPlaces int32     `json:"decimal_places"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCurrency normalizes and validates a currency definition.
func NewCurrency(id, code, name string, decimalPlaces int32, now time.Time) (*Currency, error) {
	c := &Currency{
		ID:            id,
		Code:          strings.ToUpper(strings.TrimSpace(code)),
		Name:          strings.TrimSpace(name),
		DecimalPlaces: decimalPlaces,
		CreatedAt:     now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the currency fields.
func (c *Currency) Validate() error {
	if err := ValidateCurrencyCode(c.Code); err != nil {
		return err
	}
	if c.Name == "" || len(c.Name) > MaxNameLength {
		return fmt.Errorf("%w: currency name must be 1-%d characters", ErrValidation, MaxNameLength)
	}
	return ValidateDecimalPlaces(c.DecimalPlaces)
}
