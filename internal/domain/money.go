package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxDecimalPlaces bounds the minor-unit scale of a currency.
const MaxDecimalPlaces = 8

// maxMinorDigits is the number of decimal digits in math.MaxInt64.
const maxMinorDigits = 19

var (
	maxMinorUnits     = decimal.NewFromInt(math.MaxInt64)
	errAmountTooLarge = fmt.Errorf("%w: exceeds the maximum representable amount", ErrInvalidAmount)
)

// ToMinorUnits converts a display amount into integer minor units using the
// currency's decimal places. Values are rounded half away from zero; the
// result must be strictly positive and fit in an int64.
func ToMinorUnits(amount decimal.Decimal, decimalPlaces int32) (int64, error) {
	if err := ValidateDecimalPlaces(decimalPlaces); err != nil {
		return 0, err
	}

	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	// Rescaling expands the coefficient to 10^|exponent|, so the magnitude
	// is checked from the digit count and exponent first.
	magnitude := int64(amount.NumDigits()) + int64(amount.Exponent()) + int64(decimalPlaces)
	if magnitude > maxMinorDigits {
		return 0, errAmountTooLarge
	}
	if magnitude < 0 {
		// Below 0.1 minor units, which rounds to zero.
		return 0, ErrInvalidAmount
	}

	minor := amount.Shift(decimalPlaces).Round(0)
	if !minor.IsPositive() {
		return 0, ErrInvalidAmount
	}

	if minor.GreaterThan(maxMinorUnits) {
		return 0, errAmountTooLarge
	}

	return minor.IntPart(), nil
}

// ToDecimal converts minor units back into a display amount.
func ToDecimal(minor int64, decimalPlaces int32) decimal.Decimal {
	return decimal.New(minor, -decimalPlaces)
}

// FormatMinorUnits renders minor units with exactly decimalPlaces fractional digits.
func FormatMinorUnits(minor int64, decimalPlaces int32) string {
	return ToDecimal(minor, decimalPlaces).StringFixed(decimalPlaces)
}

// ParseAmount parses a user supplied decimal string.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	return d, nil
}

// ValidateDecimalPlaces checks a currency scale.
func ValidateDecimalPlaces(decimalPlaces int32) error {
	if decimalPlaces < 0 || decimalPlaces > MaxDecimalPlaces {
		return fmt.Errorf("%w: must be between 0 and %d", ErrInvalidDecimalPlaces, MaxDecimalPlaces)
	}
	return nil
}

// Money is an exact amount of minor units of a single currency.
type Money struct {
	Amount   int64
	Currency Currency
}

// NewMoney builds a Money value from a display amount.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	minor, err := ToMinorUnits(amount, currency.DecimalPlaces)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: minor, Currency: currency}, nil
}

// Add returns m + other. Both values must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency.Code != other.Currency.Code {
		return Money{}, ErrCurrencyMismatch
	}
	if other.Amount > 0 && m.Amount > math.MaxInt64-other.Amount {
		return Money{}, fmt.Errorf("%w: sum overflows", ErrInvalidAmount)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub returns m - other and refuses to go below zero.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency.Code != other.Currency.Code {
		return Money{}, ErrCurrencyMismatch
	}
	if other.Amount > m.Amount {
		return Money{}, ErrInsufficientBalance
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Decimal returns the display amount.
func (m Money) Decimal() decimal.Decimal {
	return ToDecimal(m.Amount, m.Currency.DecimalPlaces)
}

func (m Money) String() string {
	return FormatMinorUnits(m.Amount, m.Currency.DecimalPlaces) + " " + m.Currency.Code
}
