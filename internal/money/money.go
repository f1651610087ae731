// Package money parses and formats Kenyan Shilling amounts.
package money

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// KES is the currency every amount in the system is denominated in.
var KES = currency.MustParseISO("KES")

// Stored amounts hold at most MaxDigits digits, DecimalPlaces of them after the point.
const (
	MaxDigits     = 10
	DecimalPlaces = 2
)

var maxAmount = decimal.New(1, MaxDigits-DecimalPlaces)

var (
	ErrEmpty       = errors.New("amount is required")
	ErrNotNumeric  = errors.New("amount must be numeric")
	ErrNotPositive = errors.New("amount must be greater than zero")
	ErrTooPrecise  = errors.New("amount must have at most 2 decimal places")
	ErrTooLarge    = errors.New("amount must have at most 10 digits")
)

// Check reports whether d fits a stored amount column.
func Check(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(DecimalPlaces)) {
		return ErrTooPrecise
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return ErrTooLarge
	}
	return nil
}

// Parse reads a user-entered amount such as "1,250.50" or "KES 300".
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, KES.String())
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return d, nil
}

// ParsePositive is Parse that also rejects zero and negative amounts.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrNotPositive
	}
	return d, nil
}

// Formatter renders amounts for one display locale.
type Formatter struct {
	group string
}

// NewFormatter returns a Formatter for the given locale tag.
func NewFormatter(tag language.Tag) *Formatter {
	sample := message.NewPrinter(tag).Sprintf("%d", 1000)
	return &Formatter{group: strings.TrimFunc(sample, unicode.IsDigit)}
}

var english = NewFormatter(language.English)

// Format renders an amount as "KES 1,234.50" using English grouping.
func Format(d decimal.Decimal) string {
	return english.Format(d)
}

// Format renders d with the currency code, locale-aware digit grouping and two decimals.
func (f *Formatter) Format(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return fmt.Sprintf("%s%s %s.%s", sign, KES, f.groupDigits(whole), frac)
}

func (f *Formatter) groupDigits(whole string) string {
	if f.group == "" || len(whole) <= 3 {
		return whole
	}
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteString(f.group)
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String()
}
