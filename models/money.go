package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is an amount of money in minor currency units.
type Cents int64

// maxUnits is the largest whole-unit part that still fits in Cents.
const maxUnits = (math.MaxInt64 - 99) / 100

// Dollars converts a whole-unit amount to Cents.
func Dollars(n int64) Cents {
	return Cents(n * 100)
}

// ParseCents parses a decimal amount such as "20", "20.5" or "20.50".
// More than two fractional digits is an error.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidInput)
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: amount %q has more than two decimals", ErrInvalidInput, s)
	}
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	if strings.ContainsAny(whole+frac, "+-") {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("%w: amount %q is too large", ErrInvalidInput, s)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q", ErrInvalidInput, s)
	}

	c := Cents(units*100 + minor)
	if negative {
		c = -c
	}
	return c, nil
}

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(c)/100, int64(c)%100)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
