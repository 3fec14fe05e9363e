// Package money holds FPL prices as fixed-point tenths of a million so that
// budget arithmetic never goes through floating point.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the only currency glyph answers are allowed to carry.
const Symbol = "£"

// Price is an amount in tenths of £1m, the unit FPL uses for now_cost and
// selling_price: Price(123) is £12.3m.
type Price int64

// Decimal returns the amount in millions.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -1)
}

// Millions is a float view for scoring; never use it for money arithmetic.
func (p Price) Millions() float64 {
	f, _ := p.Decimal().Float64()
	return f
}

// String renders the price the way answers must quote it, e.g. "£12.3m".
func (p Price) String() string {
	if p < 0 {
		return "-" + Symbol + (-p).Decimal().StringFixed(1) + "m"
	}
	return Symbol + p.Decimal().StringFixed(1) + "m"
}

// Signed is String with an explicit "+" for non-negative deltas.
func (p Price) Signed() string {
	if p >= 0 {
		return "+" + p.String()
	}
	return p.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal().StringFixed(1)), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// FromMillions rounds a millions amount to the nearest tenth.
func FromMillions(m float64) Price {
	return Price(decimal.NewFromFloat(m).Shift(1).Round(0).IntPart())
}

// Parse accepts "12.3", "12.3m" and "£12.3m".
func Parse(s string) (Price, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, Symbol)
	raw = strings.TrimSuffix(strings.TrimSuffix(raw, "m"), "M")
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return Price(d.Shift(1).Round(0).IntPart()), nil
}

func Max(a, b Price) Price {
	if a > b {
		return a
	}
	return b
}

func Min(a, b Price) Price {
	if a < b {
		return a
	}
	return b
}
