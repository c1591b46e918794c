package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Price is a unit price as submitted by a product card.
// Input that is not a number is kept as NaN rather than rejected; NaN prices
// are skipped when totals are computed and are encoded as JSON null.
type Price float64

// NaNPrice returns the price used for non-numeric input.
func NaNPrice() Price {
	return Price(math.NaN())
}

// Valid reports whether the price is a finite number.
func (p Price) Valid() bool {
	f := float64(p)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns the price as a float64.
func (p Price) Float() float64 {
	return float64(p)
}

// PriceFromString parses a decimal string such as "5.00".
func PriceFromString(s string) Price {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return NaNPrice()
	}
	return Price(f)
}

// ParsePrice decodes a raw JSON value. Numbers and numeric strings are
// accepted; null, missing and any other value yield NaN.
func ParsePrice(raw []byte) Price {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NaNPrice()
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return Price(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return PriceFromString(s)
	}

	return NaNPrice()
}

// MarshalJSON implements json.Marshaler.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = ParsePrice(data)
	return nil
}
