package domain

import (
	"math"
	"time"
)

// LineItem is one product entry in a cart with its quantity.
// The JSON names match the attributes the product cards send.
type LineItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageURL"`
	Text     string `json:"text"`
	Price    Price  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Subtotal returns price times quantity, or 0 when the price is not a number.
func (i LineItem) Subtotal() float64 {
	if !i.Price.Valid() {
		return 0
	}
	return i.Price.Float() * float64(i.Quantity)
}

// Cart is the ordered collection of line items owned by one session.
// There is at most one line item per ID and no line item has a quantity
// below 1: a quantity of zero means the item is not in the cart.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Len returns the number of distinct line items.
func (c Cart) Len() int {
	return len(c.Items)
}

// Find returns the line item with the given ID.
func (c Cart) Find(id string) (LineItem, bool) {
	if i := c.index(id); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Quantity returns the quantity of the given ID, 0 when absent.
func (c Cart) Quantity(id string) int {
	item, _ := c.Find(id)
	return item.Quantity
}

func (c Cart) index(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add puts one unit of item in the cart.
// When the ID is already present only its quantity grows: the stored title,
// price and other attributes win over the incoming ones. Otherwise the item
// is appended with a quantity of 1. The resulting line item is returned.
func (c *Cart) Add(item LineItem) LineItem {
	if i := c.index(item.ID); i >= 0 {
		c.Items[i].Quantity++
		return c.Items[i]
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
	return item
}

// SetQuantity sets the quantity of an existing line item.
// A quantity <= 0 removes the item. An absent ID is left alone.
// It reports whether the ID was present.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = quantity
	return true
}

// Remove deletes the line item with the given ID.
func (c *Cart) Remove(id string) bool {
	return c.SetQuantity(id, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Count returns the total number of units across all line items.
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Total returns the monetary total. Items whose price is not a number are skipped.
func (c Cart) Total() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// Lines returns a copy of the line items that is never nil.
func (c Cart) Lines() []LineItem {
	lines := make([]LineItem, len(c.Items))
	copy(lines, c.Items)
	return lines
}

// Snapshot returns a deep copy of the cart.
func (c Cart) Snapshot() Cart {
	if c.Items == nil {
		return Cart{}
	}
	return Cart{Items: c.Lines()}
}

// QuantityFromFloat converts a decoded number to a quantity. Any integral
// value that fits an int is accepted; there is no upper bound beyond that.
func QuantityFromFloat(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &ValidationError{Field: "quantity"}
	}
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, &ValidationError{Field: "quantity"}
	}
	return int(f), nil
}

// Receipt records a checked-out cart.
type Receipt struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Count     int        `json:"count"`
	Total     float64    `json:"total"`
	PlacedAt  time.Time  `json:"placed_at"`
}
