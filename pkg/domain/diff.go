package domain

// CartDiff represents what a client must change in its local cart to match
// the server cart. It is designed to be serialized to JSON for partial
// updates on the client.
type CartDiff struct {
	// Quantities holds the server quantity of every line item present in
	// both carts with a different quantity. Items only present locally are
	// listed with 0, which means removed.
	Quantities map[string]int `json:"quantities,omitempty"`

	// Added contains line items only the server knows about.
	Added []LineItem `json:"added,omitempty"`
}

// DiffCarts calculates the difference between a local cart and the server cart.
// Attributes other than the quantity are not compared: the server keeps the
// first-seen attributes and clients render whatever their page shows.
// It returns nil when both carts hold the same quantities.
func DiffCarts(local, server Cart) *CartDiff {
	diff := &CartDiff{}

	for _, item := range server.Items {
		localItem, ok := local.Find(item.ID)
		if !ok {
			diff.Added = append(diff.Added, item)
			continue
		}
		if localItem.Quantity != item.Quantity {
			diff.setQuantity(item.ID, item.Quantity)
		}
	}

	for _, item := range local.Items {
		if _, ok := server.Find(item.ID); !ok {
			diff.setQuantity(item.ID, 0)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func (d *CartDiff) setQuantity(id string, quantity int) {
	if d.Quantities == nil {
		d.Quantities = make(map[string]int)
	}
	d.Quantities[id] = quantity
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *CartDiff) IsEmpty() bool {
	return d == nil || (len(d.Quantities) == 0 && len(d.Added) == 0)
}

// Apply brings the cart in line with the diff.
func (c *Cart) Apply(d *CartDiff) {
	if d.IsEmpty() {
		return
	}
	for id, quantity := range d.Quantities {
		c.SetQuantity(id, quantity)
	}
	for _, item := range d.Added {
		if _, ok := c.Find(item.ID); !ok {
			c.Items = append(c.Items, item)
		}
	}
}
