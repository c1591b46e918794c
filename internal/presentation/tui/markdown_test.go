package tui

import (
	"testing"

	"github.com/aretw0/loaves/pkg/client"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestMenuMarkdown(t *testing.T) {
	products := []domain.Product{
		{ID: "bread1", Title: "Sourdough", Price: 5},
		{ID: "odd", Title: "Mystery", Price: domain.NaNPrice()},
	}
	view := client.ViewState{
		Count:        2,
		BadgeVisible: true,
		Controls: []client.Control{
			{ID: "bread1", State: client.Active, Quantity: 2},
			{ID: "odd", State: client.Idle},
		},
	}

	md := MenuMarkdown(products, view)
	assert.Contains(t, md, "| `bread1` | **Sourdough**")
	assert.Contains(t, md, "$5.00")
	assert.Contains(t, md, "− 2 +")
	assert.Contains(t, md, "n/a")
	assert.Contains(t, md, "🛒 2")

	assert.Contains(t, MenuMarkdown(nil, client.ViewState{}), "The menu is empty")
}

func TestCartMarkdown(t *testing.T) {
	assert.Contains(t, CartMarkdown(client.ViewState{Empty: true}), "Your Cart is empty")

	md := CartMarkdown(client.ViewState{
		Count:        3,
		BadgeVisible: true,
		Total:        11.5,
		Controls: []client.Control{
			{ID: "bread1", Title: "Sourdough", State: client.Active, Quantity: 2, Price: 5},
			{ID: "roll", Title: "Roll", State: client.Active, Quantity: 1, Price: 1.5},
		},
	})
	assert.Contains(t, md, "**Sourdough** - 2 selected ($10.00)")
	assert.Contains(t, md, "**Total: $11.50**")
}

func TestReceiptMarkdown(t *testing.T) {
	assert.Contains(t, ReceiptMarkdown(domain.Receipt{}), "nothing was ordered")

	md := ReceiptMarkdown(domain.Receipt{
		Items: []domain.LineItem{{ID: "roll", Title: "Roll", Quantity: 3}},
		Count: 3,
		Total: 4.5,
	})
	assert.Contains(t, md, "3 item(s)")
	assert.Contains(t, md, "3 × Roll")
	assert.Contains(t, md, "$4.50")
}
