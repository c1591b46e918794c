package domain_test

import (
	"math"
	"testing"

	"github.com/aretw0/loaves/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bread(price float64) domain.LineItem {
	return domain.LineItem{
		ID:       "bread1",
		Title:    "Sourdough",
		ImageURL: "/img/sourdough.jpg",
		Text:     "Naturally leavened country loaf",
		Price:    domain.Price(price),
	}
}

func TestCart_AddSameIDAccumulatesQuantity(t *testing.T) {
	for _, calls := range []int{1, 2, 5, 17} {
		var cart domain.Cart
		for i := 0; i < calls; i++ {
			cart.Add(bread(5))
		}
		require.Equal(t, 1, cart.Len(), "one line item per id")
		assert.Equal(t, calls, cart.Quantity("bread1"))
	}
}

func TestCart_AddKeepsFirstSeenAttributes(t *testing.T) {
	var cart domain.Cart
	cart.Add(bread(5))

	changed := bread(9)
	changed.Title = "Renamed"
	changed.Quantity = 40
	line := cart.Add(changed)

	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "Sourdough", line.Title)
	assert.Equal(t, domain.Price(5), line.Price)
}

func TestCart_AddIgnoresIncomingQuantity(t *testing.T) {
	var cart domain.Cart
	item := bread(5)
	item.Quantity = 12
	line := cart.Add(item)
	assert.Equal(t, 1, line.Quantity)
}

func TestCart_AddPreservesOrder(t *testing.T) {
	var cart domain.Cart
	cart.Add(domain.LineItem{ID: "a"})
	cart.Add(domain.LineItem{ID: "b"})
	cart.Add(domain.LineItem{ID: "a"})
	cart.Add(domain.LineItem{ID: "c"})

	ids := []string{}
	for _, item := range cart.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestCart_SetQuantity(t *testing.T) {
	t.Run("positive sets", func(t *testing.T) {
		var cart domain.Cart
		cart.Add(bread(5))
		assert.True(t, cart.SetQuantity("bread1", 3))
		assert.Equal(t, 3, cart.Quantity("bread1"))
	})

	t.Run("zero removes", func(t *testing.T) {
		var cart domain.Cart
		cart.Add(bread(5))
		assert.True(t, cart.SetQuantity("bread1", 0))
		_, ok := cart.Find("bread1")
		assert.False(t, ok)
		assert.Equal(t, 0, cart.Len())
	})

	t.Run("negative removes", func(t *testing.T) {
		var cart domain.Cart
		cart.Add(bread(5))
		cart.Add(domain.LineItem{ID: "roll"})
		cart.SetQuantity("bread1", -4)
		assert.Equal(t, 1, cart.Len())
		assert.Equal(t, "roll", cart.Items[0].ID)
	})

	t.Run("absent id is a no-op", func(t *testing.T) {
		var cart domain.Cart
		assert.False(t, cart.SetQuantity("nonexistent", 5))
		assert.Equal(t, 0, cart.Len())
	})
}

func TestCart_TotalSkipsNonNumericPrices(t *testing.T) {
	var cart domain.Cart
	cart.Add(bread(5))
	cart.Add(bread(5))
	cart.Add(domain.LineItem{ID: "mystery", Price: domain.NaNPrice()})
	cart.Add(domain.LineItem{ID: "roll", Price: domain.Price(1.25)})

	assert.InDelta(t, 11.25, cart.Total(), 1e-9)
	assert.Equal(t, 4, cart.Count())
}

func TestCart_SnapshotIsIndependent(t *testing.T) {
	var cart domain.Cart
	cart.Add(bread(5))

	snap := cart.Snapshot()
	cart.SetQuantity("bread1", 7)

	assert.Equal(t, 1, snap.Quantity("bread1"))
	assert.NotNil(t, domain.Cart{}.Lines(), "Lines never returns nil")
}

func TestCart_Clear(t *testing.T) {
	var cart domain.Cart
	cart.Add(bread(5))
	cart.Add(domain.LineItem{ID: "roll"})
	cart.Clear()
	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, 0.0, cart.Total())
}

func TestQuantityFromFloat(t *testing.T) {
	for _, f := range []float64{0, -3, 7, 3e9, 2.0} {
		q, err := domain.QuantityFromFloat(f)
		require.NoError(t, err, f)
		assert.Equal(t, int(f), q)
	}

	for _, f := range []float64{1.5, math.NaN(), math.Inf(1), 1e30, -1e30} {
		_, err := domain.QuantityFromFloat(f)
		assert.ErrorIs(t, err, domain.ErrInvalidData, f)
	}
}
