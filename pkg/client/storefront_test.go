package client_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/loaves/pkg/client"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flush(t *testing.T, s *client.Storefront) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func newStorefront(t *testing.T, api client.CartAPI, page *client.Page, opts ...client.Option) *client.Storefront {
	t.Helper()
	s := client.NewStorefront(api, page, opts...)
	t.Cleanup(s.Close)
	return s
}

func TestStorefront_SyncActivatesControls(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()
	_, _ = c.AddItem(ctx, menu[0].LineItem())
	_, _ = c.AddItem(ctx, menu[0].LineItem())
	_, _ = c.AddItem(ctx, domain.LineItem{ID: "off-menu", Price: 3})

	s := newStorefront(t, c, client.NewMenuPage(menu))
	require.NoError(t, s.Sync(ctx))

	view := s.View()
	bread, ok := view.Control("bread1")
	require.True(t, ok)
	assert.Equal(t, client.Active, bread.State)
	assert.Equal(t, 2, bread.Quantity)

	roll, _ := view.Control("roll")
	assert.Equal(t, client.Idle, roll.State)

	_, ok = view.Control("off-menu")
	assert.False(t, ok, "items without a card are not shown")
	assert.Equal(t, 3, view.Count, "the badge counts the whole cart")
	assert.True(t, view.BadgeVisible)
	assert.InDelta(t, 10.0, view.Total, 1e-9)
}

func TestStorefront_ActivateAndStep(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()
	s := newStorefront(t, c, client.NewMenuPage(menu))
	require.NoError(t, s.Sync(ctx))

	require.NoError(t, s.Activate("roll"))
	require.NoError(t, s.Activate("roll"), "second activation is ignored")

	ctl, _ := s.View().Control("roll")
	assert.Equal(t, client.Active, ctl.State)
	assert.Equal(t, 1, ctl.Quantity)

	require.NoError(t, s.Increment("roll"))
	require.NoError(t, s.Increment("roll"))
	flush(t, s)

	server, err := c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, server.Quantity("roll"))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Decrement("roll"))
	}
	flush(t, s)

	ctl, _ = s.View().Control("roll")
	assert.Equal(t, client.Idle, ctl.State)
	assert.True(t, s.View().Empty)
	assert.False(t, s.View().BadgeVisible)

	server, err = c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, server.Len())

	assert.ErrorIs(t, s.Decrement("roll"), client.ErrInactive)
	assert.ErrorIs(t, s.Increment("roll"), client.ErrInactive)
	assert.ErrorIs(t, s.Activate("croissant"), client.ErrNoCard)
}

func TestStorefront_CallsKeepOrder(t *testing.T) {
	c := newClient(t, newServer(t))
	s := newStorefront(t, c, client.NewMenuPage(menu))

	require.NoError(t, s.Activate("bagel"))
	for i := 0; i < 25; i++ {
		require.NoError(t, s.Increment("bagel"))
	}
	require.NoError(t, s.Decrement("bagel"))
	flush(t, s)

	server, err := c.Cart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, server.Quantity("bagel"))
	assert.Equal(t, 25, s.Cart().Quantity("bagel"))
}

func TestStorefront_CartPageRemove(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()
	_, _ = c.AddItem(ctx, menu[0].LineItem())
	_, _ = c.AddItem(ctx, menu[0].LineItem())
	server, err := c.AddItem(ctx, menu[1].LineItem())
	require.NoError(t, err)

	s := newStorefront(t, c, client.NewCartPage(server))
	require.NoError(t, s.Sync(ctx))
	assert.InDelta(t, 11.5, s.View().Total, 1e-9)

	require.NoError(t, s.Remove("bread1"))
	ctl, ok := s.View().Control("bread1")
	require.True(t, ok)
	assert.Equal(t, 1, ctl.Quantity)

	require.NoError(t, s.Remove("bread1"))
	_, ok = s.View().Control("bread1")
	assert.False(t, ok, "the card leaves the page at the last unit")
	assert.InDelta(t, 1.5, s.View().Total, 1e-9)
	flush(t, s)

	server, err = c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, server.Quantity("bread1"))
	assert.Equal(t, 1, server.Quantity("roll"))

	menuPage := newStorefront(t, c, client.NewMenuPage(menu))
	assert.ErrorIs(t, menuPage.Remove("roll"), client.ErrNotCartPage)
}

// fakeAPI mirrors the server cart in memory and can fail on demand.
type fakeAPI struct {
	mu    sync.Mutex
	cart  domain.Cart
	fail  bool
	calls int
}

var errOffline = errors.New("offline")

func (f *fakeAPI) Cart(context.Context) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart.Snapshot(), nil
}

func (f *fakeAPI) AddItem(_ context.Context, item domain.LineItem) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return domain.Cart{}, errOffline
	}
	f.cart.Add(item)
	return f.cart.Snapshot(), nil
}

func (f *fakeAPI) UpdateQuantity(_ context.Context, id string, quantity int) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return domain.Cart{}, errOffline
	}
	f.cart.SetQuantity(id, quantity)
	return f.cart.Snapshot(), nil
}

func (f *fakeAPI) set(fn func(*fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func TestStorefront_FailuresAreNotRolledBack(t *testing.T) {
	api := &fakeAPI{fail: true}
	s := newStorefront(t, api, client.NewMenuPage(menu))

	require.NoError(t, s.Activate("roll"))
	require.NoError(t, s.Increment("roll"))
	flush(t, s)

	ctl, _ := s.View().Control("roll")
	assert.Equal(t, client.Active, ctl.State)
	assert.Equal(t, 2, ctl.Quantity, "optimistic state survives failed calls")
	assert.Equal(t, 2, api.calls)
}

func TestStorefront_ReconcilesDrift(t *testing.T) {
	api := &fakeAPI{}
	s := newStorefront(t, api, client.NewMenuPage(menu))

	require.NoError(t, s.Activate("bread1"))
	flush(t, s)

	// Another tab changes the cart behind the page's back.
	api.set(func(f *fakeAPI) {
		f.cart.SetQuantity("bread1", 4)
		f.cart.Add(menu[2].LineItem())
	})

	require.NoError(t, s.Increment("bread1"))
	flush(t, s)

	local := s.Cart()
	assert.Equal(t, 2, local.Quantity("bread1"), "the server answer to the last call wins")
	assert.Equal(t, 1, local.Quantity("bagel"))
	assert.Nil(t, domain.DiffCarts(local, api.cart))
}

func TestStorefront_ReconcileAfterFailureRecovers(t *testing.T) {
	api := &fakeAPI{}
	s := newStorefront(t, api, client.NewMenuPage(menu))

	require.NoError(t, s.Activate("roll"))
	flush(t, s)

	api.set(func(f *fakeAPI) { f.fail = true })
	require.NoError(t, s.Increment("roll"))
	flush(t, s)
	assert.Equal(t, 2, s.Cart().Quantity("roll"))

	api.set(func(f *fakeAPI) { f.fail = false })
	require.NoError(t, s.Activate("bagel"))
	flush(t, s)

	assert.Equal(t, 1, s.Cart().Quantity("roll"), "drift from the lost call is corrected")
	assert.Equal(t, 1, s.Cart().Quantity("bagel"))
}

func TestStorefront_WithoutReconcile(t *testing.T) {
	api := &fakeAPI{}
	s := newStorefront(t, api, client.NewMenuPage(menu), client.WithReconcile(false))

	require.NoError(t, s.Activate("bread1"))
	flush(t, s)
	api.set(func(f *fakeAPI) { f.cart.Add(menu[2].LineItem()) })

	require.NoError(t, s.Increment("bread1"))
	flush(t, s)

	assert.Equal(t, 0, s.Cart().Quantity("bagel"), "local state is trusted")
}

func TestStorefront_OnChange(t *testing.T) {
	var mu sync.Mutex
	var counts []int

	api := &fakeAPI{}
	s := newStorefront(t, api, client.NewMenuPage(menu), client.WithOnChange(func(v client.ViewState) {
		mu.Lock()
		defer mu.Unlock()
		counts = append(counts, v.Count)
	}))

	require.NoError(t, s.Activate("roll"))
	require.NoError(t, s.Increment("roll"))
	flush(t, s)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, counts)
}

func TestStorefront_OnChangeNeverGoesBack(t *testing.T) {
	var mu sync.Mutex
	var counts []int
	release := make(chan struct{})

	api := &fakeAPI{}
	api.cart.Add(menu[2].LineItem())
	s := newStorefront(t, api, client.NewMenuPage(menu), client.WithOnChange(func(v client.ViewState) {
		mu.Lock()
		counts = append(counts, v.Count)
		mu.Unlock()
		if v.Count == 1 {
			<-release
		}
	}))

	// The first delivery stalls, so the reconciled view and the next
	// optimistic view both wait for it.
	go func() { _ = s.Activate("roll") }()
	require.Eventually(t, func() bool { return s.View().Count == 2 }, 5*time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Increment("roll")
	}()
	require.Eventually(t, func() bool { return s.View().Count == 3 }, 5*time.Second, time.Millisecond)

	close(release)
	<-done
	flush(t, s)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, counts)
	assert.Equal(t, 3, counts[len(counts)-1], "the latest view is delivered last")
	assert.IsNonDecreasing(t, counts)
}

func TestStorefront_CountIncludesOffPageItems(t *testing.T) {
	api := &fakeAPI{}
	api.cart.Add(menu[2].LineItem())
	s := newStorefront(t, api, client.NewMenuPage(menu[:2]))

	require.NoError(t, s.Sync(context.Background()))

	v := s.View()
	assert.Equal(t, 1, v.Count, "the bagel has no card here but still counts")
	assert.True(t, v.BadgeVisible)
	assert.Zero(t, v.Total)
}

func TestStorefront_Close(t *testing.T) {
	api := &fakeAPI{}
	s := client.NewStorefront(api, client.NewMenuPage(menu))

	require.NoError(t, s.Activate("roll"))
	s.Close()

	assert.Equal(t, 1, api.cart.Quantity("roll"), "queued calls are drained")
	assert.ErrorIs(t, s.Increment("roll"), client.ErrClosed)
}
