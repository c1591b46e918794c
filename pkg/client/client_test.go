package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	httpAdapter "github.com/aretw0/loaves/pkg/adapters/http"
	"github.com/aretw0/loaves/pkg/adapters/memory"
	"github.com/aretw0/loaves/pkg/cart"
	"github.com/aretw0/loaves/pkg/client"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var menu = []domain.Product{
	{ID: "bread1", Title: "Sourdough", Text: "Country loaf", Price: 5},
	{ID: "roll", Title: "Roll", Price: 1.5},
	{ID: "bagel", Title: "Bagel", Price: 2},
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog, err := memory.NewCatalog(menu...)
	require.NoError(t, err)

	svc := cart.NewService(session.NewManager(memory.NewStore()))
	srv := httptest.NewServer(httpAdapter.NewHandler(svc,
		httpAdapter.WithCatalog(catalog),
		httpAdapter.WithCookie(httpAdapter.CookieConfig{Secret: []byte("test")}),
	))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestClient_CartLifecycle(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()

	empty, err := c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = c.AddItem(ctx, menu[0].LineItem())
	require.NoError(t, err)
	got, err := c.AddItem(ctx, menu[0].LineItem())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity("bread1"))
	assert.InDelta(t, 10.0, got.Total(), 1e-9)

	got, err = c.UpdateQuantity(ctx, "bread1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity("bread1"))

	got, err = c.UpdateQuantity(ctx, "bread1", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())

	got, err = c.UpdateQuantity(ctx, "nonexistent", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestClient_ClearCart(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()

	_, err := c.AddItem(ctx, menu[1].LineItem())
	require.NoError(t, err)
	require.NoError(t, c.ClearCart(ctx))

	got, err := c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestClient_Checkout(t *testing.T) {
	c := newClient(t, newServer(t))
	ctx := context.Background()

	_, err := c.AddItem(ctx, menu[0].LineItem())
	require.NoError(t, err)
	_, err = c.AddItem(ctx, menu[2].LineItem())
	require.NoError(t, err)

	receipt, err := c.Checkout(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.Count)
	assert.InDelta(t, 7.0, receipt.Total, 1e-9)

	got, err := c.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestClient_Menu(t *testing.T) {
	c := newClient(t, newServer(t))

	products, err := c.Menu(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "bread1", products[0].ID)
}

func TestClient_SessionsAreIsolated(t *testing.T) {
	srv := newServer(t)
	a, b := newClient(t, srv), newClient(t, srv)
	ctx := context.Background()

	_, err := a.AddItem(ctx, menu[0].LineItem())
	require.NoError(t, err)

	got, err := b.Cart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestClient_APIError(t *testing.T) {
	c := newClient(t, newServer(t))

	_, err := c.UpdateQuantity(context.Background(), "", 1)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Invalid data", apiErr.Message)
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	srv.Close()

	_, err := c.Cart(context.Background())
	assert.Error(t, err)
	var apiErr *client.APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := client.New("not a url")
	assert.Error(t, err)

	_, err = client.New("localhost:8080")
	assert.Error(t, err)
}
