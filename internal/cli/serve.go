package cli

import (
	"context"
	"net/http"

	httpAdapter "github.com/aretw0/loaves/pkg/adapters/http"
)

// Handler builds the Cart API handler for the app.
func (a *App) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithCatalog(a.Catalog),
		httpAdapter.WithLogger(a.Logger),
		httpAdapter.WithCookie(httpAdapter.CookieConfig{
			Name:   a.Config.Session.CookieName,
			Secret: []byte(a.Config.Session.Secret),
			Secure: a.Config.Session.Secure,
		}),
	}
	if a.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(a.Metrics))
	}
	return httpAdapter.NewHandler(a.Service, opts...)
}

// Serve runs the Cart API on addr until ctx is done.
func (a *App) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.Config.ListenAddr()
	}
	a.StartJanitor(ctx)
	return httpAdapter.Serve(ctx, addr, a.Handler(), a.Logger)
}
