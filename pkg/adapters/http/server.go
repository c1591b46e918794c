package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/loaves"
	"github.com/aretw0/loaves/internal/logging"
	"github.com/aretw0/loaves/pkg/domain"
	"github.com/aretw0/loaves/pkg/observability"
	"github.com/aretw0/loaves/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Server exposes a CartService over HTTP with cookie-bound sessions.
type Server struct {
	service ports.CartService
	catalog ports.Catalog
	metrics *observability.Metrics
	cookies *cookieCodec
	cookie  CookieConfig
	newID   func() string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithCatalog serves the product cards on /api/menu.
func WithCatalog(c ports.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithMetrics instruments every request and exposes /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCookie configures the session cookie.
func WithCookie(cfg CookieConfig) Option {
	return func(s *Server) {
		s.cookie = cfg
	}
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the cart service.
func NewHandler(service ports.CartService, opts ...Option) http.Handler {
	s := &Server{
		service: service,
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var generated bool
	s.cookies, generated = newCookieCodec(s.cookie)
	if generated {
		s.logger.Warn("No session secret configured; using a random one, sessions will not survive a restart")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.recoverer)
	r.Use(s.withSession)

	r.Get("/api/cart", s.GetCart)
	r.Post("/add-to-cart", s.AddToCart)
	r.Post("/update-cart", s.UpdateCart)
	r.Post("/clear-cart", s.ClearCart)
	r.Get("/cart", s.ViewCart)
	r.Post("/thankyou", s.Checkout)
	r.Get("/api/menu", s.GetMenu)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return r
}

// cartResponse is the JSON shape of every cart-returning endpoint.
type cartResponse struct {
	Cart []domain.LineItem `json:"cart"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeCart(w http.ResponseWriter, c domain.Cart) {
	writeJSON(w, http.StatusOK, cartResponse{Cart: c.Lines()})
}

// fail logs an unhandled error with the request ID and answers 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "Request failed",
		"op", op,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
}

// invalid answers 400 for validation and decoding errors.
func (s *Server) invalid(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.DebugContext(r.Context(), "Rejected request",
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"err", err,
	)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidData) || errors.Is(err, errMalformed)
}

// wantsJSON reports whether the client prefers JSON over the HTML flow.
func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// GetCart handles GET /api/cart.
func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.Get(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.fail(w, r, "get cart", err)
		return
	}
	writeCart(w, c)
}

// AddToCart handles POST /add-to-cart.
func (s *Server) AddToCart(w http.ResponseWriter, r *http.Request) {
	item, err := decodeLineItem(w, r)
	if err != nil {
		s.invalid(w, r, err)
		return
	}

	c, err := s.service.Add(r.Context(), s.ensureSession(w, r), item)
	if err != nil {
		s.fail(w, r, "add item", err)
		return
	}
	writeCart(w, c)
}

// UpdateCart handles POST /update-cart.
func (s *Server) UpdateCart(w http.ResponseWriter, r *http.Request) {
	id, quantity, err := decodeUpdate(w, r)
	if err != nil {
		s.invalid(w, r, err)
		return
	}

	c, err := s.service.UpdateQuantity(r.Context(), s.ensureSession(w, r), id, &quantity)
	if err != nil {
		if isClientError(err) {
			s.invalid(w, r, err)
			return
		}
		s.fail(w, r, "update quantity", err)
		return
	}
	writeCart(w, c)
}

// ClearCart handles POST /clear-cart. Browsers are redirected to the cart
// view; clients asking for JSON get the empty cart.
func (s *Server) ClearCart(w http.ResponseWriter, r *http.Request) {
	if sid := sessionID(r.Context()); sid != "" {
		if err := s.service.Clear(r.Context(), sid); err != nil {
			s.fail(w, r, "clear cart", err)
			return
		}
	}

	if wantsJSON(r) {
		writeCart(w, domain.Cart{})
		return
	}
	http.Redirect(w, r, "/cart", http.StatusFound)
}

// ViewCart handles GET /cart.
func (s *Server) ViewCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.service.Get(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.fail(w, r, "view cart", err)
		return
	}
	s.render(w, r, http.StatusOK, "cart", pageData{
		Title: "Cart",
		Count: c.Count(),
		Items: c.Lines(),
		Total: c.Total(),
	})
}

// Checkout handles POST /thankyou.
func (s *Server) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt := domain.Receipt{Items: []domain.LineItem{}, PlacedAt: time.Now()}
	if sid := sessionID(r.Context()); sid != "" {
		var err error
		receipt, err = s.service.Checkout(r.Context(), sid)
		if err != nil {
			s.fail(w, r, "checkout", err)
			return
		}
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, receipt)
		return
	}

	message := "Your cart was empty, so nothing was ordered."
	if receipt.Count > 0 {
		message = fmt.Sprintf("Your order of %d item(s) has been placed. See you at the bakery!", receipt.Count)
	}
	s.render(w, r, http.StatusOK, "thankyou", pageData{
		Title:   "Thank you",
		Items:   receipt.Items,
		Total:   receipt.Total,
		Message: message,
	})
}

// GetMenu handles GET /api/menu.
func (s *Server) GetMenu(w http.ResponseWriter, r *http.Request) {
	products := []domain.Product{}
	if s.catalog != nil {
		var err error
		if products, err = s.catalog.Products(r.Context()); err != nil {
			s.fail(w, r, "list products", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Product{"products": products})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "loaves-http",
		"version":     strings.TrimSpace(loaves.Version),
		"api_version": apiVersion,
	})
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns panics into a logged 500 with a JSON body.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.fail(w, r, "panic", fmt.Errorf("%v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
