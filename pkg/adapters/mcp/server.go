package mcp

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
	"github.com/aretw0/loaves/pkg/ports"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MenuURI is the resource exposing the product catalog.
const MenuURI = "loaves://menu"

// CartResponse is the structured result of every cart tool.
type CartResponse struct {
	SessionID string            `json:"session_id" jsonschema_description:"The session owning the cart; pass it to later calls"`
	Items     []domain.LineItem `json:"items" jsonschema_description:"Line items in insertion order"`
	Count     int               `json:"count" jsonschema_description:"Total number of units"`
	Total     float64           `json:"total" jsonschema_description:"Sum of price times quantity over numeric prices"`
}

// SessionArgs identifies the cart a tool operates on.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// AddItemArgs are the arguments of add_item.
type AddItemArgs struct {
	SessionID string   `json:"session_id"`
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	ImageURL  string   `json:"image_url"`
	Text      string   `json:"text"`
	Price     *float64 `json:"price"`
}

// UpdateQuantityArgs are the arguments of update_quantity.
type UpdateQuantityArgs struct {
	SessionID string   `json:"session_id"`
	ID        string   `json:"id"`
	Quantity  *float64 `json:"quantity"`
}

// Server exposes the cart service as an MCP Server.
type Server struct {
	service   ports.CartService
	catalog   ports.Catalog
	newID     func() string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the session ID generator used when a tool call
// carries no session.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// NewServer creates a new MCP Server instance. The catalog may be nil.
func NewServer(service ports.CartService, catalog ports.Catalog, opts ...Option) *Server {
	s := &Server{
		service: service,
		catalog: catalog,
		newID:   uuid.NewString,
		logger:  logging.NewNop(),
		mcpServer: server.NewMCPServer("loaves-mcp", strings.TrimSpace(loaves.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionParam := mcp.WithString("session_id", mcp.Description("Session ID returned by a previous call (optional for add_item)"))

	s.mcpServer.AddTool(mcp.NewTool("get_cart",
		mcp.WithDescription("Return the cart of a session. Unknown sessions have an empty cart."),
		sessionParam,
		mcp.WithOutputSchema[CartResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetCart))

	s.mcpServer.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Add one unit of a product. Catalog products only need their id; other attributes are used for unknown ids."),
		sessionParam,
		mcp.WithString("id", mcp.Required(), mcp.Description("Product ID")),
		mcp.WithString("title", mcp.Description("Product title")),
		mcp.WithString("image_url", mcp.Description("Product image URL")),
		mcp.WithString("text", mcp.Description("Product description")),
		mcp.WithNumber("price", mcp.Description("Unit price")),
		mcp.WithOutputSchema[CartResponse](),
	), mcp.NewStructuredToolHandler(s.handleAddItem))

	s.mcpServer.AddTool(mcp.NewTool("update_quantity",
		mcp.WithDescription("Set the quantity of a line item. Zero or less removes it; unknown ids are ignored."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Product ID")),
		mcp.WithNumber("quantity", mcp.Required(), mcp.Description("New quantity (integer)")),
		mcp.WithOutputSchema[CartResponse](),
	), mcp.NewStructuredToolHandler(s.handleUpdateQuantity))

	s.mcpServer.AddTool(mcp.NewTool("clear_cart",
		mcp.WithDescription("Empty the cart of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[CartResponse](),
	), mcp.NewStructuredToolHandler(s.handleClearCart))
}

func cartResponse(sessionID string, c domain.Cart) CartResponse {
	return CartResponse{
		SessionID: sessionID,
		Items:     c.Lines(),
		Count:     c.Count(),
		Total:     c.Total(),
	}
}

func (s *Server) handleGetCart(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (CartResponse, error) {
	c, err := s.service.Get(ctx, args.SessionID)
	if err != nil {
		return CartResponse{}, fmt.Errorf("get cart failed: %w", err)
	}
	return cartResponse(args.SessionID, c), nil
}

func (s *Server) handleAddItem(ctx context.Context, _ mcp.CallToolRequest, args AddItemArgs) (CartResponse, error) {
	item := domain.LineItem{
		ID:       args.ID,
		Title:    args.Title,
		ImageURL: args.ImageURL,
		Text:     args.Text,
		Price:    domain.NaNPrice(),
	}
	if args.Price != nil {
		item.Price = domain.Price(*args.Price)
	}

	if s.catalog != nil && args.ID != "" {
		p, err := s.catalog.Product(ctx, args.ID)
		switch {
		case err == nil:
			item = p.LineItem()
		case !errors.Is(err, domain.ErrProductNotFound):
			return CartResponse{}, fmt.Errorf("catalog lookup failed: %w", err)
		}
	}

	sid := args.SessionID
	if sid == "" {
		sid = s.newID()
	}

	c, err := s.service.Add(ctx, sid, item)
	if err != nil {
		return CartResponse{}, fmt.Errorf("add item failed: %w", err)
	}
	return cartResponse(sid, c), nil
}

func (s *Server) handleUpdateQuantity(ctx context.Context, _ mcp.CallToolRequest, args UpdateQuantityArgs) (CartResponse, error) {
	if args.SessionID == "" {
		return CartResponse{}, domain.ErrMissingSession
	}

	var quantity *int
	if args.Quantity != nil {
		n, err := domain.QuantityFromFloat(*args.Quantity)
		if err != nil {
			return CartResponse{}, err
		}
		quantity = &n
	}

	c, err := s.service.UpdateQuantity(ctx, args.SessionID, args.ID, quantity)
	if err != nil {
		return CartResponse{}, fmt.Errorf("update quantity failed: %w", err)
	}
	return cartResponse(args.SessionID, c), nil
}

func (s *Server) handleClearCart(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (CartResponse, error) {
	if err := s.service.Clear(ctx, args.SessionID); err != nil {
		return CartResponse{}, fmt.Errorf("clear cart failed: %w", err)
	}
	return cartResponse(args.SessionID, domain.Cart{}), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(MenuURI, "Product Menu",
		mcp.WithResourceDescription("Product cards that can be added to a cart"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		products := []domain.Product{}
		if s.catalog != nil {
			var err error
			if products, err = s.catalog.Products(ctx); err != nil {
				return nil, fmt.Errorf("failed to list products: %w", err)
			}
		}
		jsonBytes, err := json.Marshal(products)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      MenuURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
