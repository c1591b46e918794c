package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
)

// DefaultTimeout bounds each API call.
const DefaultTimeout = 10 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("cart api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("cart api: %d %s", e.Status, e.Message)
}

// Client calls the Cart API with a persistent session cookie.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its jar is replaced
// when nil and redirects are never followed.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type cartResponse struct {
	Cart []domain.LineItem `json:"cart"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out (if not nil).
// Redirects count as success.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if resp.StatusCode >= 300 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) cart(ctx context.Context, method, path string, body any) (domain.Cart, error) {
	var resp cartResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return domain.Cart{}, err
	}
	return domain.Cart{Items: resp.Cart}, nil
}

// Cart fetches the session's cart.
func (c *Client) Cart(ctx context.Context) (domain.Cart, error) {
	return c.cart(ctx, http.MethodGet, "/api/cart", nil)
}

// AddItem adds one unit of item and returns the updated cart.
func (c *Client) AddItem(ctx context.Context, item domain.LineItem) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/add-to-cart", map[string]any{
		"id":       item.ID,
		"title":    item.Title,
		"imageURL": item.ImageURL,
		"text":     item.Text,
		"price":    item.Price,
	})
}

// UpdateQuantity sets the quantity of a line item; zero or less removes it.
func (c *Client) UpdateQuantity(ctx context.Context, id string, quantity int) (domain.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/update-cart", map[string]any{
		"id":       id,
		"quantity": quantity,
	})
}

// ClearCart empties the cart. The redirect to the cart view is not followed.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clear-cart", nil, nil)
}

// Checkout places the order and returns the receipt.
func (c *Client) Checkout(ctx context.Context) (domain.Receipt, error) {
	var receipt domain.Receipt
	if err := c.do(ctx, http.MethodPost, "/thankyou", nil, &receipt); err != nil {
		return domain.Receipt{}, err
	}
	return receipt, nil
}

// Menu returns the product cards offered by the server.
func (c *Client) Menu(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/menu", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}
