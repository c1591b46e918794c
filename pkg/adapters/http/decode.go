package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/loaves/pkg/domain"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var errMalformed = errors.New("malformed request body")

// addItemRequest is the add-to-cart payload: the attributes of a product card.
type addItemRequest struct {
	ID       json.RawMessage `json:"id"`
	Title    string          `json:"title"`
	ImageURL string          `json:"imageURL"`
	Text     string          `json:"text"`
	Price    domain.Price    `json:"price"`
}

// updateRequest is the update-cart payload.
type updateRequest struct {
	ID       json.RawMessage `json:"id"`
	Quantity json.RawMessage `json:"quantity"`
}

// isForm reports whether the body is an HTML form submission.
func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if len(bytes.TrimSpace(buf.Bytes())) == 0 {
		return nil // empty body decodes as an empty object
	}
	if err := json.Unmarshal(buf.Bytes(), v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// decodeLineItem reads an add-to-cart body from JSON or a form.
func decodeLineItem(w http.ResponseWriter, r *http.Request) (domain.LineItem, error) {
	if isForm(r) {
		if err := parseForm(w, r); err != nil {
			return domain.LineItem{}, err
		}
		return domain.LineItem{
			ID:       r.PostFormValue("id"),
			Title:    r.PostFormValue("title"),
			ImageURL: r.PostFormValue("imageURL"),
			Text:     r.PostFormValue("text"),
			Price:    domain.PriceFromString(r.PostFormValue("price")),
		}, nil
	}

	req := addItemRequest{Price: domain.NaNPrice()}
	if err := decodeJSON(w, r, &req); err != nil {
		return domain.LineItem{}, err
	}
	id, err := scalarString(req.ID)
	if err != nil {
		return domain.LineItem{}, err
	}
	return domain.LineItem{
		ID:       id,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Text:     req.Text,
		Price:    req.Price,
	}, nil
}

// decodeUpdate reads an update-cart body from JSON or a form.
// A missing id or quantity is reported as a *domain.ValidationError, as is a
// quantity that does not convert to an integer.
func decodeUpdate(w http.ResponseWriter, r *http.Request) (string, int, error) {
	var id string
	var quantity *int

	if isForm(r) {
		if err := parseForm(w, r); err != nil {
			return "", 0, err
		}
		id = r.PostFormValue("id")
		if raw, ok := r.PostForm["quantity"]; ok && len(raw) > 0 {
			q, err := parseQuantity(raw[0])
			if err != nil {
				return "", 0, err
			}
			quantity = &q
		}
	} else {
		var req updateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return "", 0, err
		}
		var err error
		if id, err = scalarString(req.ID); err != nil {
			return "", 0, &domain.ValidationError{Field: "id"}
		}
		if quantity, err = jsonQuantity(req.Quantity); err != nil {
			return "", 0, err
		}
	}

	if id == "" {
		return "", 0, &domain.ValidationError{Field: "id"}
	}
	if quantity == nil {
		return "", 0, &domain.ValidationError{Field: "quantity"}
	}
	return id, *quantity, nil
}

// scalarString accepts a JSON string or number as an identifier.
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: id must be a string", errMalformed)
}

// jsonQuantity returns nil for a missing quantity. Other values convert the
// way a browser form handler's Number() does: null and "" are 0, booleans are
// 0 or 1. Values that do not convert to an integer are rejected.
func jsonQuantity(raw json.RawMessage) (*int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var q int
	switch string(raw) {
	case "null", "false":
		q = 0
	case "true":
		q = 1
	default:
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			text = string(raw) // a bare number
		}
		var err error
		if q, err = parseQuantity(text); err != nil {
			return nil, err
		}
	}
	return &q, nil
}

// parseQuantity accepts integral decimal numbers such as "3", "-1" or "2.0".
// Blank text is 0.
func parseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &domain.ValidationError{Field: "quantity"}
	}
	return domain.QuantityFromFloat(f)
}
