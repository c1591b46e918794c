package client

import "github.com/aretw0/loaves/pkg/domain"

// PageKind distinguishes the pages that carry product controls.
type PageKind int

const (
	// MenuPage shows catalog products with add controls.
	MenuPage PageKind = iota
	// CartPage shows the line items of the cart with remove controls.
	CartPage
)

func (k PageKind) String() string {
	if k == CartPage {
		return "cart"
	}
	return "menu"
}

// Page is the ordered set of product cards currently rendered.
type Page struct {
	Kind  PageKind
	cards []domain.Product
}

// NewMenuPage renders one card per product. Later duplicates of an ID are dropped.
func NewMenuPage(products []domain.Product) *Page {
	p := &Page{Kind: MenuPage}
	for _, prod := range products {
		if !p.Has(prod.ID) {
			p.cards = append(p.cards, prod)
		}
	}
	return p
}

// NewCartPage renders one card per line item of the cart.
func NewCartPage(c domain.Cart) *Page {
	p := &Page{Kind: CartPage}
	for _, item := range c.Items {
		p.cards = append(p.cards, domain.Product{
			ID:       item.ID,
			Title:    item.Title,
			ImageURL: item.ImageURL,
			Text:     item.Text,
			Price:    item.Price,
		})
	}
	return p
}

// Has reports whether a card with the ID is on the page.
func (p *Page) Has(id string) bool {
	_, ok := p.Card(id)
	return ok
}

// Card returns the card with the ID.
func (p *Page) Card(id string) (domain.Product, bool) {
	for _, c := range p.cards {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Product{}, false
}

// Cards returns the cards in display order.
func (p *Page) Cards() []domain.Product {
	out := make([]domain.Product, len(p.cards))
	copy(out, p.cards)
	return out
}

func (p *Page) remove(id string) {
	for i, c := range p.cards {
		if c.ID == id {
			p.cards = append(p.cards[:i], p.cards[i+1:]...)
			return
		}
	}
}
