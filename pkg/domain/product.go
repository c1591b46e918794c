package domain

// Product is a card on the online-orders page.
// Its attributes are what a browser sends when the card's cart button is pressed.
type Product struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageURL"`
	Text     string `json:"text"`
	Price    Price  `json:"price"`
	Category string `json:"category,omitempty"`
}

// LineItem builds the add-item payload for the card.
func (p Product) LineItem() LineItem {
	return LineItem{
		ID:       p.ID,
		Title:    p.Title,
		ImageURL: p.ImageURL,
		Text:     p.Text,
		Price:    p.Price,
	}
}
