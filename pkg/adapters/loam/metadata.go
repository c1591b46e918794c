package loam

// ProductMetadata is the frontmatter of a product card document.
// It uses "mapstructure" tags to match the YAML keys.
type ProductMetadata struct {
	ID       string `json:"id" mapstructure:"id"`
	Title    string `json:"title" mapstructure:"title"`
	Image    string `json:"image" mapstructure:"image"`
	Category string `json:"category" mapstructure:"category"`

	// Price accepts numbers and numeric strings; anything else becomes NaN.
	Price any `json:"price" mapstructure:"price"`

	// Order positions the card on the page. Ties fall back to ID order.
	Order int `json:"order" mapstructure:"order"`
}
