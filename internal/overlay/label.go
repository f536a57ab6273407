package overlay

import (
	"strings"

	"shelf-vision/internal/model"

	"github.com/shopspring/decimal"
)

// ProductText renders the callout for a matched product, e.g. "Soda: $1.50, In Stock: Yes".
func ProductText(p model.Product) string {
	stock := "No"
	if p.InStock {
		stock = "Yes"
	}
	price := decimal.NewFromFloat(p.Price).StringFixed(2)
	return p.Name + ": $" + price + ", In Stock: " + stock
}

// PlaceholderText renders the callout for a label with no product behind it.
func PlaceholderText(label string) string {
	return strings.TrimSpace(label) + ": price n/a"
}

// GroupKey is the key annotations of the same label share.
func GroupKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
