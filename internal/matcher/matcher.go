// Package matcher maps a detected label to a stored product.
package matcher

import (
	"fmt"
	"strings"

	"shelf-vision/internal/config"
	"shelf-vision/internal/model"
)

type Matcher interface {
	Match(label string, products []model.Product) (model.Product, bool)
}

// Func adapts a plain function to Matcher.
type Func func(label string, products []model.Product) (model.Product, bool)

func (f Func) Match(label string, products []model.Product) (model.Product, bool) {
	return f(label, products)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Exact matches when label and product name are equal ignoring case and surrounding space.
type Exact struct{}

func (Exact) Match(label string, products []model.Product) (model.Product, bool) {
	want := normalize(label)
	if want == "" {
		return model.Product{}, false
	}
	for _, p := range products {
		if normalize(p.Name) == want {
			return p, true
		}
	}
	return model.Product{}, false
}

// Contains matches when either string contains the other, ignoring case. An exact
// match wins, otherwise the longest product name does.
type Contains struct{}

func (Contains) Match(label string, products []model.Product) (model.Product, bool) {
	if p, ok := (Exact{}).Match(label, products); ok {
		return p, true
	}
	want := normalize(label)
	if want == "" {
		return model.Product{}, false
	}
	var (
		best  model.Product
		found bool
	)
	for _, p := range products {
		name := normalize(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, want) || strings.Contains(want, name) {
			if !found || len(name) > len(normalize(best.Name)) {
				best, found = p, true
			}
		}
	}
	return best, found
}

func New(name string) (Matcher, error) {
	switch name {
	case config.MatcherExact, "":
		return Exact{}, nil
	case config.MatcherContains:
		return Contains{}, nil
	default:
		return nil, fmt.Errorf("unknown label matcher %q", name)
	}
}
