package matcher

import (
	"testing"

	"shelf-vision/internal/model"
)

var catalog = []model.Product{
	{ID: "001", Name: "Bottle", Price: 1.5, InStock: true},
	{ID: "002", Name: "Wine Glass", Price: 4, InStock: false},
	{ID: "003", Name: "Cup", Price: 2, InStock: true},
}

func TestExactIgnoresCase(t *testing.T) {
	p, ok := Exact{}.Match("  bottle ", catalog)
	if !ok || p.ID != "001" {
		t.Fatalf("expected bottle, got %+v %v", p, ok)
	}
	if _, ok := (Exact{}).Match("wine", catalog); ok {
		t.Fatalf("exact should not match partial label")
	}
	if _, ok := (Exact{}).Match("", catalog); ok {
		t.Fatalf("empty label must not match")
	}
}

func TestContainsPrefersExactThenLongest(t *testing.T) {
	p, ok := Contains{}.Match("cup", catalog)
	if !ok || p.ID != "003" {
		t.Fatalf("expected cup, got %+v", p)
	}
	p, ok = Contains{}.Match("glass", catalog)
	if !ok || p.ID != "002" {
		t.Fatalf("expected wine glass, got %+v", p)
	}
	extended := append([]model.Product{{ID: "004", Name: "Glass"}}, catalog...)
	p, ok = Contains{}.Match("wine glass holder", extended)
	if !ok || p.ID != "002" {
		t.Fatalf("expected longest name, got %+v", p)
	}
	if _, ok := (Contains{}).Match("person", catalog); ok {
		t.Fatalf("unexpected match")
	}
}

func TestNew(t *testing.T) {
	if m, err := New("exact"); err != nil || m == nil {
		t.Fatalf("exact: %v", err)
	}
	if _, err := New("contains"); err != nil {
		t.Fatalf("contains: %v", err)
	}
	if _, err := New("regex"); err == nil {
		t.Fatalf("expected error for unknown matcher")
	}
}

func TestFuncAdapter(t *testing.T) {
	var m Matcher = Func(func(label string, products []model.Product) (model.Product, bool) {
		return products[len(products)-1], true
	})
	p, ok := m.Match("anything", catalog)
	if !ok || p.ID != "003" {
		t.Fatalf("unexpected: %+v", p)
	}
}
