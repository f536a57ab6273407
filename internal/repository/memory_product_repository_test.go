package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"shelf-vision/internal/model"
)

func widget() model.Product {
	return model.Product{ID: "001", Name: "Widget", Price: 10.0, InStock: true}
}

func TestCreateThenRetrieve(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	created, err := r.Insert(ctx, widget())
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if *created != widget() {
		t.Fatalf("insert should return the record unchanged: %+v", created)
	}
	got, err := r.FindByID(ctx, "001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if *got != widget() {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestDuplicateInsertLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	_, _ = r.Insert(ctx, widget())
	dup := model.Product{ID: "001", Name: "Other", Price: 1, InStock: false}
	if _, err := r.Insert(ctx, dup); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	got, _ := r.FindByID(ctx, "001")
	if *got != widget() {
		t.Fatalf("store changed: %+v", got)
	}
	all, _ := r.FindAll(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 product, got %d", len(all))
	}
}

func TestUpdateMissingLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	_, _ = r.Insert(ctx, widget())
	name := "Gadget"
	if _, err := r.Update(ctx, "404", model.ProductPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	all, _ := r.FindAll(ctx)
	if len(all) != 1 || all[0] != widget() {
		t.Fatalf("store changed: %+v", all)
	}
}

func TestPartialUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	_, _ = r.Insert(ctx, widget())
	price := 12.5
	updated, err := r.Update(ctx, "001", model.ProductPatch{Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 12.5 || updated.Name != "Widget" || !updated.InStock {
		t.Fatalf("unexpected: %+v", updated)
	}
	inStock := false
	updated, _ = r.Update(ctx, "001", model.ProductPatch{InStock: &inStock})
	if updated.InStock || updated.Price != 12.5 {
		t.Fatalf("unexpected: %+v", updated)
	}
}

func TestDeleteThenRetrieveFails(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	_, _ = r.Insert(ctx, widget())
	if err := r.Delete(ctx, "001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.FindByID(ctx, "001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Delete(ctx, "001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	_, _ = r.Insert(ctx, widget())
	got, _ := r.FindByID(ctx, "001")
	got.Name = "Mutated"
	again, _ := r.FindByID(ctx, "001")
	if again.Name != "Widget" {
		t.Fatalf("store aliased: %+v", again)
	}
}

func TestFindAllOrderedByID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	for _, id := range []string{"003", "001", "002"} {
		_, _ = r.Insert(ctx, model.Product{ID: id, Name: "p" + id})
	}
	all, _ := r.FindAll(ctx)
	if len(all) != 3 || all[0].ID != "001" || all[2].ID != "003" {
		t.Fatalf("unexpected order: %+v", all)
	}
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryProductRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%03d", i)
			_, _ = r.Insert(ctx, model.Product{ID: id, Name: "p"})
			price := float64(i)
			_, _ = r.Update(ctx, id, model.ProductPatch{Price: &price})
		}(i)
	}
	wg.Wait()
	all, _ := r.FindAll(ctx)
	if len(all) != 50 {
		t.Fatalf("expected 50, got %d", len(all))
	}
	for i, p := range all {
		if p.Price != float64(i) {
			t.Fatalf("product %s price %v", p.ID, p.Price)
		}
	}
}
