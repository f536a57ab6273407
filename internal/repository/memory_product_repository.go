package repository

import (
	"context"
	"sort"
	"sync"

	"shelf-vision/internal/logger"
	"shelf-vision/internal/model"

	"go.opentelemetry.io/otel"
)

// MemoryProductRepository keeps products in a map for the lifetime of the process.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]model.Product
}

var MemoryProductRepositoryTracer = otel.Tracer("MemoryProductRepository")

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]model.Product),
	}
}

func (r *MemoryProductRepository) Insert(ctx context.Context, product model.Product) (*model.Product, error) {
	ctx, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Insert")
	defer span.End()
	logger.Info(ctx, "Repository")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; ok {
		return nil, ErrDuplicateID
	}
	r.products[product.ID] = product
	return &product, nil
}

func (r *MemoryProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.FindAll")
	defer span.End()
	logger.Info(ctx, "Repository")

	r.mu.RLock()
	products := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	r.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "Repository")

	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (r *MemoryProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	ctx, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Update")
	defer span.End()
	logger.Info(ctx, "Repository")

	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := patch.Apply(current)
	r.products[id] = updated
	return &updated, nil
}

func (r *MemoryProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := MemoryProductRepositoryTracer.Start(ctx, "MemoryProductRepository.Delete")
	defer span.End()
	logger.Info(ctx, "Repository")

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}
