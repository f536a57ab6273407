package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"shelf-vision/internal/model"
	"shelf-vision/internal/repository"
)

type ProductService struct {
	repo repository.ProductRepository
	ids  IDGenerator

	// serialises inserts so a generated id never races an explicit one in-process
	idMu sync.Mutex
}

func NewProductService(repo repository.ProductRepository, ids IDGenerator) *ProductService {
	if ids == nil {
		ids = SequenceIDGenerator{Width: 3}
	}
	return &ProductService{repo: repo, ids: ids}
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func validateProduct(p model.Product) error {
	if strings.ContainsAny(p.ID, "/ \t\n") {
		return fmt.Errorf("%w: id must not contain '/' or whitespace", ErrInvalidProduct)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if !validPrice(p.Price) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	}
	return nil
}

func validatePatch(p model.ProductPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidProduct)
	}
	if p.Price != nil && !validPrice(*p.Price) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	}
	return nil
}

// Create stores p and returns it unchanged. When p.ID is empty an id is generated.
func (s *ProductService) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	s.idMu.Lock()
	defer s.idMu.Unlock()
	if p.ID != "" {
		return s.repo.Insert(ctx, p)
	}

	id, err := s.ids.Next(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.Insert(ctx, p)
}

func (s *ProductService) GetAll(ctx context.Context) ([]model.Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
