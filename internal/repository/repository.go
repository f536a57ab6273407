package repository

import (
	"context"
	"errors"

	"shelf-vision/internal/model"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrDuplicateID = errors.New("product id already exists")
)

// ProductRepository is the Product Store. Implementations leave the stored data
// unchanged whenever they return an error.
type ProductRepository interface {
	Insert(ctx context.Context, product model.Product) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}
