package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"shelf-vision/internal/config"
	"shelf-vision/internal/repository"

	"github.com/google/uuid"
)

var ErrIDExhausted = errors.New("sequential id space exhausted")

// IDGenerator assigns ids to products created without one.
type IDGenerator interface {
	Next(ctx context.Context, repo repository.ProductRepository) (string, error)
}

// SequenceIDGenerator yields max(numeric ids)+1, zero padded ("001", "002", ...).
// Non-numeric ids are ignored.
type SequenceIDGenerator struct {
	Width int
}

func (g SequenceIDGenerator) Next(ctx context.Context, repo repository.ProductRepository) (string, error) {
	products, err := repo.FindAll(ctx)
	if err != nil {
		return "", fmt.Errorf("list products for id: %w", err)
	}
	highest := 0
	for _, p := range products {
		n, err := strconv.Atoi(p.ID)
		if err == nil && n > highest {
			highest = n
		}
	}
	if highest == math.MaxInt {
		return "", fmt.Errorf("%w: highest id is %d", ErrIDExhausted, highest)
	}
	width := g.Width
	if width <= 0 {
		width = 3
	}
	return fmt.Sprintf("%0*d", width, highest+1), nil
}

type UUIDGenerator struct{}

func (UUIDGenerator) Next(context.Context, repository.ProductRepository) (string, error) {
	return uuid.NewString(), nil
}

func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case config.IDSequence, "":
		return SequenceIDGenerator{Width: 3}, nil
	case config.IDUUID:
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
