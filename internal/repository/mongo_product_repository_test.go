package repository

import (
	"context"
	"errors"
	"testing"

	"shelf-vision/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func widgetDoc(id, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "price", Value: 10.0},
		{Key: "in_stock", Value: true},
	}
}

func productNS(mt *mtest.T) string {
	return mt.DB.Name() + ".product"
}

func TestMongoProductRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("insert returns record", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		got, err := NewMongoProductRepository(mt.DB).Insert(context.Background(), widget())
		if err != nil {
			mt.Fatalf("insert: %v", err)
		}
		if *got != widget() {
			mt.Fatalf("unexpected: %+v", got)
		}
	})

	mt.Run("duplicate key maps to ErrDuplicateID", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		_, err := NewMongoProductRepository(mt.DB).Insert(context.Background(), widget())
		if !errors.Is(err, ErrDuplicateID) {
			mt.Fatalf("expected ErrDuplicateID, got %v", err)
		}
	})

	mt.Run("find by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productNS(mt), mtest.FirstBatch, widgetDoc("001", "Widget")))
		got, err := NewMongoProductRepository(mt.DB).FindByID(context.Background(), "001")
		if err != nil {
			mt.Fatalf("find: %v", err)
		}
		if *got != widget() {
			mt.Fatalf("unexpected: %+v", got)
		}
	})

	mt.Run("missing document maps to ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productNS(mt), mtest.FirstBatch))
		if _, err := NewMongoProductRepository(mt.DB).FindByID(context.Background(), "404"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("find all", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, productNS(mt), mtest.FirstBatch,
			widgetDoc("001", "Widget"),
			widgetDoc("002", "Gadget"),
		))
		all, err := NewMongoProductRepository(mt.DB).FindAll(context.Background())
		if err != nil {
			mt.Fatalf("find all: %v", err)
		}
		if len(all) != 2 || all[0].ID != "001" || all[1].Name != "Gadget" {
			mt.Fatalf("unexpected: %+v", all)
		}
	})

	mt.Run("update returns the new document", func(mt *mtest.T) {
		updated := widgetDoc("001", "Renamed")
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: updated}))
		name := "Renamed"
		got, err := NewMongoProductRepository(mt.DB).Update(context.Background(), "001", model.ProductPatch{Name: &name})
		if err != nil {
			mt.Fatalf("update: %v", err)
		}
		if got.Name != "Renamed" || got.ID != "001" {
			mt.Fatalf("unexpected: %+v", got)
		}
	})

	mt.Run("delete of missing id maps to ErrNotFound", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		if err := NewMongoProductRepository(mt.DB).Delete(context.Background(), "404"); !errors.Is(err, ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		if err := NewMongoProductRepository(mt.DB).Delete(context.Background(), "001"); err != nil {
			mt.Fatalf("delete: %v", err)
		}
	})
}
