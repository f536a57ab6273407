package repository

import (
	"context"
	"errors"
	"fmt"

	"shelf-vision/internal/logger"
	"shelf-vision/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

// MongoProductRepository stores products in the "product" collection keyed by _id.
type MongoProductRepository struct {
	collection *mongo.Collection
}

var MongoProductRepositoryTracer = otel.Tracer("MongoProductRepository")

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection("product"),
	}
}

func (r *MongoProductRepository) Insert(ctx context.Context, product model.Product) (*model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Insert")
	defer span.End()
	logger.Info(ctx, "Repository")

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateID
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.FindAll")
	defer span.End()
	logger.Info(ctx, "Repository")

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]model.Product, 0)
	for cursor.Next(ctx) {
		var product model.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		products = append(products, product)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "Repository")

	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Update")
	defer span.End()
	logger.Info(ctx, "Repository")

	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.InStock != nil {
		set["in_stock"] = *patch.InStock
	}

	var updated model.Product
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}
	return &updated, nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := MongoProductRepositoryTracer.Start(ctx, "MongoProductRepository.Delete")
	defer span.End()
	logger.Info(ctx, "Repository")

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
