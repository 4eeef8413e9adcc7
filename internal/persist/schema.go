package persist

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	colSaves        = "saves"
	colTransactions = "transactions"
	colSimState     = "sim_state"
)

type index struct {
	collection string
	model      mongo.IndexModel
}

func indexes() []index {
	return []index{
		{
			collection: colSaves,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colSaves,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "saved_at", Value: -1}},
			},
		},
		{
			collection: colSimState,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colTransactions,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "symbol", Value: 1},
					{Key: "date", Value: -1},
				},
			},
		},
		{
			collection: colTransactions,
			model: mongo.IndexModel{
				Keys: bson.D{
					{Key: "type", Value: 1},
					{Key: "date", Value: -1},
				},
			},
		},
		{
			collection: colTransactions,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "recorded_at", Value: 1}},
			},
		},
	}
}

// EnsureIndexes creates idempotent indexes on all collections.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, i := range indexes() {
		_, err := db.Collection(i.collection).Indexes().CreateOne(ctx, i.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", i.collection, err)
		}
	}

	log.Println("MongoDB indexes ensured")
	return nil
}
