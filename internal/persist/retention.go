package persist

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RunRetention periodically deletes logged transactions recorded more than
// retentionDays ago. Blocks until ctx is cancelled. Pass retentionDays <= 0
// to disable.
func RunRetention(ctx context.Context, store *Store, retentionDays int) {
	if retentionDays <= 0 {
		log.Println("transaction retention disabled (keep forever)")
		return
	}

	interval := 1 * time.Hour
	log.Printf("transaction retention: pruning entries older than %d days every %v", retentionDays, interval)

	prune(ctx, store, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune(ctx, store, retentionDays)
		}
	}
}

func prune(ctx context.Context, store *Store, retentionDays int) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result, err := store.db.Collection(colTransactions).DeleteMany(ctx, bson.M{
		"recorded_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("transaction retention prune error: %v", err)
		return
	}

	if result.DeletedCount > 0 {
		log.Printf("transaction retention: pruned %d entries older than %s", result.DeletedCount, cutoff.Format(time.DateOnly))
	}
}
