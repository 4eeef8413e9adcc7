package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/market-game/internal/game"
)

const lastSaveKey = "last_save"

// Snapshotter stores named save slots of a running game in MongoDB.
type Snapshotter struct {
	store *Store
	game  *game.Game
}

// NewSnapshotter creates a new snapshotter.
func NewSnapshotter(store *Store, g *game.Game) *Snapshotter {
	return &Snapshotter{store: store, game: g}
}

// Save writes the current game to the named slot and marks it as the slot to
// resume from, in a single transaction.
func (s *Snapshotter) Save(ctx context.Context, name string) (game.SaveInfo, error) {
	start := time.Now()
	st := s.game.Snapshot()
	doc, err := encodeState(&st)
	if err != nil {
		return game.SaveInfo{}, err
	}
	info := st.Info(name, start.UTC())

	session, err := s.store.client.StartSession()
	if err != nil {
		return game.SaveInfo{}, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc context.Context) (any, error) {
		db := s.store.db

		if _, err := db.Collection(colSaves).UpdateOne(sc,
			bson.M{"name": name},
			bson.M{"$set": bson.M{
				"name":      info.Name,
				"saved_at":  info.SavedAt,
				"game_date": info.GameDate,
				"cash":      info.Cash,
				"state":     doc,
			}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("upsert save %s: %w", name, err)
		}

		if _, err := db.Collection(colSimState).UpdateOne(sc,
			bson.M{"key": lastSaveKey},
			bson.M{"$set": bson.M{
				"key":        lastSaveKey,
				"value_str":  name,
				"updated_at": info.SavedAt,
			}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("save slot pointer: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return game.SaveInfo{}, fmt.Errorf("save transaction: %w", err)
	}

	log.Printf("game saved to slot %q (game date %s) in %v", name, st.Date, time.Since(start))
	return info, nil
}

// Load restores the named slot, or the most recently saved slot when name is
// empty. Returns false when there is nothing to load.
func (s *Snapshotter) Load(ctx context.Context, name string) (bool, error) {
	db := s.store.db

	if name == "" {
		var ptr struct {
			ValueStr string `bson:"value_str"`
		}
		err := db.Collection(colSimState).FindOne(ctx, bson.M{"key": lastSaveKey}).Decode(&ptr)
		if errors.Is(err, mongo.ErrNoDocuments) {
			log.Println("no persisted game found, starting fresh")
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("load slot pointer: %w", err)
		}
		name = ptr.ValueStr
	}

	var doc struct {
		State bson.Raw `bson:"state"`
	}
	err := db.Collection(colSaves).FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load save %s: %w", name, err)
	}

	st, err := decodeState(doc.State)
	if err != nil {
		return false, fmt.Errorf("decode save %s: %w", name, err)
	}
	if err := s.game.Restore(st); err != nil {
		return false, fmt.Errorf("restore save %s: %w", name, err)
	}

	log.Printf("restored slot %q (game date %s)", name, st.Date)
	return true, nil
}

// List returns every slot, newest first.
func (s *Snapshotter) List(ctx context.Context) ([]game.SaveInfo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "saved_at", Value: -1}}).
		SetProjection(bson.M{"state": 0})

	cursor, err := s.store.db.Collection(colSaves).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer cursor.Close(ctx)

	saves := []game.SaveInfo{}
	if err := cursor.All(ctx, &saves); err != nil {
		return nil, fmt.Errorf("decode saves: %w", err)
	}
	return saves, nil
}

// DeleteAll removes every slot and the resume pointer.
func (s *Snapshotter) DeleteAll(ctx context.Context) (int, error) {
	db := s.store.db
	res, err := db.Collection(colSaves).DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete saves: %w", err)
	}
	if _, err := db.Collection(colSimState).DeleteOne(ctx, bson.M{"key": lastSaveKey}); err != nil {
		return 0, fmt.Errorf("delete slot pointer: %w", err)
	}
	log.Printf("deleted %d saves", res.DeletedCount)
	return int(res.DeletedCount), nil
}

// encodeState stores the state as a native document keyed by its JSON field
// names.
func encodeState(st *game.State) (bson.D, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, fmt.Errorf("convert state: %w", err)
	}
	return doc, nil
}

func decodeState(raw bson.Raw) (game.State, error) {
	var st game.State
	if len(raw) == 0 {
		return st, errors.New("save has no state")
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return st, fmt.Errorf("convert state: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}
