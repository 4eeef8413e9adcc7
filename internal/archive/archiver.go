package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/market-game/internal/ledger"
)

// Archiver periodically moves old ledger entries from MongoDB to local
// gzipped NDJSON files, one per game day, deleting the oldest archives when
// total size exceeds maxBytes.
type Archiver struct {
	db       *mongo.Database
	dir      string
	maxBytes int64
	interval time.Duration
	maxAge   time.Duration
}

// New creates a new Archiver.
func New(db *mongo.Database, dir string, maxMB, intervalHours, afterHours int) *Archiver {
	return &Archiver{
		db:       db,
		dir:      dir,
		maxBytes: int64(maxMB) << 20,
		interval: time.Duration(intervalHours) * time.Hour,
		maxAge:   time.Duration(afterHours) * time.Hour,
	}
}

// Run starts the periodic archive loop. Blocks until ctx is cancelled.
func (a *Archiver) Run(ctx context.Context) {
	log.Printf("transaction archiver: dir=%s max=%dMB interval=%v age=%v",
		a.dir, a.maxBytes>>20, a.interval, a.maxAge)

	a.cycle(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cycle(ctx)
		}
	}
}

func (a *Archiver) cycle(ctx context.Context) {
	cursor, err := a.loadCursor(ctx)
	if err != nil {
		log.Printf("transaction archiver: load cursor: %v", err)
		return
	}

	cutoff := time.Now().Add(-a.maxAge)
	if !cursor.Before(cutoff) {
		return
	}

	txs, err := a.queryTransactions(ctx, cursor, cutoff)
	if err != nil {
		log.Printf("transaction archiver: query: %v", err)
		return
	}
	if len(txs) == 0 {
		a.saveCursor(ctx, cutoff)
		return
	}

	for day, batch := range groupByDay(txs) {
		if err := writeBatch(a.root(), day, batch); err != nil {
			log.Printf("transaction archiver: write %s: %v", day, err)
			return
		}

		if err := a.deleteBatch(ctx, batch); err != nil {
			log.Printf("transaction archiver: delete %s: %v", day, err)
			return
		}

		log.Printf("transaction archiver: archived %d entries for game day %s", len(batch), day)
	}

	a.saveCursor(ctx, cutoff)
	rotate(a.root(), a.maxBytes)
}

func (a *Archiver) root() string {
	return filepath.Join(a.dir, "transactions")
}

// archivedTx mirrors the logged transaction document.
type archivedTx struct {
	ledger.Transaction `bson:",inline"`
	RecordedAt         time.Time `bson:"recorded_at" json:"recorded_at"`
}

func (a *Archiver) loadCursor(ctx context.Context) (time.Time, error) {
	var doc struct {
		ValueTime time.Time `bson:"value_time"`
	}
	err := a.db.Collection("sim_state").FindOne(ctx, bson.M{"key": "archive_cursor"}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return doc.ValueTime, nil
}

func (a *Archiver) saveCursor(ctx context.Context, t time.Time) {
	_, err := a.db.Collection("sim_state").UpdateOne(ctx,
		bson.M{"key": "archive_cursor"},
		bson.M{"$set": bson.M{
			"key":        "archive_cursor",
			"value_time": t,
			"updated_at": time.Now(),
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		log.Printf("transaction archiver: save cursor: %v", err)
	}
}

func (a *Archiver) queryTransactions(ctx context.Context, from, to time.Time) ([]archivedTx, error) {
	filter := bson.M{
		"recorded_at": bson.M{"$gte": from, "$lt": to},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cur, err := a.db.Collection("transactions").Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cur.Close(ctx)

	var txs []archivedTx
	if err := cur.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// groupByDay buckets entries by game date.
func groupByDay(txs []archivedTx) map[string][]archivedTx {
	batches := make(map[string][]archivedTx)
	for _, t := range txs {
		day := t.At.UTC().Format("2006/01/02")
		batches[day] = append(batches[day], t)
	}
	return batches
}

// writeBatch appends entries as a gzip member to root/YYYY/MM/DD.jsonl.gz.
// Readers see concatenated members as one stream.
func writeBatch(root, day string, txs []archivedTx) error {
	path := filepath.Join(root, day+".jsonl.gz")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := json.NewEncoder(gz)
	for _, t := range txs {
		if err := enc.Encode(t); err != nil {
			gz.Close()
			return fmt.Errorf("encode: %w", err)
		}
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("gzip close: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("write: %w", err)
	}
	return f.Close()
}

func (a *Archiver) deleteBatch(ctx context.Context, txs []archivedTx) error {
	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}

	_, err := a.db.Collection("transactions").DeleteMany(ctx, bson.M{
		"_id": bson.M{"$in": ids},
	})
	if err != nil {
		return fmt.Errorf("delete archived transactions: %w", err)
	}
	return nil
}

// rotate deletes the oldest archive files until total size is under
// maxBytes. maxBytes <= 0 keeps everything.
func rotate(root string, maxBytes int64) {
	if maxBytes <= 0 {
		return
	}

	type entry struct {
		path string
		size int64
	}

	var files []entry
	var total int64

	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		files = append(files, entry{path: path, size: info.Size()})
		total += info.Size()
		return nil
	})

	if total <= maxBytes {
		return
	}

	// Paths are YYYY/MM/DD so lexicographic order is chronological.
	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := os.Remove(f.path); err != nil {
			log.Printf("transaction archiver: remove %s: %v", f.path, err)
			continue
		}
		total -= f.size
		log.Printf("transaction archiver: rotated out %s (%d bytes)", f.path, f.size)
	}
}
