package persist

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/market-game/internal/ledger"
)

// TxFilter controls which transactions to return. Times are game time.
type TxFilter struct {
	Kind   ledger.TxKind
	Symbol string
	Limit  int
	Offset int
	From   *time.Time
	To     *time.Time
}

// Candle is an OHLC bar built from the player's own fills of one symbol.
type Candle struct {
	Bucket time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
	Count  int64     `json:"n"`
}

// CandleFilter controls candle query parameters.
type CandleFilter struct {
	Symbol   string
	Interval string // "1h","4h","1d","1w"
	Limit    int
	From     *time.Time
	To       *time.Time
}

// KindStats aggregates one transaction kind.
type KindStats struct {
	Count int64   `json:"count"`
	Total float64 `json:"total"`
}

// TxStats holds aggregate ledger statistics.
type TxStats struct {
	TotalTransactions int64                `json:"totalTransactions"`
	TotalVolume       float64              `json:"totalVolume"`
	ByKind            map[string]KindStats `json:"byKind"`
}

// TxReader abstracts read-only transaction/candle/stats queries.
type TxReader interface {
	QueryTransactions(ctx context.Context, f TxFilter) ([]ledger.Transaction, error)
	QueryCandles(ctx context.Context, f CandleFilter) ([]Candle, error)
	QueryTxStats(ctx context.Context) (TxStats, error)
}

// MongoTxReader implements TxReader using a mongo.Database.
type MongoTxReader struct {
	db *mongo.Database
}

// NewMongoTxReader creates a new MongoTxReader.
func NewMongoTxReader(db *mongo.Database) *MongoTxReader {
	return &MongoTxReader{db: db}
}

// intervalSeconds maps interval strings to their duration in game seconds.
var intervalSeconds = map[string]int{
	"1h": 3600,
	"4h": 14400,
	"1d": 86400,
	"1w": 604800,
}

func clampLimit(n int) int {
	if n <= 0 || n > 1000 {
		return 100
	}
	return n
}

func timeRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	m := bson.M{}
	if from != nil {
		m["$gte"] = *from
	}
	if to != nil {
		m["$lte"] = *to
	}
	return m
}

func (f TxFilter) query() bson.M {
	q := bson.M{}
	if f.Kind != "" {
		q["type"] = string(f.Kind)
	}
	if f.Symbol != "" {
		q["symbol"] = f.Symbol
	}
	if r := timeRange(f.From, f.To); r != nil {
		q["date"] = r
	}
	return q
}

// QueryTransactions returns logged transactions, newest first.
func (r *MongoTxReader) QueryTransactions(ctx context.Context, f TxFilter) ([]ledger.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(int64(clampLimit(f.Limit))).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection(colTransactions).Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer cursor.Close(ctx)

	txs := []ledger.Transaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txs, nil
}

// candlePipeline groups buy and sell fills of one symbol into buckets of
// the interval's length.
func candlePipeline(f CandleFilter) (mongo.Pipeline, error) {
	secs, ok := intervalSeconds[f.Interval]
	if !ok {
		return nil, fmt.Errorf("unsupported interval: %s", f.Interval)
	}

	fills := bson.A{
		string(ledger.TxBuy), string(ledger.TxSell),
		string(ledger.TxCryptoBuy), string(ledger.TxCryptoSell),
	}
	match := bson.M{"symbol": f.Symbol, "type": bson.M{"$in": fills}}
	if r := timeRange(f.From, f.To); r != nil {
		match["date"] = r
	}

	millisPerBucket := int64(secs) * 1000

	// bucket = Date(toLong(date) - (toLong(date) % millisPerBucket))
	bucketExpr := bson.M{
		"$toDate": bson.M{
			"$subtract": bson.A{
				bson.M{"$toLong": "$date"},
				bson.M{"$mod": bson.A{
					bson.M{"$toLong": "$date"},
					millisPerBucket,
				}},
			},
		},
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bucketExpr},
			{Key: "open", Value: bson.M{"$first": "$price"}},
			{Key: "high", Value: bson.M{"$max": "$price"}},
			{Key: "low", Value: bson.M{"$min": "$price"}},
			{Key: "close", Value: bson.M{"$last": "$price"}},
			{Key: "volume", Value: bson.M{"$sum": "$quantity"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$limit", Value: int64(clampLimit(f.Limit))}},
	}, nil
}

// QueryCandles returns OHLC bars of the player's fills for a symbol.
func (r *MongoTxReader) QueryCandles(ctx context.Context, f CandleFilter) ([]Candle, error) {
	pipeline, err := candlePipeline(f)
	if err != nil {
		return nil, err
	}

	cursor, err := r.db.Collection(colTransactions).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []struct {
		Bucket time.Time `bson:"_id"`
		Open   float64   `bson:"open"`
		High   float64   `bson:"high"`
		Low    float64   `bson:"low"`
		Close  float64   `bson:"close"`
		Volume float64   `bson:"volume"`
		Count  int64     `bson:"count"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}

	candles := make([]Candle, len(raw))
	for i, r := range raw {
		candles[i] = Candle{
			Bucket: r.Bucket.UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
			Count:  r.Count,
		}
	}
	return candles, nil
}

// QueryTxStats returns transaction counts and absolute volume per kind.
func (r *MongoTxReader) QueryTxStats(ctx context.Context) (TxStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.M{"$sum": 1}},
			{Key: "total", Value: bson.M{"$sum": bson.M{"$abs": "$total"}}},
		}}},
	}

	cursor, err := r.db.Collection(colTransactions).Aggregate(ctx, pipeline)
	if err != nil {
		return TxStats{}, fmt.Errorf("query transaction stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Kind  string  `bson:"_id"`
		Count int64   `bson:"count"`
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return TxStats{}, fmt.Errorf("decode transaction stats: %w", err)
	}

	stats := TxStats{ByKind: make(map[string]KindStats, len(results))}
	for _, r := range results {
		stats.ByKind[r.Kind] = KindStats{Count: r.Count, Total: r.Total}
		stats.TotalTransactions += r.Count
		stats.TotalVolume += r.Total
	}
	return stats, nil
}
