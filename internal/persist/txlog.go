package persist

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ndrandal/market-game/internal/ledger"
)

// txDoc is a logged ledger entry. Date is game time, RecordedAt wall time.
type txDoc struct {
	ledger.Transaction `bson:",inline"`
	RecordedAt         time.Time `bson:"recorded_at"`
}

// TxLog appends ledger entries to the transactions collection from a
// background writer so the game loop never waits on the database.
type TxLog struct {
	store   *Store
	ch      chan ledger.Transaction
	dropped uint64
}

// NewTxLog creates a log with room for buffer pending entries.
func NewTxLog(store *Store, buffer int) *TxLog {
	if buffer <= 0 {
		buffer = 1024
	}
	return &TxLog{store: store, ch: make(chan ledger.Transaction, buffer)}
}

// Record queues tx for writing. It never blocks; entries are dropped when the
// queue is full. Suitable as a game transaction hook.
func (l *TxLog) Record(tx ledger.Transaction) {
	select {
	case l.ch <- tx:
	default:
		if atomic.AddUint64(&l.dropped, 1)%100 == 1 {
			log.Printf("transaction log queue full, dropped %d entries", atomic.LoadUint64(&l.dropped))
		}
	}
}

// Dropped returns the number of entries lost to a full queue.
func (l *TxLog) Dropped() uint64 { return atomic.LoadUint64(&l.dropped) }

// Run writes queued entries until ctx is cancelled, then flushes what is
// left.
func (l *TxLog) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			n := l.flush(flushCtx)
			cancel()
			if n > 0 {
				log.Printf("transaction log flushed %d entries on shutdown", n)
			}
			return
		case tx := <-l.ch:
			if err := l.insert(ctx, tx); err != nil {
				log.Printf("transaction log insert %s: %v", tx.ID, err)
			}
		}
	}
}

func (l *TxLog) flush(ctx context.Context) int {
	n := 0
	for {
		select {
		case tx := <-l.ch:
			if err := l.insert(ctx, tx); err != nil {
				log.Printf("transaction log insert %s: %v", tx.ID, err)
				continue
			}
			n++
		default:
			return n
		}
	}
}

func (l *TxLog) insert(ctx context.Context, tx ledger.Transaction) error {
	_, err := l.store.db.Collection(colTransactions).InsertOne(ctx, txDoc{
		Transaction: tx,
		RecordedAt:  time.Now(),
	})
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil // already logged
	}
	return err
}
