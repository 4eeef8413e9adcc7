// Package metrics provides Prometheus instrumentation for the game server.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/ledger"
)

var (
	// TicksTotal counts completed simulation ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_ticks_total",
		Help: "Total simulation ticks",
	})

	// DaysTotal counts game-day rollovers.
	DaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_days_total",
		Help: "Total game days simulated",
	})

	// TickDuration tracks how long one tick holds the game lock.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketgame_tick_duration_seconds",
		Help:    "Tick processing time in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// TransactionsTotal counts ledger entries by kind.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_transactions_total",
		Help: "Ledger entries by kind",
	}, []string{"kind"})

	// EventsTotal counts triggered events by category.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_events_total",
		Help: "Triggered game events by category",
	}, []string{"category"})

	// DrawsTotal counts lottery draws.
	DrawsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_lottery_draws_total",
		Help: "Total lottery draws",
	})

	// PrizesPaid accumulates lottery prizes paid to the player after tax.
	PrizesPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketgame_lottery_prizes_paid_total",
		Help: "Lottery prize money paid out after tax",
	})

	// PrizePool tracks the lottery jackpot pool.
	PrizePool = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketgame_lottery_pool",
		Help: "Current lottery prize pool",
	})

	// Sentiment tracks each market's sentiment.
	Sentiment = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "marketgame_sentiment",
		Help: "Market sentiment in [-1, 1]",
	}, []string{"market"})

	// PlayerCash tracks the player's cash balance.
	PlayerCash = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketgame_player_cash",
		Help: "Player cash balance",
	})

	// PlayerAssets tracks the player's total assets.
	PlayerAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketgame_player_total_assets",
		Help: "Player total assets",
	})

	// SavesTotal counts save attempts by result.
	SavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_saves_total",
		Help: "Game saves by result",
	}, []string{"result"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketgame_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketgame_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Resolved once so the per-tick refresh does no label lookups.
var (
	stockSentiment  = Sentiment.WithLabelValues("stocks")
	cryptoSentiment = Sentiment.WithLabelValues("crypto")
	forexSentiment  = Sentiment.WithLabelValues("forex")
)

// Sessions is the feed fan-out as seen by the collectors.
type Sessions interface {
	ClientCount() int
	Sent() uint64
	Dropped() uint64
}

// RegisterSessions exports websocket client and frame counts read from s at
// scrape time. Call once.
func RegisterSessions(s Sessions) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "marketgame_websocket_clients",
		Help: "Number of connected WebSocket clients",
	}, func() float64 { return float64(s.ClientCount()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "marketgame_feed_frames_sent_total",
		Help: "Feed frames queued to clients",
	}, func() float64 { return float64(s.Sent()) })

	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "marketgame_feed_frames_dropped_total",
		Help: "Feed frames dropped on full client buffers",
	}, func() float64 { return float64(s.Dropped()) })
}

// ObserveTick records a completed tick and the work it took.
func ObserveTick(res *game.TickResult, took time.Duration) {
	if res == nil {
		return
	}
	TicksTotal.Inc()
	TickDuration.Observe(took.Seconds())

	day := res.Day
	if day == nil {
		return
	}
	DaysTotal.Inc()
	for _, e := range day.Events {
		EventsTotal.WithLabelValues(string(e.Category)).Inc()
	}
	if day.Draw != nil {
		DrawsTotal.Inc()
	}
	if day.Claimed > 0 {
		PrizesPaid.Add(day.Claimed - day.Tax)
	}
}

// ObserveTransaction counts a ledger entry. Suitable as a game hook.
func ObserveTransaction(tx ledger.Transaction) {
	TransactionsTotal.WithLabelValues(string(tx.Kind)).Inc()
}

// ObserveGame refreshes the gauges from the current game state. It runs on
// every tick and reads scalars only.
func ObserveGame(g *game.Game) {
	v := g.Gauges()
	stockSentiment.Set(v.StockSentiment)
	cryptoSentiment.Set(v.CryptoSentiment)
	forexSentiment.Set(v.ForexSentiment)
	PrizePool.Set(v.PrizePool)
	PlayerCash.Set(v.Cash)
	PlayerAssets.Set(v.TotalAssets)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// The mux fills in the matched pattern; raw paths would explode
		// label cardinality.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
