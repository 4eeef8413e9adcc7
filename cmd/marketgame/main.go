package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndrandal/market-game/internal/api"
	"github.com/ndrandal/market-game/internal/archive"
	"github.com/ndrandal/market-game/internal/config"
	"github.com/ndrandal/market-game/internal/game"
	"github.com/ndrandal/market-game/internal/ledger"
	"github.com/ndrandal/market-game/internal/metrics"
	"github.com/ndrandal/market-game/internal/persist"
	"github.com/ndrandal/market-game/internal/session"
)

func main() {
	cfg := config.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("market game starting")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	g, err := game.New(cfg.GameOptions())
	if err != nil {
		log.Fatalf("game: %v", err)
	}
	log.Printf("PRNG seed: %d, start date %s, %d ticks per day", cfg.Seed, g.Date().Format("2006-01-02"), cfg.TicksPerDay)

	// Storage: MongoDB when configured, otherwise .sav files on disk.
	var (
		saves  api.Saver
		reader persist.TxReader
		txlog  *persist.TxLog
	)
	txDone := make(chan struct{})
	if cfg.MongoURI != "" {
		store, err := persist.NewStore(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer store.Close(context.Background())

		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("migration failed: %v", err)
		}

		saves = persist.NewSnapshotter(store, g)
		reader = persist.NewMongoTxReader(store.DB())
		txlog = persist.NewTxLog(store, cfg.TxLogBuffer)

		go func() {
			defer close(txDone)
			txlog.Run(ctx)
		}()
		go persist.RunRetention(ctx, store, cfg.TxRetentionDays)

		// Transaction archiver (opt-in)
		if cfg.ArchiveDir != "" {
			archiver := archive.New(store.DB(), cfg.ArchiveDir, cfg.ArchiveMaxMB, cfg.ArchiveIntervalHours, cfg.ArchiveAfterHours)
			go archiver.Run(ctx)
		}
	} else {
		close(txDone)
		log.Printf("no database configured, saving to %s", cfg.SaveDir)
		saves = archive.NewDir(cfg.SaveDir, int64(cfg.SaveMaxMB)<<20, g)
	}

	g.OnTransaction(func(tx ledger.Transaction) {
		metrics.ObserveTransaction(tx)
		if txlog != nil {
			txlog.Record(tx)
		}
	})

	// Resume the autosave slot, falling back to the newest save.
	if cfg.Resume {
		loaded, err := saves.Load(ctx, cfg.SaveName)
		if err == nil && !loaded {
			loaded, err = saves.Load(ctx, "")
		}
		switch {
		case err != nil:
			log.Printf("warning: failed to load save: %v", err)
		case loaded:
			log.Printf("resumed game at %s", g.Date().Format(game.TimeLayout))
		default:
			log.Println("no save found, starting a new game")
		}
	}

	save := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := saves.Save(ctx, cfg.SaveName); err != nil {
			metrics.SavesTotal.WithLabelValues("error").Inc()
			log.Printf("autosave failed: %v", err)
			return
		}
		metrics.SavesTotal.WithLabelValues("ok").Inc()
	}

	// Autosave on the wall clock
	var sched *cron.Cron
	if cfg.AutosaveCron != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(cfg.AutosaveCron, func() { save(ctx) }); err != nil {
			log.Fatalf("autosave schedule %q: %v", cfg.AutosaveCron, err)
		}
		sched.Start()
		log.Printf("autosave to %q on %q", cfg.SaveName, cfg.AutosaveCron)
	}

	// Session manager
	mgr := session.NewManager(g.Listing(), cfg.SendBufferSize)
	metrics.RegisterSessions(mgr)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		runLoop(ctx, g, mgr)
	}()

	// HTTP/WebSocket server
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", session.Handler(mgr))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"date":%q}`, mgr.ClientCount(), g.Date().Format(game.TimeLayout))
	})
	mux.Handle("/metrics", metrics.Handler())

	// REST API
	apiServer := api.NewServer(g, reader, saves, mgr, cfg.SaveName)
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: metrics.Middleware(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("WebSocket feed on ws://%s/feed", addr)
	log.Printf("REST API on http://%s/api", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	<-loopDone
	if sched != nil {
		<-sched.Stop().Done()
	}
	save(context.Background())
	<-txDone
	log.Println("market game stopped")
}

// runLoop advances the game on its own clock and publishes every tick to the
// feed. The interval is re-read each tick so speed changes apply at once.
func runLoop(ctx context.Context, g *game.Game, mgr *session.Manager) {
	timer := time.NewTimer(g.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		start := time.Now()
		res, err := g.Tick()
		if err != nil {
			log.Printf("tick: %v", err)
		}
		if res != nil {
			metrics.ObserveTick(res, time.Since(start))
			metrics.ObserveGame(g)
			mgr.Broadcast(g.FeedMessages(res))

			if d := res.Day; d != nil {
				mgr.SetListing(g.Listing())
				logDay(d)
			}
		}

		timer.Reset(g.Interval())
	}
}

func logDay(d *game.DayReport) {
	log.Printf("day %s: %d events", d.Date.Format("2006-01-02"), len(d.Events))
	if d.Draw != nil {
		log.Printf("lottery draw %v + %d, pool %.2f", d.Draw.Reds, d.Draw.Blue, d.Draw.Pool)
	}
	if d.Claimed > 0 {
		log.Printf("prizes claimed: %.2f (tax %.2f)", d.Claimed, d.Tax)
	}
	if n := len(d.Accrual.Liquidated); n > 0 {
		log.Printf("missed loan payment: %d positions liquidated", n)
	}
}
