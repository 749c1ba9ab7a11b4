package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fixlabs/recon/params"
	"github.com/fixlabs/recon/pkg/api"
	"github.com/fixlabs/recon/pkg/gen"
	"github.com/fixlabs/recon/pkg/recon"
	"github.com/fixlabs/recon/pkg/sim"
	"github.com/fixlabs/recon/pkg/storage"
	"github.com/fixlabs/recon/pkg/util"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	envPath := flag.String("env", "", "optional .env file (default: ./.env)")
	flag.Parse()

	cfg, err := params.Load(*configPath, *envPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLoggerWithFile(cfg.Logging.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Logging.File)

	// ---- Journal + snapshot store ----
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		sugar.Fatalw("storage_open_failed", "path", cfg.Storage.DataDir, "err", err)
	}
	defer store.Close()

	statsWriter, err := storage.NewStatsWriter(cfg.Storage.StatsFile)
	if err != nil {
		sugar.Fatalw("stats_writer_failed", "path", cfg.Storage.StatsFile, "err", err)
	}

	// ---- Engine ----
	book := recon.NewBook(sugar)

	// ---- Venue ----
	venue := sim.NewVenue(sim.Config{
		Seed:             cfg.Venue.Seed,
		RejectRatio:      cfg.Venue.RejectRatio,
		MalformedRatio:   cfg.Venue.MalformedRatio,
		MaxFillsPerOrder: cfg.Venue.MaxFillsPerOrder,
		QueueSize:        cfg.Venue.QueueSize,
	}, sugar)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API server ----
	apiServer := api.NewServer(book, venue, sugar)
	go func() {
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// Every published snapshot goes to subscribers and, periodically, to
	// the snapshot store; accepted fills go to their symbol channels.
	var lastSaved time.Time
	book.OnApply = func(snap *recon.Snapshot, ev recon.Event) {
		apiServer.BroadcastSnapshot(snap)
		if time.Since(lastSaved) >= time.Second {
			if err := store.SaveSnapshot(snap); err != nil {
				sugar.Warnw("snapshot_save_failed", "seq", snap.Seq, "err", err)
			}
			lastSaved = time.Now()
		}
	}
	book.OnFill = func(f recon.Fill) {
		apiServer.BroadcastFill(f)
	}

	// ---- Report pump: venue -> journal -> engine ----
	go func() {
		var journalSeq uint64
		for {
			select {
			case <-ctx.Done():
				return
			case raw := <-venue.Reports():
				journalSeq++
				if err := store.AppendReport(journalSeq, raw); err != nil {
					sugar.Warnw("journal_append_failed", "seq", journalSeq, "err", err)
				}
				book.ApplyRaw(raw) // drops are logged inside
			}
		}
	}()

	go venue.Run(ctx)

	// ---- Order generator (optional) ----
	genDone := make(chan struct{})
	if cfg.Generator.Enabled {
		g := gen.New(gen.Config{
			Symbols:     cfg.Generator.Symbols,
			Interval:    cfg.Generator.Interval,
			Window:      cfg.Generator.Window,
			MaxOrders:   cfg.Generator.MaxOrders,
			MaxQty:      cfg.Generator.MaxQty,
			MinPrice:    cfg.Generator.MinPrice,
			MaxPrice:    cfg.Generator.MaxPrice,
			CancelRatio: cfg.Generator.CancelRatio,
			Seed:        cfg.Venue.Seed,
		}, venue, book, sugar)
		go func() {
			g.Run(ctx)
			sugar.Infow("generator_done", "orders_sent", g.Sent())
			close(genDone)
		}()
	} else {
		sugar.Info("generator_disabled - orders via API only")
		close(genDone)
	}

	sugar.Infow("recond_starting",
		"api_addr", cfg.API.Addr,
		"symbols", cfg.Generator.Symbols,
		"window", cfg.Generator.Window.String())

	// Progress + stats file loop
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			finish(sugar, book, store, statsWriter)
			return
		case <-genDone:
			genDone = nil // fire once
			// Let in-flight fills drain before the final stats write.
			time.Sleep(2 * time.Second)
			finishStats(sugar, book, statsWriter)
		case <-ticker.C:
			snap := book.Snapshot()
			if snap.Seq != lastSeq {
				sugar.Infow("recon_progress",
					"seq", snap.Seq,
					"open_orders", len(snap.OpenOrders),
					"total_volume", snap.TotalVolume,
					"total_pnl", snap.TotalPnL)
				lastSeq = snap.Seq
			}
			if err := statsWriter.Write(snap); err != nil {
				sugar.Warnw("stats_write_failed", "err", err)
			}
		}
	}
}

func finishStats(sugar *zap.SugaredLogger, book *recon.Book, w *storage.StatsWriter) {
	snap := book.Snapshot()
	if err := w.Write(snap); err != nil {
		sugar.Warnw("stats_write_failed", "err", err)
		return
	}
	sugar.Infow("market_stats_written",
		"seq", snap.Seq,
		"total_volume", snap.TotalVolume,
		"realized_pnl", snap.TotalRealizedPnL,
		"unrealized_pnl", snap.TotalUnrealizedPnL)
}

func finish(sugar *zap.SugaredLogger, book *recon.Book, store *storage.Store, w *storage.StatsWriter) {
	snap := book.Snapshot()
	if err := store.SaveSnapshot(snap); err != nil {
		sugar.Warnw("snapshot_save_failed", "seq", snap.Seq, "err", err)
	}
	finishStats(sugar, book, w)
	sugar.Infow("recond_stopped", "final_seq", snap.Seq)
}
