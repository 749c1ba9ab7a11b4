// Command replay rebuilds book state from a recond journal. It feeds every
// journaled execution report through a fresh engine in order and prints the
// resulting snapshot, which is how a journal is audited after the fact.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fixlabs/recon/pkg/recon"
	"github.com/fixlabs/recon/pkg/storage"
	"github.com/fixlabs/recon/pkg/util"
)

func main() {
	dataDir := flag.String("data", "data/recon.db", "journal directory")
	verbose := flag.Bool("v", false, "log every applied report")
	flag.Parse()

	logger, err := util.NewLogger()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	store, err := storage.Open(*dataDir)
	if err != nil {
		sugar.Fatalw("storage_open_failed", "path", *dataDir, "err", err)
	}
	defer store.Close()

	book := recon.NewBook(sugar)

	var applied, dropped int
	err = store.Reports(func(seq uint64, raw recon.RawReport) error {
		snap, err := book.ApplyRaw(raw)
		if err != nil {
			dropped++
			return nil
		}
		applied++
		if *verbose {
			sugar.Infow("replayed",
				"journal_seq", seq,
				"book_seq", snap.Seq,
				"note", snap.Note)
		}
		return nil
	})
	if err != nil {
		sugar.Fatalw("replay_failed", "err", err)
	}

	snap := book.Snapshot()
	sugar.Infow("replay_done",
		"applied", applied,
		"dropped", dropped,
		"final_seq", snap.Seq,
		"open_orders", len(snap.OpenOrders))

	out, err := snap.JSON()
	if err != nil {
		sugar.Fatalw("snapshot_encode_failed", "err", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
}
