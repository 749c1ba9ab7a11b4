package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fixlabs/recon/pkg/recon"
)

// StatsWriter renders a human-readable market-stats summary to a file,
// replacing it atomically on each write.
type StatsWriter struct {
	mu   sync.Mutex
	path string
}

func NewStatsWriter(path string) (*StatsWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &StatsWriter{path: path}, nil
}

func (w *StatsWriter) Write(snap *recon.Snapshot) error {
	var b strings.Builder
	b.WriteString("============ MARKET STATS ============\n")
	for _, s := range snap.Stats {
		fmt.Fprintf(&b, "VWAP for %s: %.5f USD\n", s.Symbol, s.VWAP)
	}
	fmt.Fprintf(&b, "Total Volume: %.5f USD\n", snap.TotalVolume)
	fmt.Fprintf(&b, "PnL: %.5f USD\n", snap.TotalPnL)
	b.WriteString("======================================\n")

	w.mu.Lock()
	defer w.mu.Unlock()

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, w.path)
}
