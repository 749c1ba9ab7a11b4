package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fixlabs/recon/pkg/recon"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "recon.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreJournalRoundTrip(t *testing.T) {
	s := newTestStore(t)

	reports := []recon.RawReport{
		{recon.FieldClOrdID: "A1", recon.FieldOrdStatus: "new"},
		{recon.FieldClOrdID: "A1", recon.FieldOrdStatus: "partially_filled", recon.FieldLastQty: "40"},
		{recon.FieldClOrdID: "A1", recon.FieldOrdStatus: "filled", recon.FieldLastQty: "60"},
	}
	for i, r := range reports {
		require.NoError(t, s.AppendReport(uint64(i+1), r))
	}

	var got []recon.RawReport
	var seqs []uint64
	err := s.Reports(func(seq uint64, raw recon.RawReport) error {
		seqs = append(seqs, seq)
		got = append(got, raw)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, seqs, "journal must replay in sequence order")
	require.Equal(t, reports, got)
}

func TestStoreReportsScanStopsOnError(t *testing.T) {
	s := newTestStore(t)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.AppendReport(i, recon.RawReport{recon.FieldClOrdID: "A1"}))
	}

	var seen int
	err := s.Reports(func(seq uint64, raw recon.RawReport) error {
		seen++
		if seq == 3 {
			return os.ErrClosed
		}
		return nil
	})
	require.ErrorIs(t, err, os.ErrClosed)
	require.Equal(t, 3, seen)
}

func TestStoreLatestSnapshot(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.LatestSnapshot()
	require.NoError(t, err)
	require.False(t, ok, "empty store has no snapshot")

	for _, seq := range []uint64{1, 7, 3} {
		require.NoError(t, s.SaveSnapshot(&recon.Snapshot{Seq: seq, TotalVolume: float64(seq) * 100}))
	}

	snap, ok, err := s.LatestSnapshot()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), snap.Seq, "latest snapshot is the highest sequence")
	require.Equal(t, 700.0, snap.TotalVolume)
}

func TestStatsWriterFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "market_stats.txt")
	w, err := NewStatsWriter(path)
	require.NoError(t, err)

	snap := &recon.Snapshot{
		Stats: []recon.StatView{
			{Symbol: "AAPL", VWAP: 187.5},
			{Symbol: "MSFT", VWAP: 105},
		},
		TotalVolume: 2100,
		TotalPnL:    -12.345,
	}
	require.NoError(t, w.Write(snap))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	require.Contains(t, out, "============ MARKET STATS ============")
	require.Contains(t, out, "VWAP for AAPL: 187.50000 USD")
	require.Contains(t, out, "VWAP for MSFT: 105.00000 USD")
	require.Contains(t, out, "Total Volume: 2100.00000 USD")
	require.Contains(t, out, "PnL: -12.34500 USD")

	// Each write replaces the file, never appends.
	require.NoError(t, w.Write(snap))
	data2, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, data, data2)
	require.Equal(t, 1, strings.Count(string(data2), "MARKET STATS"))
}
