// Package storage persists the engine's observable output: every applied
// raw report (the event journal) and every published snapshot, in Pebble.
// The store is a journal for replay and inspection, not crash recovery;
// the engine itself is in-memory only.
package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/fixlabs/recon/pkg/recon"
)

// keys: e:<8-byte-seq> raw report, s:<8-byte-seq> snapshot
func kReport(seq uint64) []byte   { return append([]byte("e:"), seqKey(seq)...) }
func kSnapshot(seq uint64) []byte { return append([]byte("s:"), seqKey(seq)...) }

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

type Store struct {
	db *pebble.DB
}

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// AppendReport journals one raw report under its transport sequence.
func (s *Store) AppendReport(seq uint64, raw recon.RawReport) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.db.Set(kReport(seq), data, pebble.NoSync); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	return nil
}

// SaveSnapshot persists a published snapshot under its sequence.
func (s *Store) SaveSnapshot(snap *recon.Snapshot) error {
	data, err := snap.JSON()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.db.Set(kSnapshot(snap.Seq), data, pebble.NoSync); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the highest-sequence snapshot, if any.
func (s *Store) LatestSnapshot() (*recon.Snapshot, bool, error) {
	prefix := []byte("s:")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, false, err
	}
	defer iter.Close()

	if !iter.Last() {
		return nil, false, nil
	}
	var snap recon.Snapshot
	if err := json.Unmarshal(iter.Value(), &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, true, nil
}

// Reports scans the journal in sequence order. The callback returning an
// error stops the scan.
func (s *Store) Reports(fn func(seq uint64, raw recon.RawReport) error) error {
	prefix := []byte("e:")
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq := binary.BigEndian.Uint64(iter.Key()[2:])
		var raw recon.RawReport
		if err := json.Unmarshal(iter.Value(), &raw); err != nil {
			continue // skip corrupt entries
		}
		if err := fn(seq, raw); err != nil {
			return err
		}
	}
	return nil
}

// keyUpperBound returns the smallest key greater than every key with the
// given prefix.
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
