package recon

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fixlabs/recon/pkg/util"
)

// Book is the reconciliation coordinator: it accepts normalized events,
// drives the ledger, fans accepted fills out to the position aggregator and
// the statistics tracker, and publishes an immutable snapshot after each
// event.
//
// One Book is one logical book. All accumulators are instance state; any
// number of books can coexist in a process. Apply calls are serialized by a
// mutex; snapshot reads go through an atomic pointer and never block the
// writer.
type Book struct {
	mu        sync.Mutex
	ledger    *Ledger
	positions *PositionBook
	stats     *StatsTracker
	seq       uint64
	snap      atomic.Pointer[Snapshot]
	log       *zap.SugaredLogger

	// OnApply, when set, observes every published snapshot together with
	// the event that produced it. Called synchronously in apply order;
	// keep it non-blocking.
	OnApply func(*Snapshot, Event)

	// OnFill, when set, observes every accepted fill after the snapshot
	// it contributed to has been published. Same calling rules as OnApply.
	OnFill func(Fill)
}

func NewBook(log *zap.SugaredLogger) *Book {
	if log == nil {
		log = util.NopSugar()
	}
	b := &Book{
		ledger:    NewLedger(log),
		positions: NewPositionBook(),
		stats:     NewStatsTracker(),
		log:       log,
	}
	b.snap.Store(&Snapshot{
		OpenOrders: []OrderView{},
		Positions:  []PositionView{},
		Stats:      []StatView{},
	})
	return b
}

// Apply runs one event through the engine and returns the snapshot that
// resulted. A dropped event returns the previous snapshot with the
// rejection reason attached and no other change.
func (b *Book) Apply(ev Event) *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := b.ledger.Apply(ev)

	var snap *Snapshot
	if res.Outcome == OutcomeSkipped {
		snap = b.snap.Load().WithNote(res.Note)
	} else {
		if res.Outcome == OutcomeFilled {
			b.positions.ApplyFill(*res.Fill)
			b.stats.ApplyFill(*res.Fill)
		}
		b.seq++
		snap = buildSnapshot(b.seq, b.ledger, b.positions, b.stats, res.Order)
		if res.Note != "" {
			snap.Note = res.Note
		}
		if res.Order != nil && res.Order.Status.Terminal() {
			// Final values are in snap; the record can go.
			b.ledger.Purge(res.Order.ClOrdID)
		}
	}

	b.snap.Store(snap)
	if b.OnApply != nil {
		b.OnApply(snap, ev)
	}
	if b.OnFill != nil && res.Outcome == OutcomeFilled {
		b.OnFill(*res.Fill)
	}
	return snap
}

// ApplyRaw normalizes and applies one raw report. On a normalization
// failure the event is dropped: no state moves, the previous snapshot is
// returned with the rejection reason as its note, alongside the error.
func (b *Book) ApplyRaw(raw RawReport) (*Snapshot, error) {
	ev, err := Normalize(raw)
	if err != nil {
		b.log.Warnw("report_dropped", "err", err)
		return b.Snapshot().WithNote(err.Error()), err
	}
	return b.Apply(ev), nil
}

// Snapshot returns the latest published snapshot. Safe from any goroutine.
func (b *Book) Snapshot() *Snapshot {
	return b.snap.Load()
}

// OpenOrders returns the live open-order index, sorted by symbol then
// ClOrdID. Each entry carries what a cancel request needs: ClOrdID, symbol,
// side, order quantity.
func (b *Book) OpenOrders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	orders := b.ledger.Open()
	sortOrders(orders)
	return orders
}

// Order returns a tracked order by ClOrdID.
func (b *Book) Order(clOrdID string) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ledger.Get(clOrdID)
}

// Position returns the symbol's position, zero-valued if never traded.
func (b *Book) Position(symbol string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.positions.Get(symbol)
}

// Stat returns the symbol's traded-volume aggregate.
func (b *Book) Stat(symbol string) (InstrumentStat, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats.Get(symbol)
}

func sortOrders(orders []Order) {
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Symbol != orders[j].Symbol {
			return orders[i].Symbol < orders[j].Symbol
		}
		return orders[i].ClOrdID < orders[j].ClOrdID
	})
}
