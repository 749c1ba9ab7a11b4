package recon

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fixlabs/recon/pkg/util"
)

// Order is the authoritative per-order aggregate, keyed by ClOrdID.
//
// Invariants: CumQty+LeavesQty == OrderQty once OrderQty is known; CumQty is
// monotonically non-decreasing; AvgPx is meaningful only when CumQty > 0.
type Order struct {
	ClOrdID    string
	OrderID    string
	Symbol     string
	Side       Side
	OrdType    OrdType
	OrderQty   int64
	LimitPrice OptPx
	CumQty     int64
	LeavesQty  int64
	AvgPx      float64
	Status     OrdStatus

	// Synthesized marks an order created from a fill for a ClOrdID the
	// ledger had never seen. Reports may arrive out of order relative to
	// local order creation; tolerating that is deliberate, the flag keeps
	// it observable.
	Synthesized bool
}

// Fill is the accounting-relevant slice of an accepted fill event, handed to
// the position aggregator and the statistics tracker.
type Fill struct {
	ClOrdID string
	Symbol  string
	Side    Side
	Px      float64
	Qty     int64
}

// Outcome classifies what a ledger application did.
type Outcome int8

const (
	// OutcomeSkipped: the event produced no ledger mutation (unrecognized
	// status, administrative report). Logged only.
	OutcomeSkipped Outcome = iota
	// OutcomeAcked: order created or confirmed by New/PendingNew.
	OutcomeAcked
	// OutcomeRemoved: order left the open index on Canceled/Rejected.
	OutcomeRemoved
	// OutcomeFilled: fill arithmetic was applied (partial or full).
	OutcomeFilled
	// OutcomeRestated: a fill-status report without fill detail; only
	// LeavesQty was recomputed.
	OutcomeRestated
)

// Ledger holds every tracked order and the open-order index, and enforces
// the lifecycle state machine one event at a time.
type Ledger struct {
	orders map[string]*Order
	open   map[string]struct{}
	log    *zap.SugaredLogger
}

func NewLedger(log *zap.SugaredLogger) *Ledger {
	if log == nil {
		log = util.NopSugar()
	}
	return &Ledger{
		orders: make(map[string]*Order),
		open:   make(map[string]struct{}),
		log:    log,
	}
}

// Result reports the effect of applying one event.
type Result struct {
	Outcome Outcome
	Order   *Order // post-state copy of the touched order, nil when skipped
	Fill    *Fill  // non-nil only for OutcomeFilled
	Note    string // human-readable reason for skips and tolerances
}

// Apply runs one event through the state machine. It never fails: events
// the machine cannot account for are skipped with a note, per the
// "skip this event, keep serving the next" policy.
func (l *Ledger) Apply(ev Event) Result {
	switch ev.OrdStatus {
	case OrdStatusPendingNew, OrdStatusNew:
		return l.applyAck(ev)
	case OrdStatusCanceled, OrdStatusRejected:
		return l.applyTerminal(ev)
	case OrdStatusPartiallyFilled, OrdStatusFilled:
		return l.applyFill(ev)
	default:
		// Order-cancel-reject and administrative statuses land here.
		note := fmt.Sprintf("%v: ordStatus %s (clOrdID=%s)", ErrInvalidTransition, ev.OrdStatus, ev.ClOrdID)
		l.log.Infow("report_skipped", "ord_status", ev.OrdStatus.String(), "cl_ord_id", ev.ClOrdID)
		return Result{Outcome: OutcomeSkipped, Note: note}
	}
}

// applyAck creates or confirms an order from a New/PendingNew report.
// Position and statistics are untouched.
func (l *Ledger) applyAck(ev Event) Result {
	o, ok := l.orders[ev.ClOrdID]
	if !ok {
		o = &Order{ClOrdID: ev.ClOrdID}
		l.orders[ev.ClOrdID] = o
	}
	l.open[ev.ClOrdID] = struct{}{}

	o.Symbol = ev.Symbol
	o.Side = ev.Side
	o.OrdType = ev.OrdType
	if ev.OrderQty.Set {
		o.OrderQty = ev.OrderQty.Value
	}
	o.LimitPrice = ev.Price
	if ev.OrderID != "" {
		o.OrderID = ev.OrderID
	}
	o.CumQty = 0
	o.LeavesQty = o.OrderQty
	o.Status = ev.OrdStatus

	cp := *o
	return Result{Outcome: OutcomeAcked, Order: &cp}
}

// applyTerminal evicts the order on Canceled/Rejected. The record itself is
// retained until the coordinator purges it after the next snapshot, so the
// final values stay retrievable.
func (l *Ledger) applyTerminal(ev Event) Result {
	o, ok := l.orders[ev.ClOrdID]
	if !ok {
		o = &Order{
			ClOrdID: ev.ClOrdID,
			Symbol:  ev.Symbol,
			Side:    ev.Side,
			OrdType: ev.OrdType,
		}
		if ev.OrderQty.Set {
			o.OrderQty = ev.OrderQty.Value
		}
		l.orders[ev.ClOrdID] = o
	}
	delete(l.open, ev.ClOrdID)

	if ev.OrderID != "" {
		o.OrderID = ev.OrderID
	}
	o.Status = ev.OrdStatus

	cp := *o
	return Result{Outcome: OutcomeRemoved, Order: &cp}
}

// applyFill runs the incremental fill arithmetic:
//
//	cumQty'   = cumQty + lastQty
//	leavesQty' = max(0, orderQty - cumQty')
//	avgPx'    = (cumQty*avgPx + lastQty*lastPx) / cumQty'
//
// Reports that restate a fill status without LastPx/LastQty only recompute
// LeavesQty from the known CumQty and leave AvgPx untouched.
func (l *Ledger) applyFill(ev Event) Result {
	var note string
	o, ok := l.orders[ev.ClOrdID]
	if !ok {
		o = &Order{
			ClOrdID:     ev.ClOrdID,
			Symbol:      ev.Symbol,
			Side:        ev.Side,
			OrdType:     ev.OrdType,
			LimitPrice:  ev.Price,
			Synthesized: true,
		}
		if ev.OrderQty.Set {
			o.OrderQty = ev.OrderQty.Value
		}
		if ev.OrderID != "" {
			o.OrderID = ev.OrderID
		}
		l.orders[ev.ClOrdID] = o
		l.open[ev.ClOrdID] = struct{}{}
		note = fmt.Sprintf("%v: synthesized order for clOrdID=%s", ErrUnknownOrder, ev.ClOrdID)
		l.log.Warnw("order_synthesized", "cl_ord_id", ev.ClOrdID, "symbol", ev.Symbol)
	}
	if ev.OrderID != "" {
		o.OrderID = ev.OrderID
	}

	var fill *Fill
	if ev.LastPx.Set && ev.LastQty.Set {
		prevCum, prevAvg := o.CumQty, o.AvgPx
		o.CumQty = prevCum + ev.LastQty.Value
		o.LeavesQty = maxInt64(0, o.OrderQty-o.CumQty)
		if o.CumQty > 0 {
			o.AvgPx = (float64(prevCum)*prevAvg + float64(ev.LastQty.Value)*ev.LastPx.Value) / float64(o.CumQty)
		} else if ev.Price.Set {
			o.AvgPx = ev.Price.Value
		}
		fill = &Fill{
			ClOrdID: o.ClOrdID,
			Symbol:  o.Symbol,
			Side:    o.Side,
			Px:      ev.LastPx.Value,
			Qty:     ev.LastQty.Value,
		}
	} else {
		o.LeavesQty = maxInt64(0, o.OrderQty-o.CumQty)
	}

	o.Status = ev.OrdStatus
	if ev.OrdStatus == OrdStatusFilled && o.LeavesQty == 0 {
		delete(l.open, o.ClOrdID)
	}

	cp := *o
	if fill == nil {
		return Result{Outcome: OutcomeRestated, Order: &cp, Note: note}
	}
	return Result{Outcome: OutcomeFilled, Order: &cp, Fill: fill, Note: note}
}

// Open returns copies of all orders in the open index.
func (l *Ledger) Open() []Order {
	out := make([]Order, 0, len(l.open))
	for id := range l.open {
		out = append(out, *l.orders[id])
	}
	return out
}

// Get returns a copy of a tracked order.
func (l *Ledger) Get(clOrdID string) (Order, bool) {
	o, ok := l.orders[clOrdID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Purge drops a terminal order's record. Called by the coordinator after
// the final state has been published in a snapshot.
func (l *Ledger) Purge(clOrdID string) {
	if _, open := l.open[clOrdID]; open {
		return
	}
	delete(l.orders, clOrdID)
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
