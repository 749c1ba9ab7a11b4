// Package recon implements the execution-report reconciliation and portfolio
// accounting engine: per-order fill progress, per-instrument traded volume
// and VWAP, and per-instrument position/PnL, driven one event at a time.
package recon

// Side is the order side as reported by the venue.
type Side int8

const (
	SideUnknown Side = iota
	SideBuy
	SideSell
	SideSellShort
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	case SideSellShort:
		return "sell_short"
	default:
		return "unknown"
	}
}

// OrdType distinguishes limit from market orders.
type OrdType int8

const (
	OrdTypeUnknown OrdType = iota
	OrdTypeLimit
	OrdTypeMarket
)

func (t OrdType) String() string {
	switch t {
	case OrdTypeLimit:
		return "limit"
	case OrdTypeMarket:
		return "market"
	default:
		return "unknown"
	}
}

// ExecType is the kind of execution report.
type ExecType int8

const (
	ExecTypeUnknown ExecType = iota
	ExecTypeNew
	ExecTypePendingNew
	ExecTypePartialFill
	ExecTypeFill
	ExecTypeCanceled
	ExecTypeRejected
)

func (e ExecType) String() string {
	switch e {
	case ExecTypeNew:
		return "new"
	case ExecTypePendingNew:
		return "pending_new"
	case ExecTypePartialFill:
		return "partial_fill"
	case ExecTypeFill:
		return "fill"
	case ExecTypeCanceled:
		return "canceled"
	case ExecTypeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// OrdStatus is the order's lifecycle state as stated by the report.
type OrdStatus int8

const (
	OrdStatusUnknown OrdStatus = iota
	OrdStatusPendingNew
	OrdStatusNew
	OrdStatusPartiallyFilled
	OrdStatusFilled
	OrdStatusCanceled
	OrdStatusRejected
)

func (s OrdStatus) String() string {
	switch s {
	case OrdStatusPendingNew:
		return "pending_new"
	case OrdStatusNew:
		return "new"
	case OrdStatusPartiallyFilled:
		return "partially_filled"
	case OrdStatusFilled:
		return "filled"
	case OrdStatusCanceled:
		return "canceled"
	case OrdStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the order's lifecycle.
func (s OrdStatus) Terminal() bool {
	switch s {
	case OrdStatusFilled, OrdStatusCanceled, OrdStatusRejected:
		return true
	default:
		return false
	}
}

// OptQty is an integer quantity that may be absent from a report. Absent is
// distinct from zero: arithmetic branches on Set instead of coercing to 0.
type OptQty struct {
	Value int64
	Set   bool
}

func SomeQty(v int64) OptQty { return OptQty{Value: v, Set: true} }

// OptPx is a price that may be absent from a report.
type OptPx struct {
	Value float64
	Set   bool
}

func SomePx(v float64) OptPx { return OptPx{Value: v, Set: true} }

// Event is one normalized execution report. Events are immutable facts;
// each corresponds to exactly one wire message.
type Event struct {
	ExecType  ExecType
	OrdStatus OrdStatus
	ClOrdID   string
	OrderID   string
	Symbol    string
	Side      Side
	OrdType   OrdType

	OrderQty OptQty
	Price    OptPx // limit price
	LastPx   OptPx // price of this specific fill
	LastQty  OptQty
	MinQty   OptQty

	// Venue-stated aggregates. Required on the wire, but the ledger keeps
	// its own arithmetic and never trusts these for state.
	AvgPx     OptPx
	LeavesQty OptQty
	CumQty    OptQty
}
