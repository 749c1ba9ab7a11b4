// Package sim provides a simulated execution venue. It stands in for the
// exchange counterparty: it accepts order and cancel submissions and emits
// execution reports as raw field maps, the same shape a FIX transport would
// hand to the reconciliation engine.
package sim

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fixlabs/recon/pkg/recon"
	"github.com/fixlabs/recon/pkg/util"
)

// Config controls venue behavior. The zero value is usable but fills every
// order in one slice and never rejects.
type Config struct {
	Seed int64
	// RejectRatio is the fraction of submissions rejected outright.
	RejectRatio float64
	// MalformedRatio is the fraction of reports emitted with a required
	// field removed, to exercise the engine's drop path.
	MalformedRatio float64
	// MaxFillsPerOrder caps how many slices an order is filled in.
	MaxFillsPerOrder int
	// FillInterval paces the background fill loop.
	FillInterval time.Duration
	// QueueSize bounds the outbound report channel.
	QueueSize int
}

// OrderRequest is a NewOrderSingle submission.
type OrderRequest struct {
	ClOrdID  string
	Symbol   string
	Side     recon.Side
	OrdType  recon.OrdType
	OrderQty int64
	Price    float64 // limit orders only
}

// CancelRequest is an OrderCancelRequest. It carries its own ClOrdID and
// references the order to cancel by OrigClOrdID.
type CancelRequest struct {
	ClOrdID     string
	OrigClOrdID string
	Symbol      string
	Side        recon.Side
}

type workingOrder struct {
	req     OrderRequest
	orderID string
	cumQty  int64
	avgPx   float64
}

// Venue is the simulated exchange. One goroutine (Run) slices working
// orders into fills over time; Submit and Cancel may be called from any
// goroutine. Reports come out of Reports() in emission order.
type Venue struct {
	cfg Config
	log *zap.SugaredLogger

	mu          sync.Mutex
	rng         *rand.Rand
	working     map[string]*workingOrder
	workingIDs  []string
	refPx       map[string]float64
	nextOrderID int64

	out chan recon.RawReport
}

func NewVenue(cfg Config, log *zap.SugaredLogger) *Venue {
	if log == nil {
		log = util.NopSugar()
	}
	if cfg.MaxFillsPerOrder < 1 {
		cfg.MaxFillsPerOrder = 1
	}
	if cfg.FillInterval <= 0 {
		cfg.FillInterval = 20 * time.Millisecond
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Venue{
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewSource(seed)),
		working: make(map[string]*workingOrder),
		refPx:   make(map[string]float64),
		out:     make(chan recon.RawReport, cfg.QueueSize),
	}
}

// Reports is the venue's outbound execution-report stream.
func (v *Venue) Reports() <-chan recon.RawReport {
	return v.out
}

// Submit accepts a new order. The venue acknowledges with PendingNew and
// New reports, or a Rejected report, synchronously. Fills follow from the
// Run loop.
func (v *Venue) Submit(req OrderRequest) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextOrderID++
	orderID := "EX" + strconv.FormatInt(v.nextOrderID, 10)

	if v.rng.Float64() < v.cfg.RejectRatio {
		w := &workingOrder{req: req, orderID: orderID}
		v.emit(v.report(w, recon.ExecTypeRejected, recon.OrdStatusRejected, 0, 0))
		v.log.Infow("order_rejected", "cl_ord_id", req.ClOrdID, "symbol", req.Symbol)
		return
	}

	w := &workingOrder{req: req, orderID: orderID}
	v.working[req.ClOrdID] = w
	v.workingIDs = append(v.workingIDs, req.ClOrdID)

	v.emit(v.report(w, recon.ExecTypePendingNew, recon.OrdStatusPendingNew, 0, 0))
	v.emit(v.report(w, recon.ExecTypeNew, recon.OrdStatusNew, 0, 0))
}

// Cancel removes a working order and reports Canceled against the original
// ClOrdID. An unknown reference produces an order-cancel-reject style
// report, which the engine logs without mutating state.
func (v *Venue) Cancel(req CancelRequest) {
	v.mu.Lock()
	defer v.mu.Unlock()

	w, ok := v.working[req.OrigClOrdID]
	if !ok {
		r := recon.RawReport{
			recon.FieldExecType:  "canceled",
			recon.FieldOrdStatus: "pending_cancel",
			recon.FieldClOrdID:   req.OrigClOrdID,
			recon.FieldOrderID:   "NONE",
			recon.FieldSymbol:    req.Symbol,
			recon.FieldSide:      req.Side.String(),
			recon.FieldOrdType:   "limit",
			recon.FieldOrderQty:  "0",
			recon.FieldPrice:     "0",
			recon.FieldAvgPx:     "0",
			recon.FieldLeavesQty: "0",
			recon.FieldCumQty:    "0",
		}
		v.emit(r)
		v.log.Infow("cancel_reject", "orig_cl_ord_id", req.OrigClOrdID)
		return
	}

	v.drop(req.OrigClOrdID)
	v.emit(v.report(w, recon.ExecTypeCanceled, recon.OrdStatusCanceled, 0, 0))
}

// Run drives fills until ctx is done. Each tick one randomly chosen
// working order receives its next slice.
func (v *Venue) Run(ctx context.Context) {
	ticker := time.NewTicker(v.cfg.FillInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Step()
		}
	}
}

// Step advances one fill on a random working order. Exposed so tests can
// drive the venue deterministically without the Run loop.
func (v *Venue) Step() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.workingIDs) == 0 {
		return
	}
	id := v.workingIDs[v.rng.Intn(len(v.workingIDs))]
	w, ok := v.working[id]
	if !ok {
		v.drop(id)
		return
	}

	leaves := w.req.OrderQty - w.cumQty
	if leaves <= 0 {
		v.drop(id)
		return
	}

	// Slice size: roughly orderQty/MaxFillsPerOrder, at least 1, capped
	// at what is left.
	slice := w.req.OrderQty / int64(v.cfg.MaxFillsPerOrder)
	if slice < 1 {
		slice = 1
	}
	qty := 1 + v.rng.Int63n(slice)
	if qty > leaves {
		qty = leaves
	}

	px := v.fillPrice(w.req)
	newCum := w.cumQty + qty
	w.avgPx = (w.avgPx*float64(w.cumQty) + px*float64(qty)) / float64(newCum)
	w.cumQty = newCum

	if w.cumQty >= w.req.OrderQty {
		v.drop(id)
		v.emit(v.report(w, recon.ExecTypeFill, recon.OrdStatusFilled, px, qty))
	} else {
		v.emit(v.report(w, recon.ExecTypePartialFill, recon.OrdStatusPartiallyFilled, px, qty))
	}
}

// fillPrice prices a slice: limit orders trade at the limit with a little
// improvement, market orders at a per-symbol reference walk.
func (v *Venue) fillPrice(req OrderRequest) float64 {
	ref, ok := v.refPx[req.Symbol]
	if !ok {
		if req.OrdType == recon.OrdTypeLimit {
			ref = req.Price
		} else {
			ref = 150
		}
	}

	var px float64
	if req.OrdType == recon.OrdTypeLimit {
		improvement := v.rng.Float64() * 0.05 * req.Price / 100
		if req.Side == recon.SideBuy {
			px = req.Price - improvement
		} else {
			px = req.Price + improvement
		}
	} else {
		px = ref * (1 + (v.rng.Float64()-0.5)/100)
	}
	if px <= 0 {
		px = ref
	}
	v.refPx[req.Symbol] = px
	return px
}

func (v *Venue) drop(clOrdID string) {
	delete(v.working, clOrdID)
	for i, id := range v.workingIDs {
		if id == clOrdID {
			v.workingIDs = append(v.workingIDs[:i], v.workingIDs[i+1:]...)
			break
		}
	}
}

// report builds a full execution report for a working order. lastPx/lastQty
// are included only on fill reports.
func (v *Venue) report(w *workingOrder, et recon.ExecType, os recon.OrdStatus, lastPx float64, lastQty int64) recon.RawReport {
	leaves := w.req.OrderQty - w.cumQty
	if leaves < 0 {
		leaves = 0
	}
	r := recon.RawReport{
		recon.FieldExecType:  et.String(),
		recon.FieldOrdStatus: os.String(),
		recon.FieldClOrdID:   w.req.ClOrdID,
		recon.FieldOrderID:   w.orderID,
		recon.FieldSymbol:    w.req.Symbol,
		recon.FieldSide:      w.req.Side.String(),
		recon.FieldOrdType:   w.req.OrdType.String(),
		recon.FieldOrderQty:  strconv.FormatInt(w.req.OrderQty, 10),
		recon.FieldPrice:     formatPx(w.req.Price),
		recon.FieldAvgPx:     formatPx(w.avgPx),
		recon.FieldLeavesQty: strconv.FormatInt(leaves, 10),
		recon.FieldCumQty:    strconv.FormatInt(w.cumQty, 10),
	}
	if lastQty > 0 {
		r[recon.FieldLastPx] = formatPx(lastPx)
		r[recon.FieldLastQty] = strconv.FormatInt(lastQty, 10)
	}

	if v.cfg.MalformedRatio > 0 && v.rng.Float64() < v.cfg.MalformedRatio {
		// Drop one required field so the normalizer has something to
		// reject downstream.
		victims := []string{recon.FieldAvgPx, recon.FieldCumQty, recon.FieldLeavesQty, recon.FieldOrderQty}
		delete(r, victims[v.rng.Intn(len(victims))])
	}
	return r
}

// emit hands a report to the outbound queue. A full queue drops the report;
// backpressure is the transport's concern, not the venue's.
func (v *Venue) emit(r recon.RawReport) {
	select {
	case v.out <- r:
	default:
		v.log.Warnw("report_queue_full", "cl_ord_id", r[recon.FieldClOrdID])
	}
}

func formatPx(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64)
}
