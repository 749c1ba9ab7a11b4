package sim

import (
	"testing"

	"github.com/fixlabs/recon/pkg/recon"
)

func newTestVenue(t *testing.T, cfg Config) *Venue {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	return NewVenue(cfg, nil)
}

func collect(t *testing.T, v *Venue, n int) []recon.RawReport {
	t.Helper()
	out := make([]recon.RawReport, 0, n)
	for i := 0; i < n; i++ {
		select {
		case r := <-v.Reports():
			out = append(out, r)
		default:
			t.Fatalf("wanted %d reports, queue dried up at %d", n, i)
		}
	}
	return out
}

func limitBuy(clOrdID string, qty int64, px float64) OrderRequest {
	return OrderRequest{
		ClOrdID:  clOrdID,
		Symbol:   "MSFT",
		Side:     recon.SideBuy,
		OrdType:  recon.OrdTypeLimit,
		OrderQty: qty,
		Price:    px,
	}
}

func TestVenueSubmitAcks(t *testing.T) {
	v := newTestVenue(t, Config{})

	v.Submit(limitBuy("A1", 100, 150))
	reports := collect(t, v, 2)

	if got := reports[0][recon.FieldOrdStatus]; got != "pending_new" {
		t.Errorf("first report: got %s, want pending_new", got)
	}
	if got := reports[1][recon.FieldOrdStatus]; got != "new" {
		t.Errorf("second report: got %s, want new", got)
	}
	for _, r := range reports {
		if _, err := recon.Normalize(r); err != nil {
			t.Errorf("ack report not normalizable: %v (%v)", err, r)
		}
	}
}

func TestVenueFillsToCompletion(t *testing.T) {
	v := newTestVenue(t, Config{MaxFillsPerOrder: 4})
	v.Submit(limitBuy("A1", 100, 150))
	collect(t, v, 2) // acks

	var cum int64
	for i := 0; i < 200 && cum < 100; i++ {
		v.Step()
		select {
		case r := <-v.Reports():
			ev, err := recon.Normalize(r)
			if err != nil {
				t.Fatalf("fill report not normalizable: %v", err)
			}
			if !ev.LastQty.Set || ev.LastQty.Value < 1 {
				t.Fatalf("fill without positive lastQty: %v", r)
			}
			cum += ev.LastQty.Value
			wantStatus := recon.OrdStatusPartiallyFilled
			if cum >= 100 {
				wantStatus = recon.OrdStatusFilled
			}
			if ev.OrdStatus != wantStatus {
				t.Errorf("at cum=%d: status %v, want %v", cum, ev.OrdStatus, wantStatus)
			}
		default:
			t.Fatal("step produced no report while order working")
		}
	}
	if cum != 100 {
		t.Fatalf("order never completed: cum=%d", cum)
	}
	// Completed order is gone; further steps are no-ops.
	v.Step()
	select {
	case r := <-v.Reports():
		t.Errorf("report after completion: %v", r)
	default:
	}
}

func TestVenueCancelKnownOrder(t *testing.T) {
	v := newTestVenue(t, Config{})
	v.Submit(limitBuy("A1", 100, 150))
	collect(t, v, 2)

	v.Cancel(CancelRequest{ClOrdID: "C1", OrigClOrdID: "A1", Symbol: "MSFT", Side: recon.SideBuy})
	r := collect(t, v, 1)[0]

	if got := r[recon.FieldOrdStatus]; got != "canceled" {
		t.Errorf("ordStatus: got %s, want canceled", got)
	}
	// Canceled is reported against the original order, not the cancel's ID.
	if got := r[recon.FieldClOrdID]; got != "A1" {
		t.Errorf("clOrdID: got %s, want A1", got)
	}
}

// Canceling an unknown order emits a report with an out-of-model status, the
// shape the engine treats as a logged no-op.
func TestVenueCancelUnknownOrder(t *testing.T) {
	v := newTestVenue(t, Config{})

	v.Cancel(CancelRequest{ClOrdID: "C1", OrigClOrdID: "GHOST", Symbol: "MSFT", Side: recon.SideBuy})
	r := collect(t, v, 1)[0]

	ev, err := recon.Normalize(r)
	if err != nil {
		t.Fatalf("cancel-reject report not normalizable: %v", err)
	}
	if ev.OrdStatus != recon.OrdStatusUnknown {
		t.Errorf("ordStatus: got %v, want unknown", ev.OrdStatus)
	}
	if ev.ClOrdID != "GHOST" {
		t.Errorf("clOrdID: got %s, want GHOST", ev.ClOrdID)
	}
}

func TestVenueRejectRatio(t *testing.T) {
	v := newTestVenue(t, Config{RejectRatio: 1.0})

	v.Submit(limitBuy("A1", 100, 150))
	r := collect(t, v, 1)[0]
	if got := r[recon.FieldOrdStatus]; got != "rejected" {
		t.Errorf("ordStatus: got %s, want rejected", got)
	}
	// A rejection leaves nothing working.
	v.Step()
	select {
	case extra := <-v.Reports():
		t.Errorf("rejected order produced fill: %v", extra)
	default:
	}
}

func TestVenueMalformedRatio(t *testing.T) {
	v := newTestVenue(t, Config{MalformedRatio: 1.0})

	v.Submit(limitBuy("A1", 100, 150))
	reports := collect(t, v, 2)
	for _, r := range reports {
		if _, err := recon.Normalize(r); err == nil {
			t.Errorf("report should be malformed: %v", r)
		}
	}
}

func TestVenueLimitFillPriceNearLimit(t *testing.T) {
	v := newTestVenue(t, Config{MaxFillsPerOrder: 1})
	v.Submit(limitBuy("A1", 10, 150))
	collect(t, v, 2)

	v.Step()
	r := collect(t, v, 1)[0]
	ev, err := recon.Normalize(r)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !ev.LastPx.Set {
		t.Fatal("fill without lastPx")
	}
	// Buys fill at or better than the limit, within the improvement band.
	if ev.LastPx.Value > 150 || ev.LastPx.Value < 149 {
		t.Errorf("fill price %v outside [149, 150]", ev.LastPx.Value)
	}
}
