package recon

import (
	"errors"
	"testing"
)

// fullReport returns a well-formed raw report; tests mutate copies of it.
func fullReport() RawReport {
	return RawReport{
		FieldExecType:  "new",
		FieldOrdStatus: "new",
		FieldClOrdID:   "A1",
		FieldOrderID:   "V-1",
		FieldSymbol:    "MSFT",
		FieldSide:      "buy",
		FieldOrdType:   "limit",
		FieldOrderQty:  "100",
		FieldPrice:     "150.25",
		FieldAvgPx:     "0",
		FieldLeavesQty: "100",
		FieldCumQty:    "0",
	}
}

func TestNormalizeHappyPath(t *testing.T) {
	ev, err := Normalize(fullReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ClOrdID != "A1" {
		t.Errorf("clOrdID: got %s, want A1", ev.ClOrdID)
	}
	if ev.Symbol != "MSFT" {
		t.Errorf("symbol: got %s, want MSFT", ev.Symbol)
	}
	if ev.Side != SideBuy {
		t.Errorf("side: got %v, want buy", ev.Side)
	}
	if ev.OrdStatus != OrdStatusNew {
		t.Errorf("ordStatus: got %v, want new", ev.OrdStatus)
	}
	if !ev.OrderQty.Set || ev.OrderQty.Value != 100 {
		t.Errorf("orderQty: got %+v, want 100", ev.OrderQty)
	}
	if !ev.Price.Set || ev.Price.Value != 150.25 {
		t.Errorf("price: got %+v, want 150.25", ev.Price)
	}
	if ev.LastPx.Set || ev.LastQty.Set {
		t.Error("lastPx/lastQty should be absent when not in the report")
	}
}

// A report with several required fields missing is dropped with every gap
// named, not just the first.
func TestNormalizeCollectsAllMissingFields(t *testing.T) {
	raw := fullReport()
	delete(raw, FieldAvgPx)
	delete(raw, FieldCumQty)

	_, err := Normalize(raw)
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %T", err)
	}
	if len(mfe.Fields) != 2 {
		t.Fatalf("missing fields: got %v, want [AvgPx CumQty]", mfe.Fields)
	}
	found := map[string]bool{}
	for _, f := range mfe.Fields {
		found[f] = true
	}
	if !found[FieldAvgPx] || !found[FieldCumQty] {
		t.Errorf("missing fields: got %v, want AvgPx and CumQty", mfe.Fields)
	}
}

// A fill stating LastQty=0 is contradictory and dropped like a missing field.
func TestNormalizeZeroLastQtyDropped(t *testing.T) {
	raw := fullReport()
	raw[FieldOrdStatus] = "partially_filled"
	raw[FieldExecType] = "partial_fill"
	raw[FieldLastPx] = "150.0"
	raw[FieldLastQty] = "0"

	_, err := Normalize(raw)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(mfe.Fields) != 1 || mfe.Fields[0] != FieldLastQty {
		t.Errorf("fields: got %v, want [LastQty]", mfe.Fields)
	}
}

// Negative quantities and prices are as malformed as missing ones: the
// report is dropped with every offending field named.
func TestNormalizeNegativeValuesDropped(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{FieldLastQty, "-5"},
		{FieldOrderQty, "-100"},
		{FieldLeavesQty, "-1"},
		{FieldCumQty, "-40"},
		{FieldPrice, "-150.25"},
		{FieldAvgPx, "-1"},
		{FieldLastPx, "-149.5"},
	}
	for _, tt := range tests {
		raw := fullReport()
		raw[tt.field] = tt.value

		_, err := Normalize(raw)
		var mfe *MissingFieldError
		if !errors.As(err, &mfe) {
			t.Fatalf("%s=%s: expected MissingFieldError, got %v", tt.field, tt.value, err)
		}
		if len(mfe.Fields) != 1 || mfe.Fields[0] != tt.field {
			t.Errorf("%s=%s: fields got %v, want [%s]", tt.field, tt.value, mfe.Fields, tt.field)
		}
	}

	// Several bad values are all named at once.
	raw := fullReport()
	raw[FieldOrderQty] = "-100"
	raw[FieldPrice] = "-150"
	_, err := Normalize(raw)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if len(mfe.Fields) != 2 {
		t.Errorf("fields: got %v, want both OrderQty and Price", mfe.Fields)
	}
}

// Unparseable numerics are absent, never zero.
func TestNormalizeBadNumberIsAbsent(t *testing.T) {
	raw := fullReport()
	raw[FieldLastPx] = "not-a-price"
	raw[FieldLastQty] = "ten"

	ev, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.LastPx.Set {
		t.Error("lastPx should be absent after parse failure")
	}
	if ev.LastQty.Set {
		t.Error("lastQty should be absent after parse failure")
	}
}

func TestNormalizeAcceptsFixCodes(t *testing.T) {
	tests := []struct {
		field string
		raw   string
		check func(Event) bool
		want  string
	}{
		{FieldSide, "1", func(ev Event) bool { return ev.Side == SideBuy }, "buy"},
		{FieldSide, "2", func(ev Event) bool { return ev.Side == SideSell }, "sell"},
		{FieldSide, "5", func(ev Event) bool { return ev.Side == SideSellShort }, "sell_short"},
		{FieldOrdType, "1", func(ev Event) bool { return ev.OrdType == OrdTypeMarket }, "market"},
		{FieldOrdType, "2", func(ev Event) bool { return ev.OrdType == OrdTypeLimit }, "limit"},
		{FieldOrdStatus, "A", func(ev Event) bool { return ev.OrdStatus == OrdStatusPendingNew }, "pending_new"},
		{FieldOrdStatus, "4", func(ev Event) bool { return ev.OrdStatus == OrdStatusCanceled }, "canceled"},
		{FieldOrdStatus, "8", func(ev Event) bool { return ev.OrdStatus == OrdStatusRejected }, "rejected"},
	}
	for _, tt := range tests {
		raw := fullReport()
		raw[tt.field] = tt.raw
		ev, err := Normalize(raw)
		if err != nil {
			t.Fatalf("%s=%s: unexpected error: %v", tt.field, tt.raw, err)
		}
		if !tt.check(ev) {
			t.Errorf("%s=%s: want %s", tt.field, tt.raw, tt.want)
		}
	}
}

// Unknown OrdStatus survives normalization; the ledger decides to skip it.
func TestNormalizeUnknownStatusPasses(t *testing.T) {
	raw := fullReport()
	raw[FieldOrdStatus] = "pending_cancel"

	ev, err := Normalize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.OrdStatus != OrdStatusUnknown {
		t.Errorf("ordStatus: got %v, want unknown", ev.OrdStatus)
	}
}
