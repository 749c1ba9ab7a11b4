package recon

import (
	"strconv"
	"strings"
)

// RawReport is the transport's decoded view of one execution report: field
// name to raw string value. The engine owns no wire format; FIX tag
// semantics stay with the transport, only these names are the contract.
type RawReport map[string]string

// Field names accepted in a RawReport.
const (
	FieldExecType  = "ExecType"
	FieldOrdStatus = "OrdStatus"
	FieldClOrdID   = "ClOrdID"
	FieldOrderID   = "OrderID"
	FieldSymbol    = "Symbol"
	FieldSide      = "Side"
	FieldOrdType   = "OrdType"
	FieldOrderQty  = "OrderQty"
	FieldPrice     = "Price"
	FieldAvgPx     = "AvgPx"
	FieldLeavesQty = "LeavesQty"
	FieldCumQty    = "CumQty"
	FieldLastPx    = "LastPx"
	FieldLastQty   = "LastQty"
	FieldMinQty    = "MinQty"
)

// requiredFields must be present on every execution report.
var requiredFields = []string{
	FieldSide,
	FieldSymbol,
	FieldOrderQty,
	FieldOrdType,
	FieldPrice,
	FieldAvgPx,
	FieldExecType,
	FieldLeavesQty,
	FieldCumQty,
	FieldOrderID,
}

// Normalize validates and converts a raw report into an Event.
//
// Presence of every required field is checked first; any gap drops the
// report with a MissingFieldError naming all missing fields. Numeric values
// that fail to parse are treated as absent, never as zero. Quantities and
// prices are non-negative by definition, so a negative value is as
// malformed as a missing one, and a fill stating LastQty=0 is contradictory;
// both drop the report with the offending fields named.
func Normalize(raw RawReport) (Event, error) {
	var missing []string
	for _, name := range requiredFields {
		if _, ok := raw[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Event{}, &MissingFieldError{Fields: missing}
	}

	ev := Event{
		ExecType:  parseExecType(raw[FieldExecType]),
		OrdStatus: parseOrdStatus(raw[FieldOrdStatus]),
		ClOrdID:   raw[FieldClOrdID],
		OrderID:   raw[FieldOrderID],
		Symbol:    raw[FieldSymbol],
		Side:      parseSide(raw[FieldSide]),
		OrdType:   parseOrdType(raw[FieldOrdType]),
		OrderQty:  parseQty(raw, FieldOrderQty),
		Price:     parsePx(raw, FieldPrice),
		AvgPx:     parsePx(raw, FieldAvgPx),
		LeavesQty: parseQty(raw, FieldLeavesQty),
		CumQty:    parseQty(raw, FieldCumQty),
		LastPx:    parsePx(raw, FieldLastPx),
		LastQty:   parseQty(raw, FieldLastQty),
		MinQty:    parseQty(raw, FieldMinQty),
	}

	var bad []string
	for _, q := range []struct {
		name string
		v    OptQty
	}{
		{FieldOrderQty, ev.OrderQty},
		{FieldLeavesQty, ev.LeavesQty},
		{FieldCumQty, ev.CumQty},
		{FieldMinQty, ev.MinQty},
	} {
		if q.v.Set && q.v.Value < 0 {
			bad = append(bad, q.name)
		}
	}
	if ev.LastQty.Set && ev.LastQty.Value <= 0 {
		bad = append(bad, FieldLastQty)
	}
	for _, p := range []struct {
		name string
		v    OptPx
	}{
		{FieldPrice, ev.Price},
		{FieldAvgPx, ev.AvgPx},
		{FieldLastPx, ev.LastPx},
	} {
		if p.v.Set && p.v.Value < 0 {
			bad = append(bad, p.name)
		}
	}
	if len(bad) > 0 {
		return Event{}, &MissingFieldError{Fields: bad}
	}

	return ev, nil
}

func parseQty(raw RawReport, name string) OptQty {
	s, ok := raw[name]
	if !ok {
		return OptQty{}
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return OptQty{}
	}
	return SomeQty(v)
}

func parsePx(raw RawReport, name string) OptPx {
	s, ok := raw[name]
	if !ok {
		return OptPx{}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return OptPx{}
	}
	return SomePx(v)
}

// parseSide accepts FIX side codes and readable names.
func parseSide(s string) Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "buy":
		return SideBuy
	case "2", "sell":
		return SideSell
	case "5", "sell_short", "sellshort":
		return SideSellShort
	default:
		return SideUnknown
	}
}

func parseOrdType(s string) OrdType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "2", "limit":
		return OrdTypeLimit
	case "1", "market":
		return OrdTypeMarket
	default:
		return OrdTypeUnknown
	}
}

func parseExecType(s string) ExecType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "new":
		return ExecTypeNew
	case "a", "pending_new":
		return ExecTypePendingNew
	case "1", "partial_fill":
		return ExecTypePartialFill
	case "2", "fill":
		return ExecTypeFill
	case "4", "canceled":
		return ExecTypeCanceled
	case "8", "rejected":
		return ExecTypeRejected
	default:
		return ExecTypeUnknown
	}
}

func parseOrdStatus(s string) OrdStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "pending_new":
		return OrdStatusPendingNew
	case "0", "new":
		return OrdStatusNew
	case "1", "partially_filled":
		return OrdStatusPartiallyFilled
	case "2", "filled":
		return OrdStatusFilled
	case "4", "canceled":
		return OrdStatusCanceled
	case "8", "rejected":
		return OrdStatusRejected
	default:
		return OrdStatusUnknown
	}
}
