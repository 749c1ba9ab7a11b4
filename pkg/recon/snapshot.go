package recon

import (
	"encoding/json"
	"sort"
)

// OrderView is the serializable form of an order inside a snapshot.
type OrderView struct {
	ClOrdID     string  `json:"clOrdId"`
	OrderID     string  `json:"orderId,omitempty"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	OrdType     string  `json:"ordType"`
	OrderQty    int64   `json:"orderQty"`
	LimitPrice  float64 `json:"limitPrice,omitempty"`
	CumQty      int64   `json:"cumQty"`
	LeavesQty   int64   `json:"leavesQty"`
	AvgPx       float64 `json:"avgPx"`
	Status      string  `json:"status"`
	Synthesized bool    `json:"synthesized,omitempty"`
}

type PositionView struct {
	Symbol        string  `json:"symbol"`
	NetQty        int64   `json:"netQty"`
	AvgCost       float64 `json:"avgCost"`
	RealizedPnL   float64 `json:"realizedPnl"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	LastPx        float64 `json:"lastPx"`
}

type StatView struct {
	Symbol         string  `json:"symbol"`
	NotionalTraded float64 `json:"notionalTraded"`
	QtyTraded      int64   `json:"qtyTraded"`
	VWAP           float64 `json:"vwap"`
}

// Snapshot is the immutable, externally consumable state of the book after
// one applied event. Consumers never observe a partially-updated state;
// key order is stable (symbol, then clOrdID) so serialization is
// deterministic for logging, display, and tests.
type Snapshot struct {
	Seq        uint64         `json:"seq"`
	OpenOrders []OrderView    `json:"openOrders"`
	LastOrder  *OrderView     `json:"lastOrder,omitempty"`
	Positions  []PositionView `json:"positions"`
	Stats      []StatView     `json:"stats"`

	TotalVolume        float64 `json:"totalVolume"`
	TotalRealizedPnL   float64 `json:"totalRealizedPnl"`
	TotalUnrealizedPnL float64 `json:"totalUnrealizedPnl"`
	TotalPnL           float64 `json:"totalPnl"`

	// Note carries the rejection reason when an event was dropped; the
	// rest of the snapshot is then identical to its predecessor.
	Note string `json:"note,omitempty"`
}

// JSON renders the snapshot deterministically.
func (s *Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// WithNote copies the snapshot with an appended note. State is shared, not
// copied: snapshots are immutable once published.
func (s *Snapshot) WithNote(note string) *Snapshot {
	cp := *s
	cp.Note = note
	return &cp
}

func orderView(o Order) OrderView {
	v := OrderView{
		ClOrdID:     o.ClOrdID,
		OrderID:     o.OrderID,
		Symbol:      o.Symbol,
		Side:        o.Side.String(),
		OrdType:     o.OrdType.String(),
		OrderQty:    o.OrderQty,
		CumQty:      o.CumQty,
		LeavesQty:   o.LeavesQty,
		AvgPx:       o.AvgPx,
		Status:      o.Status.String(),
		Synthesized: o.Synthesized,
	}
	if o.LimitPrice.Set {
		v.LimitPrice = o.LimitPrice.Value
	}
	return v
}

// buildSnapshot assembles a sorted, read-only view from the live components.
// Callers hold the book's write lock.
func buildSnapshot(seq uint64, ledger *Ledger, positions *PositionBook, stats *StatsTracker, last *Order) *Snapshot {
	open := ledger.Open()
	orders := make([]OrderView, 0, len(open))
	for _, o := range open {
		orders = append(orders, orderView(o))
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Symbol != orders[j].Symbol {
			return orders[i].Symbol < orders[j].Symbol
		}
		return orders[i].ClOrdID < orders[j].ClOrdID
	})

	poss := positions.All()
	posViews := make([]PositionView, 0, len(poss))
	for _, p := range poss {
		posViews = append(posViews, PositionView{
			Symbol:        p.Symbol,
			NetQty:        p.NetQty,
			AvgCost:       p.AvgCost,
			RealizedPnL:   p.RealizedPnL,
			UnrealizedPnL: p.UnrealizedPnL,
			LastPx:        p.LastPx,
		})
	}
	sort.Slice(posViews, func(i, j int) bool { return posViews[i].Symbol < posViews[j].Symbol })

	sts := stats.All()
	statViews := make([]StatView, 0, len(sts))
	for _, s := range sts {
		statViews = append(statViews, StatView{
			Symbol:         s.Symbol,
			NotionalTraded: s.NotionalTraded,
			QtyTraded:      s.QtyTraded,
			VWAP:           s.VWAP,
		})
	}
	sort.Slice(statViews, func(i, j int) bool { return statViews[i].Symbol < statViews[j].Symbol })

	realized, unrealized := positions.Totals()

	snap := &Snapshot{
		Seq:                seq,
		OpenOrders:         orders,
		Positions:          posViews,
		Stats:              statViews,
		TotalVolume:        stats.TotalVolume(),
		TotalRealizedPnL:   realized,
		TotalUnrealizedPnL: unrealized,
		TotalPnL:           realized + unrealized,
	}
	if last != nil {
		v := orderView(*last)
		snap.LastOrder = &v
	}
	return snap
}
