package recon

// Position is the per-instrument net position and PnL derived from fills.
// NetQty is signed: positive long, negative short.
type Position struct {
	Symbol        string
	NetQty        int64
	AvgCost       float64
	RealizedPnL   float64
	UnrealizedPnL float64

	// LastPx is the reference price for mark-to-market: the last observed
	// fill price for this symbol. No external market-data feed is in scope.
	LastPx float64
}

// PositionBook aggregates positions per symbol. Positions are created
// lazily on first fill and live for the book's lifetime.
type PositionBook struct {
	positions map[string]*Position
}

func NewPositionBook() *PositionBook {
	return &PositionBook{positions: make(map[string]*Position)}
}

// ApplyFill folds one fill into the symbol's position.
//
// Average cost moves only while the position grows in its own direction.
// A reducing fill holds the cost basis and realizes PnL on the closed
// quantity; a flip re-opens the remainder at the fill price. A flat
// position resets AvgCost to 0 so no stale basis survives.
func (b *PositionBook) ApplyFill(f Fill) {
	p, ok := b.positions[f.Symbol]
	if !ok {
		p = &Position{Symbol: f.Symbol}
		b.positions[f.Symbol] = p
	}

	signed := f.Qty
	if f.Side == SideSell || f.Side == SideSellShort {
		signed = -signed
	}

	oldQty := p.NetQty
	newQty := oldQty + signed

	switch {
	case oldQty == 0 || sameSign(oldQty, signed):
		// Opening or increasing: quantity-weighted average cost.
		p.AvgCost = (p.AvgCost*absFloat(oldQty) + f.Px*absFloat(signed)) / absFloat(newQty)
		p.NetQty = newQty

	default:
		// Reducing, closing, or flipping: realize PnL on the closed
		// quantity against the held cost basis.
		closed := minInt64(absInt64(signed), absInt64(oldQty))
		realized := (f.Px - p.AvgCost) * float64(closed)
		if oldQty < 0 {
			realized = -realized
		}
		p.RealizedPnL += realized

		p.NetQty = newQty
		if newQty == 0 {
			p.AvgCost = 0
		} else if !sameSign(oldQty, newQty) {
			p.AvgCost = f.Px
		}
	}

	p.LastPx = f.Px
	p.UnrealizedPnL = (p.LastPx - p.AvgCost) * float64(p.NetQty)
}

// Get returns a copy of the symbol's position.
func (b *PositionBook) Get(symbol string) (Position, bool) {
	p, ok := b.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// All returns copies of every position.
func (b *PositionBook) All() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	return out
}

// Totals sums realized and unrealized PnL across all symbols.
func (b *PositionBook) Totals() (realized, unrealized float64) {
	for _, p := range b.positions {
		realized += p.RealizedPnL
		unrealized += p.UnrealizedPnL
	}
	return realized, unrealized
}

func sameSign(a, b int64) bool {
	return (a >= 0 && b >= 0) || (a <= 0 && b <= 0)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v int64) float64 {
	return float64(absInt64(v))
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
