package recon

// InstrumentStat is the per-instrument traded volume aggregate.
type InstrumentStat struct {
	Symbol         string
	NotionalTraded float64 // sum of lastPx * lastQty over fills
	QtyTraded      int64   // sum of lastQty over fills
	VWAP           float64 // NotionalTraded / QtyTraded, 0 while flat
}

// StatsTracker derives per-instrument VWAP and the monotone global traded
// notional from accepted fills.
type StatsTracker struct {
	stats       map[string]*InstrumentStat
	totalVolume float64
}

func NewStatsTracker() *StatsTracker {
	return &StatsTracker{stats: make(map[string]*InstrumentStat)}
}

func (t *StatsTracker) ApplyFill(f Fill) {
	s, ok := t.stats[f.Symbol]
	if !ok {
		s = &InstrumentStat{Symbol: f.Symbol}
		t.stats[f.Symbol] = s
	}

	notional := f.Px * float64(f.Qty)
	s.NotionalTraded += notional
	s.QtyTraded += f.Qty
	if s.QtyTraded > 0 {
		s.VWAP = s.NotionalTraded / float64(s.QtyTraded)
	} else {
		s.VWAP = 0
	}

	t.totalVolume += notional
}

// Get returns a copy of the symbol's stat.
func (t *StatsTracker) Get(symbol string) (InstrumentStat, bool) {
	s, ok := t.stats[symbol]
	if !ok {
		return InstrumentStat{}, false
	}
	return *s, true
}

// All returns copies of every instrument stat.
func (t *StatsTracker) All() []InstrumentStat {
	out := make([]InstrumentStat, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	return out
}

// TotalVolume is the notional traded across all symbols since start.
func (t *StatsTracker) TotalVolume() float64 {
	return t.totalVolume
}
