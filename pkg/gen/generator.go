// Package gen produces synthetic order traffic against a venue: random new
// orders across a symbol set and occasional cancels of open orders. It is a
// client of the reconciliation book's read interfaces, not part of the
// engine.
package gen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/fixlabs/recon/pkg/recon"
	"github.com/fixlabs/recon/pkg/sim"
	"github.com/fixlabs/recon/pkg/util"
)

// Venue is what the generator needs from the execution side.
type Venue interface {
	Submit(sim.OrderRequest)
	Cancel(sim.CancelRequest)
}

// BookView is what the generator reads back from the engine: open orders to
// pick cancel candidates, positions to size sells.
type BookView interface {
	OpenOrders() []recon.Order
	Position(symbol string) (recon.Position, bool)
}

// Config controls the order window.
type Config struct {
	Symbols     []string
	Interval    time.Duration
	Window      time.Duration // 0 = no time limit
	MaxOrders   int           // 0 = no count limit
	MaxQty      int64
	MinPrice    float64
	MaxPrice    float64
	CancelRatio float64
	Seed        int64
}

func DefaultConfig() Config {
	return Config{
		Symbols:     []string{"MSFT", "AAPL", "BAC"},
		Interval:    100 * time.Millisecond,
		Window:      5 * time.Minute,
		MaxOrders:   1000,
		MaxQty:      100,
		MinPrice:    100,
		MaxPrice:    200,
		CancelRatio: 0.1,
	}
}

// Generator runs the order window.
type Generator struct {
	cfg   Config
	venue Venue
	book  BookView
	rng   *rand.Rand
	clock util.Clock
	log   *zap.SugaredLogger

	count int
}

func New(cfg Config, venue Venue, book BookView, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = util.NopSugar()
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultConfig().Symbols
	}
	if cfg.MaxQty < 1 {
		cfg.MaxQty = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg:   cfg,
		venue: venue,
		book:  book,
		rng:   rand.New(rand.NewSource(seed)),
		clock: util.RealClock{},
		log:   log,
	}
}

// Run submits orders until the window closes, the order budget is spent, or
// ctx is canceled. Each iteration also cancels a random open order with
// probability CancelRatio.
func (g *Generator) Run(ctx context.Context) {
	start := g.clock.Now()

	g.log.Infow("order_window_open",
		"symbols", g.cfg.Symbols,
		"max_orders", g.cfg.MaxOrders,
		"window", g.cfg.Window)

	for {
		select {
		case <-ctx.Done():
			g.log.Infow("order_window_interrupted", "orders_sent", g.count)
			return
		case <-g.clock.After(g.cfg.Interval):
			if g.cfg.Window > 0 && g.clock.Since(start) >= g.cfg.Window {
				g.log.Infow("order_window_elapsed", "orders_sent", g.count)
				return
			}
			if g.cfg.MaxOrders > 0 && g.count >= g.cfg.MaxOrders {
				g.log.Infow("order_budget_spent", "orders_sent", g.count)
				return
			}

			g.venue.Submit(g.NextOrder())

			if g.rng.Float64() < g.cfg.CancelRatio {
				g.cancelRandomOpen()
			}
		}
	}
}

// NextOrder builds one random order. Side selection honors the current
// position: a long position enables plain sells (sized within the
// position), otherwise the choice is buy or sell-short.
func (g *Generator) NextOrder() sim.OrderRequest {
	symbol := g.cfg.Symbols[g.rng.Intn(len(g.cfg.Symbols))]

	ordType := recon.OrdTypeLimit
	if g.rng.Intn(2) == 1 {
		ordType = recon.OrdTypeMarket
	}

	qty := 1 + g.rng.Int63n(g.cfg.MaxQty)

	var side recon.Side
	pos, _ := g.book.Position(symbol)
	if pos.NetQty > 0 {
		if g.rng.Intn(2) == 0 {
			side = recon.SideSell
		} else {
			side = recon.SideBuy
		}
	} else {
		if g.rng.Intn(2) == 0 {
			side = recon.SideBuy
		} else {
			side = recon.SideSellShort
		}
	}
	if side == recon.SideSell && qty > pos.NetQty {
		qty = 1 + g.rng.Int63n(pos.NetQty)
	}

	req := sim.OrderRequest{
		ClOrdID:  g.nextClOrdID(),
		Symbol:   symbol,
		Side:     side,
		OrdType:  ordType,
		OrderQty: qty,
	}
	if ordType == recon.OrdTypeLimit {
		req.Price = g.cfg.MinPrice + g.rng.Float64()*(g.cfg.MaxPrice-g.cfg.MinPrice)
	}

	g.count++
	return req
}

func (g *Generator) cancelRandomOpen() {
	open := g.book.OpenOrders()
	if len(open) == 0 {
		return
	}
	o := open[g.rng.Intn(len(open))]
	g.venue.Cancel(sim.CancelRequest{
		ClOrdID:     g.nextClOrdID(),
		OrigClOrdID: o.ClOrdID,
		Symbol:      o.Symbol,
		Side:        o.Side,
	})
	g.log.Infow("cancel_sent", "orig_cl_ord_id", o.ClOrdID, "symbol", o.Symbol)
}

// nextClOrdID mints a timestamp-based client order id, unique within the
// window.
func (g *Generator) nextClOrdID() string {
	return fmt.Sprintf("%s%04d", g.clock.Now().Format("20060102150405.000"), g.count%10000)
}

// Sent reports how many orders the window has submitted so far.
func (g *Generator) Sent() int { return g.count }
