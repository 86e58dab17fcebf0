// Package paper is a deterministic in-memory brokerage used for dry runs
// and tests. It implements both the market data source and the broker
// gateway: quotes and bar series are scripted, FOK buys fill at the ask,
// IOC sells reduce to zero, and order results can be overridden to exercise
// the throttle and rejection paths.
package paper

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/market"
)

type Gateway struct {
	mu        sync.Mutex
	quotes    map[string]market.Quote
	series    map[string]market.Series
	cash      decimal.Decimal
	names     map[string]string
	positions map[string]int64

	// FillBuys controls whether an accepted FOK buy actually fills. Turn it
	// off to exercise the fill-mismatch path.
	FillBuys bool

	scripted  []broker.OrderResult
	submitted []broker.OrderRequest
}

func New() *Gateway {
	return &Gateway{
		quotes:    make(map[string]market.Quote),
		series:    make(map[string]market.Series),
		names:     make(map[string]string),
		positions: make(map[string]int64),
		FillBuys:  true,
	}
}

func (g *Gateway) Name() string { return "paper" }

func (g *Gateway) Ping(ctx context.Context) error { return nil }

// SetCash seeds the orderable cash.
func (g *Gateway) SetCash(cash decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cash = cash
}

// SetQuote scripts the quote returned for a symbol.
func (g *Gateway) SetQuote(symbol string, q market.Quote) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q.Symbol = symbol
	g.quotes[symbol] = q
}

// SetSeries scripts the bar series returned for a symbol.
func (g *Gateway) SetSeries(symbol string, s market.Series) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.series[symbol] = s
}

// SetPosition seeds a held position.
func (g *Gateway) SetPosition(symbol, name string, qty int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.names[symbol] = name
	if qty == 0 {
		delete(g.positions, symbol)
		return
	}
	g.positions[symbol] = qty
}

// ScriptResult queues an order result returned verbatim by the next
// SubmitOrder call instead of the default accept-and-fill behavior.
func (g *Gateway) ScriptResult(res broker.OrderResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scripted = append(g.scripted, res)
}

// Submitted returns a copy of every order request seen so far.
func (g *Gateway) Submitted() []broker.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]broker.OrderRequest, len(g.submitted))
	copy(out, g.submitted)
	return out
}

func (g *Gateway) GetQuote(ctx context.Context, symbol string) (market.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	q, ok := g.quotes[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("paper: no quote scripted for %s", symbol)
	}
	return q, nil
}

func (g *Gateway) GetSeries(ctx context.Context, symbol string, count int) (market.Series, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.series[symbol]
	if !ok {
		return nil, fmt.Errorf("paper: no series scripted for %s", symbol)
	}
	if count > 0 && count < len(s) {
		s = s[:count]
	}
	out := make(market.Series, len(s))
	copy(out, s)
	return out, nil
}

func (g *Gateway) OrderableCash(ctx context.Context) (decimal.Decimal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash, nil
}

func (g *Gateway) AccountSnapshot(ctx context.Context) (broker.AccountSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := g.cash
	for symbol, qty := range g.positions {
		if q, ok := g.quotes[symbol]; ok {
			total = total.Add(decimal.NewFromFloat(q.Last).Mul(decimal.NewFromInt(qty)))
		}
	}
	return broker.AccountSnapshot{
		OrderableCash: g.cash,
		TotalAsset:    total,
		PositionCount: len(g.positions),
	}, nil
}

func (g *Gateway) Positions(ctx context.Context) ([]broker.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]broker.Position, 0, len(g.positions))
	for symbol, qty := range g.positions {
		out = append(out, broker.Position{Symbol: symbol, Name: g.names[symbol], Quantity: qty})
	}
	return out, nil
}

func (g *Gateway) Position(ctx context.Context, symbol string) (broker.Position, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return broker.Position{Symbol: symbol, Name: g.names[symbol], Quantity: g.positions[symbol]}, nil
}

func (g *Gateway) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = append(g.submitted, req)

	if len(g.scripted) > 0 {
		res := g.scripted[0]
		g.scripted = g.scripted[1:]
		return res, nil
	}

	switch req.Side {
	case broker.SideBuy:
		if g.FillBuys {
			ask := decimal.NewFromFloat(g.quotes[req.Symbol].Ask)
			g.positions[req.Symbol] += req.Quantity
			g.cash = g.cash.Sub(ask.Mul(decimal.NewFromInt(req.Quantity)))
		}
	case broker.SideSell:
		held := g.positions[req.Symbol]
		qty := req.Quantity
		if qty > held {
			qty = held
		}
		bid := decimal.NewFromFloat(g.quotes[req.Symbol].Bid)
		g.cash = g.cash.Add(bid.Mul(decimal.NewFromInt(qty)))
		if held-qty == 0 {
			delete(g.positions, req.Symbol)
		} else {
			g.positions[req.Symbol] = held - qty
		}
	}
	return broker.OrderResult{Status: broker.OrderAccepted, VenueOrderID: "paper-" + req.ClientOrderID}, nil
}
