// Package executor turns entry signals into orders. It evaluates the
// breakout condition, sizes and submits buys, handles the broker's
// throttle hints, confirms fills before recording an entry, and sweeps the
// account flat on demand. All calls are synchronous; the single control
// loop is the only caller.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/gateway/notifier"
	"rangebreak/internal/logger"
	"rangebreak/internal/market"
	"rangebreak/internal/metrics"
	"rangebreak/internal/pkg/clock"
	"rangebreak/internal/session"
	"rangebreak/internal/store/journal"
	"rangebreak/internal/strategy"
)

// Outcome classifies one buy attempt.
type Outcome string

const (
	// OutcomeSkipped: symbol already entered or no remaining slots.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeNoSignal: entry condition not met.
	OutcomeNoSignal Outcome = "no_signal"
	// OutcomeAborted: attempt abandoned this tick (thin data, zero size,
	// gateway failure). Retried on a later tick.
	OutcomeAborted Outcome = "aborted"
	// OutcomeDeferred: broker throttled the order; backoff already slept.
	OutcomeDeferred Outcome = "deferred"
	// OutcomeRejected: order refused or the fill did not confirm.
	OutcomeRejected Outcome = "rejected"
	// OutcomeBought: order filled and the position confirmed.
	OutcomeBought Outcome = "bought"
)

// Config carries the executor's pacing knobs.
type Config struct {
	// SeriesCount is how many daily bars to request per evaluation. Must
	// cover the longest moving-average window plus the in-progress bar.
	SeriesCount int
	// SettleDelay is the wait between an accepted buy and the confirming
	// position re-read.
	SettleDelay time.Duration
	// SellOrderDelay paces consecutive IOC sells inside one sweep.
	SellOrderDelay time.Duration
	// SellCycleDelay is the wait between full sweeps while holdings remain.
	SellCycleDelay time.Duration
}

type Executor struct {
	source  market.Source
	broker  broker.Gateway
	notify  notifier.TextNotifier
	journal *journal.Journal
	state   *session.State
	clock   clock.Clock
	cfg     Config
}

func New(source market.Source, gw broker.Gateway, notify notifier.TextNotifier, jnl *journal.Journal, state *session.State, clk clock.Clock, cfg Config) *Executor {
	if cfg.SeriesCount <= 0 {
		cfg.SeriesCount = 20
	}
	if notify == nil {
		notify = notifier.Noop{}
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Executor{
		source:  source,
		broker:  gw,
		notify:  notify,
		journal: jnl,
		state:   state,
		clock:   clk,
		cfg:     cfg,
	}
}

// AttemptBuy evaluates the entry condition for one symbol and submits a
// fill-or-kill buy when it holds. The symbol is recorded as bought only
// after a post-order position read confirms quantity > 0.
func (e *Executor) AttemptBuy(ctx context.Context, sym string) (Outcome, error) {
	if e.state.AlreadyBought(sym) || e.state.RemainingSlots() <= 0 {
		return e.finish(sym, OutcomeSkipped, nil, nil)
	}

	quote, err := e.source.GetQuote(ctx, sym)
	if err != nil {
		return e.finish(sym, OutcomeAborted, nil, fmt.Errorf("quote %s: %w", sym, err))
	}
	series, err := e.source.GetSeries(ctx, sym, e.cfg.SeriesCount)
	if err != nil {
		return e.finish(sym, OutcomeAborted, nil, fmt.Errorf("series %s: %w", sym, err))
	}

	now := e.clock.Now()
	target, err := strategy.TargetPrice(series, now)
	if err != nil {
		return e.finish(sym, OutcomeAborted, nil, fmt.Errorf("target %s: %w", sym, err))
	}
	ma5, err := strategy.MovingAverage(series, 5, now)
	if err != nil {
		return e.finish(sym, OutcomeAborted, nil, fmt.Errorf("ma5 %s: %w", sym, err))
	}
	ma10, err := strategy.MovingAverage(series, 10, now)
	if err != nil {
		return e.finish(sym, OutcomeAborted, nil, fmt.Errorf("ma10 %s: %w", sym, err))
	}

	eval := &journal.DecisionRecord{Symbol: sym, Current: quote.Last, Target: target, MA5: ma5, MA10: ma10}

	if !(quote.Last > target && quote.Last > ma5 && quote.Last > ma10) {
		return e.finish(sym, OutcomeNoSignal, eval, nil)
	}

	qty := buyQuantity(e.state.Allocation(), quote.Ask)
	eval.Quantity = qty
	if qty <= 0 {
		return e.finish(sym, OutcomeAborted, eval, fmt.Errorf("buy %s: allocation %s below ask %.0f", sym, e.state.Allocation(), quote.Ask))
	}

	logger.Infof("buy signal %s: current=%.2f target=%.2f ma5=%.2f ma10=%.2f qty=%d",
		sym, quote.Last, target, ma5, ma10, qty)

	req := broker.OrderRequest{
		Symbol:        sym,
		Side:          broker.SideBuy,
		Quantity:      qty,
		TimeInForce:   broker.FillOrKill,
		PriceMode:     broker.MarketFOK,
		ClientOrderID: uuid.NewString(),
	}
	res, err := e.broker.SubmitOrder(ctx, req)
	if err != nil {
		return e.finish(sym, OutcomeAborted, eval, fmt.Errorf("submit buy %s: %w", sym, err))
	}
	e.recordOrder(req, res)

	switch res.Status {
	case broker.OrderRateLimited:
		metrics.RateLimited.Inc()
		logger.Warnf("buy %s rate limited, backing off %s", sym, res.RetryAfter)
		if err := e.clock.Sleep(ctx, res.RetryAfter); err != nil {
			return OutcomeDeferred, err
		}
		return e.finish(sym, OutcomeDeferred, eval, nil)
	case broker.OrderRejected:
		return e.finish(sym, OutcomeRejected, eval, fmt.Errorf("buy %s rejected: %s", sym, res.Message))
	}

	if err := e.clock.Sleep(ctx, e.cfg.SettleDelay); err != nil {
		return OutcomeAborted, err
	}
	pos, err := e.broker.Position(ctx, sym)
	if err != nil {
		return e.finish(sym, OutcomeRejected, eval, fmt.Errorf("confirm %s: %w", sym, err))
	}
	if pos.Quantity <= 0 {
		logger.Warnf("buy %s: order accepted but no fill confirmed, not recording", sym)
		return e.finish(sym, OutcomeRejected, eval, nil)
	}

	e.state.RecordBought(sym)
	metrics.PositionsHeld.Set(float64(len(e.state.BoughtSymbols())))
	e.send(fmt.Sprintf("buy %s(%s): %d filled at market (FOK)", pos.Name, sym, pos.Quantity))
	return e.finish(sym, OutcomeBought, eval, nil)
}

// SellAll sweeps every held position with immediate-or-cancel sells until
// the account is flat, then returns nil. It blocks the caller, sleeping
// between orders and between sweeps; a failed position read aborts the call
// so the controller can retry on a later tick.
func (e *Executor) SellAll(ctx context.Context) error {
	for {
		positions, err := e.broker.Positions(ctx)
		if err != nil {
			return fmt.Errorf("sell all: read positions: %w", err)
		}
		var total int64
		for _, p := range positions {
			total += p.Quantity
		}
		if total == 0 {
			return nil
		}

		for _, p := range positions {
			if p.Quantity == 0 {
				continue
			}
			req := broker.OrderRequest{
				Symbol:        p.Symbol,
				Side:          broker.SideSell,
				Quantity:      p.Quantity,
				TimeInForce:   broker.ImmediateOrCancel,
				PriceMode:     broker.MarketIOC,
				ClientOrderID: uuid.NewString(),
			}
			res, err := e.broker.SubmitOrder(ctx, req)
			if err != nil {
				logger.Errorf("sell %s(%s) x%d failed: %v", p.Name, p.Symbol, p.Quantity, err)
			} else {
				e.recordOrder(req, res)
				logger.Infof("IOC sell %s(%s) x%d -> %s", p.Name, p.Symbol, p.Quantity, res.Status)
				if res.Status == broker.OrderRateLimited {
					metrics.RateLimited.Inc()
					// Do not block the sweep; the next cycle retries.
					logger.Warnf("sell %s rate limited, venue asks %s", p.Symbol, res.RetryAfter)
				}
			}
			if err := e.clock.Sleep(ctx, e.cfg.SellOrderDelay); err != nil {
				return err
			}
		}

		if err := e.clock.Sleep(ctx, e.cfg.SellCycleDelay); err != nil {
			return err
		}
	}
}

func buyQuantity(allocation decimal.Decimal, ask float64) int64 {
	if ask <= 0 {
		return 0
	}
	return allocation.Div(decimal.NewFromFloat(ask)).Floor().IntPart()
}

func (e *Executor) finish(sym string, outcome Outcome, eval *journal.DecisionRecord, err error) (Outcome, error) {
	metrics.BuyAttempts.WithLabelValues(string(outcome)).Inc()
	rec := journal.DecisionRecord{Symbol: sym, Outcome: string(outcome)}
	if eval != nil {
		rec = *eval
		rec.Outcome = string(outcome)
	}
	if err != nil {
		rec.Detail = err.Error()
		if errors.Is(err, strategy.ErrInsufficientData) {
			logger.Warnf("attempt %s: %v", sym, err)
		} else {
			logger.Errorf("attempt %s: %v", sym, err)
		}
	}
	// Skips are routine and would swamp the journal at one row per tick.
	if outcome != OutcomeSkipped {
		e.journal.RecordDecision(rec)
	}
	return outcome, err
}

func (e *Executor) recordOrder(req broker.OrderRequest, res broker.OrderResult) {
	metrics.Orders.WithLabelValues(string(req.Side), res.Status.String()).Inc()
	e.journal.RecordOrder(journal.OrderRecord{
		ClientOrderID: req.ClientOrderID,
		VenueOrderID:  res.VenueOrderID,
		Symbol:        req.Symbol,
		Side:          string(req.Side),
		Quantity:      req.Quantity,
		TimeInForce:   string(req.TimeInForce),
		Status:        res.Status.String(),
		RetryAfterMs:  res.RetryAfter.Milliseconds(),
		Message:       res.Message,
	})
}

func (e *Executor) send(text string) {
	if err := e.notify.SendText(text); err != nil {
		logger.Warnf("notify failed: %v", err)
	}
}
