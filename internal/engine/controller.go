package engine

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"rangebreak/internal/executor"
	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/gateway/notifier"
	"rangebreak/internal/logger"
	"rangebreak/internal/metrics"
	"rangebreak/internal/pkg/clock"
	"rangebreak/internal/session"
)

// Config carries the controller's schedule.
type Config struct {
	Watchlist      []string
	Windows        Windows
	PollInterval   time.Duration
	SymbolDelay    time.Duration // pacing between buy attempts in one sweep
	SnapshotMinute int           // minute-of-hour for the diagnostic account report
}

// Status is the read-only view published for the monitor endpoint.
type Status struct {
	Phase          string    `json:"phase"`
	Watchlist      []string  `json:"watchlist"`
	BoughtSymbols  []string  `json:"bought_symbols"`
	RemainingSlots int       `json:"remaining_slots"`
	SellOutDone    bool      `json:"sell_out_done"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Controller runs the daily state machine: one strictly serial loop that
// polls the clock, re-derives the phase, and drives the executor per
// watched symbol. It is the sole owner of the session state.
type Controller struct {
	cfg    Config
	exec   *executor.Executor
	state  *session.State
	broker broker.Gateway
	notify notifier.TextNotifier
	clock  clock.Clock

	watchlist        []string
	watchlistUpdates <-chan []string
	status           atomic.Pointer[Status]
}

func New(cfg Config, exec *executor.Executor, state *session.State, gw broker.Gateway, notify notifier.TextNotifier, clk clock.Clock) *Controller {
	if notify == nil {
		notify = notifier.Noop{}
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Controller{
		cfg:       cfg,
		exec:      exec,
		state:     state,
		broker:    gw,
		notify:    notify,
		clock:     clk,
		watchlist: append([]string(nil), cfg.Watchlist...),
	}
}

// SetWatchlistUpdates wires an optional channel carrying replacement
// watchlists. Updates are drained between ticks by the loop itself, so
// symbol decisions never interleave with a swap.
func (c *Controller) SetWatchlistUpdates(ch <-chan []string) {
	c.watchlistUpdates = ch
}

// Status returns the last published view. Safe from any goroutine.
func (c *Controller) Status() Status {
	if s := c.status.Load(); s != nil {
		return *s
	}
	return Status{}
}

// Run drives the session until a terminal phase or context cancellation.
// It returns nil on a normal session end (non-trading day, completed
// sell-out, or past exit time).
func (c *Controller) Run(ctx context.Context) error {
	logger.Infof("controller started: watchlist=%d target=%d allocation=%s windows=[%s %s %s %s]",
		len(c.watchlist), c.state.TargetBuyCount(), c.state.Allocation(),
		c.cfg.Windows.Open, c.cfg.Windows.BuyStart, c.cfg.Windows.SellStart, c.cfg.Windows.Exit)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.drainWatchlistUpdates()

		now := c.clock.Now()
		phase := c.cfg.Windows.PhaseAt(now)
		metrics.Ticks.Inc()
		metrics.SetPhase(phase.String(), PhaseNames())
		c.publish(phase, now)

		switch phase {
		case PhaseNonTradingDay:
			c.send("non-trading day, ending session")
			return nil

		case PhasePreOpen:
			// Market not open yet; wait for the flatten window.

		case PhaseSellOut:
			if !c.state.SellOutDone {
				if err := c.exec.SellAll(ctx); err != nil {
					if ctx.Err() != nil {
						return err
					}
					logger.Errorf("pre-open flatten: %v", err)
				} else {
					c.state.SellOutDone = true
					c.send("pre-open flatten complete")
				}
			}

		case PhaseBuyWindow:
			if err := c.buySweep(ctx, now); err != nil {
				return err
			}

		case PhaseSellWindow:
			if err := c.exec.SellAll(ctx); err != nil {
				if ctx.Err() != nil {
					return err
				}
				logger.Errorf("closing sell-out: %v", err)
			} else {
				c.send(c.sessionSummary())
				return nil
			}

		case PhaseExit:
			c.send("past exit time, ending session")
			return nil
		}

		if err := c.clock.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return err
		}
	}
}

func (c *Controller) buySweep(ctx context.Context, now time.Time) error {
	for _, sym := range c.watchlist {
		if c.state.RemainingSlots() <= 0 {
			break
		}
		// Per-attempt failures are non-fatal; the executor already logged.
		if _, err := c.exec.AttemptBuy(ctx, sym); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.clock.Sleep(ctx, c.cfg.SymbolDelay); err != nil {
			return err
		}
	}

	// Once-an-hour diagnostic snapshot; the short sleep keeps it from
	// re-firing within the checkpoint minute.
	if now.Minute() == c.cfg.SnapshotMinute && now.Second() <= 5 {
		if report, err := AccountReport(ctx, c.broker); err != nil {
			logger.Warnf("account snapshot: %v", err)
		} else {
			c.send(report)
		}
		if err := c.clock.Sleep(ctx, 5*time.Second); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) drainWatchlistUpdates() {
	if c.watchlistUpdates == nil {
		return
	}
	for {
		select {
		case symbols, ok := <-c.watchlistUpdates:
			if !ok {
				c.watchlistUpdates = nil
				return
			}
			logger.Infof("watchlist updated: %d symbols", len(symbols))
			c.watchlist = append([]string(nil), symbols...)
		default:
			return
		}
	}
}

func (c *Controller) publish(phase Phase, now time.Time) {
	c.status.Store(&Status{
		Phase:          phase.String(),
		Watchlist:      append([]string(nil), c.watchlist...),
		BoughtSymbols:  c.state.BoughtSymbols(),
		RemainingSlots: c.state.RemainingSlots(),
		SellOutDone:    c.state.SellOutDone,
		UpdatedAt:      now,
	})
}

func (c *Controller) sessionSummary() string {
	bought := c.state.BoughtSymbols()
	if len(bought) == 0 {
		return "sell-out complete, no entries today, ending session"
	}
	return fmt.Sprintf("sell-out complete, entered %d symbol(s): %s, ending session",
		len(bought), strings.Join(bought, ", "))
}

func (c *Controller) send(text string) {
	logger.Infof("%s", text)
	if err := c.notify.SendText(text); err != nil {
		logger.Warnf("notify failed: %v", err)
	}
}

// AccountReport renders a point-in-time account and position overview, used
// at session start and at the hourly checkpoint. Diagnostic only, never
// decisional.
func AccountReport(ctx context.Context, gw broker.Gateway) (string, error) {
	snap, err := gw.AccountSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("account snapshot: %w", err)
	}
	positions, err := gw.Positions(ctx)
	if err != nil {
		return "", fmt.Errorf("positions: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "account %s: cash=%s total=%s net=%s positions=%d",
		gw.Name(), snap.OrderableCash, snap.TotalAsset, snap.NetGain, snap.PositionCount)
	for _, p := range positions {
		fmt.Fprintf(&b, "\n- %s(%s): %d", p.Name, p.Symbol, p.Quantity)
	}
	return b.String(), nil
}
