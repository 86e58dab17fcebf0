package executor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/gateway/paper"
	"rangebreak/internal/market"
	"rangebreak/internal/session"
	"rangebreak/internal/strategy"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func sessionDay(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04", "2026-03-05 10:00")
	require.NoError(t, err)
	return d
}

// breakoutSeries yields target=52000 (today open 51000 + half of yesterday's
// 2000 range), ma5=51000, ma10=50500.
func breakoutSeries(now time.Time) market.Series {
	s := market.Series{
		{Date: now, Open: 51000, High: 55500, Low: 50900, Close: 55000},
		{Date: now.AddDate(0, 0, -1), Open: 50500, High: 52000, Low: 50000, Close: 51000},
	}
	for i := 2; i <= 5; i++ {
		s = append(s, market.Bar{Date: now.AddDate(0, 0, -i), Close: 51000})
	}
	for i := 6; i <= 10; i++ {
		s = append(s, market.Bar{Date: now.AddDate(0, 0, -i), Close: 50000})
	}
	return s
}

func newFixture(t *testing.T, cash int64, pct float64) (*Executor, *paper.Gateway, *session.State, *fakeClock) {
	t.Helper()
	gw := paper.New()
	gw.SetCash(decimal.NewFromInt(cash))
	state := session.New(5, decimal.NewFromInt(cash), pct)
	clk := &fakeClock{now: sessionDay(t)}
	exec := New(gw, gw, nil, nil, state, clk, Config{
		SettleDelay:    2 * time.Second,
		SellOrderDelay: time.Second,
		SellCycleDelay: 30 * time.Second,
	})
	return exec, gw, state, clk
}

func TestAttemptBuyBreakoutScenario(t *testing.T) {
	exec, gw, state, clk := newFixture(t, 1_000_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000, Bid: 54900})
	gw.SetSeries("A122630", breakoutSeries(clk.now))

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeBought, outcome)

	orders := gw.Submitted()
	require.Len(t, orders, 1)
	assert.Equal(t, broker.SideBuy, orders[0].Side)
	assert.Equal(t, broker.FillOrKill, orders[0].TimeInForce)
	assert.Equal(t, int64(20), orders[0].Quantity) // 1,000,000 / 50,000
	assert.NotEmpty(t, orders[0].ClientOrderID)

	assert.True(t, state.AlreadyBought("A122630"))
	assert.Contains(t, clk.slept, 2*time.Second) // settle before confirmation
}

func TestAttemptBuyIdempotentAfterEntry(t *testing.T) {
	exec, gw, _, clk := newFixture(t, 1_000_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000, Bid: 54900})
	gw.SetSeries("A122630", breakoutSeries(clk.now))

	_, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Len(t, gw.Submitted(), 1) // no second order
}

func TestAttemptBuyNoSignal(t *testing.T) {
	exec, gw, state, clk := newFixture(t, 1_000_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 51500, Ask: 51500, Bid: 51400})
	gw.SetSeries("A122630", breakoutSeries(clk.now))

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoSignal, outcome)
	assert.Empty(t, gw.Submitted())
	assert.False(t, state.AlreadyBought("A122630"))
}

func TestAttemptBuyInsufficientDataSkipsSymbol(t *testing.T) {
	exec, gw, _, clk := newFixture(t, 1_000_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000})
	gw.SetSeries("A122630", breakoutSeries(clk.now)[:3]) // too few closed bars

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	assert.Equal(t, OutcomeAborted, outcome)
	assert.ErrorIs(t, err, strategy.ErrInsufficientData)
	assert.Empty(t, gw.Submitted())
}

func TestAttemptBuyZeroQuantityAborts(t *testing.T) {
	exec, gw, _, clk := newFixture(t, 10_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000})
	gw.SetSeries("A122630", breakoutSeries(clk.now))

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	assert.Equal(t, OutcomeAborted, outcome)
	assert.Error(t, err)
	assert.Empty(t, gw.Submitted())
}

func TestAttemptBuyRateLimitedDefers(t *testing.T) {
	exec, gw, state, clk := newFixture(t, 1_000_000, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000})
	gw.SetSeries("A122630", breakoutSeries(clk.now))
	gw.ScriptResult(broker.OrderResult{Status: broker.OrderRateLimited, RetryAfter: 700 * time.Millisecond})

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeferred, outcome)
	assert.Contains(t, clk.slept, 700*time.Millisecond)
	assert.False(t, state.AlreadyBought("A122630"))
}

func TestAttemptBuyFillMismatchNotRecorded(t *testing.T) {
	exec, gw, state, clk := newFixture(t, 1_000_000, 1.0)
	gw.FillBuys = false
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 50000})
	gw.SetSeries("A122630", breakoutSeries(clk.now))

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, outcome)
	assert.False(t, state.AlreadyBought("A122630"))
}

func TestAttemptBuyCapExhausted(t *testing.T) {
	gw := paper.New()
	state := session.New(1, decimal.NewFromInt(1_000_000), 1.0)
	state.RecordBought("A252670")
	clk := &fakeClock{now: sessionDay(t)}
	exec := New(gw, gw, nil, nil, state, clk, Config{})

	outcome, err := exec.AttemptBuy(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, gw.Submitted())
}

func TestSellAllAlreadyFlat(t *testing.T) {
	exec, gw, _, clk := newFixture(t, 1_000_000, 1.0)
	require.NoError(t, exec.SellAll(context.Background()))
	assert.Empty(t, gw.Submitted())
	assert.Empty(t, clk.slept)
}

func TestSellAllSweepsUntilFlat(t *testing.T) {
	exec, gw, _, _ := newFixture(t, 0, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 55100, Bid: 54900})
	gw.SetQuote("A252670", market.Quote{Last: 1000, Ask: 1010, Bid: 990})
	gw.SetPosition("A122630", "KODEX Leverage", 20)
	gw.SetPosition("A252670", "KODEX 200", 100)

	require.NoError(t, exec.SellAll(context.Background()))

	orders := gw.Submitted()
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, broker.SideSell, o.Side)
		assert.Equal(t, broker.ImmediateOrCancel, o.TimeInForce)
	}
	positions, err := gw.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestSellAllRetriesAfterRateLimit(t *testing.T) {
	exec, gw, _, clk := newFixture(t, 0, 1.0)
	gw.SetQuote("A122630", market.Quote{Last: 55000, Ask: 55100, Bid: 54900})
	gw.SetPosition("A122630", "KODEX Leverage", 20)
	// First sweep is throttled and fills nothing; the second sweep sells.
	gw.ScriptResult(broker.OrderResult{Status: broker.OrderRateLimited, RetryAfter: 500 * time.Millisecond})

	require.NoError(t, exec.SellAll(context.Background()))

	require.Len(t, gw.Submitted(), 2)
	assert.Contains(t, clk.slept, 30*time.Second) // inter-cycle delay
	positions, err := gw.Positions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}
