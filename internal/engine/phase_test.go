package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindows(t *testing.T) Windows {
	t.Helper()
	w, err := ParseWindows("09:00", "09:05", "15:15", "15:20")
	require.NoError(t, err)
	return w
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	require.NoError(t, err)
	return ts
}

func TestPhaseAtWeekend(t *testing.T) {
	w := testWindows(t)
	// 2026-03-07 is a Saturday; time-of-day is irrelevant.
	assert.Equal(t, PhaseNonTradingDay, w.PhaseAt(at(t, "2026-03-07 10:00:00")))
	assert.Equal(t, PhaseNonTradingDay, w.PhaseAt(at(t, "2026-03-08 03:00:00")))
}

func TestPhaseAtWeekday(t *testing.T) {
	w := testWindows(t)
	cases := []struct {
		ts   string
		want Phase
	}{
		{"2026-03-06 08:59:59", PhasePreOpen},
		{"2026-03-06 09:00:00", PhaseSellOut},
		{"2026-03-06 09:04:59", PhaseSellOut},
		{"2026-03-06 09:05:00", PhaseBuyWindow},
		{"2026-03-06 12:30:00", PhaseBuyWindow},
		{"2026-03-06 15:14:59", PhaseBuyWindow},
		{"2026-03-06 15:15:00", PhaseSellWindow},
		{"2026-03-06 15:19:59", PhaseSellWindow},
		{"2026-03-06 15:20:00", PhaseExit},
		{"2026-03-06 23:00:00", PhaseExit},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, w.PhaseAt(at(t, tc.ts)), "at %s", tc.ts)
	}
}

func TestParseMinuteOfDay(t *testing.T) {
	m, err := ParseMinuteOfDay("15:15")
	require.NoError(t, err)
	assert.Equal(t, MinuteOfDay(15*60+15), m)
	assert.Equal(t, "15:15", m.String())

	_, err = ParseMinuteOfDay("9am")
	assert.Error(t, err)
}

func TestWindowsValidate(t *testing.T) {
	w := testWindows(t)
	assert.NoError(t, w.Validate())

	bad := Windows{Open: 600, BuyStart: 500, SellStart: 915, Exit: 920}
	assert.Error(t, bad.Validate())
}
