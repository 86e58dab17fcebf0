// Package engine maps wall-clock time to a trading phase and drives the
// per-tick control loop. Phase selection is level-triggered: every tick
// re-derives the phase from the current time, never from the previous
// phase. The one edge-triggered transition is the session-terminal exit
// after the closing sell-out completes.
package engine

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseNonTradingDay Phase = iota
	PhasePreOpen
	PhaseSellOut
	PhaseBuyWindow
	PhaseSellWindow
	PhaseExit
)

func (p Phase) String() string {
	switch p {
	case PhaseNonTradingDay:
		return "non_trading_day"
	case PhasePreOpen:
		return "pre_open"
	case PhaseSellOut:
		return "sell_out"
	case PhaseBuyWindow:
		return "buy_window"
	case PhaseSellWindow:
		return "sell_window"
	case PhaseExit:
		return "exit"
	default:
		return "unknown"
	}
}

// PhaseNames lists every phase label, for the phase gauge.
func PhaseNames() []string {
	return []string{
		PhaseNonTradingDay.String(),
		PhasePreOpen.String(),
		PhaseSellOut.String(),
		PhaseBuyWindow.String(),
		PhaseSellWindow.String(),
		PhaseExit.String(),
	}
}

// MinuteOfDay is a time-of-day boundary with minute precision.
type MinuteOfDay int

// ParseMinuteOfDay parses "HH:MM".
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("time window %q: want HH:MM: %w", s, err)
	}
	return MinuteOfDay(t.Hour()*60 + t.Minute()), nil
}

func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Windows holds the four session boundaries. All are configuration, not
// hardcoded logic.
type Windows struct {
	Open      MinuteOfDay // market open; flatten runs from here
	BuyStart  MinuteOfDay // buy window start
	SellStart MinuteOfDay // closing sell-out start
	Exit      MinuteOfDay // hard stop
}

// ParseWindows builds Windows from four "HH:MM" boundaries.
func ParseWindows(open, buyStart, sellStart, exit string) (Windows, error) {
	var w Windows
	var err error
	if w.Open, err = ParseMinuteOfDay(open); err != nil {
		return w, err
	}
	if w.BuyStart, err = ParseMinuteOfDay(buyStart); err != nil {
		return w, err
	}
	if w.SellStart, err = ParseMinuteOfDay(sellStart); err != nil {
		return w, err
	}
	if w.Exit, err = ParseMinuteOfDay(exit); err != nil {
		return w, err
	}
	return w, w.Validate()
}

func (w Windows) Validate() error {
	if !(w.Open < w.BuyStart && w.BuyStart < w.SellStart && w.SellStart < w.Exit) {
		return fmt.Errorf("time windows must be ordered: open=%s buy=%s sell=%s exit=%s",
			w.Open, w.BuyStart, w.SellStart, w.Exit)
	}
	return nil
}

// PhaseAt derives the phase for t. Weekends are non-trading days regardless
// of time-of-day. Each boundary is inclusive at the start of its window.
func (w Windows) PhaseAt(t time.Time) Phase {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return PhaseNonTradingDay
	}
	m := MinuteOfDay(t.Hour()*60 + t.Minute())
	switch {
	case m < w.Open:
		return PhasePreOpen
	case m < w.BuyStart:
		return PhaseSellOut
	case m < w.SellStart:
		return PhaseBuyWindow
	case m < w.Exit:
		return PhaseSellWindow
	default:
		return PhaseExit
	}
}
