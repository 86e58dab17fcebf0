// Package strategy holds the pure price computations for the volatility
// breakout entry: the breakout target price and the simple moving averages
// that confirm it. Everything here is deterministic given a bar series;
// fetching the series is the data gateway's job.
package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"

	"rangebreak/internal/market"
)

// ErrInsufficientData marks a series too short for the requested
// computation. Callers skip the symbol for this tick and move on.
var ErrInsufficientData = errors.New("insufficient bar data")

// TargetPrice computes the breakout entry threshold: today's open plus half
// of yesterday's high-low range.
//
// When the series has no in-progress bar for the current day yet, the most
// recent closed bar doubles as "yesterday" and its close stands in for
// today's open. The upstream feed sometimes omits the live bar early in the
// session; the synthetic open keeps the threshold defined in that window.
func TargetPrice(s market.Series, now time.Time) (float64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("target price: need 2 bars, have %d: %w", len(s), ErrInsufficientData)
	}
	var yesterday market.Bar
	var todayOpen float64
	if market.SameDay(s[0].Date, now) {
		todayOpen = s[0].Open
		yesterday = s[1]
	} else {
		yesterday = s[0]
		todayOpen = yesterday.Close
	}
	return todayOpen + 0.5*(yesterday.High-yesterday.Low), nil
}

// MovingAverage computes the simple moving average of closing prices over
// the most recent window fully-closed bars, anchored at the bar immediately
// preceding the in-progress one. The partial bar for the current day never
// contributes.
func MovingAverage(s market.Series, window int, now time.Time) (float64, error) {
	if window <= 0 {
		return 0, fmt.Errorf("moving average: invalid window %d", window)
	}
	closed := s.ClosedBars(now)
	if len(closed) < window {
		return 0, fmt.Errorf("moving average(%d): %d closed bars: %w", window, len(closed), ErrInsufficientData)
	}
	closes := closed.ClosesChronological()
	sma := talib.Sma(closes, window)
	return sma[len(sma)-1], nil
}
