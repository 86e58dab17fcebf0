// Package market holds the market data model and the data source abstraction.
package market

import "time"

// Bar is a single daily OHLC bar. Date carries calendar-day precision only;
// the in-progress bar for the current session has Date equal to today.
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Series is an ordered bar sequence, most-recent-first, as returned by the
// data source. Index 0 may be a partial in-progress bar for the current day.
type Series []Bar

// Quote is a point-in-time price snapshot for a symbol. It is never cached;
// callers re-query per decision.
type Quote struct {
	Symbol string
	Last   float64
	Ask    float64
	Bid    float64
}

// SameDay reports whether two timestamps fall on the same calendar day in
// the timestamps' own locations.
func SameDay(a, b time.Time) bool {
	ya, ma, da := a.Date()
	yb, mb, db := b.Date()
	return ya == yb && ma == mb && da == db
}

// ClosedBars returns the sub-series holding only fully-closed bars,
// dropping the leading partial bar when its date matches now.
func (s Series) ClosedBars(now time.Time) Series {
	if len(s) > 0 && SameDay(s[0].Date, now) {
		return s[1:]
	}
	return s
}

// ClosesChronological extracts closing prices oldest-first, the order the
// indicator routines expect.
func (s Series) ClosesChronological() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[len(s)-1-i] = b.Close
	}
	return out
}
