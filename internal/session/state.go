// Package session owns the per-session trading state: which symbols were
// entered, whether the pre-open flatten already ran, and the fixed cash
// allocation per position. The state is created once per process from the
// initial cash read and is touched only by the control loop; there is no
// cross-session persistence.
package session

import "github.com/shopspring/decimal"

// State is the mutable session record. Not safe for concurrent use; the
// single control loop is the only writer.
type State struct {
	targetBuyCount int
	allocation     decimal.Decimal
	bought         map[string]struct{}
	boughtOrder    []string

	// SellOutDone guards the pre-open flatten so it runs once per session.
	SellOutDone bool
}

// New derives the session state from the session-start cash read.
// The per-symbol allocation is computed exactly once here and never
// recomputed mid-session.
func New(targetBuyCount int, orderableCash decimal.Decimal, allocationPercent float64) *State {
	if targetBuyCount < 0 {
		targetBuyCount = 0
	}
	return &State{
		targetBuyCount: targetBuyCount,
		allocation:     orderableCash.Mul(decimal.NewFromFloat(allocationPercent)),
		bought:         make(map[string]struct{}, targetBuyCount),
	}
}

// Allocation returns the fixed cash amount per position.
func (s *State) Allocation() decimal.Decimal {
	return s.allocation
}

// TargetBuyCount returns the configured position cap.
func (s *State) TargetBuyCount() int {
	return s.targetBuyCount
}

// AlreadyBought reports whether the symbol was entered this session.
func (s *State) AlreadyBought(symbol string) bool {
	_, ok := s.bought[symbol]
	return ok
}

// RemainingSlots returns how many more distinct symbols may be entered.
func (s *State) RemainingSlots() int {
	return s.targetBuyCount - len(s.bought)
}

// RecordBought marks the symbol as entered. It is idempotent and a no-op
// once the cap is reached; callers check RemainingSlots before attempting
// an entry. The bought set only grows within a session.
func (s *State) RecordBought(symbol string) {
	if s.AlreadyBought(symbol) || s.RemainingSlots() <= 0 {
		return
	}
	s.bought[symbol] = struct{}{}
	s.boughtOrder = append(s.boughtOrder, symbol)
}

// BoughtSymbols returns the entered symbols in entry order.
func (s *State) BoughtSymbols() []string {
	out := make([]string, len(s.boughtOrder))
	copy(out, s.boughtOrder)
	return out
}
