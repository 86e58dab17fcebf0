// Package broker defines the brokerage account abstraction. It lets the
// decision engine run against different backends (KIS REST, in-memory paper)
// without touching the core logic.
package broker

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the minimal account surface the controller needs.
type Gateway interface {
	Name() string

	// Ping verifies connectivity and session validity. A failing Ping at
	// startup is fatal.
	Ping(ctx context.Context) error

	// OrderableCash returns the cash currently available for new orders.
	OrderableCash(ctx context.Context) (decimal.Decimal, error)

	// AccountSnapshot returns a point-in-time account read.
	AccountSnapshot(ctx context.Context) (AccountSnapshot, error)

	// Positions returns all currently held positions.
	Positions(ctx context.Context) ([]Position, error)

	// Position returns the held position for one symbol, zero-quantity if
	// none is held.
	Position(ctx context.Context, symbol string) (Position, error)

	// SubmitOrder sends one order. A transport failure returns an error;
	// a venue-level refusal or throttle comes back in the OrderResult.
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
