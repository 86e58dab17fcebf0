package broker

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TimeInForce restricts how an order may rest at the venue.
type TimeInForce string

const (
	// FillOrKill fills completely and immediately or cancels entirely.
	FillOrKill TimeInForce = "FOK"
	// ImmediateOrCancel fills what is available and cancels the remainder.
	ImmediateOrCancel TimeInForce = "IOC"
)

// PriceMode selects how the order is priced. Only market-equivalent modes
// are supported; the strategy never rests limit orders.
type PriceMode string

const (
	MarketIOC PriceMode = "market_ioc"
	MarketFOK PriceMode = "market_fok"
)

// OrderStatus classifies a submission result.
type OrderStatus int

const (
	// OrderAccepted means the venue took the order. It says nothing about
	// the fill; callers confirm by re-reading the position.
	OrderAccepted OrderStatus = iota
	// OrderRateLimited means the venue throttled the request. RetryAfter
	// carries the advertised remaining wait.
	OrderRateLimited
	// OrderRejected means the venue refused the order outright.
	OrderRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderAccepted:
		return "accepted"
	case OrderRateLimited:
		return "rate_limited"
	case OrderRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// OrderRequest describes a single order submission.
type OrderRequest struct {
	Symbol        string
	Side          Side
	Quantity      int64
	TimeInForce   TimeInForce
	PriceMode     PriceMode
	ClientOrderID string
}

// OrderResult is the venue's answer to a submission.
type OrderResult struct {
	Status OrderStatus
	// RetryAfter is set only when Status is OrderRateLimited.
	RetryAfter time.Duration
	// VenueOrderID is set when the venue assigned an identifier.
	VenueOrderID string
	// Message carries the venue's human-readable response, if any.
	Message string
}

// Position is a held quantity as of the last gateway read. Quantity is never
// mutated locally, only re-queried.
type Position struct {
	Symbol   string
	Name     string
	Quantity int64
}

// AccountSnapshot is a point-in-time account read used for boot and
// diagnostic reporting.
type AccountSnapshot struct {
	OrderableCash decimal.Decimal
	TotalAsset    decimal.Decimal
	NetGain       decimal.Decimal
	PositionCount int
}
