// Package binance adapts the Binance spot REST API as an alternate market
// data source, mainly for dry runs of the breakout logic against a 24/7
// market. It is a data source only; order routing stays on the brokerage.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	binancesdk "github.com/adshao/go-binance/v2"

	"rangebreak/internal/market"
)

const defaultHTTPTimeout = 15 * time.Second

type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

type Source struct {
	client *binancesdk.Client
}

func New(cfg Config) *Source {
	client := binancesdk.NewClient("", "")
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &Source{client: client}
}

func (s *Source) GetQuote(ctx context.Context, symbol string) (market.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.Quote{}, fmt.Errorf("binance: symbol is required")
	}

	books, err := s.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Quote{}, fmt.Errorf("binance: book ticker %s: %w", symbol, err)
	}
	if len(books) == 0 {
		return market.Quote{}, fmt.Errorf("binance: no book for %s", symbol)
	}
	ask := parseFloat(books[0].AskPrice)
	bid := parseFloat(books[0].BidPrice)

	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Quote{}, fmt.Errorf("binance: last price %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return market.Quote{}, fmt.Errorf("binance: no price for %s", symbol)
	}
	last := parseFloat(prices[0].Price)
	if last <= 0 {
		return market.Quote{}, fmt.Errorf("binance: zero price for %s", symbol)
	}
	if ask <= 0 {
		ask = last
	}
	if bid <= 0 {
		bid = last
	}

	return market.Quote{Symbol: symbol, Last: last, Ask: ask, Bid: bid}, nil
}

// GetSeries returns daily klines most-recent-first. Binance serves them
// oldest-first with the open (in-progress) candle last, so the order is
// reversed here; the leading bar is then the live session, matching the
// brokerage series shape.
func (s *Source) GetSeries(ctx context.Context, symbol string, count int) (market.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("binance: symbol is required")
	}
	if count <= 0 {
		count = 20
	}

	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval("1d").
		Limit(count).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance: klines %s: %w", symbol, err)
	}
	if len(klines) == 0 {
		return nil, fmt.Errorf("binance: no klines for %s", symbol)
	}

	series := make(market.Series, 0, len(klines))
	for i := len(klines) - 1; i >= 0; i-- {
		kl := klines[i]
		series = append(series, market.Bar{
			Date:  time.UnixMilli(kl.OpenTime).In(time.Local),
			Open:  parseFloat(kl.Open),
			High:  parseFloat(kl.High),
			Low:   parseFloat(kl.Low),
			Close: parseFloat(kl.Close),
		})
	}
	return series, nil
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
