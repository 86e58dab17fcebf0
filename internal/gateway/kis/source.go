package kis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"rangebreak/internal/market"
	symbolpkg "rangebreak/internal/pkg/symbol"
)

// GetQuote reads the last trade and the top of book. Two endpoint calls:
// the price inquiry carries no order book and the asking-price inquiry no
// last trade.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (market.Quote, error) {
	code := symbolpkg.Bare(symbol)
	if code == "" {
		return market.Quote{}, fmt.Errorf("kis: invalid symbol %q", symbol)
	}
	query := quoteQuery(code)

	priceBody, err := g.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-price", trPrice, query)
	if err != nil {
		return market.Quote{}, err
	}
	last := priceBody.Get("output.stck_prpr").Float()
	if last <= 0 {
		return market.Quote{}, fmt.Errorf("kis: no last price for %s", symbol)
	}

	askingBody, err := g.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-asking-price-exp-ccn", trAskingPrice, query)
	if err != nil {
		return market.Quote{}, err
	}
	ask := askingBody.Get("output1.askp1").Float()
	bid := askingBody.Get("output1.bidp1").Float()
	// Outside continuous trading the book can be empty; fall back to last.
	if ask <= 0 {
		ask = last
	}
	if bid <= 0 {
		bid = last
	}

	return market.Quote{Symbol: symbolpkg.Normalize(symbol), Last: last, Ask: ask, Bid: bid}, nil
}

// GetSeries reads daily bars, most-recent-first as the endpoint returns
// them. The first bar is the in-progress session when queried intraday. The
// endpoint caps one page at 30 rows, ample for the indicator windows here.
func (g *Gateway) GetSeries(ctx context.Context, symbol string, count int) (market.Series, error) {
	code := symbolpkg.Bare(symbol)
	if code == "" {
		return nil, fmt.Errorf("kis: invalid symbol %q", symbol)
	}
	query := quoteQuery(code)
	query.Set("fid_period_div_code", "D")
	query.Set("fid_org_adj_prc", "1")

	body, err := g.get(ctx, "/uapi/domestic-stock/v1/quotations/inquire-daily-price", trDailyPrice, query)
	if err != nil {
		return nil, err
	}

	rows := body.Get("output").Array()
	series := make(market.Series, 0, len(rows))
	for _, row := range rows {
		bar, ok := parseDailyBar(row)
		if !ok {
			continue
		}
		series = append(series, bar)
		if count > 0 && len(series) >= count {
			break
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("kis: no daily bars for %s", symbol)
	}
	return series, nil
}

func parseDailyBar(row gjson.Result) (market.Bar, bool) {
	date, err := time.ParseInLocation("20060102", row.Get("stck_bsop_date").String(), time.Local)
	if err != nil {
		return market.Bar{}, false
	}
	bar := market.Bar{
		Date:  date,
		Open:  row.Get("stck_oprc").Float(),
		High:  row.Get("stck_hgpr").Float(),
		Low:   row.Get("stck_lwpr").Float(),
		Close: row.Get("stck_clpr").Float(),
	}
	if bar.Close <= 0 {
		return market.Bar{}, false
	}
	return bar, true
}

func quoteQuery(code string) url.Values {
	q := url.Values{}
	q.Set("fid_cond_mrkt_div_code", "J")
	q.Set("fid_input_iscd", code)
	return q
}
