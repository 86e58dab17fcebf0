package kis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/logger"
	symbolpkg "rangebreak/internal/pkg/symbol"
)

// Ping exercises the token endpoint and one cheap account read so a bad
// credential or account number fails at startup instead of mid-session.
func (g *Gateway) Ping(ctx context.Context) error {
	if _, err := g.OrderableCash(ctx); err != nil {
		return fmt.Errorf("kis: ping: %w", err)
	}
	return nil
}

func (g *Gateway) OrderableCash(ctx context.Context) (decimal.Decimal, error) {
	query := g.accountQuery()
	query.Set("PDNO", "005930")
	query.Set("ORD_UNPR", "0")
	query.Set("ORD_DVSN", "01")
	query.Set("CMA_EVLU_AMT_ICLD_YN", "Y")
	query.Set("OVRS_ICLD_YN", "Y")

	body, err := g.get(ctx, "/uapi/domestic-stock/v1/trading/inquire-psbl-order", trOrderable, query)
	if err != nil {
		return decimal.Zero, err
	}
	cash, err := decimal.NewFromString(body.Get("output.ord_psbl_cash").String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("kis: bad ord_psbl_cash: %w", err)
	}
	return cash, nil
}

func (g *Gateway) AccountSnapshot(ctx context.Context) (broker.AccountSnapshot, error) {
	body, err := g.balance(ctx)
	if err != nil {
		return broker.AccountSnapshot{}, err
	}

	totals := body.Get("output2.0")
	snap := broker.AccountSnapshot{
		OrderableCash: decimalField(totals, "dnca_tot_amt"),
		TotalAsset:    decimalField(totals, "tot_evlu_amt"),
		NetGain:       decimalField(totals, "evlu_pfls_smtl_amt"),
	}
	snap.PositionCount = len(parsePositions(body))
	return snap, nil
}

func (g *Gateway) Positions(ctx context.Context) ([]broker.Position, error) {
	body, err := g.balance(ctx)
	if err != nil {
		return nil, err
	}
	return parsePositions(body), nil
}

// Position re-reads the balance and picks out one symbol. The venue has no
// per-symbol holding endpoint; the balance read is the source of truth.
func (g *Gateway) Position(ctx context.Context, symbol string) (broker.Position, error) {
	normalized := symbolpkg.Normalize(symbol)
	if normalized == "" {
		return broker.Position{}, fmt.Errorf("kis: invalid symbol %q", symbol)
	}
	positions, err := g.Positions(ctx)
	if err != nil {
		return broker.Position{}, err
	}
	for _, p := range positions {
		if p.Symbol == normalized {
			return p, nil
		}
	}
	return broker.Position{Symbol: normalized}, nil
}

func (g *Gateway) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	code := symbolpkg.Bare(req.Symbol)
	if code == "" {
		return broker.OrderResult{}, fmt.Errorf("kis: invalid symbol %q", req.Symbol)
	}
	if req.Quantity <= 0 {
		return broker.OrderResult{}, fmt.Errorf("kis: non-positive quantity %d", req.Quantity)
	}

	trID := trBuyOrder
	if req.Side == broker.SideSell {
		trID = trSellOrder
	}
	dvsn, err := orderDivision(req.PriceMode)
	if err != nil {
		return broker.OrderResult{}, err
	}

	payload := map[string]string{
		"CANO":         g.cfg.AccountNo,
		"ACNT_PRDT_CD": g.cfg.AccountProductCode,
		"PDNO":         code,
		"ORD_DVSN":     dvsn,
		"ORD_QTY":      strconv.FormatInt(req.Quantity, 10),
		"ORD_UNPR":     "0",
	}

	body, err := g.post(ctx, "/uapi/domestic-stock/v1/trading/order-cash", trID, payload)
	if err != nil {
		return broker.OrderResult{}, err
	}

	msgCode := body.Get("msg_cd").String()
	message := strings.TrimSpace(body.Get("msg1").String())
	if body.Get("rt_cd").String() == "0" {
		return broker.OrderResult{
			Status:       broker.OrderAccepted,
			VenueOrderID: body.Get("output.ODNO").String(),
			Message:      message,
		}, nil
	}
	if msgCode == msgCodeRateLimited {
		logger.Warnf("[kis] order throttled for %s: %s", req.Symbol, message)
		return broker.OrderResult{
			Status:     broker.OrderRateLimited,
			RetryAfter: g.cfg.RateLimitWait,
			Message:    message,
		}, nil
	}
	return broker.OrderResult{Status: broker.OrderRejected, Message: fmt.Sprintf("%s: %s", msgCode, message)}, nil
}

func (g *Gateway) balance(ctx context.Context) (gjson.Result, error) {
	query := g.accountQuery()
	query.Set("AFHR_FLPR_YN", "N")
	query.Set("OFL_YN", "")
	query.Set("INQR_DVSN", "02")
	query.Set("UNPR_DVSN", "01")
	query.Set("FUND_STTL_ICLD_YN", "N")
	query.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	query.Set("PRCS_DVSN", "01")
	query.Set("CTX_AREA_FK100", "")
	query.Set("CTX_AREA_NK100", "")
	return g.get(ctx, "/uapi/domestic-stock/v1/trading/inquire-balance", trBalance, query)
}

func (g *Gateway) accountQuery() url.Values {
	q := url.Values{}
	q.Set("CANO", g.cfg.AccountNo)
	q.Set("ACNT_PRDT_CD", g.cfg.AccountProductCode)
	return q
}

func parsePositions(body gjson.Result) []broker.Position {
	rows := body.Get("output1").Array()
	out := make([]broker.Position, 0, len(rows))
	for _, row := range rows {
		qty := row.Get("hldg_qty").Int()
		if qty <= 0 {
			continue
		}
		normalized := symbolpkg.Normalize(row.Get("pdno").String())
		if normalized == "" {
			continue
		}
		out = append(out, broker.Position{
			Symbol:   normalized,
			Name:     strings.TrimSpace(row.Get("prdt_name").String()),
			Quantity: qty,
		})
	}
	return out
}

func orderDivision(mode broker.PriceMode) (string, error) {
	switch mode {
	case broker.MarketFOK:
		return "14", nil
	case broker.MarketIOC:
		return "13", nil
	default:
		return "", fmt.Errorf("kis: unsupported price mode %q", mode)
	}
}

func decimalField(row gjson.Result, key string) decimal.Decimal {
	d, err := decimal.NewFromString(row.Get(key).String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
