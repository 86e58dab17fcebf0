package kis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangebreak/internal/gateway/broker"
)

type fakeKIS struct {
	mux        *http.ServeMux
	tokenCalls atomic.Int64
	orderReply map[string]any
	lastOrder  map[string]string
}

func newFakeKIS(t *testing.T) (*fakeKIS, *Gateway) {
	t.Helper()
	f := &fakeKIS{mux: http.NewServeMux()}

	f.mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		writeJSON(w, map[string]any{"access_token": "tok-1", "expires_in": 86400})
	})
	f.mux.HandleFunc("/uapi/hashkey", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"HASH": "h-1"})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-price", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"rt_cd": "0", "output": map[string]any{"stck_prpr": "52500"}})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-asking-price-exp-ccn", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"rt_cd": "0", "output1": map[string]any{"askp1": "52550", "bidp1": "52450"}})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-daily-price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "122630", r.URL.Query().Get("fid_input_iscd"))
		writeJSON(w, map[string]any{"rt_cd": "0", "output": []map[string]any{
			{"stck_bsop_date": "20260828", "stck_oprc": "52000", "stck_hgpr": "52600", "stck_lwpr": "51900", "stck_clpr": "52500"},
			{"stck_bsop_date": "20260827", "stck_oprc": "51000", "stck_hgpr": "52000", "stck_lwpr": "50800", "stck_clpr": "51800"},
		}})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/trading/inquire-psbl-order", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"rt_cd": "0", "output": map[string]any{"ord_psbl_cash": "1000000"}})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/trading/inquire-balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"rt_cd": "0",
			"output1": []map[string]any{
				{"pdno": "122630", "prdt_name": "KODEX Leverage", "hldg_qty": "20"},
				{"pdno": "252670", "prdt_name": "KODEX Inverse", "hldg_qty": "0"},
			},
			"output2": []map[string]any{
				{"dnca_tot_amt": "500000", "tot_evlu_amt": "1550000", "evlu_pfls_smtl_amt": "12300"},
			},
		})
	})
	f.mux.HandleFunc("/uapi/domestic-stock/v1/trading/order-cash", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "h-1", r.Header.Get("hashkey"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.lastOrder = payload
		f.lastOrder["tr_id"] = r.Header.Get("tr_id")
		reply := f.orderReply
		if reply == nil {
			reply = map[string]any{"rt_cd": "0", "msg_cd": "APBK0013", "msg1": "ok", "output": map[string]any{"ODNO": "0000117057"}}
		}
		writeJSON(w, reply)
	})

	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	gw, err := New(Config{
		BaseURL:            srv.URL,
		AppKey:             "key",
		AppSecret:          "secret",
		AccountNo:          "12345678",
		AccountProductCode: "01",
		RateLimitWait:      700 * time.Millisecond,
	})
	require.NoError(t, err)
	return f, gw
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetQuote(t *testing.T) {
	_, gw := newFakeKIS(t)

	quote, err := gw.GetQuote(context.Background(), "A122630")
	require.NoError(t, err)
	assert.Equal(t, "A122630", quote.Symbol)
	assert.Equal(t, 52500.0, quote.Last)
	assert.Equal(t, 52550.0, quote.Ask)
	assert.Equal(t, 52450.0, quote.Bid)
}

func TestTokenReused(t *testing.T) {
	f, gw := newFakeKIS(t)

	_, err := gw.GetQuote(context.Background(), "A122630")
	require.NoError(t, err)
	_, err = gw.OrderableCash(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.tokenCalls.Load())
}

func TestGetSeries(t *testing.T) {
	_, gw := newFakeKIS(t)

	series, err := gw.GetSeries(context.Background(), "A122630", 20)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 52500.0, series[0].Close)
	assert.Equal(t, 51800.0, series[1].Close)
	assert.True(t, series[0].Date.After(series[1].Date))
}

func TestOrderableCash(t *testing.T) {
	_, gw := newFakeKIS(t)

	cash, err := gw.OrderableCash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000000", cash.String())
}

func TestPositionsSkipsFlatHoldings(t *testing.T) {
	_, gw := newFakeKIS(t)

	positions, err := gw.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "A122630", positions[0].Symbol)
	assert.Equal(t, int64(20), positions[0].Quantity)

	pos, err := gw.Position(context.Background(), "252670")
	require.NoError(t, err)
	assert.Equal(t, "A252670", pos.Symbol)
	assert.Zero(t, pos.Quantity)
}

func TestAccountSnapshot(t *testing.T) {
	_, gw := newFakeKIS(t)

	snap, err := gw.AccountSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "500000", snap.OrderableCash.String())
	assert.Equal(t, "1550000", snap.TotalAsset.String())
	assert.Equal(t, "12300", snap.NetGain.String())
	assert.Equal(t, 1, snap.PositionCount)
}

func TestSubmitOrderAccepted(t *testing.T) {
	f, gw := newFakeKIS(t)

	res, err := gw.SubmitOrder(context.Background(), broker.OrderRequest{
		Symbol:    "A122630",
		Side:      broker.SideBuy,
		Quantity:  20,
		PriceMode: broker.MarketFOK,
	})
	require.NoError(t, err)
	assert.Equal(t, broker.OrderAccepted, res.Status)
	assert.Equal(t, "0000117057", res.VenueOrderID)

	assert.Equal(t, trBuyOrder, f.lastOrder["tr_id"])
	assert.Equal(t, "122630", f.lastOrder["PDNO"])
	assert.Equal(t, "14", f.lastOrder["ORD_DVSN"])
	assert.Equal(t, "20", f.lastOrder["ORD_QTY"])
	assert.Equal(t, "0", f.lastOrder["ORD_UNPR"])
}

func TestSubmitOrderSellUsesIOC(t *testing.T) {
	f, gw := newFakeKIS(t)

	_, err := gw.SubmitOrder(context.Background(), broker.OrderRequest{
		Symbol:    "A122630",
		Side:      broker.SideSell,
		Quantity:  5,
		PriceMode: broker.MarketIOC,
	})
	require.NoError(t, err)
	assert.Equal(t, trSellOrder, f.lastOrder["tr_id"])
	assert.Equal(t, "13", f.lastOrder["ORD_DVSN"])
}

func TestSubmitOrderRateLimited(t *testing.T) {
	f, gw := newFakeKIS(t)
	f.orderReply = map[string]any{"rt_cd": "1", "msg_cd": "EGW00201", "msg1": "too many requests"}

	res, err := gw.SubmitOrder(context.Background(), broker.OrderRequest{
		Symbol:    "A122630",
		Side:      broker.SideBuy,
		Quantity:  1,
		PriceMode: broker.MarketFOK,
	})
	require.NoError(t, err)
	assert.Equal(t, broker.OrderRateLimited, res.Status)
	assert.Equal(t, 700*time.Millisecond, res.RetryAfter)
}

func TestSubmitOrderRejected(t *testing.T) {
	f, gw := newFakeKIS(t)
	f.orderReply = map[string]any{"rt_cd": "1", "msg_cd": "APBK0918", "msg1": "insufficient cash"}

	res, err := gw.SubmitOrder(context.Background(), broker.OrderRequest{
		Symbol:    "A122630",
		Side:      broker.SideBuy,
		Quantity:  1,
		PriceMode: broker.MarketFOK,
	})
	require.NoError(t, err)
	assert.Equal(t, broker.OrderRejected, res.Status)
	assert.Contains(t, res.Message, "insufficient cash")
}

func TestNewValidatesCredentials(t *testing.T) {
	_, err := New(Config{AccountNo: "12345678"})
	assert.Error(t, err)

	_, err = New(Config{AppKey: "k", AppSecret: "s"})
	assert.Error(t, err)
}

func TestGetQuoteRejectsNonKRXSymbol(t *testing.T) {
	_, gw := newFakeKIS(t)

	// Never reaches the wire; the code fails symbol normalization first.
	_, err := gw.GetQuote(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid symbol")
}
