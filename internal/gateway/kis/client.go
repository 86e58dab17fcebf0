// Package kis is the Korea Investment & Securities OpenAPI adapter. It
// implements both the market data source and the brokerage gateway against
// the domestic-stock REST endpoints.
package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"rangebreak/internal/logger"
)

// Transaction IDs for the real-account domestic-stock endpoints.
const (
	trPrice       = "FHKST01010100"
	trAskingPrice = "FHKST01010200"
	trDailyPrice  = "FHKST01010400"
	trBuyOrder    = "TTTC0802U"
	trSellOrder   = "TTTC0801U"
	trBalance     = "TTTC8434R"
	trOrderable   = "TTTC8908R"
)

// msgCodeRateLimited is the gateway throttle reply (per-second call cap).
const msgCodeRateLimited = "EGW00201"

type Gateway struct {
	cfg  Config
	http *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

func New(cfg Config) (*Gateway, error) {
	final := cfg.withDefaults()
	if final.AppKey == "" || final.AppSecret == "" {
		return nil, fmt.Errorf("kis: app key and secret are required")
	}
	if final.AccountNo == "" {
		return nil, fmt.Errorf("kis: account number is required")
	}
	return &Gateway{
		cfg:  final,
		http: &http.Client{Timeout: final.HTTPTimeout},
	}, nil
}

func (g *Gateway) Name() string { return "kis" }

// accessToken returns a cached OAuth token, requesting a fresh one when the
// cached token is within a minute of expiry.
func (g *Gateway) accessToken(ctx context.Context) (string, error) {
	g.tokenMu.Lock()
	defer g.tokenMu.Unlock()

	if g.token != "" && time.Until(g.tokenExpiry) > time.Minute {
		return g.token, nil
	}

	body, err := json.Marshal(map[string]string{
		"grant_type": "client_credentials",
		"appkey":     g.cfg.AppKey,
		"appsecret":  g.cfg.AppSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/oauth2/tokenP", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := g.readBody(req)
	if err != nil {
		return "", fmt.Errorf("kis: token request: %w", err)
	}

	token := gjson.GetBytes(raw, "access_token").String()
	if token == "" {
		return "", fmt.Errorf("kis: token response missing access_token: %s", truncate(raw))
	}
	expiresIn := gjson.GetBytes(raw, "expires_in").Int()
	if expiresIn <= 0 {
		expiresIn = 86400
	}

	g.token = token
	g.tokenExpiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	logger.Infof("[kis] access token refreshed, valid until %s", g.tokenExpiry.Format(time.RFC3339))
	return g.token, nil
}

// hashkey signs an order body. KIS requires it on every trading POST.
func (g *Gateway) hashkey(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/uapi/hashkey", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("appkey", g.cfg.AppKey)
	req.Header.Set("appsecret", g.cfg.AppSecret)

	raw, err := g.readBody(req)
	if err != nil {
		return "", fmt.Errorf("kis: hashkey request: %w", err)
	}
	hash := gjson.GetBytes(raw, "HASH").String()
	if hash == "" {
		return "", fmt.Errorf("kis: hashkey response missing HASH: %s", truncate(raw))
	}
	return hash, nil
}

// get performs an authenticated GET and returns the parsed body after
// checking rt_cd. Query endpoints report throttles and refusals the same
// way, so a non-zero rt_cd is always an error here.
func (g *Gateway) get(ctx context.Context, path, trID string, query url.Values) (gjson.Result, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	g.setAuthHeaders(req, token, trID)

	raw, err := g.readBody(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("kis: %s: %w", trID, err)
	}
	body := gjson.ParseBytes(raw)
	if rt := body.Get("rt_cd").String(); rt != "0" {
		return gjson.Result{}, fmt.Errorf("kis: %s refused: rt_cd=%s msg_cd=%s msg=%s",
			trID, rt, body.Get("msg_cd").String(), strings.TrimSpace(body.Get("msg1").String()))
	}
	return body, nil
}

// post performs an authenticated trading POST with a hashkey and returns the
// parsed body without interpreting rt_cd; order submission needs the raw
// msg_cd to tell a throttle from a refusal.
func (g *Gateway) post(ctx context.Context, path, trID string, payload map[string]string) (gjson.Result, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, err
	}
	hash, err := g.hashkey(ctx, body)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, err
	}
	g.setAuthHeaders(req, token, trID)
	req.Header.Set("hashkey", hash)

	raw, err := g.readBody(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("kis: %s: %w", trID, err)
	}
	return gjson.ParseBytes(raw), nil
}

func (g *Gateway) setAuthHeaders(req *http.Request, token, trID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", g.cfg.AppKey)
	req.Header.Set("appsecret", g.cfg.AppSecret)
	req.Header.Set("tr_id", trID)
	req.Header.Set("custtype", "P")
}

func (g *Gateway) readBody(req *http.Request) ([]byte, error) {
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, truncate(raw))
	}
	return raw, nil
}

func truncate(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
