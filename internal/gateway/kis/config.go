package kis

import "time"

const (
	defaultBaseURL       = "https://openapi.koreainvestment.com:9443"
	defaultHTTPTimeout   = 15 * time.Second
	defaultRateLimitWait = time.Second
)

// Config holds the REST credentials and pacing knobs for one KIS account.
type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string

	// AccountNo is the 8-digit CANO; AccountProductCode the 2-digit suffix.
	AccountNo          string
	AccountProductCode string

	HTTPTimeout time.Duration

	// RateLimitWait is the pause advised after an EGW00201 throttle reply.
	// The venue does not advertise a wait, so it is configured.
	RateLimitWait time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = defaultRateLimitWait
	}
	if c.AccountProductCode == "" {
		c.AccountProductCode = "01"
	}
	return c
}
