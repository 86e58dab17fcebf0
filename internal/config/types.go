package config

// Config is the top-level configuration carrier.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Session SessionConfig `mapstructure:"session"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Journal JournalConfig `mapstructure:"journal"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// SessionConfig describes one trading session: what to watch, how much to
// commit, and when the windows open and close.
type SessionConfig struct {
	// Watchlist lists symbol codes inline. WatchlistPath, when set, points
	// at a YAML file that is hot-reloaded and takes precedence.
	Watchlist     []string `mapstructure:"watchlist"`
	WatchlistPath string   `mapstructure:"watchlist_path"`

	TargetBuyCount    int     `mapstructure:"target_buy_count"`
	AllocationPercent float64 `mapstructure:"allocation_percent"`

	Timetable TimetableConfig `mapstructure:"timetable"`

	PollIntervalSeconds   int `mapstructure:"poll_interval_seconds"`
	SymbolDelaySeconds    int `mapstructure:"symbol_delay_seconds"`
	SettleDelaySeconds    int `mapstructure:"settle_delay_seconds"`
	SellOrderDelaySeconds int `mapstructure:"sell_order_delay_seconds"`
	SellCycleDelaySeconds int `mapstructure:"sell_cycle_delay_seconds"`
	SnapshotMinute        int `mapstructure:"snapshot_minute"`
	SeriesCount           int `mapstructure:"series_count"`
}

// TimetableConfig holds the four "HH:MM" window boundaries.
type TimetableConfig struct {
	Open      string `mapstructure:"open"`
	BuyStart  string `mapstructure:"buy_start"`
	SellStart string `mapstructure:"sell_start"`
	Exit      string `mapstructure:"exit"`
}

// GatewayConfig selects and configures the brokerage backend.
type GatewayConfig struct {
	// Mode is kis (live KRX brokerage), paper (in-memory), or binance
	// (binance market data with paper execution).
	Mode    string        `mapstructure:"mode"`
	KIS     KISConfig     `mapstructure:"kis"`
	Binance BinanceConfig `mapstructure:"binance"`
}

// KISConfig describes the Korea Investment & Securities REST access.
type KISConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	AppKey             string `mapstructure:"app_key"`
	AppSecret          string `mapstructure:"app_secret"`
	AccountNo          string `mapstructure:"account_no"`
	AccountProductCode string `mapstructure:"account_product_code"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	// RateLimitWaitMs is the backoff used when the venue throttles without
	// advertising a wait.
	RateLimitWaitMs int `mapstructure:"rate_limit_wait_ms"`
}

type BinanceConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
}

type NotifyConfig struct {
	Slack    SlackConfig    `mapstructure:"slack"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type SlackConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type MonitorConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}
