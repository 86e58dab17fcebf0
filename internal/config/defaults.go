package config

import "strings"

const (
	defaultLogLevel          = "info"
	defaultTargetBuyCount    = 5
	defaultAllocationPercent = 0.19
	defaultOpen              = "09:00"
	defaultBuyStart          = "09:05"
	defaultSellStart         = "15:15"
	defaultExit              = "15:20"
	defaultPollSeconds       = 3
	defaultSymbolDelay       = 1
	defaultSettleDelay       = 2
	defaultSellOrderDelay    = 1
	defaultSellCycleDelay    = 30
	defaultSnapshotMinute    = 30
	defaultSeriesCount       = 20
	defaultGatewayMode       = "paper"
	defaultKISBaseURL        = "https://openapi.koreainvestment.com:9443"
	defaultKISTimeout        = 15
	defaultKISRateLimitWait  = 1000
	defaultBinanceREST       = "https://api.binance.com"
	defaultJournalPath       = "data/journal.db"
	defaultMonitorAddr       = ":9881"
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Session.applyDefaults()
	c.Gateway.applyDefaults()
	c.Journal.applyDefaults()
	c.Monitor.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	setIfEmpty(&a.LogLevel, defaultLogLevel)
}

func (s *SessionConfig) applyDefaults() {
	if s.TargetBuyCount <= 0 {
		s.TargetBuyCount = defaultTargetBuyCount
	}
	if s.AllocationPercent <= 0 {
		s.AllocationPercent = defaultAllocationPercent
	}
	setIfEmpty(&s.Timetable.Open, defaultOpen)
	setIfEmpty(&s.Timetable.BuyStart, defaultBuyStart)
	setIfEmpty(&s.Timetable.SellStart, defaultSellStart)
	setIfEmpty(&s.Timetable.Exit, defaultExit)
	if s.PollIntervalSeconds <= 0 {
		s.PollIntervalSeconds = defaultPollSeconds
	}
	if s.SymbolDelaySeconds <= 0 {
		s.SymbolDelaySeconds = defaultSymbolDelay
	}
	if s.SettleDelaySeconds <= 0 {
		s.SettleDelaySeconds = defaultSettleDelay
	}
	if s.SellOrderDelaySeconds <= 0 {
		s.SellOrderDelaySeconds = defaultSellOrderDelay
	}
	if s.SellCycleDelaySeconds <= 0 {
		s.SellCycleDelaySeconds = defaultSellCycleDelay
	}
	if s.SnapshotMinute < 0 || s.SnapshotMinute > 59 {
		s.SnapshotMinute = defaultSnapshotMinute
	}
	if s.SeriesCount <= 0 {
		s.SeriesCount = defaultSeriesCount
	}
}

func (g *GatewayConfig) applyDefaults() {
	setIfEmpty(&g.Mode, defaultGatewayMode)
	g.Mode = strings.ToLower(strings.TrimSpace(g.Mode))
	setIfEmpty(&g.KIS.BaseURL, defaultKISBaseURL)
	if g.KIS.TimeoutSeconds <= 0 {
		g.KIS.TimeoutSeconds = defaultKISTimeout
	}
	if g.KIS.RateLimitWaitMs <= 0 {
		g.KIS.RateLimitWaitMs = defaultKISRateLimitWait
	}
	setIfEmpty(&g.Binance.RESTBaseURL, defaultBinanceREST)
}

func (j *JournalConfig) applyDefaults() {
	setIfEmpty(&j.Path, defaultJournalPath)
}

func (m *MonitorConfig) applyDefaults() {
	setIfEmpty(&m.Addr, defaultMonitorAddr)
}

func setIfEmpty(target *string, def string) {
	if strings.TrimSpace(*target) == "" {
		*target = def
	}
}
