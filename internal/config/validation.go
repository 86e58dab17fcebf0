package config

import (
	"fmt"
	"strings"
	"time"

	"rangebreak/internal/engine"
	"rangebreak/internal/pkg/symbol"
)

func validate(c *Config) error {
	if err := c.Session.validate(); err != nil {
		return err
	}
	if err := c.Gateway.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	// KRX code shape only matters against the live brokerage; other modes
	// carry their own symbol formats.
	if c.Gateway.Mode == "kis" {
		for _, code := range c.Session.Watchlist {
			if !symbol.Valid(code) {
				return fmt.Errorf("session.watchlist contains invalid symbol code: %s", code)
			}
		}
	}
	return nil
}

func (s *SessionConfig) validate() error {
	if len(s.Watchlist) == 0 && strings.TrimSpace(s.WatchlistPath) == "" {
		return fmt.Errorf("session.watchlist or session.watchlist_path is required")
	}
	if s.AllocationPercent > 1 {
		return fmt.Errorf("session.allocation_percent must be in (0,1], got %v", s.AllocationPercent)
	}
	if s.AllocationPercent*float64(s.TargetBuyCount) > 1 {
		return fmt.Errorf("session.allocation_percent x target_buy_count exceeds available cash (%v x %d)",
			s.AllocationPercent, s.TargetBuyCount)
	}
	if _, err := s.Windows(); err != nil {
		return fmt.Errorf("session.timetable: %w", err)
	}
	return nil
}

func (g *GatewayConfig) validate() error {
	switch g.Mode {
	case "paper", "binance":
	case "kis":
		if strings.TrimSpace(g.KIS.AppKey) == "" || strings.TrimSpace(g.KIS.AppSecret) == "" {
			return fmt.Errorf("gateway.kis requires app_key and app_secret")
		}
		if strings.TrimSpace(g.KIS.AccountNo) == "" {
			return fmt.Errorf("gateway.kis requires account_no")
		}
	default:
		return fmt.Errorf("gateway.mode must be kis, paper, or binance, got %q", g.Mode)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Slack.Enabled && (n.Slack.Token == "" || n.Slack.Channel == "") {
		return fmt.Errorf("notify.slack requires token and channel when enabled")
	}
	if n.Telegram.Enabled && (n.Telegram.BotToken == "" || n.Telegram.ChatID == "") {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}

// Windows converts the timetable into engine boundaries.
func (s *SessionConfig) Windows() (engine.Windows, error) {
	return engine.ParseWindows(s.Timetable.Open, s.Timetable.BuyStart, s.Timetable.SellStart, s.Timetable.Exit)
}

// PollInterval and friends expose the pacing knobs as durations.
func (s *SessionConfig) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

func (s *SessionConfig) SymbolDelay() time.Duration {
	return time.Duration(s.SymbolDelaySeconds) * time.Second
}

func (s *SessionConfig) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelaySeconds) * time.Second
}

func (s *SessionConfig) SellOrderDelay() time.Duration {
	return time.Duration(s.SellOrderDelaySeconds) * time.Second
}

func (s *SessionConfig) SellCycleDelay() time.Duration {
	return time.Duration(s.SellCycleDelaySeconds) * time.Second
}
