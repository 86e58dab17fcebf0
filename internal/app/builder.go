package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"rangebreak/internal/config"
	"rangebreak/internal/config/loader"
	"rangebreak/internal/engine"
	"rangebreak/internal/executor"
	"rangebreak/internal/gateway/binance"
	"rangebreak/internal/gateway/broker"
	"rangebreak/internal/gateway/kis"
	"rangebreak/internal/gateway/notifier"
	"rangebreak/internal/gateway/paper"
	"rangebreak/internal/logger"
	"rangebreak/internal/market"
	"rangebreak/internal/pkg/clock"
	"rangebreak/internal/session"
	"rangebreak/internal/store/journal"
	"rangebreak/internal/transport/http/monitor"
)

// paperBankroll seeds the in-memory gateway for dry-run modes so position
// sizing has something to divide.
var paperBankroll = decimal.NewFromInt(10_000_000)

func buildApp(ctx context.Context, cfg *config.Config) (*App, error) {
	source, gw, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}

	notify := buildNotifier(cfg)
	jnl, err := buildJournal(cfg)
	if err != nil {
		return nil, err
	}

	watchlist := cfg.Session.Watchlist
	if cfg.Session.WatchlistPath != "" {
		watchlist, err = loader.LoadWatchlist(cfg.Session.WatchlistPath)
		if err != nil {
			return nil, err
		}
	}

	// Preflight: a dead gateway or bad credentials must fail here, not
	// mid-session.
	if err := gw.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gateway preflight: %w", err)
	}
	cash, err := gw.OrderableCash(ctx)
	if err != nil {
		return nil, fmt.Errorf("orderable cash: %w", err)
	}
	logger.Infof("gateway %s ready: orderable cash %s", gw.Name(), cash)

	if report, err := engine.AccountReport(ctx, gw); err != nil {
		logger.Warnf("boot account report failed: %v", err)
	} else if err := notify.SendText(report); err != nil {
		logger.Warnf("boot notification failed: %v", err)
	}

	state := session.New(cfg.Session.TargetBuyCount, cash, cfg.Session.AllocationPercent)

	exec := executor.New(source, gw, notify, jnl, state, clock.System(), executor.Config{
		SeriesCount:    cfg.Session.SeriesCount,
		SettleDelay:    cfg.Session.SettleDelay(),
		SellOrderDelay: cfg.Session.SellOrderDelay(),
		SellCycleDelay: cfg.Session.SellCycleDelay(),
	})

	windows, err := cfg.Session.Windows()
	if err != nil {
		return nil, err
	}
	ctrl := engine.New(engine.Config{
		Watchlist:      watchlist,
		Windows:        windows,
		PollInterval:   cfg.Session.PollInterval(),
		SymbolDelay:    cfg.Session.SymbolDelay(),
		SnapshotMinute: cfg.Session.SnapshotMinute,
	}, exec, state, gw, notify, clock.System())

	app := &App{cfg: cfg, controller: ctrl, journal: jnl}

	if cfg.Monitor.Enabled {
		srv, err := monitor.NewServer(monitor.ServerConfig{Addr: cfg.Monitor.Addr, Controller: ctrl})
		if err != nil {
			return nil, err
		}
		app.monitor = srv
	}
	return app, nil
}

func buildGateway(cfg *config.Config) (market.Source, broker.Gateway, error) {
	switch cfg.Gateway.Mode {
	case "kis":
		gw, err := kis.New(kis.Config{
			BaseURL:            cfg.Gateway.KIS.BaseURL,
			AppKey:             cfg.Gateway.KIS.AppKey,
			AppSecret:          cfg.Gateway.KIS.AppSecret,
			AccountNo:          cfg.Gateway.KIS.AccountNo,
			AccountProductCode: cfg.Gateway.KIS.AccountProductCode,
			HTTPTimeout:        time.Duration(cfg.Gateway.KIS.TimeoutSeconds) * time.Second,
			RateLimitWait:      time.Duration(cfg.Gateway.KIS.RateLimitWaitMs) * time.Millisecond,
		})
		if err != nil {
			return nil, nil, err
		}
		return gw, gw, nil
	case "paper":
		gw := paper.New()
		gw.SetCash(paperBankroll)
		return gw, gw, nil
	case "binance":
		// Binance supplies prices; fills stay on the in-memory book.
		gw := paper.New()
		gw.SetCash(paperBankroll)
		source := binance.New(binance.Config{RESTBaseURL: cfg.Gateway.Binance.RESTBaseURL})
		return source, gw, nil
	default:
		return nil, nil, fmt.Errorf("unknown gateway mode %q", cfg.Gateway.Mode)
	}
}

func buildNotifier(cfg *config.Config) notifier.TextNotifier {
	var sinks []notifier.TextNotifier
	if cfg.Notify.Slack.Enabled {
		sinks = append(sinks, notifier.NewSlack(cfg.Notify.Slack.Token, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Telegram.Enabled {
		sinks = append(sinks, notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID))
	}
	switch len(sinks) {
	case 0:
		return notifier.Noop{}
	case 1:
		return sinks[0]
	default:
		return notifier.NewMulti(sinks...)
	}
}

func buildJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	jnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return jnl, nil
}
