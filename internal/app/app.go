// Package app wires configuration into a runnable session: gateway,
// notifier, journal, executor, controller, and the monitor server.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"rangebreak/internal/config"
	"rangebreak/internal/config/loader"
	"rangebreak/internal/engine"
	"rangebreak/internal/logger"
	"rangebreak/internal/store/journal"
	"rangebreak/internal/transport/http/monitor"
)

type App struct {
	cfg        *config.Config
	controller *engine.Controller
	monitor    *monitor.Server
	journal    *journal.Journal
}

// New builds the application. Gateway preflight and the initial cash read
// happen here, so construction fails fast on a dead or misconfigured
// brokerage session.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildApp(ctx, cfg)
}

// Run drives the controller until the session ends, alongside the monitor
// server and the watchlist watcher when configured.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.controller == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.journal.Close()

	group, ctx := errgroup.WithContext(ctx)
	// A finished session also stops the monitor and the watchlist watcher.
	runCtx, endSession := context.WithCancel(ctx)
	defer endSession()

	if a.cfg.Session.WatchlistPath != "" {
		updates, err := loader.WatchWatchlist(runCtx, a.cfg.Session.WatchlistPath)
		if err != nil {
			return err
		}
		a.controller.SetWatchlistUpdates(updates)
	}

	if a.monitor != nil {
		group.Go(func() error {
			if err := a.monitor.Start(runCtx); err != nil {
				return fmt.Errorf("monitor server: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		defer endSession()
		return a.controller.Run(runCtx)
	})

	return group.Wait()
}

// Controller exposes the session controller, mainly for harnesses.
func (a *App) Controller() *engine.Controller {
	if a == nil {
		return nil
	}
	return a.controller
}
