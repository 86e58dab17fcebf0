package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
session:
  watchlist: [A122630, A252670]
gateway:
  mode: paper
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 5, cfg.Session.TargetBuyCount)
	assert.InDelta(t, 0.19, cfg.Session.AllocationPercent, 1e-9)
	assert.Equal(t, "09:00", cfg.Session.Timetable.Open)
	assert.Equal(t, "15:20", cfg.Session.Timetable.Exit)
	assert.Equal(t, 3, cfg.Session.PollIntervalSeconds)
	assert.Equal(t, 30, cfg.Session.SellCycleDelaySeconds)
	assert.Equal(t, "paper", cfg.Gateway.Mode)
	assert.Equal(t, ":9881", cfg.Monitor.Addr)

	w, err := cfg.Session.Windows()
	require.NoError(t, err)
	assert.NoError(t, w.Validate())
}

func TestLoadExplicitValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
session:
  watchlist: [A122630]
  target_buy_count: 2
  allocation_percent: 0.4
  timetable:
    open: "08:30"
    buy_start: "08:40"
    sell_start: "14:00"
    exit: "14:10"
  poll_interval_seconds: 10
gateway:
  mode: paper
journal:
  enabled: true
  path: /tmp/test-journal.db
`))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Session.TargetBuyCount)
	assert.Equal(t, "08:30", cfg.Session.Timetable.Open)
	assert.Equal(t, 10, cfg.Session.PollIntervalSeconds)
	assert.True(t, cfg.Journal.Enabled)
}

func TestLoadRejectsEmptyWatchlist(t *testing.T) {
	_, err := Load(writeConfig(t, `
gateway:
  mode: paper
`))
	assert.ErrorContains(t, err, "watchlist")
}

func TestLoadRejectsBadSymbolForKIS(t *testing.T) {
	_, err := Load(writeConfig(t, `
session:
  watchlist: [NOTACODE]
gateway:
  mode: kis
  kis:
    app_key: k
    app_secret: s
    account_no: "12345678-01"
`))
	assert.ErrorContains(t, err, "invalid symbol code")
}

func TestLoadRejectsUnorderedWindows(t *testing.T) {
	_, err := Load(writeConfig(t, `
session:
  watchlist: [A122630]
  timetable:
    open: "10:00"
    buy_start: "09:00"
    sell_start: "15:15"
    exit: "15:20"
gateway:
  mode: paper
`))
	assert.ErrorContains(t, err, "ordered")
}

func TestLoadRejectsOverAllocation(t *testing.T) {
	_, err := Load(writeConfig(t, `
session:
  watchlist: [A122630]
  target_buy_count: 4
  allocation_percent: 0.3
gateway:
  mode: paper
`))
	assert.ErrorContains(t, err, "exceeds available cash")
}

func TestLoadRejectsKISWithoutCredentials(t *testing.T) {
	_, err := Load(writeConfig(t, `
session:
  watchlist: [A122630]
gateway:
  mode: kis
`))
	assert.ErrorContains(t, err, "app_key")
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	_, err := Load(writeConfig(t, `
session:
  watchlist: [A122630]
gateway:
  mode: creon
`))
	assert.ErrorContains(t, err, "gateway.mode")
}
