// Package loader reads the watchlist file and republishes it on change, so
// the symbol set can be edited without restarting the controller. Updates
// travel over a channel the control loop drains between ticks; the loop
// never sees a swap mid-sweep.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"rangebreak/internal/logger"
	"rangebreak/internal/pkg/symbol"
)

type watchlistFile struct {
	Symbols []string `yaml:"symbols"`
}

// LoadWatchlist parses the YAML watchlist at path. KRX-shaped codes are
// normalized to the A-prefixed form; other symbols are kept upper-cased
// as written. Duplicates collapse, order is preserved.
func LoadWatchlist(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("watchlist: read %s: %w", path, err)
	}
	var file watchlistFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("watchlist: parse %s: %w", path, err)
	}
	seen := make(map[string]bool)
	out := make([]string, 0, len(file.Symbols))
	for _, s := range file.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if norm := symbol.Normalize(s); norm != "" {
			s = norm
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("watchlist: %s lists no symbols", path)
	}
	return out, nil
}

// WatchWatchlist reloads the file on filesystem changes and sends each
// successfully parsed revision. A broken edit is logged and skipped; the
// previous revision stays active. The channel closes when ctx ends.
func WatchWatchlist(ctx context.Context, path string) (<-chan []string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watchlist: watcher: %w", err)
	}
	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watchlist: watch %s: %w", path, err)
	}

	ch := make(chan []string, 1)
	go func() {
		defer watcher.Close()
		defer close(ch)
		var debounce *time.Timer
		var debounceC <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(200 * time.Millisecond)
				} else {
					debounce.Reset(200 * time.Millisecond)
				}
				debounceC = debounce.C
			case <-debounceC:
				debounceC = nil
				symbols, err := LoadWatchlist(path)
				if err != nil {
					logger.Warnf("watchlist reload skipped: %v", err)
					continue
				}
				// Keep only the freshest revision if the loop is mid-tick.
				select {
				case ch <- symbols:
				default:
					select {
					case <-ch:
					default:
					}
					ch <- symbols
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("watchlist watcher: %v", err)
			}
		}
	}()
	return ch, nil
}
