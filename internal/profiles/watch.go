package profiles

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc receives the names of profiles whose files changed.
type ChangeFunc func(names []string)

// Watch calls fn with the set of changed profile names until ctx is done.
// Bursts of events within debounce are coalesced into a single call.
func (s *Store) Watch(ctx context.Context, debounce time.Duration, fn ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(s.dir); err != nil {
		w.Close()
		return err
	}
	go s.watchLoop(ctx, w, debounce, fn)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, fn ChangeFunc) {
	defer w.Close()

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			name, ok := profileName(ev)
			if !ok {
				continue
			}
			pending[name] = true
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for n := range pending {
				names = append(names, n)
			}
			pending = make(map[string]bool)
			fn(names)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("profile watcher error", zap.Error(err))
		}
	}
}

func profileName(ev fsnotify.Event) (string, bool) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != ext {
		return "", false
	}
	return strings.TrimSuffix(base, ext), true
}
