package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads a locale whenever its override file in the registry's
// directory changes. It blocks until ctx is done.
func (r *Registry) Watch(ctx context.Context) error {
	if r.dir == "" {
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(r.dir); err != nil {
		return fmt.Errorf("watch %s: %w", r.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			locale, ok := localeOf(ev.Name)
			if !ok {
				continue
			}
			if _, err := r.Reload(locale); err != nil {
				r.logger.Warn("catalog reload failed, keeping previous table",
					zap.String("locale", locale), zap.Error(err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

func localeOf(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".yaml") {
		return "", false
	}
	locale := strings.TrimSuffix(base, ".yaml")
	return locale, locale != ""
}
