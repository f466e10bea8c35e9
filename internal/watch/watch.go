// Package watch polls asset directories and reports when files are added,
// modified or removed. The pagebridge command uses it to rebuild the asset
// manifest and the worker script while assets are being edited.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultInterval is the default polling interval.
const DefaultInterval = 200 * time.Millisecond

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// Config configures a Watcher.
type Config struct {
	// Paths are files or directories to watch.
	Paths []string

	// Ignore holds base name globs, matched against every path segment.
	Ignore []string

	// Interval is the time between scans.
	Interval time.Duration
}

type stamp struct {
	mod  time.Time
	size int64
}

// Watcher monitors files for changes by polling.
type Watcher struct {
	config Config
	seen   map[string]stamp
}

// New creates a Watcher and records the current state of its paths.
func New(config Config) *Watcher {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.Ignore == nil {
		config.Ignore = DefaultIgnore
	}
	w := &Watcher{config: config}
	w.seen = w.scan()
	return w
}

// Run calls fn with the sorted paths that changed since the previous scan
// until ctx is done. A change burst spread over consecutive scans is
// reported once, after a scan that found nothing new.
func (w *Watcher) Run(ctx context.Context, fn func(changed []string)) error {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	var pending []string
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changed := w.Poll()
			if len(changed) > 0 {
				pending = append(pending, changed...)
				continue
			}
			if len(pending) > 0 {
				slices.Sort(pending)
				fn(slices.Compact(pending))
				pending = nil
			}
		}
	}
}

// Poll scans once and returns the sorted paths that changed since the
// previous scan.
func (w *Watcher) Poll() []string {
	current := w.scan()

	var changed []string
	for p, s := range current {
		if old, ok := w.seen[p]; !ok || !old.mod.Equal(s.mod) || old.size != s.size {
			changed = append(changed, p)
		}
	}
	for p := range w.seen {
		if _, ok := current[p]; !ok {
			changed = append(changed, p)
		}
	}
	w.seen = current

	slices.Sort(changed)
	return changed
}

func (w *Watcher) scan() map[string]stamp {
	out := make(map[string]stamp)
	for _, root := range w.config.Paths {
		filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if w.ignored(p) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			out[p] = stamp{mod: info.ModTime(), size: info.Size()}
			return nil
		})
	}
	return out
}

// ignored reports whether any segment of p matches an ignore pattern.
func (w *Watcher) ignored(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		for _, pattern := range w.config.Ignore {
			if ok, _ := filepath.Match(pattern, seg); ok {
				return true
			}
		}
	}
	return false
}
