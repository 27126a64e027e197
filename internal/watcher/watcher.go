// Package watcher polls a directory tree for file changes and triggers
// re-analysis when something changed.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/SourceScope/source-scope-mcp/internal/discover"
)

const (
	baseInterval = 1 * time.Second
	maxInterval  = 60 * time.Second
)

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// AnalyzeFunc is the callback for re-analyzing the watched root.
type AnalyzeFunc func(ctx context.Context, root string) error

// Watcher polls one directory root. The poll interval adapts to tree size
// so large trees are not stat-stormed every second.
type Watcher struct {
	root      string
	analyzeFn AnalyzeFunc
	snapshot  map[string]fileSnapshot
	interval  time.Duration
	nextPoll  time.Time
}

// New creates a Watcher over root. analyzeFn runs when changes are detected.
func New(root string, analyzeFn AnalyzeFunc) *Watcher {
	return &Watcher{
		root:      root,
		analyzeFn: analyzeFn,
		interval:  baseInterval,
	}
}

// Run blocks until ctx is cancelled, polling whenever the adaptive
// interval has elapsed.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(baseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Now().Before(w.nextPoll) {
				continue
			}
			w.poll(ctx)
		}
	}
}

// poll captures a snapshot of the tree and compares it with the previous
// one. The first poll records a baseline without triggering analysis.
func (w *Watcher) poll(ctx context.Context) {
	if _, err := os.Stat(w.root); err != nil {
		slog.Warn("watcher.root_gone", "path", w.root)
		w.nextPoll = time.Now().Add(maxInterval)
		return
	}

	snap, err := captureSnapshot(ctx, w.root)
	if err != nil {
		slog.Warn("watcher.snapshot", "path", w.root, "err", err)
		w.nextPoll = time.Now().Add(w.interval)
		return
	}

	interval := pollInterval(len(snap))

	if w.snapshot == nil {
		slog.Debug("watcher.baseline", "path", w.root, "files", len(snap))
		w.snapshot = snap
		w.interval = interval
		w.nextPoll = time.Now().Add(interval)
		return
	}

	if snapshotsEqual(w.snapshot, snap) {
		w.interval = interval
		w.nextPoll = time.Now().Add(interval)
		return
	}

	slog.Info("watcher.changed", "path", w.root, "files", len(snap))
	if err := w.analyzeFn(ctx, w.root); err != nil {
		slog.Warn("watcher.analyze", "path", w.root, "err", err)
		// Keep the old snapshot so the change retries next cycle
		w.nextPoll = time.Now().Add(interval)
		return
	}

	w.snapshot = snap
	w.interval = pollInterval(len(snap))
	w.nextPoll = time.Now().Add(w.interval)
}

// captureSnapshot walks the tree with discover.Discover and records
// mtime+size per file.
func captureSnapshot(ctx context.Context, root string) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, root, nil)
	if err != nil {
		return nil, err
	}

	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, statErr := os.Stat(f.Path)
		if statErr != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
	}
	return snap, nil
}

// snapshotsEqual reports whether two snapshots hold identical files with
// the same mtime and size.
func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, aSnap := range a {
		bSnap, ok := b[path]
		if !ok {
			return false
		}
		if !aSnap.modTime.Equal(bSnap.modTime) || aSnap.size != bSnap.size {
			return false
		}
	}
	return true
}

// pollInterval computes the adaptive interval from file count.
// 1s base + 1s per 500 files, capped at 60s.
func pollInterval(fileCount int) time.Duration {
	ms := 1000 + (fileCount/500)*1000
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}
