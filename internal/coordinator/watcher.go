package coordinator

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/routesmith/routesmith/internal/tree"
)

// Watcher polls the route directory for route-file changes and hands each
// one to the apply callback. Polling keeps the dependency surface flat and
// behaves identically across platforms and network mounts.
type Watcher struct {
	dir      string
	interval time.Duration
	apply    func(Event)

	stopChan chan struct{}
	wg       sync.WaitGroup
	seen     map[string]time.Time
}

// NewWatcher creates a watcher over dir. Events are delivered on the
// watcher's own goroutine, one at a time, in path order within a scan.
func NewWatcher(dir string, interval time.Duration, apply func(Event)) *Watcher {
	return &Watcher{
		dir:      dir,
		interval: interval,
		apply:    apply,
		stopChan: make(chan struct{}),
		seen:     make(map[string]time.Time),
	}
}

// Start records the current state without emitting events, then begins
// polling.
func (w *Watcher) Start() error {
	current, err := w.snapshot()
	if err != nil {
		return err
	}
	w.seen = current

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts polling and waits for the scan goroutine to exit.
func (w *Watcher) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

// scan diffs the current route-file modification times against the previous
// snapshot and emits one event per difference.
func (w *Watcher) scan() {
	current, err := w.snapshot()
	if err != nil {
		return
	}

	var events []Event
	for path, mod := range current {
		prev, ok := w.seen[path]
		switch {
		case !ok:
			events = append(events, Event{Path: path, Op: OpAdd})
		case !mod.Equal(prev):
			events = append(events, Event{Path: path, Op: OpChange})
		}
	}
	for path := range w.seen {
		if _, ok := current[path]; !ok {
			events = append(events, Event{Path: path, Op: OpRemove})
		}
	}
	w.seen = current

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	for _, ev := range events {
		w.apply(ev)
	}
}

// snapshot maps every route file under the watched directory to its
// modification time.
func (w *Watcher) snapshot() (map[string]time.Time, error) {
	found := make(map[string]time.Time)
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if d.Name() != filepath.Base(w.dir) && len(d.Name()) > 0 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != tree.RouteFileName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		found[path] = info.ModTime()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
