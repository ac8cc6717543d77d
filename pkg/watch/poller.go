package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// snapshot records the stat fields compared between polls.
type snapshot struct {
	modTime time.Time
	size    int64
	exists  bool
}

// Poller detects changes to a fixed set of files by comparing stat
// results on an interval. It backs up the notify watcher on
// filesystems where events are unreliable (network mounts, some
// container overlays).
type Poller struct {
	interval time.Duration
	log      *logrus.Entry
	files    []string // absolute paths
	snaps    map[string]snapshot
	events   chan string
}

// NewPoller prepares a poller for the given files. Run starts it.
func NewPoller(paths []string, interval time.Duration, log *logrus.Entry) (*Poller, error) {
	p := &Poller{
		interval: interval,
		log:      log,
		files:    make([]string, 0, len(paths)),
		snaps:    make(map[string]snapshot, len(paths)),
		events:   make(chan string, len(paths)+1),
	}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", path, err)
		}
		p.files = append(p.files, abs)
	}

	return p, nil
}

// Events returns the channel of changed absolute paths.
func (p *Poller) Events() <-chan string {
	return p.events
}

// Run polls until the context is cancelled. Blocks.
func (p *Poller) Run(ctx context.Context) {
	// Prime the snapshots so pre-existing files do not count as changes
	for _, path := range p.files {
		p.snaps[path] = stat(path)
	}

	p.log.Debugf("Polling %d files every %v", len(p.files), p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll emits an event for every file whose stat changed since the
// previous tick. A deleted file is not a change; it becomes one again
// when it reappears.
func (p *Poller) poll(ctx context.Context) {
	for _, path := range p.files {
		current := stat(path)
		previous := p.snaps[path]
		p.snaps[path] = current

		if current == previous || !current.exists {
			continue
		}

		select {
		case p.events <- path:
		case <-ctx.Done():
			return
		}
	}
}

func stat(path string) snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{modTime: info.ModTime(), size: info.Size(), exists: true}
}
