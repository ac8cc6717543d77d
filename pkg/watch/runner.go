package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"tocgen/pkg/models"
	"tocgen/pkg/toc"
)

// Target binds one watched input file to its output file and
// generation options.
type Target struct {
	InputPath  string
	OutputPath string
	Options    toc.Options
}

// TargetStatus is a point-in-time view of one target's regeneration
// state.
type TargetStatus struct {
	InputPath   string    `json:"input_path"`
	OutputPath  string    `json:"output_path"`
	LastRunTime time.Time `json:"last_run_time"`
	LastSuccess bool      `json:"last_success"`
	Error       string    `json:"error,omitempty"`
	Generations int64     `json:"generations"`
	NeverRun    bool      `json:"never_run"`
}

// Runner regenerates tables of contents as watched inputs change
type Runner struct {
	targets  map[string]Target // keyed by absolute input path
	order    []string          // registration order, for status listings
	debounce time.Duration
	watcher  *Watcher
	poller   *Poller // nil when polling is disabled
	log      *logrus.Entry

	inflight map[string]*semaphore.Weighted // per-target overlap guard

	mu     sync.Mutex
	status map[string]*TargetStatus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner wires a watcher (and, when pollInterval > 0, a polling
// fallback) around the given targets.
func NewRunner(targets []Target, debounce, pollInterval time.Duration, log *logrus.Entry) (*Runner, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	byInput := make(map[string]Target, len(targets))
	order := make([]string, 0, len(targets))
	for _, t := range targets {
		abs, err := filepath.Abs(t.InputPath)
		if err != nil {
			return nil, fmt.Errorf("resolve path %q: %w", t.InputPath, err)
		}
		if _, dup := byInput[abs]; dup {
			return nil, fmt.Errorf("duplicate input path %s", abs)
		}
		t.InputPath = abs
		if outAbs, err := filepath.Abs(t.OutputPath); err == nil {
			t.OutputPath = outAbs
		}
		byInput[abs] = t
		order = append(order, abs)
	}

	watcher, err := NewWatcher(order, debounce, log)
	if err != nil {
		return nil, err
	}

	var poller *Poller
	if pollInterval > 0 {
		poller, err = NewPoller(order, pollInterval, log)
		if err != nil {
			watcher.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		targets:  byInput,
		order:    order,
		debounce: debounce,
		watcher:  watcher,
		poller:   poller,
		log:      log,
		inflight: make(map[string]*semaphore.Weighted, len(order)),
		status:   make(map[string]*TargetStatus, len(order)),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, abs := range order {
		r.inflight[abs] = semaphore.NewWeighted(1)
		r.status[abs] = &TargetStatus{
			InputPath:  abs,
			OutputPath: byInput[abs].OutputPath,
			NeverRun:   true,
		}
	}

	return r, nil
}

// Run performs an initial generation pass for every target, then
// blocks regenerating targets as change events arrive, until Stop.
func (r *Runner) Run() error {
	r.log.Infof("Watching %d files (debounce %v)", len(r.targets), r.debounce)

	if r.poller != nil {
		r.log.Infof("Polling fallback every %v", r.poller.interval)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.poller.Run(r.ctx)
		}()
	}

	// Initial pass so every output exists before the first change
	for _, path := range r.order {
		r.regenerate(path)
	}

	var pollEvents <-chan string
	if r.poller != nil {
		pollEvents = r.poller.Events()
	}

	for {
		select {
		case <-r.ctx.Done():
			r.log.Info("Watch runner shutting down...")
			r.wg.Wait()
			return r.watcher.Close()
		case path := <-r.watcher.Events():
			r.regenerate(path)
		case path := <-pollEvents:
			r.regenerate(path)
		}
	}
}

// Stop stops the runner.
func (r *Runner) Stop() {
	r.cancel()
}

// Close releases the watcher of a runner that was never started. A
// started runner is shut down with Stop; Run closes the watcher on
// the way out.
func (r *Runner) Close() error {
	r.cancel()
	return r.watcher.Close()
}

// Status returns a copy of every target's current status, in
// registration order.
func (r *Runner) Status() []TargetStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]TargetStatus, 0, len(r.order))
	for _, path := range r.order {
		out = append(out, *r.status[path])
	}
	return out
}

// regenerate schedules one target's regeneration, skipping paths that
// already have a run in flight.
func (r *Runner) regenerate(path string) {
	target, ok := r.targets[path]
	if !ok {
		return
	}

	sem := r.inflight[path]
	if !sem.TryAcquire(1) {
		r.log.Debugf("Regeneration already in flight for %s, skipping", path)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer sem.Release(1)

		written, err := r.process(target)
		r.recordRun(path, err)
		switch {
		case err != nil:
			r.log.Errorf("Regenerating %s: %v", path, err)
		case written:
			r.log.Infof("Wrote %s", target.OutputPath)
		default:
			r.log.Debugf("Output unchanged for %s", path)
		}
	}()
}

// process reads the input, generates the listing, and atomically
// replaces the output when its content changed. Reports whether the
// output file was rewritten.
func (r *Runner) process(t Target) (bool, error) {
	data, err := os.ReadFile(t.InputPath)
	if err != nil {
		return false, fmt.Errorf("read input: %w", err)
	}

	out, err := toc.Generate(string(data), t.Options)
	if err != nil {
		return false, fmt.Errorf("generate: %w", err)
	}

	if current, err := os.ReadFile(t.OutputPath); err == nil && string(current) == out {
		return false, nil
	}

	if err := writeFileAtomic(t.OutputPath, []byte(out)); err != nil {
		return false, err
	}
	return true, nil
}

// recordRun updates the status table after a regeneration attempt.
func (r *Runner) recordRun(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.status[path]
	st.LastRunTime = time.Now()
	st.LastSuccess = err == nil
	st.NeverRun = false
	st.Generations++
	if err != nil {
		st.Error = err.Error()
	} else {
		st.Error = ""
	}
}

// writeFileAtomic writes via a temp file in the destination directory
// plus rename, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// DeriveOutputPath returns the conventional output path for an input:
// "guide.md" becomes "guide.toc.md" or "guide.toc.html" depending on
// the output format.
func DeriveOutputPath(inputPath string, format models.Format) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	return base + ".toc" + format.Extension()
}
