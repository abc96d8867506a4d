package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cuemarkapp/cuemark-server/internal/logger"
)

// settleDelay is how long a result file must stop changing before it is
// picked up. The analyzer writes files in one shot, but network filesystems
// can deliver the bytes in bursts.
const settleDelay = 2 * time.Second

// Watcher monitors the drop directory and feeds settled result files to the
// ingestor.
type Watcher struct {
	dir      string
	ingestor *Ingestor
	logger   *logger.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*pendingFile

	done chan struct{}
	wg   sync.WaitGroup
}

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// NewWatcher creates a watcher for dir. The directory is created if it does
// not exist.
func NewWatcher(dir string, ingestor *Ingestor, log *logger.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drop directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch drop directory: %w", err)
	}

	return &Watcher{
		dir:      dir,
		ingestor: ingestor,
		logger:   log,
		fsw:      fsw,
		pending:  make(map[string]*pendingFile),
		done:     make(chan struct{}),
	}, nil
}

// Start sweeps files already in the directory, then processes events until
// ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.ingestor.Sweep(ctx, w.dir); err != nil {
		w.logger.WithError(err).Warn("Startup sweep failed", "dir", w.dir)
	}

	w.wg.Add(1)
	go w.processEvents(ctx)

	w.logger.Info("Watching analyzer drop directory", "dir", w.dir)

	<-ctx.Done()
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name
	if !strings.HasSuffix(filepath.Base(path), cueFileSuffix) {
		return
	}

	if event.Op&fsnotify.Remove != 0 {
		w.cancelPending(path)
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		w.startSettling(ctx, path)
	}
}

// startSettling arms (or re-arms) the settle timer for a file.
func (w *Watcher) startSettling(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	if info.IsDir() {
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(settleDelay, func() {
		w.checkSettled(ctx, path)
	})
	w.pending[path] = p
}

func (w *Watcher) checkSettled(ctx context.Context, path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if !ok {
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	if info.Size() != p.size || info.ModTime() != p.modTime {
		// Still being written, go around again.
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(settleDelay, func() {
			w.checkSettled(ctx, path)
		})
		w.mu.Unlock()
		return
	}

	delete(w.pending, path)
	w.mu.Unlock()

	if err := w.ingestor.IngestFile(ctx, path); err != nil {
		w.logger.WithError(err).Warn("Failed to ingest cue file", "path", path)
	}
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

// Stop shuts the watcher down and waits for in-flight work.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
