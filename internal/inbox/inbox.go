// Package inbox watches a drop folder and ingests PDFs placed in it, the
// server-side analog of dragging a file onto the app.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pagevoiceapp/pagevoice-server/internal/config"
	"github.com/pagevoiceapp/pagevoice-server/internal/service"
)

// settleDelay is how long a file must stop changing before it is ingested.
// Copies into the inbox arrive as a stream of writes; ingesting too early
// reads a truncated PDF.
const settleDelay = 2 * time.Second

// Watcher ingests PDF files dropped into the inbox directory.
type Watcher struct {
	ingest  *service.IngestService
	watcher *fsnotify.Watcher
	cfg     config.IngestConfig
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingFile
	done    chan struct{}
	wg      sync.WaitGroup
}

// pendingFile tracks a file that may still be changing.
type pendingFile struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates the inbox watcher. The inbox directory is created if missing.
func New(ingest *service.IngestService, cfg config.IngestConfig, logger *slog.Logger) (*Watcher, error) {
	if cfg.InboxPath == "" {
		return nil, fmt.Errorf("inbox path not configured")
	}
	if err := os.MkdirAll(cfg.InboxPath, 0o750); err != nil {
		return nil, fmt.Errorf("create inbox directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(cfg.InboxPath); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch inbox directory: %w", err)
	}

	return &Watcher{
		ingest:  ingest,
		watcher: fsw,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*pendingFile),
		done:    make(chan struct{}),
	}, nil
}

// Start processes inbox events until ctx is done. Files already present at
// startup are picked up too.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.Info("inbox watcher starting",
		slog.String("path", w.cfg.InboxPath),
		slog.String("device", w.cfg.InboxDevice))

	w.scanExisting(ctx)

	w.wg.Add(1)
	go w.loop(ctx)

	<-ctx.Done()
}

// Stop tears down the watcher and cancels pending timers.
func (w *Watcher) Stop() error {
	close(w.done)

	w.mu.Lock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	clear(w.pending)
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.startSettling(ctx, event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("inbox watch error", slog.String("error", err.Error()))
		}
	}
}

// scanExisting ingests PDFs that were dropped while the server was down.
func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.cfg.InboxPath)
	if err != nil {
		w.logger.Warn("failed to scan inbox", slog.String("error", err.Error()))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		w.processFile(ctx, filepath.Join(w.cfg.InboxPath, entry.Name()))
	}
}

// startSettling (re)arms the settle timer for a path.
func (w *Watcher) startSettling(ctx context.Context, path string) {
	if !isPDFName(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, exists := w.pending[path]; exists {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		delete(w.pending, path)
		return
	}

	p := &pendingFile{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(settleDelay, func() {
		w.checkSettled(ctx, path)
	})
	w.pending[path] = p
}

// checkSettled ingests the file once its size and mtime stop moving.
func (w *Watcher) checkSettled(ctx context.Context, path string) {
	w.mu.Lock()
	p, exists := w.pending[path]
	if !exists {
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
		// Still changing, restart the timer.
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

	w.processFile(ctx, path)
}

// processFile ingests one PDF and removes it from the inbox on success.
func (w *Watcher) processFile(ctx context.Context, path string) {
	if !isPDFName(path) {
		return
	}

	data, err := os.ReadFile(path) //#nosec G304 -- path comes from the watched inbox
	if err != nil {
		w.logger.Warn("failed to read inbox file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	name := filepath.Base(path)
	if _, err := w.ingest.ProcessFile(ctx, w.cfg.InboxDevice, name, "application/pdf", data); err != nil {
		w.logger.Warn("inbox ingestion failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	if err := os.Remove(path); err != nil {
		w.logger.Warn("failed to remove ingested inbox file",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}

	w.logger.Info("inbox file ingested", slog.String("name", name))
}

func isPDFName(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
