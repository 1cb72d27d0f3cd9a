package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"speakerline/internal/fileutil"
	"speakerline/internal/logging"
	"speakerline/internal/services"
)

// Subdirectories of the inbox that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Options tunes the watcher.
type Options struct {
	// Extensions lists accepted file extensions, lowercase with the dot.
	Extensions []string
	// Concurrency bounds simultaneous handler calls.
	Concurrency int
	// SettleInterval is how long a file size must stay unchanged.
	SettleInterval time.Duration
	// SettleAttempts caps the number of size checks before giving up.
	SettleAttempts int
	// Backfill handles files already present when the watcher starts.
	Backfill bool
}

// DefaultOptions accepts WAV files one at a time.
func DefaultOptions() Options {
	return Options{
		Extensions:     []string{".wav"},
		Concurrency:    1,
		SettleInterval: 500 * time.Millisecond,
		SettleAttempts: 240,
	}
}

// Watcher dispatches new inbox files to a handler.
type Watcher struct {
	inbox   string
	handler Handler
	logger  *slog.Logger
	opts    Options
	fsw     *fsnotify.Watcher

	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	inFlight  map[string]struct{}
}

// New starts watching inbox. Call Run to begin dispatching and Close to release the watch.
func New(inbox string, handler Handler, logger *slog.Logger, opts Options) (*Watcher, error) {
	defaults := DefaultOptions()
	if len(opts.Extensions) == 0 {
		opts.Extensions = defaults.Extensions
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	if opts.SettleInterval <= 0 {
		opts.SettleInterval = defaults.SettleInterval
	}
	if opts.SettleAttempts <= 0 {
		opts.SettleAttempts = defaults.SettleAttempts
	}
	for i, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		opts.Extensions[i] = ext
	}

	for _, dir := range []string{inbox, filepath.Join(inbox, ProcessedDir), filepath.Join(inbox, FailedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(inbox); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return &Watcher{
		inbox:     inbox,
		handler:   handler,
		logger:    logging.NewComponentLogger(logger, "watcher"),
		opts:      opts,
		fsw:       fsw,
		semaphore: make(chan struct{}, opts.Concurrency),
		inFlight:  make(map[string]struct{}),
	}, nil
}

// Run dispatches files until ctx is cancelled, then waits for in-flight
// handlers to return.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching inbox",
		logging.String("inbox", w.inbox),
		logging.String("extensions", strings.Join(w.opts.Extensions, ",")),
		logging.Int("concurrency", w.opts.Concurrency),
	)
	defer w.wg.Wait()

	if w.opts.Backfill {
		if err := w.backfill(ctx); err != nil {
			return err
		}
	}
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping; waiting for running jobs")
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				w.dispatch(ctx, event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some inbox events may be missed"),
			)
		}
	}
}

// Close releases the filesystem watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) backfill(ctx context.Context) error {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			w.dispatch(ctx, filepath.Join(w.inbox, entry.Name()))
		}
	}
	return nil
}

// Accepts reports whether path has one of the configured extensions.
func (w *Watcher) Accepts(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return slices.Contains(w.opts.Extensions, strings.ToLower(filepath.Ext(path)))
}

func (w *Watcher) dispatch(ctx context.Context, path string) {
	if !w.Accepts(path) {
		w.logger.Debug("ignoring inbox file", logging.String("path", path))
		return
	}
	w.mu.Lock()
	if _, busy := w.inFlight[path]; busy {
		w.mu.Unlock()
		return
	}
	w.inFlight[path] = struct{}{}
	w.mu.Unlock()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			delete(w.inFlight, path)
			w.mu.Unlock()
		}()
		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.semaphore }()
		w.handle(ctx, path)
	}()
}

// handle runs the handler under a fresh request id and archives the file.
func (w *Watcher) handle(ctx context.Context, path string) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, w.logger).With(logging.String("path", path))
	if err := w.waitSettled(ctx, path); err != nil {
		if ctx.Err() == nil {
			logging.WarnWithContext(logger, "inbox file never settled", "watch_settle_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "file skipped"),
			)
		}
		return
	}
	logger.Info("inbox file detected", logging.String(logging.FieldEventType, "watch_file"))

	target := ProcessedDir
	if err := w.handler(ctx, path); err != nil {
		if ctx.Err() != nil {
			return
		}
		target = FailedDir
		logging.ErrorWithContext(logger, "inbox file failed", "watch_file_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the cause and move the file back into the inbox"),
		)
	}
	dest, err := archive(path, filepath.Join(w.inbox, target))
	if err != nil {
		logger.Error("failed to archive inbox file", logging.Error(err))
		return
	}
	logger.Info("inbox file archived", logging.String("destination", dest))
}

// waitSettled blocks until the file size stays unchanged for one interval.
func (w *Watcher) waitSettled(ctx context.Context, path string) error {
	last := int64(-1)
	for range w.opts.SettleAttempts {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() > 0 && info.Size() == last {
			return nil
		}
		last = info.Size()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.opts.SettleInterval):
		}
	}
	return fmt.Errorf("size still changing after %d checks", w.opts.SettleAttempts)
}

// archive moves path into dir, copying when dir is on another filesystem.
// An existing file of the same name gets a timestamp suffix.
func archive(path, dir string) (string, error) {
	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		dest = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(dest, ext), time.Now().UTC().Format("20060102T150405"), ext)
	}
	err := os.Rename(path, dest)
	if err == nil {
		return dest, nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return "", err
	}
	if err := fileutil.CopyFileVerified(path, dest); err != nil {
		return "", err
	}
	return dest, os.Remove(path)
}
