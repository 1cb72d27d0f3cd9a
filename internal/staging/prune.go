package staging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"speakerline/internal/logging"
)

// LockFile is the name of the advisory lock a run holds inside its work directory.
const LockFile = ".speakerline.lock"

// PruneResult contains the outcome of a prune pass.
type PruneResult struct {
	Removed []string
	Skipped []string
	Errors  []PruneError
}

// PruneError pairs a directory path with its removal error.
type PruneError struct {
	Path  string
	Error error
}

// Prune removes work directories under root whose modification time is older
// than maxAge. Directories locked by a running pipeline are skipped.
func Prune(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) PruneResult {
	result := PruneResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	root = strings.TrimSpace(root)
	if root == "" || maxAge <= 0 {
		return result
	}

	dirs, err := List(root)
	if err != nil {
		result.Errors = append(result.Errors, PruneError{Path: root, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return result
		}
		if !dir.ModTime.Before(cutoff) {
			continue
		}
		if dir.Locked {
			result.Skipped = append(result.Skipped, dir.Path)
			logger.Debug("work directory in use; skipping prune",
				logging.String("path", dir.Path),
			)
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, PruneError{Path: dir.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale work directory", "work_dir_prune_failed",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		logger.Info("removed stale work directory",
			logging.String("path", dir.Path),
			logging.Duration("age", time.Since(dir.ModTime)),
			logging.String(logging.FieldEventType, "work_dir_pruned"),
		)
	}
	return result
}

// DirInfo describes one work directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Locked  bool
}

// List returns the work directories under root, oldest first. A missing root
// yields an empty list.
func List(root string) ([]DirInfo, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		size, _ := dirSize(path)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    path,
			ModTime: info.ModTime(),
			Size:    size,
			Locked:  locked(path),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].ModTime.Before(dirs[j].ModTime) })
	return dirs, nil
}

// locked tests the directory's lock without creating it when absent.
func locked(dir string) bool {
	path := filepath.Join(dir, LockFile)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return true
	}
	if !ok {
		return true
	}
	_ = lock.Unlock()
	return false
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err == nil {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
