package fileutil

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic streams write's output into a temp file beside path and renames
// it into place once write and the flush succeed. On any failure the temp file
// is removed and an existing file at path is left untouched.
func WriteAtomic(path string, mode os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	buffered := bufio.NewWriter(tmp)
	if err := write(buffered); err != nil {
		return err
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	committed = true
	return nil
}

// WriteFileAtomic writes data to path through WriteAtomic.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAtomic(path, mode, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// NonEmptyFile reports whether path is a regular file with content.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// dst only appears once the copy has been verified.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	var written int64
	err = WriteAtomic(dst, 0o644, func(w io.Writer) error {
		n, err := io.Copy(io.MultiWriter(w, dstHasher), io.TeeReader(in, srcHasher))
		written = n
		if err != nil {
			return err
		}
		if written != srcSize {
			return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
		}
		if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
			return fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
		return nil
	})
	return err
}

// PendingFile is one member of a WriteFilesAtomic set.
type PendingFile struct {
	Path string
	Data []byte
}

type stagedFile struct {
	path, tmp, backup string
	existed           bool
}

// WriteFilesAtomic replaces every file in the set or none of them. All
// contents are staged in temp files first; if a rename fails, files already
// committed are rolled back to their previous contents.
func WriteFilesAtomic(files []PendingFile, mode os.FileMode) (err error) {
	staged := make([]stagedFile, 0, len(files))
	defer func() {
		if err != nil {
			for _, s := range staged {
				_ = os.Remove(s.tmp)
			}
		}
	}()
	for _, f := range files {
		s, stageErr := stageFile(f, mode)
		if stageErr != nil {
			return stageErr
		}
		staged = append(staged, s)
	}

	committed := 0
	for i := range staged {
		if err = commitFile(&staged[i]); err != nil {
			rollback(staged[:committed])
			return err
		}
		committed++
	}
	for _, s := range staged {
		if s.existed {
			_ = os.Remove(s.backup)
		}
	}
	return nil
}

func stageFile(f PendingFile, mode os.FileMode) (stagedFile, error) {
	s := stagedFile{path: f.Path}
	if info, err := os.Lstat(f.Path); err == nil {
		if !info.Mode().IsRegular() {
			return s, fmt.Errorf("%s exists and is not a regular file", f.Path)
		}
		s.existed = true
	}
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s, fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return s, fmt.Errorf("create temp file: %w", err)
	}
	s.tmp = tmp.Name()
	s.backup = s.tmp + ".prev"
	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(s.tmp)
		return s, fmt.Errorf("write %s: %w", s.tmp, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(s.tmp)
		return s, fmt.Errorf("chmod %s: %w", s.tmp, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(s.tmp)
		return s, fmt.Errorf("close %s: %w", s.tmp, err)
	}
	return s, nil
}

func commitFile(s *stagedFile) error {
	if s.existed {
		if err := os.Rename(s.path, s.backup); err != nil {
			return fmt.Errorf("move aside %s: %w", s.path, err)
		}
	}
	if err := os.Rename(s.tmp, s.path); err != nil {
		if s.existed {
			_ = os.Rename(s.backup, s.path)
		}
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}

func rollback(committed []stagedFile) {
	for i := len(committed) - 1; i >= 0; i-- {
		s := committed[i]
		if s.existed {
			_ = os.Rename(s.backup, s.path)
		} else {
			_ = os.Remove(s.path)
		}
	}
}
