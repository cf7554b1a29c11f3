// internal/logging/rotating.go
package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter is an io.Writer that rotates its file when it grows
// past maxSize bytes. Rotated files are gzip-compressed and at most
// maxKeep of them are retained.
type RotatingWriter struct {
	path    string
	maxSize int64
	maxKeep int
	file    *os.File
	size    int64
	mu      sync.Mutex
}

// NewRotatingWriter opens (creating parent directories as needed) a
// rotating writer at path. A maxKeep <= 0 defaults to 5.
func NewRotatingWriter(path string, maxSize int64, maxKeep int) (*RotatingWriter, error) {
	if maxKeep <= 0 {
		maxKeep = 5
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}

	return &RotatingWriter{
		path:    path,
		maxSize: maxSize,
		maxKeep: maxKeep,
		file:    f,
		size:    info.Size(),
	}, nil
}

// Write implements io.Writer.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *RotatingWriter) rotate() error {
	w.file.Close()

	// Shift existing rotated files up by one, dropping the oldest.
	for i := w.maxKeep; i >= 1; i-- {
		old := fmt.Sprintf("%s.%d.gz", w.path, i)
		plain := fmt.Sprintf("%s.%d", w.path, i)
		if i == w.maxKeep {
			os.Remove(old)
			os.Remove(plain)
		} else {
			os.Rename(old, fmt.Sprintf("%s.%d.gz", w.path, i+1))
			os.Rename(plain, fmt.Sprintf("%s.%d", w.path, i+1))
		}
	}

	// Compress the full file to .1.gz, falling back to a plain rename.
	if err := compressFile(w.path, w.path+".1.gz"); err != nil {
		os.Rename(w.path, w.path+".1")
	} else {
		os.Remove(w.path)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}
