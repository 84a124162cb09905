// Package writer implements the output writer (C7): an append-only file
// the scheduler drains completed segment buffers into, strictly in index
// order.
package writer

import (
	"os"

	"github.com/tanq16/danzo-hls/internal/danzoerr"
)

// Writer owns a single output file handle, opened with truncation at
// construction time.
type Writer struct {
	f     *os.File
	bytes int64
}

func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, danzoerr.New(danzoerr.Write, "opening output file "+path, err)
	}
	return &Writer{f: f}, nil
}

// Write appends data to the output file. Callers (the scheduler) are
// responsible for calling it only in strict segment-index order.
func (w *Writer) Write(data []byte) error {
	n, err := w.f.Write(data)
	w.bytes += int64(n)
	if err != nil {
		return danzoerr.New(danzoerr.Write, "writing output", err)
	}
	return nil
}

// BytesWritten reports the total bytes committed so far.
func (w *Writer) BytesWritten() int64 { return w.bytes }

// Close flushes and closes the output file. Safe to call once, at job end
// (success or failure) — the caller decides whether to delete the file.
func (w *Writer) Close() error {
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return danzoerr.New(danzoerr.Write, "flushing output", err)
	}
	if err := w.f.Close(); err != nil {
		return danzoerr.New(danzoerr.Write, "closing output", err)
	}
	return nil
}
