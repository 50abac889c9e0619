// Package filex spools uploads to local scratch files before they are
// streamed elsewhere.
package filex

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// EnsureSubdDir creates dirName (relative to the working directory unless
// absolute) and returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// Spooled is a fully written scratch copy of an upload, rewound to the
// start. Close removes it from disk.
type Spooled struct {
	*os.File
	Size int64
	// ContentType is sniffed from the first bytes of the content.
	ContentType string
}

// Close closes and deletes the scratch file.
func (s *Spooled) Close() error {
	name := s.File.Name()
	cerr := s.File.Close()
	rerr := os.Remove(name)
	if errors.Is(rerr, os.ErrNotExist) {
		rerr = nil
	}
	return errors.Join(cerr, rerr)
}

// Spool copies r into a new file in dir, at most maxBytes long (0 means
// unlimited). On error nothing is left behind.
func Spool(dir string, r io.Reader, maxBytes int64) (*Spooled, error) {
	f, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	s := &Spooled{File: f}

	fail := func(err error) (*Spooled, error) {
		_ = s.Close()
		return nil, err
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return fail(fmt.Errorf("write scratch file: %w", err))
	}
	if maxBytes > 0 && n > maxBytes {
		return fail(fmt.Errorf("upload exceeds %d bytes", maxBytes))
	}
	s.Size = n

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("rewind scratch file: %w", err))
	}
	head := make([]byte, 512)
	m, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fail(fmt.Errorf("read scratch file: %w", err))
	}
	s.ContentType = http.DetectContentType(head[:m])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fail(fmt.Errorf("rewind scratch file: %w", err))
	}

	return s, nil
}
