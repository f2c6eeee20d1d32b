// Package blobstore provides report file storage for the clinic platform.
// It defines the Store interface, a filesystem implementation backing the
// /uploads static route, and an in-memory implementation for tests.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// MaxFileSize is the maximum allowed report size in bytes (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes lists the MIME types accepted for report uploads.
// Lab reports are delivered as PDF only.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
}

// Store defines the contract for report storage backends. Save returns a
// URL path reference (e.g. /uploads/reports/1693380000000-123456789.pdf)
// suitable for persisting on the booking record.
type Store interface {
	Save(ctx context.Context, contentType string, content io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

// reportFileName builds a collision-resistant file name in the same shape the
// public references use: <epoch millis>-<random>.pdf.
func reportFileName() string {
	return fmt.Sprintf("%d-%d.pdf", time.Now().UnixMilli(), rand.Int63n(1_000_000_000))
}

func validate(contentType string, data []byte) error {
	if !AllowedContentTypes[contentType] {
		return ErrInvalidContentType
	}
	if int64(len(data)) > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// FSStore stores report files under <dir>/reports and serves them via the
// /uploads static route.
type FSStore struct {
	dir string
}

// NewFSStore creates the reports directory if needed and returns the store.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "reports"), 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Save(_ context.Context, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if err := validate(contentType, data); err != nil {
		return "", err
	}

	name := reportFileName()
	if err := os.WriteFile(filepath.Join(s.dir, "reports", name), data, 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return "/uploads/reports/" + name, nil
}

func (s *FSStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(s.localPath(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return f, nil
}

func (s *FSStore) Delete(_ context.Context, ref string) error {
	if err := os.Remove(s.localPath(ref)); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("remove report file: %w", err)
	}
	return nil
}

// localPath maps a public reference back to a file under the reports
// directory. Only the base name is used, so traversal segments in a
// reference cannot escape the directory.
func (s *FSStore) localPath(ref string) string {
	return filepath.Join(s.dir, "reports", path.Base(ref))
}

// MemStore is a thread-safe, in-memory Store for tests.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

func (s *MemStore) Save(_ context.Context, contentType string, content io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if err := validate(contentType, data); err != nil {
		return "", err
	}

	ref := "/uploads/reports/" + reportFileName()
	s.mu.Lock()
	s.blobs[ref] = data
	s.mu.Unlock()
	return ref, nil
}

func (s *MemStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, ref)
	return nil
}

// Len reports the number of stored blobs. Test helper.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
