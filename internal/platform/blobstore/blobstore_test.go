package blobstore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestMemStore_SaveAndOpen(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	ref, err := store.Save(ctx, "application/pdf", strings.NewReader("%PDF-1.4 fake"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/reports/") {
		t.Errorf("expected reference under /uploads/reports/, got %q", ref)
	}
	if !strings.HasSuffix(ref, ".pdf") {
		t.Errorf("expected .pdf reference, got %q", ref)
	}

	rc, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestMemStore_RejectsNonPDF(t *testing.T) {
	store := NewMemStore()

	_, err := store.Save(context.Background(), "image/png", strings.NewReader("png bytes"))
	if err != ErrInvalidContentType {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected no stored blobs, got %d", store.Len())
	}
}

func TestMemStore_RejectsOversized(t *testing.T) {
	store := NewMemStore()
	big := bytes.Repeat([]byte("a"), MaxFileSize+1)

	_, err := store.Save(context.Background(), "application/pdf", bytes.NewReader(big))
	if err != ErrFileTooLarge {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestMemStore_Delete(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	ref, err := store.Save(ctx, "application/pdf", strings.NewReader("report"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Open(ctx, ref); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, ref); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}

func TestFSStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}
	ctx := context.Background()

	ref, err := store.Save(ctx, "application/pdf", strings.NewReader("%PDF on disk"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/reports/") {
		t.Errorf("expected reference under /uploads/reports/, got %q", ref)
	}

	rc, err := store.Open(ctx, ref)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read content: %v", err)
	}
	if string(data) != "%PDF on disk" {
		t.Errorf("unexpected content: %q", data)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Open(ctx, ref); err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound after delete, got %v", err)
	}
}

func TestFSStore_RefTraversalContained(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	_, err = store.Open(context.Background(), "/uploads/reports/../../etc/passwd")
	if err != ErrBlobNotFound {
		t.Errorf("expected ErrBlobNotFound for traversal reference, got %v", err)
	}
}

func TestFSStore_RejectsNonPDF(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore() error: %v", err)
	}

	_, err = store.Save(context.Background(), "text/plain", strings.NewReader("hello"))
	if err != ErrInvalidContentType {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}
