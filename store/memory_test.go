package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore_SaveAndLoad(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveSnapshot(ctx, "run-1", []byte(`{"state":"running"}`)); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	data, err := s.LoadSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if string(data) != `{"state":"running"}` {
		t.Fatalf("data = %s", data)
	}
}

func TestMemoryStore_LoadMissingReturnsErrNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.LoadSnapshot(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_SaveOverwritesPreviousSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveSnapshot(ctx, "run-1", []byte("first"))
	_ = s.SaveSnapshot(ctx, "run-1", []byte("second"))

	data, err := s.LoadSnapshot(ctx, "run-1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("data = %s, want second", data)
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SaveSnapshot(ctx, "run-1", []byte("data"))
	if err := s.DeleteSnapshot(ctx, "run-1"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}

	_, err := s.LoadSnapshot(ctx, "run-1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_DeleteMissingIsNotError(t *testing.T) {
	s := NewMemoryStore()
	if err := s.DeleteSnapshot(context.Background(), "missing"); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
}
