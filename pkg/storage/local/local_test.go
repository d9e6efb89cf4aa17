package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/backupd/backupd/pkg/apperr"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(DefaultConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if err := b.Put(ctx, "objects/ab/abcdef", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := b.Get(ctx, "objects/ab/abcdef")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q, want %q", got, "payload")
	}
}

func TestGet_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.Get(context.Background(), "objects/missing")
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	if err := b.Put(ctx, "objects/k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Delete(ctx, "objects/k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "objects/k"); err != nil {
		t.Errorf("second Delete should be idempotent, got %v", err)
	}

	_, err := b.Get(ctx, "objects/k")
	if !apperr.IsNotFound(err) {
		t.Errorf("Get after Delete err = %v, want NotFound", err)
	}
}

func TestDelete_CleansEmptyDirs(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b, err := New(DefaultConfig(root))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := b.Put(ctx, "objects/ab/cd/ef", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Delete(ctx, "objects/ab/cd/ef"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "objects", "ab")); !os.IsNotExist(err) {
		t.Errorf("expected empty parent directories to be cleaned up, stat err = %v", err)
	}
}

func TestList_PrefixAndOrder(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	keys := []string{"objects/b", "objects/a", "objects/c", "snapshots/x"}
	for _, k := range keys {
		if err := b.Put(ctx, k, []byte("v")); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	var got []string
	for k, err := range b.List(ctx, "objects") {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, k)
	}

	want := []string{"objects/a", "objects/b", "objects/c"}
	if len(got) != len(want) {
		t.Fatalf("List returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestList_EmptyPrefixYieldsNothing(t *testing.T) {
	b := newTestBackend(t)

	count := 0
	for range b.List(context.Background(), "objects") {
		count++
	}
	if count != 0 {
		t.Errorf("List on empty backend yielded %d entries, want 0", count)
	}
}

func TestList_EarlyBreak(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	for _, k := range []string{"objects/a", "objects/b", "objects/c"} {
		if err := b.Put(ctx, k, []byte("v")); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}

	count := 0
	for range b.List(ctx, "objects") {
		count++
		if count == 1 {
			break
		}
	}
	if count != 1 {
		t.Errorf("expected iteration to stop after break, got %d", count)
	}
}

func TestPut_SkipsTmpFilesOnList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	b, err := New(DefaultConfig(root))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "objects", "leftover.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := b.Put(ctx, "objects/real", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got []string
	for k, err := range b.List(ctx, "objects") {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, k)
	}
	if len(got) != 1 || got[0] != "objects/real" {
		t.Errorf("List = %v, want [objects/real]", got)
	}
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Config{})
	if !apperr.IsInvalidArgument(err) {
		t.Errorf("err = %v, want InvalidArgument", err)
	}
}
