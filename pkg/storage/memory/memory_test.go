package memory

import (
	"context"
	"testing"

	"github.com/backupd/backupd/pkg/apperr"
)

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()

	if err := b.Put(ctx, "objects/a", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := b.Get(ctx, "objects/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q, want %q", got, "payload")
	}
}

func TestGet_NotFound(t *testing.T) {
	b := New()

	_, err := b.Get(context.Background(), "objects/missing")
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestPut_CopiesData(t *testing.T) {
	ctx := context.Background()
	b := New()

	data := []byte("original")
	if err := b.Put(ctx, "objects/a", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X'

	got, _ := b.Get(ctx, "objects/a")
	if string(got) != "original" {
		t.Errorf("mutation of caller's buffer leaked into store: got %q", got)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	b := New()

	if err := b.Put(ctx, "objects/a", []byte("original")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ := b.Get(ctx, "objects/a")
	got[0] = 'X'

	got2, _ := b.Get(ctx, "objects/a")
	if string(got2) != "original" {
		t.Errorf("mutation of returned buffer leaked into store: got %q", got2)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	b := New()

	if err := b.Put(ctx, "objects/a", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Delete(ctx, "objects/a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "objects/a"); err != nil {
		t.Errorf("second Delete should be idempotent, got %v", err)
	}

	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
}

func TestList_PrefixAndOrder(t *testing.T) {
	ctx := context.Background()
	b := New()

	for _, k := range []string{"objects/b", "objects/a", "objects/c", "snapshots/x"} {
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
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestList_EarlyBreak(t *testing.T) {
	ctx := context.Background()
	b := New()

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
