package kv

import (
	"context"
	"errors"
	"testing"
)

func exerciseClient(t *testing.T, c Client) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) found=%v err=%v", found, err)
	}
	if err := c.Set(ctx, "a/b", []byte("hello")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, err := c.Get(ctx, "a/b")
	if err != nil || !found || string(v) != "hello" {
		t.Fatalf("Get = %q, %v, %v", v, found, err)
	}
	if err := c.Set(ctx, "a/b", []byte("again")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := c.Get(ctx, "a/b"); string(v) != "again" {
		t.Errorf("after overwrite Get = %q", v)
	}
	n, err := c.Delete(ctx, "a/b", "missing")
	if err != nil || n != 1 {
		t.Errorf("Delete = %d, %v; want 1", n, err)
	}
	if _, found, _ := c.Get(ctx, "a/b"); found {
		t.Error("key still present after Delete")
	}
}

func TestMemory(t *testing.T) {
	exerciseClient(t, NewMemory(0))
}

func TestMemoryQuota(t *testing.T) {
	m := NewMemory(4)
	err := m.Set(context.Background(), "k", []byte("12345"))
	var qe *QuotaError
	if !errors.As(err, &qe) || qe.Limit != 4 || qe.Size != 5 {
		t.Fatalf("err = %v, want QuotaError{Size:5, Limit:4}", err)
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Error("QuotaError should match ErrQuotaExceeded")
	}
	if keys := m.Keys(); len(keys) != 0 {
		t.Errorf("rejected value stored: %v", keys)
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory(0)
	buf := []byte("abc")
	_ = m.Set(context.Background(), "k", buf)
	buf[0] = 'X'
	v, _, _ := m.Get(context.Background(), "k")
	if string(v) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", v)
	}
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseClient(t, f)
}

func TestFileCanceledContext(t *testing.T) {
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Set err = %v, want context.Canceled", err)
	}
}
