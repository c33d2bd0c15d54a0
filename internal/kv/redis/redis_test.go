package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestClient(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(Conf{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if _, found, err := c.Get(ctx, "draft"); err != nil || found {
		t.Fatalf("Get(missing) found=%v err=%v", found, err)
	}

	payload := []byte{0x00, 0xFF, 'j', 's', 'o', 'n'}
	if err := c.Set(ctx, "draft", payload); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, found, err := c.Get(ctx, "draft")
	if err != nil || !found || string(got) != string(payload) {
		t.Fatalf("Get = %v, %v, %v", got, found, err)
	}
	if v, _ := mr.Get("draft"); v != string(payload) {
		t.Errorf("server value = %q", v)
	}

	n, err := c.Delete(ctx, "draft", "other")
	if err != nil || n != 1 {
		t.Errorf("Delete = %d, %v", n, err)
	}
	if n, err := c.Delete(ctx); err != nil || n != 0 {
		t.Errorf("Delete() = %d, %v", n, err)
	}
}
