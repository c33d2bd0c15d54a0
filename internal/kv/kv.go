// Package kv defines the key/value storage used for drafts together with
// in-memory and file backends. The redis backend lives in kv/redis.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// Client is a minimal string-keyed byte store.
type Client interface {
	// Get returns the value, whether the key was found, and an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys and returns how many existed.
	Delete(ctx context.Context, keys ...string) (int64, error)
	Close() error
}

// ErrQuotaExceeded is matched by every QuotaError.
var ErrQuotaExceeded = errors.New("kv: quota exceeded")

// QuotaError reports a value that does not fit the backend's limit.
type QuotaError struct {
	Key   string
	Size  int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("kv: value for %q is %d bytes, limit %d", e.Key, e.Size, e.Limit)
}

// Unwrap returns ErrQuotaExceeded.
func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }
