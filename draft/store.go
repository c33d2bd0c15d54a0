package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/internal/kv"
)

// Storage limits.
const (
	// ItemLimit is the largest payload written under a single key.
	ItemLimit = 1 << 20

	// ChunkSize is the segment size of payloads above ItemLimit.
	ChunkSize = 500 * 1024
)

// Meta describes a chunked payload.
type Meta struct {
	Chunks    int       `json:"chunks"`
	TotalSize int       `json:"totalSize"`
	SavedAt   time.Time `json:"savedAt"`
}

// SaveResult reports what Save wrote.
type SaveResult struct {
	Size     int
	Chunks   int  // 0 for a single-key write
	Degraded bool // images and stickers were dropped to fit
}

// Store reads and writes one draft under a key. It is safe for concurrent
// use; operations are serialized.
type Store struct {
	mu        sync.Mutex
	client    kv.Client
	key       string
	itemLimit int
	chunkSize int
	now       func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLimits overrides ItemLimit and ChunkSize.
func WithLimits(itemLimit, chunkSize int) StoreOption {
	return func(s *Store) {
		if itemLimit > 0 {
			s.itemLimit = itemLimit
		}
		if chunkSize > 0 {
			s.chunkSize = chunkSize
		}
	}
}

// WithClock sets the time source for Meta.SavedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store writing under key.
func NewStore(client kv.Client, key string, opts ...StoreOption) *Store {
	s := &Store{
		client:    client,
		key:       key,
		itemLimit: ItemLimit,
		chunkSize: ChunkSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the base key.
func (s *Store) Key() string { return s.key }

func (s *Store) metaKey() string       { return s.key + "_meta" }
func (s *Store) chunkKey(i int) string { return fmt.Sprintf("%s_chunk_%d", s.key, i) }

// Save writes d. If the write fails while the draft carries images, it is
// retried once without them and the result is marked Degraded.
func (s *Store) Save(ctx context.Context, d Draft) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.save(ctx, d)
	if err == nil {
		return res, nil
	}
	if !d.HasMedia() {
		return SaveResult{}, err
	}
	journal.Logger().Warn("draft: save failed, retrying without images",
		"key", s.key, "images", len(d.Images), "stickers", len(d.Stickers), "err", err)
	res, retryErr := s.save(ctx, d.WithoutMedia())
	if retryErr != nil {
		return SaveResult{}, errors.Join(err, retryErr)
	}
	res.Degraded = true
	return res, nil
}

func (s *Store) save(ctx context.Context, d Draft) (SaveResult, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return SaveResult{}, fmt.Errorf("draft: encode: %w", err)
	}
	prev, _ := s.readMeta(ctx)

	if len(payload) <= s.itemLimit {
		// Load prefers the meta key, so it must be gone before the
		// single-key payload becomes the draft.
		if _, err := s.client.Delete(ctx, s.metaKey()); err != nil {
			return SaveResult{}, fmt.Errorf("draft: drop chunk meta: %w", err)
		}
		if err := s.client.Set(ctx, s.key, payload); err != nil {
			return SaveResult{}, fmt.Errorf("draft: write: %w", err)
		}
		if prev != nil {
			if _, err := s.client.Delete(ctx, s.chunkKeys(0, prev.Chunks)...); err != nil {
				journal.Logger().Warn("draft: stale chunk cleanup failed", "key", s.key, "err", err)
			}
		}
		return SaveResult{Size: len(payload)}, nil
	}

	n := 0
	for off := 0; off < len(payload); off += s.chunkSize {
		end := min(off+s.chunkSize, len(payload))
		if err := s.client.Set(ctx, s.chunkKey(n), payload[off:end]); err != nil {
			return SaveResult{}, fmt.Errorf("draft: write chunk %d: %w", n, err)
		}
		n++
	}
	meta, err := json.Marshal(Meta{Chunks: n, TotalSize: len(payload), SavedAt: s.now().UTC()})
	if err != nil {
		return SaveResult{}, fmt.Errorf("draft: encode meta: %w", err)
	}
	if err := s.client.Set(ctx, s.metaKey(), meta); err != nil {
		return SaveResult{}, fmt.Errorf("draft: write meta: %w", err)
	}

	stale := []string{s.key}
	if prev != nil && prev.Chunks > n {
		stale = append(stale, s.chunkKeys(n, prev.Chunks)...)
	}
	if _, err := s.client.Delete(ctx, stale...); err != nil {
		journal.Logger().Warn("draft: stale key cleanup failed", "key", s.key, "err", err)
	}
	journal.Logger().Debug("draft: chunked save", "key", s.key, "chunks", n, "bytes", len(payload))
	return SaveResult{Size: len(payload), Chunks: n}, nil
}

func (s *Store) chunkKeys(from, to int) []string {
	keys := make([]string, 0, max(0, to-from))
	for i := from; i < to; i++ {
		keys = append(keys, s.chunkKey(i))
	}
	return keys
}

func (s *Store) readMeta(ctx context.Context) (*Meta, error) {
	raw, found, err := s.client.Get(ctx, s.metaKey())
	if err != nil || !found {
		return nil, err
	}
	var m Meta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: meta: %v", ErrCorrupt, err)
	}
	if m.Chunks <= 0 || m.TotalSize <= 0 {
		return nil, fmt.Errorf("%w: meta: %d chunks, %d bytes", ErrCorrupt, m.Chunks, m.TotalSize)
	}
	return &m, nil
}

// Load returns the stored draft. found is false when nothing is stored.
// A draft that cannot be reassembled, parsed or validated is purged and
// ErrCorrupt is returned.
func (s *Store) Load(ctx context.Context) (d Draft, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, found, err := s.readPayload(ctx)
	if err == nil && found {
		if err = json.Unmarshal(payload, &d); err != nil {
			err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		} else if verr := d.Validate(); verr != nil {
			err = fmt.Errorf("%w: %v", ErrCorrupt, verr)
		}
	}
	if errors.Is(err, ErrCorrupt) {
		journal.Logger().Warn("draft: purging corrupt draft", "key", s.key, "err", err)
		if perr := s.purge(ctx); perr != nil {
			err = errors.Join(err, perr)
		}
		return Draft{}, false, err
	}
	if err != nil || !found {
		return Draft{}, false, err
	}
	journal.Logger().Info("draft: restored", "key", s.key, "bytes", len(payload))
	return d, true, nil
}

func (s *Store) readPayload(ctx context.Context) ([]byte, bool, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return nil, false, err
	}
	if meta == nil {
		raw, found, err := s.client.Get(ctx, s.key)
		if err != nil {
			return nil, false, fmt.Errorf("draft: read: %w", err)
		}
		return raw, found, nil
	}

	var buf bytes.Buffer
	buf.Grow(meta.TotalSize)
	for i := range meta.Chunks {
		chunk, found, err := s.client.Get(ctx, s.chunkKey(i))
		if err != nil {
			return nil, false, fmt.Errorf("draft: read chunk %d: %w", i, err)
		}
		if !found {
			return nil, false, fmt.Errorf("%w: chunk %d of %d missing", ErrCorrupt, i, meta.Chunks)
		}
		buf.Write(chunk)
	}
	if buf.Len() != meta.TotalSize {
		return nil, false, fmt.Errorf("%w: reassembled %d bytes, expected %d", ErrCorrupt, buf.Len(), meta.TotalSize)
	}
	return buf.Bytes(), true, nil
}

// purge deletes the main key, the meta key and every chunk the meta key
// refers to, or that a scan of consecutive chunk keys finds.
func (s *Store) purge(ctx context.Context) error {
	keys := []string{s.key, s.metaKey()}
	for i := 0; ; i++ {
		_, found, err := s.client.Get(ctx, s.chunkKey(i))
		if err != nil {
			return err
		}
		if !found {
			break
		}
		keys = append(keys, s.chunkKey(i))
	}
	_, err := s.client.Delete(ctx, keys...)
	return err
}

// Clear removes the stored draft.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purge(ctx)
}
