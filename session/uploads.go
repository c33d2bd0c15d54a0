package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/layout"
	"github.com/gogpu/journal/scene"
)

// StickerLongSide is the initial size of the longer side of a sticker.
const StickerLongSide = 200

// AddImages decodes uploads one at a time and places every decoded image
// with a single layout call. Items that fail are reported and skipped;
// the returned error joins their failures.
func (s *Session) AddImages(ctx context.Context, files ...[]byte) ([]scene.ID, error) {
	return s.add(ctx, scene.KindImage, files)
}

// AddStickers is AddImages for decorative overlays.
func (s *Session) AddStickers(ctx context.Context, files ...[]byte) ([]scene.ID, error) {
	return s.add(ctx, scene.KindSticker, files)
}

// add runs on the caller's goroutine. The weight-1 semaphore keeps batches
// and the items inside them strictly sequential.
func (s *Session) add(ctx context.Context, kind scene.Kind, files [][]byte) ([]scene.ID, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if err := s.uploads.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.uploads.Release(1)

	assets := make([]*scene.Asset, 0, len(files))
	var errs []error
	for i, data := range files {
		if i > 0 {
			if err := sleep(ctx, s.cfg.Session.BatchDelay.D()); err != nil {
				errs = append(errs, err)
				break
			}
		}
		a, err := s.decoder.Decode(ctx, data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %d: %w", kind, i+1, err))
			continue
		}
		assets = append(assets, a)
	}

	var ids []scene.ID
	err := s.do(ctx, func() error {
		for _, err := range errs {
			s.fail(err)
		}
		var err error
		ids, err = s.place(kind, assets)
		if err != nil {
			s.fail(err)
		}
		return err
	})
	errs = append(errs, err)
	return ids, errors.Join(errs...)
}

// place lays out one batch. Existing elements are never moved.
func (s *Session) place(kind scene.Kind, assets []*scene.Asset) ([]scene.ID, error) {
	if len(assets) == 0 {
		return nil, nil
	}
	desc := make([]layout.ImageDescriptor, len(assets))
	for i, a := range assets {
		b := a.Image.Bounds()
		desc[i] = layout.ImageDescriptor{Width: b.Dx(), Height: b.Dy()}
	}

	s.batch++
	opts := []layout.Option{
		layout.WithSeed(s.cfg.Layout.Seed + s.batch),
		layout.WithJitter(s.cfg.Layout.Jitter),
	}
	mode := s.scene.LayoutMode
	if kind == scene.KindSticker {
		mode = scene.LayoutFreeflow
		opts = append(opts, layout.WithTargetLongSide(StickerLongSide))
	} else {
		opts = append(opts, layout.WithOccupied(len(s.scene.Images)))
	}
	transforms := layout.Layout(desc, mode, opts...)

	ids := make([]scene.ID, 0, len(assets))
	add := s.scene.AddImage
	if kind == scene.KindSticker {
		add = s.scene.AddSticker
	}
	for i, a := range assets {
		e, err := add(a, desc[i].Width, desc[i].Height, transforms[i])
		if err != nil {
			return ids, err
		}
		ids = append(ids, e.ID)
	}
	journal.Logger().Debug("session: placed batch",
		"kind", kind, "count", len(ids), "mode", mode, "batch", s.batch)
	return ids, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
