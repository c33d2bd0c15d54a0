// Package media turns uploaded bytes into scene assets.
//
// Uploads are size-checked, decoded, downscaled to a bounded dimension and
// re-encoded so that persisted drafts stay small. Decoding and compression
// share one time budget.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/journal"
	"github.com/gogpu/journal/scene"
)

// Defaults.
const (
	DefaultMaxBytes     = 10 << 20
	DefaultMaxDimension = 2048
	DefaultMaxPixels    = 40_000_000
	DefaultQuality      = 85
	DefaultTimeout      = 30 * time.Second
)

// Decoder validates, decodes and compresses uploads.
// A Decoder is immutable and safe for concurrent use.
type Decoder struct {
	maxBytes     int64
	maxDimension int
	maxPixels    int64
	quality      int
	timeout      time.Duration

	// encode is replaced in tests to exercise the fallback path.
	encode func(w io.Writer, img image.Image, quality int) error
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxBytes sets the upload size limit.
func WithMaxBytes(n int64) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

// WithMaxDimension bounds the longer side of stored images.
func WithMaxDimension(px int) Option {
	return func(d *Decoder) {
		if px > 0 {
			d.maxDimension = px
		}
	}
}

// WithMaxPixels bounds the decoded pixel count of an upload. Larger images
// are refused from their header alone, which bounds decode memory at about
// four bytes per pixel.
func WithMaxPixels(n int64) Option {
	return func(d *Decoder) {
		if n > 0 {
			d.maxPixels = n
		}
	}
}

// WithQuality sets the JPEG quality of re-encoded images.
func WithQuality(q int) Option {
	return func(d *Decoder) {
		if q >= 1 && q <= 100 {
			d.quality = q
		}
	}
}

// WithTimeout sets the time budget for one Decode call.
func WithTimeout(t time.Duration) Option {
	return func(d *Decoder) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// NewDecoder creates a decoder with the given options applied over the defaults.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxBytes:     DefaultMaxBytes,
		maxDimension: DefaultMaxDimension,
		maxPixels:    DefaultMaxPixels,
		quality:      DefaultQuality,
		timeout:      DefaultTimeout,
		encode:       encodeJPEG,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxBytes returns the upload size limit.
func (d *Decoder) MaxBytes() int64 { return d.maxBytes }

// Decode validates data and returns a compressed asset. OriginalWidth and
// OriginalHeight of the placed element should come from the returned
// asset's image bounds.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*scene.Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > d.maxBytes {
		return nil, &TooLargeError{Size: int64(len(data)), Limit: d.maxBytes}
	}

	if err := checkPixels(data, d.maxPixels); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type result struct {
		asset *scene.Asset
		err   error
	}
	done := make(chan result, 1)
	go func() {
		a, err := d.process(ctx, data)
		done <- result{a, err}
	}()

	select {
	case r := <-done:
		return r.asset, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, d.timeout)
		}
		return nil, ctx.Err()
	}
}

// checkPixels reads only the image header and refuses images above limit.
func checkPixels(data []byte, limit int64) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrUnreadable
	}
	if int64(cfg.Width)*int64(cfg.Height) > limit {
		return &PixelsError{Width: cfg.Width, Height: cfg.Height, Limit: limit}
	}
	return nil
}

// process runs on its own goroutine. Decoding cannot be interrupted, so
// ctx is checked between stages to release the work once Decode has given
// up on it.
func (d *Decoder) process(ctx context.Context, data []byte) (*scene.Asset, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if src.Bounds().Empty() {
		return nil, ErrUnreadable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := journal.Logger()

	img, encoded, outFormat, err := d.compress(src)
	if err != nil {
		log.Warn("media: compression failed, using fallback encoding",
			"source_format", format, "err", err)
		img, encoded, err = d.fallback(src)
		if err != nil {
			return nil, fmt.Errorf("media: fallback encoding: %w", err)
		}
		outFormat = "png"
	}

	b := src.Bounds()
	log.Debug("media: decoded upload",
		"source_format", format, "width", b.Dx(), "height", b.Dy(),
		"in_bytes", len(data), "out_bytes", len(encoded), "out_format", outFormat)

	return &scene.Asset{
		Ref:    fmt.Sprintf("%016x", xxhash.Sum64(encoded)),
		Image:  img,
		Data:   encoded,
		Format: outFormat,
	}, nil
}

// compress downscales with Catmull-Rom and re-encodes. Images with
// transparency keep it by staying PNG.
func (d *Decoder) compress(src image.Image) (image.Image, []byte, string, error) {
	img := scaleDown(src, d.maxDimension, draw.CatmullRom)
	var buf bytes.Buffer
	if !isOpaque(src) {
		if err := png.Encode(&buf, img); err != nil {
			return nil, nil, "", err
		}
		return img, buf.Bytes(), "png", nil
	}
	if err := d.encode(&buf, img, d.quality); err != nil {
		return nil, nil, "", err
	}
	return img, buf.Bytes(), "jpeg", nil
}

// fallback uses the cheapest resampler and a lossless encoder.
func (d *Decoder) fallback(src image.Image) (image.Image, []byte, error) {
	img := scaleDown(src, d.maxDimension, draw.NearestNeighbor)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, err
	}
	return img, buf.Bytes(), nil
}

func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// scaleDown returns an NRGBA copy of src whose longer side is at most
// maxDim, preserving aspect ratio.
func scaleDown(src image.Image, maxDim int, scaler draw.Scaler) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if long := max(w, h); long > maxDim {
		w = max(1, w*maxDim/long)
		h = max(1, h*maxDim/long)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	scaler.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

// ReadAll reads an upload from r, refusing more than the decoder's byte
// limit and honouring the decoder's timeout.
func (d *Decoder) ReadAll(ctx context.Context, r io.Reader) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(io.LimitReader(r, d.maxBytes+1))
		done <- result{data, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("media: read upload: %w", res.err)
		}
		if int64(len(res.data)) > d.maxBytes {
			return nil, &TooLargeError{Size: int64(len(res.data)), Limit: d.maxBytes}
		}
		if len(res.data) == 0 {
			return nil, ErrEmpty
		}
		return res.data, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, d.timeout)
		}
		return nil, ctx.Err()
	}
}

// DecodeBytes decodes previously stored asset bytes without recompressing
// them, as used when restoring drafts. The default pixel limit applies.
func DecodeBytes(data []byte) (*scene.Asset, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if err := checkPixels(data, DefaultMaxPixels); err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return &scene.Asset{
		Ref:    fmt.Sprintf("%016x", xxhash.Sum64(data)),
		Image:  img,
		Data:   data,
		Format: format,
	}, nil
}
