// Package draft persists in-progress journal entries.
//
// A Draft is the JSON document written to storage. Store splits large
// documents into chunks so that backends with a per-value limit can hold
// entries with many photographs.
package draft

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gogpu/journal/layout"
	"github.com/gogpu/journal/scene"
	"github.com/gogpu/journal/theme"
)

// DateLayout is the persisted date format.
const DateLayout = "2006-01-02"

// Draft is the persisted shape of a scene.
type Draft struct {
	Location         string           `json:"location"`
	Paragraphs       []string         `json:"paragraphs"`
	Images           []string         `json:"images"`   // data URIs
	Stickers         []string         `json:"stickers"` // data URIs
	Date             string           `json:"date"`
	Theme            Theme            `json:"theme"`
	LayoutMode       scene.LayoutMode `json:"layoutMode"`
	ElementPositions []Position       `json:"elementPositions"`
}

// Theme holds hex-encoded accent colors.
type Theme struct {
	Primary string `json:"primary"`
	Shadow  string `json:"shadow"`
}

// Position records where one element sits. Index refers to the element's
// position within Images, Stickers or Paragraphs depending on Kind.
type Position struct {
	ID        scene.ID        `json:"id"`
	Kind      string          `json:"kind"`
	Index     int             `json:"index"`
	Transform scene.Transform `json:"transform"`
	ZIndex    int             `json:"zIndex"`
}

// DecodeFunc turns stored asset bytes back into an asset.
type DecodeFunc func(data []byte) (*scene.Asset, error)

// FromScene captures s.
func FromScene(s *scene.Scene) Draft {
	d := Draft{
		Location:   s.Location,
		Paragraphs: s.Paragraphs(),
		LayoutMode: s.LayoutMode,
		Theme: Theme{
			Primary: theme.Hex(s.Theme.Primary),
			Shadow:  theme.Hex(s.Theme.Shadow),
		},
	}
	if !s.Date.IsZero() {
		d.Date = s.Date.Format(DateLayout)
	}
	for i, e := range s.Images {
		d.Images = append(d.Images, DataURI(e.Asset))
		d.ElementPositions = append(d.ElementPositions, elementPosition(e, i))
	}
	for i, e := range s.Stickers {
		d.Stickers = append(d.Stickers, DataURI(e.Asset))
		d.ElementPositions = append(d.ElementPositions, elementPosition(e, i))
	}
	for i, b := range s.TextBlocks {
		d.ElementPositions = append(d.ElementPositions, Position{
			ID:        b.ID,
			Kind:      scene.KindText.String(),
			Index:     i,
			Transform: b.Region,
			ZIndex:    b.ZIndex,
		})
	}
	return d
}

func elementPosition(e *scene.Element, i int) Position {
	return Position{ID: e.ID, Kind: e.Kind.String(), Index: i, Transform: e.Transform, ZIndex: e.ZIndex}
}

// HasMedia reports whether the draft embeds any image payloads.
func (d Draft) HasMedia() bool {
	return len(d.Images) > 0 || len(d.Stickers) > 0
}

// WithoutMedia returns a copy without image and sticker payloads and their
// positions. It is what a degraded save writes.
func (d Draft) WithoutMedia() Draft {
	out := d
	out.Images = nil
	out.Stickers = nil
	out.ElementPositions = nil
	for _, p := range d.ElementPositions {
		if p.Kind == scene.KindText.String() {
			out.ElementPositions = append(out.ElementPositions, p)
		}
	}
	return out
}

// Validate checks the fields Scene relies on without decoding images.
func (d Draft) Validate() error {
	var errs []error
	if d.Date != "" {
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			errs = append(errs, fmt.Errorf("draft: date: %w", err))
		}
	}
	if d.Theme != (Theme{}) {
		if _, err := theme.ParseHex(d.Theme.Primary); err != nil {
			errs = append(errs, err)
		}
		if _, err := theme.ParseHex(d.Theme.Shadow); err != nil {
			errs = append(errs, err)
		}
	}
	for _, uri := range append(append([]string(nil), d.Images...), d.Stickers...) {
		if _, _, err := ParseDataURI(uri); err != nil {
			errs = append(errs, err)
		}
	}
	for _, p := range d.ElementPositions {
		if _, err := scene.ParseKind(p.Kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Scene rebuilds a scene. Elements keep their persisted ids, transforms
// and z-indexes; elements without a recorded position are placed with the
// draft's layout mode.
func (d Draft) Scene(decode DecodeFunc, opts ...scene.Option) (*scene.Scene, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s := scene.New(append([]scene.Option{scene.WithLayoutMode(d.LayoutMode)}, opts...)...)

	var date time.Time
	if d.Date != "" {
		date, _ = time.Parse(DateLayout, d.Date)
	}
	s.SetEntry(date, d.Location)

	if d.Theme != (Theme{}) {
		primary, _ := theme.ParseHex(d.Theme.Primary)
		shadow, _ := theme.ParseHex(d.Theme.Shadow)
		s.SetTheme(scene.Theme{Primary: primary, Shadow: shadow})
	}

	positions := make(map[string]Position, len(d.ElementPositions))
	for _, p := range d.ElementPositions {
		positions[fmt.Sprintf("%s/%d", p.Kind, p.Index)] = p
	}
	lookup := func(kind scene.Kind, i int) (Position, bool) {
		p, ok := positions[fmt.Sprintf("%s/%d", kind, i)]
		return p, ok
	}

	// Elements without a recorded position stack above every recorded one.
	nextZ := d.maxZ() + 1
	if err := d.restoreElements(s, scene.KindImage, d.Images, decode, lookup, &nextZ); err != nil {
		return nil, err
	}
	if err := d.restoreElements(s, scene.KindSticker, d.Stickers, decode, lookup, &nextZ); err != nil {
		return nil, err
	}

	regions := layout.TextRegions(len(d.Paragraphs), d.LayoutMode)
	for i, content := range d.Paragraphs {
		b := &scene.TextBlock{Content: content, Region: regions[i]}
		if p, ok := lookup(scene.KindText, i); ok {
			b.ID, b.Region, b.ZIndex = p.ID, p.Transform, p.ZIndex
		} else {
			b.ZIndex = nextZ
			nextZ++
		}
		if err := s.RestoreText(b); err != nil {
			return nil, fmt.Errorf("draft: paragraph %d: %w", i, err)
		}
	}
	return s, nil
}

func (d Draft) restoreElements(s *scene.Scene, kind scene.Kind, uris []string, decode DecodeFunc,
	lookup func(scene.Kind, int) (Position, bool), nextZ *int) error {
	var unplaced []int
	elems := make([]*scene.Element, len(uris))
	for i, uri := range uris {
		_, data, err := ParseDataURI(uri)
		if err != nil {
			return err
		}
		asset, err := decode(data)
		if err != nil {
			return fmt.Errorf("draft: %s %d: %w", kind, i, err)
		}
		b := asset.Image.Bounds()
		e := &scene.Element{Kind: kind, Asset: asset, OriginalWidth: b.Dx(), OriginalHeight: b.Dy()}
		if p, ok := lookup(kind, i); ok {
			e.ID, e.Transform, e.ZIndex = p.ID, p.Transform, p.ZIndex
		} else {
			unplaced = append(unplaced, i)
		}
		elems[i] = e
	}

	if len(unplaced) > 0 {
		descs := make([]layout.ImageDescriptor, len(unplaced))
		for j, i := range unplaced {
			descs[j] = layout.ImageDescriptor{Width: elems[i].OriginalWidth, Height: elems[i].OriginalHeight}
		}
		for j, t := range layout.Layout(descs, d.LayoutMode) {
			elems[unplaced[j]].Transform = t
		}
	}

	for _, i := range unplaced {
		elems[i].ZIndex = *nextZ
		*nextZ++
	}
	for i, e := range elems {
		if err := s.RestoreElement(e); err != nil {
			return fmt.Errorf("draft: %s %d: %w", kind, i, err)
		}
	}
	return nil
}

func (d Draft) maxZ() int {
	z := -1
	for _, p := range d.ElementPositions {
		z = max(z, p.ZIndex)
	}
	return z
}

// DataURI encodes an asset as a base64 data URI.
func DataURI(a *scene.Asset) string {
	format := a.Format
	if format == "" {
		format = "png"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ParseDataURI returns the media type and payload of a base64 data URI.
func ParseDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrDataURI
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrDataURI
	}
	mediaType, ok = strings.CutSuffix(header, ";base64")
	if !ok || !strings.HasPrefix(mediaType, "image/") {
		return "", nil, ErrDataURI
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrDataURI, err)
	}
	return mediaType, data, nil
}
