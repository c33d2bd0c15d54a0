package scene

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Kind identifies the category of a placed element.
type Kind uint8

const (
	KindImage Kind = iota
	KindText
	KindSticker
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	case KindSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as produced by String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "image":
		return KindImage, nil
	case "text":
		return KindText, nil
	case "sticker":
		return KindSticker, nil
	}
	return 0, fmt.Errorf("scene: unknown element kind %q", s)
}

// LayoutMode selects the initial placement strategy for new elements.
type LayoutMode uint8

const (
	// LayoutFreeflow centers new images and spreads batches on a jittered grid.
	LayoutFreeflow LayoutMode = iota

	// LayoutStandard places images on a 4-row grid, image column on the left
	// in even rows.
	LayoutStandard

	// LayoutMirrored is the left-right mirror of LayoutStandard.
	LayoutMirrored
)

// String returns the mode name.
func (m LayoutMode) String() string {
	switch m {
	case LayoutStandard:
		return "standard"
	case LayoutMirrored:
		return "mirrored"
	case LayoutFreeflow:
		return "freeflow"
	default:
		return "unknown"
	}
}

// ParseLayoutMode parses a mode name. The empty string yields LayoutFreeflow.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "freeflow":
		return LayoutFreeflow, nil
	case "standard":
		return LayoutStandard, nil
	case "mirrored":
		return LayoutMirrored, nil
	}
	return 0, fmt.Errorf("scene: unknown layout mode %q", s)
}

// MarshalJSON encodes the mode by name.
func (m LayoutMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *LayoutMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseLayoutMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ID is the stable identity of a placed element.
type ID string

// Asset is the decoded raster behind an image or sticker together with the
// encoded bytes it was produced from.
type Asset struct {
	Ref    string
	Image  image.Image
	Data   []byte
	Format string // "jpeg", "png", ...
}

// Element is a placed image or sticker.
type Element struct {
	ID             ID
	Kind           Kind
	Asset          *Asset
	OriginalWidth  int
	OriginalHeight int
	Transform      Transform
	ZIndex         int
}

// TextBlock is a rectangular text flow region holding one paragraph.
type TextBlock struct {
	ID           ID
	Content      string
	SectionIndex int
	Region       Transform
	ZIndex       int
}

// Theme is the accent color pair derived from imagery.
type Theme struct {
	Primary color.NRGBA
	Shadow  color.NRGBA
}

// DefaultTheme is used until an image provides a usable accent.
var DefaultTheme = Theme{
	Primary: color.NRGBA{R: 0x34, G: 0x98, B: 0xDB, A: 0xFF},
	Shadow:  color.NRGBA{R: 0x24, G: 0x6A, B: 0x99, A: 0xFF},
}

// Node is a read-only view of one placed element of any kind.
type Node struct {
	ID        ID
	Kind      Kind
	Transform Transform
	ZIndex    int

	Element *Element   // set for images and stickers
	Text    *TextBlock // set for text blocks
}
