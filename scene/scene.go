package scene

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Scene is the complete in-memory description of one journal entry.
//
// A Scene exclusively owns its elements. It is not safe for concurrent use;
// a single session goroutine is expected to own it.
type Scene struct {
	Images     []*Element
	Stickers   []*Element
	TextBlocks []*TextBlock
	Theme      Theme
	LayoutMode LayoutMode

	// Date and Location are boundary values fed by the host form.
	Date     time.Time
	Location string

	nextZ    int
	revision uint64
	newID    func() ID
}

// Option configures a Scene during creation.
type Option func(*Scene)

// WithLayoutMode sets the initial layout mode.
func WithLayoutMode(m LayoutMode) Option {
	return func(s *Scene) { s.LayoutMode = m }
}

// WithIDGenerator replaces the uuid-based id generator.
// Useful for deterministic tests.
func WithIDGenerator(gen func() ID) Option {
	return func(s *Scene) { s.newID = gen }
}

// New creates an empty scene using the default theme and Freeflow layout.
func New(opts ...Option) *Scene {
	s := &Scene{
		Theme:      DefaultTheme,
		LayoutMode: LayoutFreeflow,
		newID:      func() ID { return ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Revision increases on every mutation. Equal revisions imply an unchanged scene.
func (s *Scene) Revision() uint64 { return s.revision }

func (s *Scene) touch() { s.revision++ }

// Reset removes every element and restores the default theme.
// Layout mode, id generator and boundary values are kept.
func (s *Scene) Reset() {
	s.Images = nil
	s.Stickers = nil
	s.TextBlocks = nil
	s.Theme = DefaultTheme
	s.nextZ = 0
	s.touch()
}

// SetTheme replaces the theme.
func (s *Scene) SetTheme(t Theme) {
	if s.Theme == t {
		return
	}
	s.Theme = t
	s.touch()
}

// SetLayoutMode changes the mode used for future placements.
// Existing positions are never recomputed.
func (s *Scene) SetLayoutMode(m LayoutMode) {
	if s.LayoutMode == m {
		return
	}
	s.LayoutMode = m
	s.touch()
}

// SetEntry records the boundary date and location values.
func (s *Scene) SetEntry(date time.Time, location string) {
	s.Date = date
	s.Location = strings.TrimSpace(location)
	s.touch()
}

// AddImage places a new image above every existing element.
func (s *Scene) AddImage(asset *Asset, origW, origH int, t Transform) (*Element, error) {
	return s.addElement(KindImage, asset, origW, origH, t)
}

// AddSticker places a new sticker above every existing element.
func (s *Scene) AddSticker(asset *Asset, origW, origH int, t Transform) (*Element, error) {
	return s.addElement(KindSticker, asset, origW, origH, t)
}

func (s *Scene) addElement(kind Kind, asset *Asset, origW, origH int, t Transform) (*Element, error) {
	if asset == nil || asset.Image == nil {
		return nil, ErrNoAsset
	}
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	e := &Element{
		ID:             s.newID(),
		Kind:           kind,
		Asset:          asset,
		OriginalWidth:  origW,
		OriginalHeight: origH,
		Transform:      t,
		ZIndex:         s.claimZ(),
	}
	if kind == KindSticker {
		s.Stickers = append(s.Stickers, e)
	} else {
		s.Images = append(s.Images, e)
	}
	s.touch()
	return e, nil
}

// RestoreElement inserts an element with a known id and z-index, as read
// back from a persisted draft. The z counter moves past the restored value.
func (s *Scene) RestoreElement(e *Element) error {
	if e == nil || e.Asset == nil || e.Asset.Image == nil {
		return ErrNoAsset
	}
	e.Transform = e.Transform.Normalized()
	if err := e.Transform.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.ZIndex >= s.nextZ {
		s.nextZ = e.ZIndex + 1
	}
	if e.Kind == KindSticker {
		s.Stickers = append(s.Stickers, e)
	} else {
		s.Images = append(s.Images, e)
	}
	s.touch()
	return nil
}

func (s *Scene) claimZ() int {
	z := s.nextZ
	s.nextZ++
	return z
}

// AddText appends a paragraph in reading order.
func (s *Scene) AddText(content string, region Transform) (*TextBlock, error) {
	region = region.Normalized()
	region.Rotation = 0
	if err := region.Validate(); err != nil {
		return nil, err
	}
	b := &TextBlock{
		ID:           s.newID(),
		Content:      norm.NFC.String(content),
		SectionIndex: len(s.TextBlocks),
		Region:       region,
		ZIndex:       s.claimZ(),
	}
	s.TextBlocks = append(s.TextBlocks, b)
	s.touch()
	return b, nil
}

// SetParagraphs replaces the text content. Blocks are matched by reading
// order so existing ids and regions survive edits; regions supplies the
// placement for blocks that do not exist yet and must be at least as long
// as paragraphs.
func (s *Scene) SetParagraphs(paragraphs []string, regions []Transform) error {
	if len(regions) < len(paragraphs) {
		return fmt.Errorf("scene: %d regions for %d paragraphs", len(regions), len(paragraphs))
	}
	blocks := make([]*TextBlock, 0, len(paragraphs))
	for i, p := range paragraphs {
		p = norm.NFC.String(p)
		if i < len(s.TextBlocks) {
			b := s.TextBlocks[i]
			b.Content = p
			b.SectionIndex = i
			blocks = append(blocks, b)
			continue
		}
		r := regions[i].Normalized()
		r.Rotation = 0
		if err := r.Validate(); err != nil {
			return err
		}
		blocks = append(blocks, &TextBlock{
			ID:           s.newID(),
			Content:      p,
			SectionIndex: i,
			Region:       r,
			ZIndex:       s.claimZ(),
		})
	}
	s.TextBlocks = blocks
	s.touch()
	return nil
}

// RestoreText appends a text block with a known id and z-index, as read
// back from a persisted draft.
func (s *Scene) RestoreText(b *TextBlock) error {
	if b == nil {
		return fmt.Errorf("scene: nil text block")
	}
	b.Region = b.Region.Normalized()
	b.Region.Rotation = 0
	if err := b.Region.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = s.newID()
	}
	if b.ZIndex >= s.nextZ {
		s.nextZ = b.ZIndex + 1
	}
	b.Content = norm.NFC.String(b.Content)
	b.SectionIndex = len(s.TextBlocks)
	s.TextBlocks = append(s.TextBlocks, b)
	s.touch()
	return nil
}

// Paragraphs returns the text content in reading order.
func (s *Scene) Paragraphs() []string {
	out := make([]string, len(s.TextBlocks))
	for i, b := range s.TextBlocks {
		out[i] = b.Content
	}
	return out
}

// Remove deletes exactly the element with the given id.
// Every other element keeps its transform and z-index.
func (s *Scene) Remove(id ID) bool {
	if i := indexOf(s.Images, id); i >= 0 {
		s.Images = slices.Delete(s.Images, i, i+1)
		s.touch()
		return true
	}
	if i := indexOf(s.Stickers, id); i >= 0 {
		s.Stickers = slices.Delete(s.Stickers, i, i+1)
		s.touch()
		return true
	}
	for i, b := range s.TextBlocks {
		if b.ID == id {
			s.TextBlocks = slices.Delete(s.TextBlocks, i, i+1)
			for j := i; j < len(s.TextBlocks); j++ {
				s.TextBlocks[j].SectionIndex = j
			}
			s.touch()
			return true
		}
	}
	return false
}

func indexOf(elems []*Element, id ID) int {
	return slices.IndexFunc(elems, func(e *Element) bool { return e.ID == id })
}

// Lookup returns the element with the given id.
func (s *Scene) Lookup(id ID) (Node, bool) {
	for _, e := range s.Images {
		if e.ID == id {
			return elementNode(e), true
		}
	}
	for _, e := range s.Stickers {
		if e.ID == id {
			return elementNode(e), true
		}
	}
	for _, b := range s.TextBlocks {
		if b.ID == id {
			return textNode(b), true
		}
	}
	return Node{}, false
}

// UpdateTransform commits a new transform for id. A transform below the
// size floor is rejected and the prior transform stays intact. Text regions
// never rotate.
func (s *Scene) UpdateTransform(id ID, t Transform) error {
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return err
	}
	n, ok := s.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch {
	case n.Text != nil:
		t.Rotation = 0
		if n.Text.Region == t {
			return nil
		}
		n.Text.Region = t
	default:
		if n.Element.Transform == t {
			return nil
		}
		n.Element.Transform = t
	}
	s.touch()
	return nil
}

// FirstImage returns the first image in creation order, or nil.
func (s *Scene) FirstImage() *Element {
	if len(s.Images) == 0 {
		return nil
	}
	return s.Images[0]
}

// PaintOrder returns every element in drawing order: images, then text
// blocks, then stickers, each band ordered by z-index.
func (s *Scene) PaintOrder() []Node {
	nodes := make([]Node, 0, len(s.Images)+len(s.TextBlocks)+len(s.Stickers))
	nodes = appendElements(nodes, s.Images)
	start := len(nodes)
	for _, b := range s.TextBlocks {
		nodes = append(nodes, textNode(b))
	}
	sortByZ(nodes[start:])
	return appendElements(nodes, s.Stickers)
}

// HitOrder returns every element topmost first.
func (s *Scene) HitOrder() []Node {
	nodes := s.PaintOrder()
	slices.Reverse(nodes)
	return nodes
}

func appendElements(nodes []Node, elems []*Element) []Node {
	start := len(nodes)
	for _, e := range elems {
		nodes = append(nodes, elementNode(e))
	}
	sortByZ(nodes[start:])
	return nodes
}

func sortByZ(nodes []Node) {
	slices.SortStableFunc(nodes, func(a, b Node) int { return a.ZIndex - b.ZIndex })
}

func elementNode(e *Element) Node {
	return Node{ID: e.ID, Kind: e.Kind, Transform: e.Transform, ZIndex: e.ZIndex, Element: e}
}

func textNode(b *TextBlock) Node {
	return Node{ID: b.ID, Kind: KindText, Transform: b.Region, ZIndex: b.ZIndex, Text: b}
}

// TextAt maps a canvas point back to the section index of the paragraph
// whose clickable region contains it.
func (s *Scene) TextAt(x, y float64) (int, bool) {
	for i := len(s.TextBlocks) - 1; i >= 0; i-- {
		b := s.TextBlocks[i]
		if b.Region.Contains(x, y, 0) {
			return b.SectionIndex, true
		}
	}
	return 0, false
}

// TrimTrailingEmpty drops empty text blocks at the end of the reading order.
func (s *Scene) TrimTrailingEmpty() {
	n := len(s.TextBlocks)
	for n > 0 && strings.TrimSpace(s.TextBlocks[n-1].Content) == "" {
		n--
	}
	if n != len(s.TextBlocks) {
		s.TextBlocks = s.TextBlocks[:n]
		s.touch()
	}
}

// Clone returns a deep copy of the element structure. Assets are shared
// because they are never mutated after decoding.
func (s *Scene) Clone() *Scene {
	c := *s
	c.Images = cloneElements(s.Images)
	c.Stickers = cloneElements(s.Stickers)
	c.TextBlocks = make([]*TextBlock, len(s.TextBlocks))
	for i, b := range s.TextBlocks {
		cp := *b
		c.TextBlocks[i] = &cp
	}
	return &c
}

func cloneElements(elems []*Element) []*Element {
	if elems == nil {
		return nil
	}
	out := make([]*Element, len(elems))
	for i, e := range elems {
		cp := *e
		out[i] = &cp
	}
	return out
}

// Len returns the total number of placed elements.
func (s *Scene) Len() int {
	return len(s.Images) + len(s.Stickers) + len(s.TextBlocks)
}
