package render

import (
	"unicode"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/gogpu/gg/text"

	"github.com/gogpu/journal/layout"
	"github.com/gogpu/journal/scene"
)

// TextLayout is the wrapped form of one text block, in canvas units.
type TextLayout struct {
	Block *scene.TextBlock
	// Region is where the block is drawn: its stored region grown to fit
	// the wrapped lines and moved below any paragraph above it.
	Region     scene.Transform
	Lines      []string
	Direction  di.Direction
	LineHeight float64
}

// Height returns the vertical extent of the wrapped lines.
func (l TextLayout) Height() float64 {
	return float64(len(l.Lines)) * l.LineHeight
}

// Bottom returns the canvas y just below the last line.
func (l TextLayout) Bottom() float64 {
	return l.Region.Y + l.Height()
}

// LayoutText wraps and flows every text block of s, in block order.
// Wrapping happens in canvas units, so the result does not depend on the
// render density.
func (r *Renderer) LayoutText(s *scene.Scene) []TextLayout {
	regions := make([]scene.Transform, len(s.TextBlocks))
	for i, b := range s.TextBlocks {
		regions[i] = b.Region
	}
	return r.flowText(s.TextBlocks, regions, r.source.Face(r.fontSize))
}

// flowText wraps blocks[i] to the width of regions[i], then moves the
// regions apart with layout.Flow. Flow keeps widths, so the wrap holds.
func (r *Renderer) flowText(blocks []*scene.TextBlock, regions []scene.Transform, face text.Face) []TextLayout {
	out := make([]TextLayout, len(blocks))
	heights := make([]float64, len(blocks))
	for i, b := range blocks {
		out[i] = r.layoutBlock(b, regions[i], face)
		heights[i] = out[i].Height()
	}
	for i, region := range layout.Flow(regions, heights) {
		out[i].Region = region
	}
	return out
}

func (r *Renderer) layoutBlock(b *scene.TextBlock, region scene.Transform, face text.Face) TextLayout {
	l := TextLayout{
		Block:      b,
		Direction:  Direction(b.Content),
		LineHeight: r.fontSize * r.lineSpacing,
	}
	if b.Content == "" {
		return l
	}
	for _, w := range text.WrapText(b.Content, face, region.Width, text.WrapWordChar) {
		l.Lines = append(l.Lines, w.Text)
	}
	return l
}

// ContentHeight returns the canvas height needed to show all wrapped text,
// never less than the canvas height.
func (r *Renderer) ContentHeight(s *scene.Scene) float64 {
	h := float64(scene.CanvasHeight)
	for _, l := range r.LayoutText(s) {
		h = max(h, l.Bottom()+scene.Margin)
	}
	return h
}

// Direction returns the paragraph direction from its first strong letter.
func Direction(s string) di.Direction {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		switch language.LookupScript(r) {
		case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
			return di.DirectionRTL
		case language.Common, language.Inherited:
			continue
		}
		return di.DirectionLTR
	}
	return di.DirectionLTR
}
