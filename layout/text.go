package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/gogpu/journal/scene"
)

// textInset keeps paragraphs off the cell borders.
const textInset = scene.Margin / 2

// FlowGap is the vertical space Flow keeps between stacked text regions.
const FlowGap = 2 * textInset

// TextRegions returns n flow regions in reading order.
//
// Standard and Mirrored put paragraph i in the text cell of grid row i, the
// cell opposite that row's image. Paragraphs past the last row share the
// last text cell, split vertically. Freeflow stacks full-width regions
// from the top margin; with many paragraphs they run past the canvas
// bottom. Every region is at least MinSize tall.
func TextRegions(n int, mode scene.LayoutMode) []scene.Transform {
	if n <= 0 {
		return nil
	}
	if mode == scene.LayoutFreeflow {
		return stackedRegions(n)
	}

	out := make([]scene.Transform, 0, n)
	for row := 0; row < GridRows && row < n; row++ {
		col := GridColumns - 1 - imageColumn(row, mode)
		out = append(out, inset(Cell(row, col)))
	}
	if n <= GridRows {
		return out
	}

	// Re-split the last cell between every remaining paragraph.
	last := out[GridRows-1]
	out = out[:GridRows-1]
	shared := n - (GridRows - 1)
	h := math.Max((last.Height-float64(shared-1)*FlowGap)/float64(shared), scene.MinSize)
	for i := range shared {
		out = append(out, scene.Transform{
			X:      last.X,
			Y:      last.Y + float64(i)*(h+FlowGap),
			Width:  last.Width,
			Height: h,
		})
	}
	return out
}

func stackedRegions(n int) []scene.Transform {
	rows := max(n, GridRows)
	usable := float64(scene.CanvasHeight - 2*scene.Margin)
	h := math.Max(usable/float64(rows), scene.MinSize+2*textInset)
	out := make([]scene.Transform, n)
	for i := range n {
		out[i] = scene.Transform{
			X:      scene.Margin + textInset,
			Y:      scene.Margin + float64(i)*h + textInset,
			Width:  scene.CanvasWidth - 2*(scene.Margin+textInset),
			Height: h - 2*textInset,
		}
	}
	return out
}

// Flow grows each region to its measured text height and pushes it below
// every region above it that shares a column, so wrapped paragraphs never
// overlap. heights[i] is the wrapped text height of regions[i]. Regions are
// visited top to bottom; an already flowed set is returned unchanged.
func Flow(regions []scene.Transform, heights []float64) []scene.Transform {
	out := slices.Clone(regions)
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(regions[a].Y, regions[b].Y)
	})
	for k, i := range order {
		r := &out[i]
		if i < len(heights) {
			r.Height = math.Max(r.Height, heights[i])
		}
		for _, j := range order[:k] {
			above := out[j]
			if above.X < r.X+r.Width && r.X < above.X+above.Width {
				r.Y = math.Max(r.Y, above.Y+above.Height+FlowGap)
			}
		}
	}
	return out
}

func inset(r scene.Rect) scene.Transform {
	return scene.Transform{
		X:      r.X + textInset,
		Y:      r.Y + textInset,
		Width:  r.W - 2*textInset,
		Height: r.H - 2*textInset,
	}
}
