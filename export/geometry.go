package export

import (
	"fmt"
	"math"
)

// A4 portrait in millimetres.
const (
	A4WidthMM  = 210
	A4HeightMM = 297
)

// Geometry maps a rendered raster onto fixed-size pages. The raster is
// scaled to the page width; its height decides the page count.
type Geometry struct {
	WidthPx      int
	HeightPx     int
	PageWidthMM  float64
	PageHeightMM float64

	// MMPerPixel is the physical size of one raster pixel.
	MMPerPixel float64
	// HeightMM is the full raster height on paper.
	HeightMM float64
	// Pages is ceil(HeightMM / PageHeightMM), at least 1.
	Pages int
}

// NewGeometry computes the page layout of a w x h raster.
func NewGeometry(w, h int, pageWidthMM, pageHeightMM float64) (Geometry, error) {
	if w <= 0 || h <= 0 {
		return Geometry{}, fmt.Errorf("%w: %dx%d", ErrEmptyRaster, w, h)
	}
	if pageWidthMM <= 0 || pageHeightMM <= 0 {
		return Geometry{}, fmt.Errorf("export: invalid page size %vx%v mm", pageWidthMM, pageHeightMM)
	}
	g := Geometry{
		WidthPx:      w,
		HeightPx:     h,
		PageWidthMM:  pageWidthMM,
		PageHeightMM: pageHeightMM,
		MMPerPixel:   pageWidthMM / float64(w),
	}
	g.HeightMM = float64(h) * g.MMPerPixel
	// Absorb float noise so an exact fit stays on one page.
	g.Pages = max(1, int(math.Ceil(g.HeightMM/pageHeightMM-1e-9)))
	return g, nil
}

// Offset returns the vertical position of the raster on page i, so that
// the page shows the slice starting i page heights down.
func (g Geometry) Offset(i int) float64 {
	return -float64(i) * g.PageHeightMM
}
