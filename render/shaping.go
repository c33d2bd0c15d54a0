package render

import (
	"sync"

	"github.com/gogpu/gg/text"
)

var shaperOnce sync.Once

// EnableComplexShaping installs the HarfBuzz-based go-text shaper, needed
// for Arabic, Hebrew and Indic scripts. gg keeps one shaper for the whole
// process, so this affects every Renderer and every other gg user. Call
// it once at program start, before rendering; later calls do nothing.
func EnableComplexShaping() {
	shaperOnce.Do(func() { text.SetShaper(text.NewGoTextShaper()) })
}
