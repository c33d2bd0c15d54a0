// Package journal composes single-page illustrated journal entries.
//
// # Overview
//
// A journal entry is a scene of placed elements: text regions, photographs
// and stickers laid out on a fixed virtual canvas of 3100x4370 units. The
// engine gives new elements an initial position, lets a single local editor
// drag, resize, rotate and delete them through pointer events, derives a
// color theme from the first photograph, and exports the result as a
// paginated PDF plus a JPEG gallery preview.
//
// # Packages
//
//   - scene: the element model and its invariants
//   - layout: Standard, Mirrored and Freeflow initial placement
//   - theme: primary/shadow color extraction and a per-session theme bus
//   - media: upload decoding, compression and timeouts
//   - interact: the pointer-event state machine and the eyedropper tool
//   - render: rasterization on top of github.com/gogpu/gg
//   - export: high-density capture, paging and PDF assembly
//   - draft: the persisted draft shape and chunked storage
//   - session: the single-threaded editing loop tying everything together
//
// # Coordinate System
//
// Canvas coordinates are independent of output pixels:
//   - Origin (0,0) at the top-left of the canvas
//   - X increases right, Y increases down
//   - Rotations are in degrees, clockwise, normalized to [0, 360)
//
// The renderer maps canvas units to pixels with a base scale multiplied by
// the requested pixel density, so layout math never depends on density.
//
// # Logging
//
// The engine is silent by default. Call [SetLogger] to route diagnostics
// from every sub-package through a [log/slog] logger.
package journal

// Version is the current version of the engine.
const Version = "0.3.0"
