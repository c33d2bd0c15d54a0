// Package render rasterizes a scene with gg.
//
// A Renderer is a pure function of its inputs: the same scene at the same
// density always produces the same pixels. Every call builds a fresh gg
// context, so a Renderer may be shared between goroutines.
//
// # Coordinates
//
// Scenes are authored in canvas units (3100 x 4370). At density 1 a canvas
// unit maps to BaseScale pixels (0.125 by default), giving a 388 x 547 live
// frame; export renders at density 8 for a full-resolution 3100 x 4370
// raster.
//
// # Draw order
//
//  1. background template (paper, theme frame, shadow rule)
//  2. images
//  3. text blocks
//  4. stickers
//  5. live overlays (selection handles, gesture preview, eyedropper loupe)
//
// Text is wrapped in canvas units, independent of density, so a paragraph
// breaks at the same words in the live frame and in the exported PDF.
package render
