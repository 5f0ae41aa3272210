// Package extract turns a pixel grid into a primary/secondary color pair and
// an overall brightness estimate.
//
// # Strategies
//
// Two algorithms are available, selected by Strategy:
//
//   - MedianCut: quantizes the image into ten median-cut boxes, drops dim,
//     gray, and sparse boxes, and orders the rest by population times squared
//     perceived brightness. The brighter of the top two is the primary color.
//     The brightness estimate is sampled from a coarse grid and gamma
//     corrected.
//   - NamedPalette: scores Vibrant/Muted style swatches with a fixed weight
//     table and brightens the winner. The brightness estimate is always 0.5.
//
// Both strategies implement Extractor. When no meaningful color is found
// they degrade to white rather than failing; Fallback is reserved for
// callers that cannot produce pixels at all.
//
// # Thread Safety
//
// Extractors hold no mutable state and are safe for concurrent use.
package extract
