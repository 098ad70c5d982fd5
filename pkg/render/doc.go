// Package render draws a solved layout tree into a raster image.
//
// [Composite] produces the final figure: every image leaf is resampled to its
// pixel box and pasted onto a canvas, then labels are drawn on top in label
// order. [Sketch] draws only the box outlines, which is enough to check a
// layout without decoding any pixels.
//
// Both expect the tree to have been through layout.Solve and
// layout.AssignLabels.
package render
