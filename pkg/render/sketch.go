package render

import (
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/figcomp/pkg/layout"
)

// SketchOptions configures Sketch.
type SketchOptions struct {
	// Face labels each box. Boxes are left blank when nil.
	Face font.Face
	// Short labels boxes with their label index instead of the file stem.
	Short      bool
	Background color.Color
}

var (
	sketchFill   = color.NRGBA{R: 0xd3, G: 0xd3, B: 0xd3, A: 0x99}
	sketchStroke = color.NRGBA{A: 0xff}
)

// Sketch draws the outline of every leaf box. Only box geometry is used, so
// leaves loaded header-only are fine.
func Sketch(root *layout.Node, opts SketchOptions) image.Image {
	r := root.Box.Pixels()
	dc := gg.NewContext(r.Dx(), r.Dy())
	if opts.Background == nil {
		opts.Background = color.White
	}
	dc.SetColor(opts.Background)
	dc.Clear()
	if opts.Face != nil {
		dc.SetFontFace(opts.Face)
	}

	line := max(1, min(4, float64(min(r.Dx(), r.Dy()))/100))
	for _, leaf := range layout.Leaves(root) {
		b := leaf.Box.Pixels().Sub(r.Min)
		x, y := float64(b.Min.X), float64(b.Min.Y)
		w, h := float64(b.Dx()), float64(b.Dy())

		dc.DrawRectangle(x+line/2, y+line/2, w-line, h-line)
		dc.SetColor(sketchFill)
		dc.FillPreserve()
		dc.SetColor(sketchStroke)
		dc.SetLineWidth(line)
		dc.Stroke()

		if opts.Face != nil {
			dc.DrawStringAnchored(sketchLabel(leaf, opts.Short), x+w/2, y+h/2, 0.5, 0.5)
		}
	}
	return dc.Image()
}

func sketchLabel(leaf *layout.Node, short bool) string {
	if short || leaf.Source == "" {
		return strconv.Itoa(leaf.LabelIndex)
	}
	base := filepath.Base(leaf.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
