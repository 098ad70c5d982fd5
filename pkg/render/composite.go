package render

import (
	"context"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/layout"
)

// Resampler scales an image to an exact pixel size.
type Resampler interface {
	Resample(img image.Image, w, h int) image.Image
}

// TextDrawer draws a label with its top-left corner at (x, y).
type TextDrawer interface {
	DrawText(dst draw.Image, text string, x, y, size float64, c color.Color) error
}

// Options configures Composite.
type Options struct {
	Resampler  Resampler   // defaults to imageio.DefaultResampler
	Text       TextDrawer  // required when any leaf has a label
	Background color.Color // defaults to white
	Jobs       int         // concurrent resamples, zero or less means unlimited
}

// Composite renders root onto a new canvas the size of its pixel box.
func Composite(ctx context.Context, root *layout.Node, opts Options) (*image.RGBA, error) {
	if opts.Resampler == nil {
		opts.Resampler = imageio.DefaultResampler
	}
	canvas := newCanvas(root, opts.Background)

	leaves := layout.Leaves(root)
	g, gctx := errgroup.WithContext(ctx)
	if opts.Jobs > 0 {
		g.SetLimit(opts.Jobs)
	}
	for _, leaf := range leaves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return paste(canvas, leaf, opts.Resampler)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := drawLabel(canvas, leaf, opts.Text); err != nil {
			return nil, err
		}
	}
	return canvas, nil
}

func newCanvas(root *layout.Node, bg color.Color) *image.RGBA {
	if bg == nil {
		bg = color.White
	}
	canvas := image.NewRGBA(root.Box.Pixels())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return canvas
}

// paste draws one leaf into its own box. Leaf boxes are disjoint, so leaves
// may be pasted concurrently.
func paste(canvas *image.RGBA, leaf *layout.Node, r Resampler) error {
	if leaf.Asset == nil || leaf.Asset.Image == nil {
		return errors.New(errors.ErrCodeInternal, "%s: image not decoded", leaf.Describe())
	}
	box := leaf.Box.Pixels()
	scaled := r.Resample(leaf.Asset.Image, box.Dx(), box.Dy())
	draw.Draw(canvas, box, scaled, scaled.Bounds().Min, draw.Over)
	return nil
}

// LabelOrigin returns the top-left corner of leaf's label on the canvas.
func LabelOrigin(leaf *layout.Node) (x, y float64) {
	box := leaf.Box.Pixels()
	pos := leaf.Options.Pos
	return float64(box.Min.X) + pos.X*float64(box.Dx()), float64(box.Min.Y) + pos.Y*float64(box.Dy())
}

func drawLabel(dst draw.Image, leaf *layout.Node, text TextDrawer) error {
	if leaf.Label == "" {
		return nil
	}
	if text == nil {
		return errors.New(errors.ErrCodeInternal, "%s: no text drawer for label %q", leaf.Describe(), leaf.Label)
	}
	x, y := LabelOrigin(leaf)
	if err := text.DrawText(dst, leaf.Label, x, y, leaf.Options.Size, leaf.Options.Color); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "%s: draw label", leaf.Describe())
	}
	return nil
}
