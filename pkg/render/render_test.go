package render

import (
	"context"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/fonts"
	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/options"
)

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func leafOf(t *testing.T, name string, img image.Image, override options.Partial) *layout.Node {
	t.Helper()
	format := "{index+1}"
	size := 12.0
	opts, err := options.Resolve(options.Partial{
		FormatStr: &format,
		Pos:       &options.Point{X: 0.05, Y: 0.05},
		Size:      &size,
	}, override)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	return &layout.Node{
		Kind:    layout.Image,
		Source:  name,
		Asset:   &imageio.Asset{Path: name, Width: b.Dx(), Height: b.Dy(), Image: img},
		Natural: layout.Size{W: float64(b.Dx()), H: float64(b.Dy())},
		Options: opts,
	}
}

func solved(t *testing.T, root *layout.Node) *layout.Node {
	t.Helper()
	if err := layout.Solve(root, layout.Target{}); err != nil {
		t.Fatalf("Solve() error: %v", err)
	}
	if _, err := layout.AssignLabels(root); err != nil {
		t.Fatalf("AssignLabels() error: %v", err)
	}
	return root
}

type call struct {
	text string
	x, y float64
	size float64
	c    color.Color
}

type recorder struct{ calls []call }

func (r *recorder) DrawText(_ draw.Image, text string, x, y, size float64, c color.Color) error {
	r.calls = append(r.calls, call{text, x, y, size, c})
	return nil
}

func near(c color.Color, want color.RGBA) bool {
	r, g, b, _ := c.RGBA()
	d := func(a uint32, b uint8) bool {
		v := int(a>>8) - int(b)
		return v > -4 && v < 4
	}
	return d(r, want.R) && d(g, want.G) && d(b, want.B)
}

func TestCompositeRow(t *testing.T) {
	root := solved(t, &layout.Node{Kind: layout.Row, Children: []*layout.Node{
		leafOf(t, "a.png", solid(100, 100, red), options.Partial{}),
		leafOf(t, "b.png", solid(200, 100, blue), options.Partial{}),
	}})

	rec := &recorder{}
	img, err := Composite(context.Background(), root, Options{Text: rec, Jobs: 2})
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 100 {
		t.Fatalf("canvas = %v, want 300x100", b)
	}
	if !near(img.At(50, 50), red) || !near(img.At(99, 99), red) {
		t.Error("left image should be red")
	}
	if !near(img.At(100, 0), blue) || !near(img.At(299, 50), blue) {
		t.Error("right image should be blue")
	}

	want := []call{
		{"1", 5, 5, 12, color.NRGBA{A: 0xff}},
		{"2", 110, 5, 12, color.NRGBA{A: 0xff}},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("DrawText called %d times, want %d", len(rec.calls), len(want))
	}
	for i, c := range rec.calls {
		if c != want[i] {
			t.Errorf("label %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestCompositeResamples(t *testing.T) {
	root := solved(t, &layout.Node{Kind: layout.Column, Children: []*layout.Node{
		leafOf(t, "wide.png", solid(200, 100, red), options.Partial{}),
		leafOf(t, "square.png", solid(100, 100, blue), options.Partial{}),
	}})

	img, err := Composite(context.Background(), root, Options{Text: &recorder{}})
	if err != nil {
		t.Fatalf("Composite() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 150 {
		t.Fatalf("canvas = %v, want 100x150", b)
	}
	if !near(img.At(50, 25), red) {
		t.Errorf("At(50,25) = %v, want red", img.At(50, 25))
	}
	if !near(img.At(50, 100), blue) {
		t.Errorf("At(50,100) = %v, want blue", img.At(50, 100))
	}
}

func TestCompositeBackground(t *testing.T) {
	transparent := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	root := solved(t, leafOf(t, "clear.png", transparent, options.Partial{}))

	img, err := Composite(context.Background(), root, Options{Text: &recorder{}})
	if err != nil {
		t.Fatal(err)
	}
	if !near(img.At(5, 5), color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("transparent leaf should show white background, got %v", img.At(5, 5))
	}

	img, err = Composite(context.Background(), root, Options{Text: &recorder{}, Background: blue})
	if err != nil {
		t.Fatal(err)
	}
	if !near(img.At(5, 5), blue) {
		t.Errorf("custom background = %v, want blue", img.At(5, 5))
	}
}

func TestCompositeLabels(t *testing.T) {
	text := "B!"
	empty := ""
	root := solved(t, &layout.Node{Kind: layout.Row, Children: []*layout.Node{
		leafOf(t, "a.png", solid(100, 100, red), options.Partial{}),
		leafOf(t, "b.png", solid(100, 100, red), options.Partial{Text: &text, Pos: &options.Point{X: 0.5, Y: 0.5}}),
		leafOf(t, "c.png", solid(100, 100, red), options.Partial{FormatStr: &empty}),
		leafOf(t, "d.png", solid(100, 100, red), options.Partial{}),
	}})

	rec := &recorder{}
	if _, err := Composite(context.Background(), root, Options{Text: rec}); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range rec.calls {
		got = append(got, c.text)
	}
	if want := []string{"1", "B!", "4"}; len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Errorf("labels = %v, want %v", got, want)
	}
	if rec.calls[1].x != 150 || rec.calls[1].y != 50 {
		t.Errorf("B! drawn at (%v,%v), want (150,50)", rec.calls[1].x, rec.calls[1].y)
	}
}

func TestCompositeWithFont(t *testing.T) {
	root := solved(t, leafOf(t, "a.png", solid(200, 100, color.RGBA{0xff, 0xff, 0xff, 0xff}), options.Partial{}))
	img, err := Composite(context.Background(), root, Options{Text: fonts.Default()})
	if err != nil {
		t.Fatal(err)
	}
	dark := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("label should leave dark pixels near the top-left corner")
	}
}

func TestCompositeMissingImage(t *testing.T) {
	root := solved(t, leafOf(t, "a.png", solid(10, 10, red), options.Partial{}))
	root.Asset.Image = nil
	_, err := Composite(context.Background(), root, Options{Text: &recorder{}})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Composite() error = %v, want INTERNAL_ERROR", err)
	}
}

func TestCompositeCancelled(t *testing.T) {
	root := solved(t, leafOf(t, "a.png", solid(10, 10, red), options.Partial{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Composite(ctx, root, Options{Text: &recorder{}}); err == nil {
		t.Error("Composite() with cancelled context should fail")
	}
}

func TestSketch(t *testing.T) {
	root := solved(t, &layout.Node{Kind: layout.Row, Children: []*layout.Node{
		leafOf(t, "a.png", solid(100, 100, red), options.Partial{}),
		leafOf(t, "b.png", solid(200, 100, red), options.Partial{}),
	}})
	face, err := fonts.Default().Face(12)
	if err != nil {
		t.Fatal(err)
	}

	img := Sketch(root, SketchOptions{Face: face})
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 100 {
		t.Fatalf("sketch = %v, want 300x100", b)
	}
	if r, _, _, _ := img.At(0, 50).RGBA(); r > 0x4000 {
		t.Errorf("box edge At(0,50) = %v, want dark outline", img.At(0, 50))
	}
	if r, g, b, _ := img.At(20, 20).RGBA(); r == 0xffff && g == 0xffff && b == 0xffff {
		t.Error("box interior should be filled grey")
	}
	if r, _, _, _ := img.At(20, 20).RGBA(); r < 0x8000 {
		t.Errorf("box interior At(20,20) = %v, want light grey", img.At(20, 20))
	}
}

func TestSketchLabel(t *testing.T) {
	n := &layout.Node{Kind: layout.Image, Source: "figs/panel-a.png", LabelIndex: 3}
	if got := sketchLabel(n, false); got != "panel-a" {
		t.Errorf("sketchLabel() = %q, want panel-a", got)
	}
	if got := sketchLabel(n, true); got != "3" {
		t.Errorf("sketchLabel(short) = %q, want 3", got)
	}
}
