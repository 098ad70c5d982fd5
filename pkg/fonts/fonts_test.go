package fonts

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/figcomp/pkg/errors"
)

func TestDefault(t *testing.T) {
	f := Default()
	if f.Name() != DefaultName {
		t.Errorf("Name() = %q, want %q", f.Name(), DefaultName)
	}
	if Default() != f {
		t.Error("Default() should return the same font")
	}
}

func TestFaceCached(t *testing.T) {
	f := Default()
	a, err := f.Face(20)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := f.Face(20)
	if a != b {
		t.Error("Face(20) should be cached")
	}
}

func TestMeasure(t *testing.T) {
	f := Default()
	one, err := f.Measure("(a)", 20)
	if err != nil {
		t.Fatal(err)
	}
	if one.X <= 0 || one.Y <= 0 {
		t.Fatalf("Measure() = %v, want positive", one)
	}
	two, _ := f.Measure("(a)\n(b)", 20)
	if two.Y <= one.Y {
		t.Errorf("two lines height %d should exceed one line %d", two.Y, one.Y)
	}
	big, _ := f.Measure("(a)", 40)
	if big.X <= one.X {
		t.Errorf("size 40 width %d should exceed size 20 width %d", big.X, one.X)
	}
}

func TestDrawTextTopLeft(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 60))
	if err := Default().DrawText(dst, "M", 30, 20, 20, color.Black); err != nil {
		t.Fatal(err)
	}

	minX, minY := 100, 60
	for y := 0; y < 60; y++ {
		for x := 0; x < 100; x++ {
			if _, _, _, a := dst.At(x, y).RGBA(); a > 0 {
				minX, minY = min(minX, x), min(minY, y)
			}
		}
	}
	if minX < 30 || minX > 34 {
		t.Errorf("leftmost ink at x=%d, want near 30", minX)
	}
	if minY < 20 || minY > 30 {
		t.Errorf("topmost ink at y=%d, want just below 20", minY)
	}
}

func TestDrawTextEmpty(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := Default().DrawText(dst, "", 1, 1, 12, color.Black); err != nil {
		t.Fatal(err)
	}
	for _, v := range dst.Pix {
		if v != 0 {
			t.Fatal("empty text should draw nothing")
		}
	}
}

func TestLoad(t *testing.T) {
	f, err := Load("")
	if err != nil || f != Default() {
		t.Errorf("Load(\"\") = %v, %v; want default font", f, err)
	}

	path := filepath.Join(t.TempDir(), "MyFont.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	f, err = Load(path)
	if err != nil {
		t.Fatalf("Load(path) error: %v", err)
	}
	if f.Name() != "MyFont" {
		t.Errorf("Name() = %q, want MyFont", f.Name())
	}
}

func TestHash(t *testing.T) {
	dir := t.TempDir()
	load := func(data []byte) *Font {
		t.Helper()
		path := filepath.Join(dir, "Label.ttf")
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
		f, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	regular, bold := load(goregular.TTF), load(gobold.TTF)
	if regular.Name() != bold.Name() {
		t.Fatalf("names differ: %q, %q", regular.Name(), bold.Name())
	}
	if regular.Hash() == bold.Hash() {
		t.Error("fonts with the same name but different data should hash differently")
	}
	if regular.Hash() != Default().Hash() {
		t.Error("same font data should hash the same")
	}
}

func TestLoadErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, spec := range []string{bad, "no-such-font-family-xyz"} {
		if _, err := Load(spec); !errors.Is(err, errors.ErrCodeConfig) {
			t.Errorf("Load(%q) error = %v, want CONFIG_ERROR", spec, err)
		}
	}
}
