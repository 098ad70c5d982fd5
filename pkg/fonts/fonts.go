// Package fonts loads the typeface used for figure labels.
//
// The Go Regular font is compiled into the binary and used unless the user
// picks another one with --font, given either as a font file path or as a
// family file name ("DejaVuSans", "Arial.ttf") looked up in the system font
// directories.
//
// Sizes are in pixels: faces are created at 72 DPI so one point is one pixel.
package fonts

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/figcomp/pkg/cache"
	"github.com/matzehuels/figcomp/pkg/errors"
)

// DefaultName is the name of the embedded font.
const DefaultName = "Go Regular"

// Font is a parsed typeface with a cache of faces per size. It is safe for
// concurrent use.
type Font struct {
	name    string
	hash    string
	newFace func(size float64) (font.Face, error)

	mu    sync.Mutex
	faces map[float64]font.Face
}

var (
	defaultFont     *Font
	defaultFontOnce sync.Once
)

// Default returns the embedded Go Regular font.
func Default() *Font {
	defaultFontOnce.Do(func() {
		f, err := Parse(DefaultName, goregular.TTF)
		if err != nil {
			panic("fonts: embedded font: " + err.Error())
		}
		defaultFont = f
	})
	return defaultFont
}

// Load resolves spec to a font. An empty spec selects the embedded font; an
// existing file is read directly; anything else is searched for in the
// system font directories.
func Load(spec string) (*Font, error) {
	if spec == "" {
		return Default(), nil
	}

	path := spec
	if _, err := os.Stat(spec); err != nil {
		found, ferr := find(spec)
		if ferr != nil {
			return nil, errors.Wrap(errors.ErrCodeConfig, ferr, "font %q not found", spec)
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read font %s", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(name, data)
}

func find(name string) (string, error) {
	if filepath.Ext(name) != "" {
		return findfont.Find(name)
	}
	var firstErr error
	for _, ext := range []string{".ttf", ".otf", ""} {
		p, err := findfont.Find(name + ext)
		if err == nil {
			return p, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", firstErr
}

// Parse parses font data. TrueType outlines go through freetype; fonts it
// rejects, such as OpenType with CFF outlines, are retried with the opentype
// parser.
func Parse(name string, data []byte) (*Font, error) {
	f := &Font{name: name, hash: cache.Hash(data), faces: make(map[float64]font.Face)}

	if ttf, err := truetype.Parse(data); err == nil {
		f.newFace = func(size float64) (font.Face, error) {
			return truetype.NewFace(ttf, &truetype.Options{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingFull,
			}), nil
		}
		return f, nil
	}

	otf, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse font %s", name)
	}
	f.newFace = func(size float64) (font.Face, error) {
		return opentype.NewFace(otf, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}
	return f, nil
}

// Name returns the font's display name.
func (f *Font) Name() string { return f.name }

// Hash returns the SHA-256 of the font data. Two fonts render alike only if
// their hashes match, whatever their names.
func (f *Font) Hash() string { return f.hash }

// Face returns a face at size pixels.
func (f *Font) Face(size float64) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if face, ok := f.faces[size]; ok {
		return face, nil
	}
	face, err := f.newFace(size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "font %s at size %g", f.name, size)
	}
	f.faces[size] = face
	return face, nil
}

// Measure returns the bounding size of text at size pixels. Lines are
// separated by newlines.
func (f *Font) Measure(text string, size float64) (image.Point, error) {
	face, err := f.Face(size)
	if err != nil {
		return image.Point{}, err
	}
	lines := strings.Split(text, "\n")
	var w fixed.Int26_6
	for _, line := range lines {
		w = max(w, font.MeasureString(face, line))
	}
	h := face.Metrics().Height.Mul(fixed.I(len(lines)))
	return image.Pt(w.Ceil(), h.Ceil()), nil
}

// DrawText draws text onto dst with its top-left corner at (x, y).
func (f *Font) DrawText(dst draw.Image, text string, x, y, size float64, c color.Color) error {
	if text == "" {
		return nil
	}
	face, err := f.Face(size)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	m := face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	baseline := fixed.Int26_6(y*64) + m.Ascent
	for _, line := range strings.Split(text, "\n") {
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: baseline}
		d.DrawString(line)
		baseline += m.Height
	}
	return nil
}
