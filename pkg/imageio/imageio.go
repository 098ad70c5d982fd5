// Package imageio reads source images and writes composite figures.
//
// Decoding goes through disintegration/imaging so EXIF orientation is applied
// before sizes are measured: a portrait photo stored rotated still lays out as
// portrait. Besides the formats imaging handles (PNG, JPEG, GIF, TIFF, BMP),
// WebP inputs are accepted.
//
// Writes are atomic: the encoded figure goes to a temporary file in the target
// directory which is renamed over the output path only after encoding
// succeeded, so a failed run never leaves a partial figure behind.
package imageio

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/figcomp/pkg/cache"
	"github.com/matzehuels/figcomp/pkg/errors"
)

// Asset is a decoded source image.
type Asset struct {
	Path   string
	Width  int
	Height int
	Image  image.Image // nil when only the header was read
	Hash   string      // SHA-256 of the file bytes, empty for header-only assets
}

// Loader decodes images from disk.
type Loader struct {
	// HeaderOnly reads dimensions without decoding pixels. EXIF orientation is
	// not applied in this mode.
	HeaderOnly bool
}

// Load decodes the image at path.
func (l Loader) Load(path string) (*Asset, error) {
	if l.HeaderOnly {
		return DecodeConfig(path)
	}
	return Decode(path)
}

// Decode reads and fully decodes the image at path.
func Decode(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAsset, err, "read image %s", path)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAsset, err, "decode image %s", path)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New(errors.ErrCodeAsset, "image %s has no pixels", path)
	}
	return &Asset{
		Path:   path,
		Width:  b.Dx(),
		Height: b.Dy(),
		Image:  img,
		Hash:   cache.Hash(data),
	}, nil
}

// DecodeConfig reads only the image header at path.
func DecodeConfig(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAsset, err, "open image %s", path)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAsset, err, "decode image header %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New(errors.ErrCodeAsset, "image %s has no pixels", path)
	}
	return &Asset{Path: path, Width: cfg.Width, Height: cfg.Height}, nil
}

// Resampler scales images to an exact target size.
type Resampler struct {
	Filter imaging.ResampleFilter
}

// DefaultResampler uses a Lanczos filter, which keeps plot lines and text in
// downscaled panels sharp.
var DefaultResampler = Resampler{Filter: imaging.Lanczos}

// Filters maps resampling filter names accepted in settings to imaging
// filters.
var Filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// NewResampler returns a Resampler for a filter name from [Filters]. An empty
// name selects Lanczos.
func NewResampler(name string) (Resampler, error) {
	if name == "" {
		return DefaultResampler, nil
	}
	f, ok := Filters[strings.ToLower(name)]
	if !ok {
		return Resampler{}, errors.Config("unknown resampling filter %q", name)
	}
	return Resampler{Filter: f}, nil
}

// Resample returns a copy of img scaled to w×h pixels.
func (r Resampler) Resample(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, r.Filter)
}

// FormatFor returns the imaging format for an output path's extension.
func FormatFor(path string) (imaging.Format, error) {
	if _, ok := errors.OutputFormats[strings.ToLower(filepath.Ext(path))]; !ok {
		return 0, errors.New(errors.ErrCodeIO, "unsupported output format for %s", path)
	}
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeIO, err, "output format for %s", path)
	}
	return f, nil
}

// EncodeBytes encodes img in the given format.
func EncodeBytes(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(95)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "encode %s", format)
	}
	return buf.Bytes(), nil
}

// Encode writes img to path in the format implied by its extension.
func Encode(img image.Image, path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := EncodeBytes(img, format)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}
