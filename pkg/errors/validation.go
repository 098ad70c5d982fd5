package errors

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// OutputFormats lists the file extensions figcomp can encode, mapped to a
// canonical format name.
var OutputFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
}

// ValidateOutputPath checks that path names a supported raster format and that
// its parent directory exists and is a directory. It does not create or touch
// the file.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeIO, "output path cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := OutputFormats[ext]; !ok {
		return New(ErrCodeIO, "unsupported output format %q (use .png, .jpg, .gif, .tif or .bmp)", ext)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return Wrap(ErrCodeIO, err, "output directory %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeIO, "output directory %s is not a directory", dir)
	}
	return nil
}

// ValidateImagePath rejects image references that cannot possibly name a file:
// empty strings and strings with control characters.
func ValidateImagePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeConfig, "image path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeConfig, "image path %q contains invalid characters", path)
		}
	}
	return nil
}
