// Package settings reads the user's figcomp settings file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/figcomp/config.toml (see
// [DefaultPath]) unless --settings points elsewhere. Every key is optional:
//
//	[labels]          # defaults beneath each figure's Options block
//	format_str = "({alpha(index)})"
//	pos = "0.03,0.03"
//	size = 32
//	color = "#222"
//
//	[render]
//	background = "#ffffff"
//	font = "DejaVuSans"
//	filter = "lanczos"
//	jobs = 4
//	width = 1200
//
//	[cache]
//	enabled = true
//	dir = "/tmp/figcomp-cache"
//
// Command-line flags override [render] and [cache]; a figure's Options block
// overrides [labels].
package settings

import (
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/options"
)

const appName = "figcomp"

// Settings is the decoded settings file.
type Settings struct {
	Labels Labels `toml:"labels"`
	Render Render `toml:"render"`
	Cache  Cache  `toml:"cache"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `toml:"-"`
}

// Labels holds label option defaults.
type Labels struct {
	FormatStr *string  `toml:"format_str"`
	Pos       any      `toml:"pos"` // "x,y" or [x, y]
	Size      *float64 `toml:"size"`
	Color     *string  `toml:"color"`
}

// Render holds output defaults.
type Render struct {
	Background string `toml:"background"`
	Font       string `toml:"font"`
	Filter     string `toml:"filter"`
	Jobs       int    `toml:"jobs"`
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
}

// Cache controls the render cache.
type Cache struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DefaultPath returns the settings file location following the XDG base
// directory convention.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// DefaultCacheDir returns the render cache directory (~/.cache/figcomp).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads settings from path. When path is empty the default location is
// used and a missing file yields empty settings; an explicitly given path
// must exist.
func Load(path string) (Settings, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Settings{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeConfig, err, "read settings")
	}

	s, err := Parse(data)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeConfig, err, "settings %s", path)
	}
	s.Path = path
	return s, nil
}

// Parse decodes settings TOML. Unknown keys are rejected.
func Parse(data []byte) (Settings, error) {
	var s Settings
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeConfig, err, "parse TOML")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Settings{}, errors.Config("unknown setting(s) %s", strings.Join(keys, ", "))
	}
	if s.Render.Jobs < 0 {
		return Settings{}, errors.Config("render.jobs must not be negative, got %d", s.Render.Jobs)
	}
	if s.Render.Width < 0 || s.Render.Height < 0 {
		return Settings{}, errors.Config("render.width and render.height must not be negative")
	}
	return s, nil
}

// LabelDefaults converts [labels] into the option layer applied beneath a
// figure's Options block.
func (s Settings) LabelDefaults() (options.Partial, error) {
	var p options.Partial
	l := s.Labels
	p.FormatStr = l.FormatStr
	p.Size = l.Size

	if l.Pos != nil {
		pos, err := parsePos(l.Pos)
		if err != nil {
			return p, err
		}
		p.Pos = &pos
	}
	if l.Color != nil {
		c, err := options.ParseColor(*l.Color)
		if err != nil {
			return p, err
		}
		p.Color = &c
	}
	return p, nil
}

func parsePos(v any) (options.Point, error) {
	switch pos := v.(type) {
	case string:
		return options.ParsePos(pos)
	case []any:
		if len(pos) != 2 {
			return options.Point{}, errors.Config("labels.pos must have two components, got %d", len(pos))
		}
		var xy [2]float64
		for i, c := range pos {
			switch n := c.(type) {
			case float64:
				xy[i] = n
			case int64:
				xy[i] = float64(n)
			default:
				return options.Point{}, errors.Config("labels.pos component %v is not a number", c)
			}
		}
		return options.Point{X: xy[0], Y: xy[1]}, nil
	default:
		return options.Point{}, errors.Config("labels.pos must be \"x,y\" or [x, y]")
	}
}

// BackgroundColor returns the configured canvas colour, white by default.
func (s Settings) BackgroundColor() (color.NRGBA, error) {
	if s.Render.Background == "" {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	return options.ParseColor(s.Render.Background)
}

// CacheEnabled reports whether the render cache is on. It defaults to true.
func (s Settings) CacheEnabled() bool {
	return s.Cache.Enabled == nil || *s.Cache.Enabled
}

// CacheDir returns the configured cache directory or the default.
func (s Settings) CacheDir() (string, error) {
	if s.Cache.Dir != "" {
		return s.Cache.Dir, nil
	}
	return DefaultCacheDir()
}
