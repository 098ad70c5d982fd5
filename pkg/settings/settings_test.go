package settings

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/options"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
[labels]
format_str = "({alpha(index)})"
pos = [0.1, 0.2]
size = 32
color = "#222"

[render]
background = "#000"
font = "DejaVuSans"
filter = "linear"
jobs = 3
width = 1200

[cache]
enabled = false
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if s.Render.Font != "DejaVuSans" || s.Render.Jobs != 3 || s.Render.Width != 1200 || s.Render.Filter != "linear" {
		t.Errorf("Render = %+v", s.Render)
	}
	if s.CacheEnabled() {
		t.Error("CacheEnabled() = true, want false")
	}

	p, err := s.LabelDefaults()
	if err != nil {
		t.Fatalf("LabelDefaults() error: %v", err)
	}
	if *p.FormatStr != "({alpha(index)})" || *p.Pos != (options.Point{X: 0.1, Y: 0.2}) || *p.Size != 32 {
		t.Errorf("LabelDefaults() = %+v", p)
	}
	if *p.Color != (color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}) {
		t.Errorf("Color = %v", *p.Color)
	}
	if p.Text != nil {
		t.Error("Text should never come from settings")
	}

	bg, err := s.BackgroundColor()
	if err != nil || bg != (color.NRGBA{A: 0xff}) {
		t.Errorf("BackgroundColor() = %v, %v; want black", bg, err)
	}
}

func TestParsePosForms(t *testing.T) {
	tests := []struct {
		src     string
		want    options.Point
		wantErr bool
	}{
		{`pos = "0.05,0.05"`, options.Point{X: 0.05, Y: 0.05}, false},
		{`pos = [0.5, 0.25]`, options.Point{X: 0.5, Y: 0.25}, false},
		{`pos = [1, 0]`, options.Point{X: 1, Y: 0}, false}, // range is checked when options resolve
		{`pos = [0.1]`, options.Point{}, true},
		{`pos = ["a", "b"]`, options.Point{}, true},
		{`pos = 3`, options.Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s, err := Parse([]byte("[labels]\n" + tt.src))
			if err != nil {
				t.Fatalf("Parse() error: %v", err)
			}
			p, err := s.LabelDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("LabelDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && *p.Pos != tt.want {
				t.Errorf("Pos = %v, want %v", *p.Pos, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad toml", "[labels"},
		{"unknown key", "[render]\nbackgroud = \"#fff\""},
		{"unknown table", "[output]\nformat = \"png\""},
		{"negative jobs", "[render]\njobs = -1"},
		{"negative width", "[render]\nwidth = -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.src)); !errors.Is(err, errors.ErrCodeConfig) {
				t.Errorf("Parse() error = %v, want CONFIG_ERROR", err)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	var s Settings
	if !s.CacheEnabled() {
		t.Error("cache should be enabled by default")
	}
	bg, err := s.BackgroundColor()
	if err != nil || bg != (color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("BackgroundColor() = %v, %v; want white", bg, err)
	}
	p, err := s.LabelDefaults()
	if err != nil || p != (options.Partial{}) {
		t.Errorf("LabelDefaults() = %+v, %v; want empty", p, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") without a file error: %v", err)
	}
	if s.Path != "" {
		t.Errorf("Path = %q, want empty", s.Path)
	}

	path := filepath.Join(dir, "figcomp", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[render]\njobs = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err = Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if s.Render.Jobs != 2 || s.Path != path {
		t.Errorf("Load(\"\") = %+v", s)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("Load(missing explicit) error = %v, want CONFIG_ERROR", err)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := Settings{}.CacheDir()
	if err != nil || dir != filepath.Join("/tmp/xdg-cache", "figcomp") {
		t.Errorf("CacheDir() = %q, %v", dir, err)
	}
	dir, _ = Settings{Cache: Cache{Dir: "/elsewhere"}}.CacheDir()
	if dir != "/elsewhere" {
		t.Errorf("CacheDir() = %q, want /elsewhere", dir)
	}
}
