package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/figcomp/pkg/errors"
)

// testFigure writes two PNGs and a figure file into a temp dir and points the
// settings and cache directories at it.
func testFigure(t *testing.T, pos string) (dir, cfg string) {
	t.Helper()
	dir = t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	for name, size := range map[string][2]int{"a.png": {100, 100}, "b.png": {200, 100}} {
		img := image.NewNRGBA(image.Rect(0, 0, size[0], size[1]))
		for i := range img.Pix {
			img.Pix[i] = 0x80
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg = filepath.Join(dir, "figure.yaml")
	src := `- Options:
    format_str: "({alpha(index)})"
    pos: "` + pos + `"
    size: 12
- Row: [a.png, b.png]
`
	if err := os.WriteFile(cfg, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRender(t *testing.T) {
	dir, cfg := testFigure(t, "0.05,0.05")
	out := filepath.Join(dir, "figure.png")

	if _, err := run(t, cfg, out, "--width", "600"); err != nil {
		t.Fatalf("figcomp error: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfgImg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfgImg.Width != 600 || cfgImg.Height != 200 {
		t.Errorf("output = %dx%d, want 600x200", cfgImg.Width, cfgImg.Height)
	}
}

func TestRenderInvalidPos(t *testing.T) {
	dir, cfg := testFigure(t, "1.5,0.5")
	out := filepath.Join(dir, "figure.png")

	_, err := run(t, cfg, out)
	if !errors.Is(err, errors.ErrCodeConfig) {
		t.Fatalf("error = %v, want CONFIG_ERROR", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no output file should be written on failure")
	}
}

func TestRenderArgs(t *testing.T) {
	if _, err := run(t, "only-one.yaml"); err == nil {
		t.Error("expected an error for a missing OUTPUT argument")
	}
}

func TestRenderConfigNamedLikeSubcommand(t *testing.T) {
	dir, cfg := testFigure(t, "0.05,0.05")
	src, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "layout"), src, 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	if _, err := run(t, "./layout", "out.png"); err != nil {
		t.Fatalf("figcomp ./layout error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.png")); err != nil {
		t.Errorf("output not written: %v", err)
	}

	help, err := run(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(help, "./layout") {
		t.Error("help should explain how to name a figure file like a subcommand")
	}
}

func TestRenderBadBackground(t *testing.T) {
	dir, cfg := testFigure(t, "0.05,0.05")
	_, err := run(t, cfg, filepath.Join(dir, "out.png"), "--background", "#zzz")
	if !errors.Is(err, errors.ErrCodeConfig) {
		t.Errorf("error = %v, want CONFIG_ERROR", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	_, cfg := testFigure(t, "0.05,0.05")
	out, err := run(t, "layout", cfg, "--options")
	if err != nil {
		t.Fatalf("layout error: %v", err)
	}
	var doc struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Leaves int `json:"leaves"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.Width != 300 || doc.Height != 100 || doc.Leaves != 2 {
		t.Errorf("layout = %+v", doc)
	}
	if !strings.Contains(out, `"label": "(b)"`) {
		t.Errorf("layout JSON missing label:\n%s", out)
	}
}

func TestTreeCommand(t *testing.T) {
	dir, cfg := testFigure(t, "0.05,0.05")
	out, err := run(t, "tree", cfg)
	if err != nil {
		t.Fatalf("tree error: %v", err)
	}
	if !strings.HasPrefix(out, "digraph") {
		t.Errorf("tree output = %q", out)
	}

	path := filepath.Join(dir, "tree.dot")
	if _, err := run(t, "tree", cfg, "-o", path); err != nil {
		t.Fatalf("tree -o error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("tree -o did not write %s", path)
	}

	if _, err := run(t, "tree", cfg, "-o", filepath.Join(dir, "tree.pdf")); !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("tree -o .pdf error = %v, want IO_ERROR", err)
	}
}

func TestPipelineOptionsPrecedence(t *testing.T) {
	dir, _ := testFigure(t, "0.05,0.05")
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("[render]\nwidth = 800\njobs = 2\nbackground = \"#000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, LogInfo)
	c.settingsPath = path
	s, err := c.loadSettings()
	if err != nil {
		t.Fatal(err)
	}

	opts, err := pipelineOptions(s, "f.yaml", figureFlags{})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Width != 800 || opts.Jobs != 2 {
		t.Errorf("settings not applied: %+v", opts)
	}

	opts, _ = pipelineOptions(s, "f.yaml", figureFlags{height: 50, jobs: 4})
	if opts.Width != 0 || opts.Height != 50 || opts.Jobs != 4 {
		t.Errorf("flags should override settings: %+v", opts)
	}

	bg, err := background(s, "")
	if err != nil || *bg != (color.NRGBA{A: 0xff}) {
		t.Errorf("background() = %v, %v", bg, err)
	}
	bg, _ = background(s, "#fff")
	if *bg != (color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}) {
		t.Errorf("--background should win, got %v", bg)
	}
}
