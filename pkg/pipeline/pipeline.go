// Package pipeline runs the figure composition pipeline shared by every figcomp
// command.
//
// # Architecture
//
// A figure passes through five stages:
//
//  1. Load: read the figure file and build the layout tree, decoding every
//     referenced image (only image headers for dry runs)
//  2. Solve: compute natural sizes bottom-up and boxes top-down
//  3. Label: number the leaves in pre-order and render their labels
//  4. Render: composite the images, or sketch box outlines for dry runs
//  5. Encode: encode in the output format and write the file atomically
//
// Rendered bytes are cached under a key covering the figure file, every
// image's bytes and the render options, so rebuilding an unchanged figure
// skips stages 4 and 5's encoding.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ConfigPath: "figure.yaml",
//	    OutputPath: "figure.png",
//	})
package pipeline

import (
	"image/color"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/fonts"
	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/options"
)

// Options configures one pipeline run.
type Options struct {
	ConfigPath string
	OutputPath string

	// Defaults are label options applied beneath the figure's Options block.
	Defaults options.Partial

	// Width or Height fix the output size; Width wins when both are set.
	Width  float64
	Height float64

	Background *color.NRGBA // nil means white
	Font       *fonts.Font  // nil means the embedded font
	Filter     string       // resampling filter name, see imageio.Filters
	Jobs       int          // parallel decode/resample limit, 0 means NumCPU

	// DryRun draws box outlines instead of images, reading only image headers.
	DryRun bool
	// ShortLabels labels sketch boxes with their index instead of file stem.
	ShortLabels bool

	Logger *log.Logger
}

// SetDefaults fills in unset options.
func (o *Options) SetDefaults() {
	if o.Jobs <= 0 {
		o.Jobs = runtime.NumCPU()
	}
	if o.Background == nil {
		white := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		o.Background = &white
	}
	if o.Font == nil {
		o.Font = fonts.Default()
	}
}

// Validate checks the options that do not depend on the figure file.
func (o *Options) Validate() error {
	if o.ConfigPath == "" {
		return errors.Config("no figure file given")
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.Config("output size must not be negative")
	}
	return nil
}

// Target returns the output size constraint for layout.Solve.
func (o *Options) Target() layout.Target {
	return layout.Target{Width: o.Width, Height: o.Height}
}

// Result describes a finished run.
type Result struct {
	Figure *layout.Figure
	Output string
	Width  int
	Height int
	Bytes  int
	Cached bool
	Stats  Stats
}

// Stats holds stage timings.
type Stats struct {
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}
