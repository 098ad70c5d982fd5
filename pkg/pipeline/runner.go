package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/figcomp/pkg/cache"
	"github.com/matzehuels/figcomp/pkg/config"
	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/observability"
	"github.com/matzehuels/figcomp/pkg/options"
	"github.com/matzehuels/figcomp/pkg/render"
)

// Runner executes the pipeline with caching. It keeps no state between runs
// besides the cache and logger, so one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil logger
// uses log.Default().
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs the complete pipeline and writes opts.OutputPath. On failure
// the output file is left untouched.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := errors.ValidateOutputPath(opts.OutputPath); err != nil {
		return nil, err
	}
	format, err := imageio.FormatFor(opts.OutputPath)
	if err != nil {
		return nil, err
	}
	resampler, err := imageio.NewResampler(opts.Filter)
	if err != nil {
		return nil, err
	}

	res, doc, err := r.layout(ctx, &opts)
	if err != nil {
		return nil, err
	}
	res.Output = opts.OutputPath
	fig := res.Figure

	key := figureKey(doc, fig, opts, format.String())
	if !opts.DryRun {
		if data, ok := r.cached(ctx, key); ok {
			if err := imageio.WriteFile(opts.OutputPath, data); err != nil {
				return nil, err
			}
			r.Logger.Info("figure unchanged, reused cached render", "output", opts.OutputPath)
			res.Bytes = len(data)
			res.Cached = true
			return res, nil
		}
	}

	start := time.Now()
	data, err := r.render(ctx, fig, opts, resampler, format)
	res.Stats.RenderTime = time.Since(start)
	observability.Pipeline().OnRenderComplete(ctx, format.String(), len(data), res.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("rendered figure",
		"size", sizeString(res.Width, res.Height),
		"duration", res.Stats.RenderTime.Round(time.Millisecond))

	if err := imageio.WriteFile(opts.OutputPath, data); err != nil {
		return nil, err
	}
	res.Bytes = len(data)

	if !opts.DryRun {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return res, nil
}

func (r *Runner) cached(ctx context.Context, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return data, true
}

// render composites (or sketches) the solved figure and encodes it.
func (r *Runner) render(ctx context.Context, fig *layout.Figure, opts Options, resampler imageio.Resampler, format imaging.Format) ([]byte, error) {
	var (
		img image.Image
		err error
	)
	if opts.DryRun {
		img, err = r.sketch(fig, opts)
	} else {
		img, err = render.Composite(ctx, fig.Root, render.Options{
			Resampler:  resampler,
			Text:       opts.Font,
			Background: *opts.Background,
			Jobs:       opts.Jobs,
		})
	}
	if err != nil {
		return nil, err
	}
	return imageio.EncodeBytes(img, format)
}

// Layout loads, solves and labels the figure without rendering it.
func (r *Runner) Layout(ctx context.Context, opts Options) (*Result, error) {
	res, _, err := r.layout(ctx, &opts)
	return res, err
}

func (r *Runner) layout(ctx context.Context, opts *Options) (*Result, *config.Document, error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}
	opts.SetDefaults()
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}

	start := time.Now()
	doc, fig, err := r.Load(ctx, *opts)
	loadTime := time.Since(start)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, opts.ConfigPath, 0, loadTime, err)
		return nil, nil, err
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.ConfigPath, len(fig.Leaves), loadTime, nil)
	res := &Result{Figure: fig}
	res.Stats.LoadTime = loadTime
	r.Logger.Info("loaded figure",
		"file", opts.ConfigPath,
		"images", len(fig.Leaves),
		"depth", layout.Depth(fig.Root),
		"duration", res.Stats.LoadTime.Round(time.Millisecond))

	start = time.Now()
	err = layout.Solve(fig.Root, opts.Target())
	if err == nil {
		_, err = layout.AssignLabels(fig.Root)
	}
	res.Stats.LayoutTime = time.Since(start)
	if err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, 0, 0, res.Stats.LayoutTime, err)
		return nil, nil, err
	}

	px := fig.Root.Box.Pixels()
	res.Width, res.Height = px.Dx(), px.Dy()
	observability.Pipeline().OnLayoutComplete(ctx, res.Width, res.Height, res.Stats.LayoutTime, nil)
	r.Logger.Debug("solved layout",
		"natural", sizeString(int(fig.Root.Natural.W), int(fig.Root.Natural.H)),
		"output", sizeString(res.Width, res.Height),
		"duration", res.Stats.LayoutTime)
	for _, leaf := range fig.Leaves {
		r.Logger.Debug("placed image", "where", leaf.Describe(), "box", leaf.Box.Pixels().String(), "label", leaf.Label)
	}
	return res, doc, nil
}

// Load reads the figure file and builds its layout tree. Dry runs read image
// headers only.
func (r *Runner) Load(ctx context.Context, opts Options) (*config.Document, *layout.Figure, error) {
	doc, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	fig, err := layout.Build(ctx, doc, layout.BuildOptions{
		Defaults: opts.Defaults,
		Loader:   imageio.Loader{HeaderOnly: opts.DryRun},
		Jobs:     opts.Jobs,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, fig, nil
}

func (r *Runner) sketch(fig *layout.Figure, opts Options) (image.Image, error) {
	px := fig.Root.Box.Pixels()
	size := max(12, float64(min(px.Dx(), px.Dy()))/20)
	face, err := opts.Font.Face(size)
	if err != nil {
		return nil, err
	}
	return render.Sketch(fig.Root, render.SketchOptions{
		Face:       face,
		Short:      opts.ShortLabels,
		Background: *opts.Background,
	}), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func figureKey(doc *config.Document, fig *layout.Figure, opts Options, format string) string {
	hashes := make([]string, len(fig.Leaves))
	for i, leaf := range fig.Leaves {
		hashes[i] = leaf.Asset.Hash
	}
	return cache.FigureKey(doc.Hash, hashes, cache.FigureKeyOpts{
		Format:     format,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: options.FormatColor(*opts.Background),
		Font:       opts.Font.Hash(),
		Filter:     opts.Filter,
		Sketch:     opts.DryRun,
		Defaults:   opts.Defaults,
	})
}

func sizeString(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
