package cli

import (
	"context"
	"fmt"
	"image/color"

	"github.com/spf13/cobra"

	"github.com/matzehuels/figcomp/pkg/fonts"
	"github.com/matzehuels/figcomp/pkg/options"
	"github.com/matzehuels/figcomp/pkg/pipeline"
	"github.com/matzehuels/figcomp/pkg/settings"
)

// figureFlags are shared by every command that reads a figure file. Zero
// values fall back to the settings file.
type figureFlags struct {
	width  float64
	height float64
	jobs   int
}

func (f *figureFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.width, "width", 0, "output width in pixels (wins over --height)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "output height in pixels")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "images decoded in parallel (default: number of CPUs)")
}

// renderFlags holds the flags only the root command takes.
type renderFlags struct {
	figureFlags
	dryRun     bool
	short      bool
	font       string
	background string
	filter     string
	noCache    bool
}

// renderCommand creates the root command, which composes a figure.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   appName + " CONFIG OUTPUT",
		Short: "figcomp composes images into a labelled figure",
		Long: `figcomp composes images into a single labelled figure.

CONFIG is a YAML file describing nested rows and columns of images. Every image
in a row is scaled to the same height and every image in a column to the same
width, so the figure tiles without gaps. Each image is labelled from a template
such as "({alpha(index)})".

The output format follows the OUTPUT extension: .png, .jpg, .gif, .tif or .bmp.

A CONFIG named like a subcommand (layout, tree, inspect, cache, completion,
help) runs that subcommand instead; write it as ./layout.`,
		Example: `  figcomp figure.yaml figure.png
  figcomp figure.yaml figure.jpg --width 1200
  figcomp figure.yaml sketch.png --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], args[1], flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "draw box outlines instead of images")
	cmd.Flags().BoolVar(&flags.short, "short", false, "label dry-run boxes with their index instead of file name")
	cmd.Flags().StringVar(&flags.font, "font", "", "label font: file path or family name (default: Go Regular)")
	cmd.Flags().StringVar(&flags.background, "background", "", "canvas colour, e.g. #ffffff")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "resampling filter: lanczos (default), catmullrom, mitchell, linear, box, nearest")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the render cache")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, config, output string, flags renderFlags) error {
	logger := loggerFromContext(ctx)

	s, err := c.loadSettings()
	if err != nil {
		return err
	}
	opts, err := pipelineOptions(s, config, flags.figureFlags)
	if err != nil {
		return err
	}
	opts.OutputPath = output
	opts.DryRun = flags.dryRun
	opts.ShortLabels = flags.short
	opts.Logger = logger
	if opts.Filter = flags.filter; opts.Filter == "" {
		opts.Filter = s.Render.Filter
	}
	if opts.Background, err = background(s, flags.background); err != nil {
		return err
	}
	if opts.Font, err = loadFont(s, flags.font); err != nil {
		return err
	}

	runner, err := c.newRunner(s, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Composing figure...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if spinner.Cancelled() {
		spinner.Stop()
		return ctx.Err()
	}
	if err != nil {
		spinner.StopWithError("Composition failed")
		return err
	}
	prog.done("Composed figure")

	if flags.dryRun {
		spinner.StopWithSuccess("Sketch complete")
	} else {
		spinner.StopWithSuccess("Figure complete")
	}
	printFile(result.Output)
	printStats(len(result.Figure.Leaves), result.Width, result.Height, result.Cached)
	if flags.dryRun {
		printNewline()
		printNextStep("Render images", fmt.Sprintf("%s %s %s", appName, config, output))
	}
	return nil
}

// pipelineOptions layers command-line flags over the settings file.
func pipelineOptions(s settings.Settings, config string, flags figureFlags) (pipeline.Options, error) {
	defaults, err := s.LabelDefaults()
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		ConfigPath: config,
		Defaults:   defaults,
		Width:      flags.width,
		Height:     flags.height,
		Jobs:       flags.jobs,
	}
	if opts.Width == 0 && opts.Height == 0 {
		opts.Width = float64(s.Render.Width)
		opts.Height = float64(s.Render.Height)
	}
	if opts.Jobs == 0 {
		opts.Jobs = s.Render.Jobs
	}
	return opts, nil
}

func background(s settings.Settings, flag string) (*color.NRGBA, error) {
	if flag == "" {
		bg, err := s.BackgroundColor()
		return &bg, err
	}
	bg, err := options.ParseColor(flag)
	if err != nil {
		return nil, err
	}
	return &bg, nil
}

func loadFont(s settings.Settings, flag string) (*fonts.Font, error) {
	if flag == "" {
		flag = s.Render.Font
	}
	return fonts.Load(flag)
}
