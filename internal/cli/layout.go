package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/figcomp/pkg/export"
	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/pipeline"
)

// layoutCommand creates the layout command, which exports solved geometry.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags       figureFlags
		output      string
		withOptions bool
	)

	cmd := &cobra.Command{
		Use:   "layout CONFIG",
		Short: "Export the solved figure layout as JSON",
		Long: `Export the solved figure layout as JSON.

Every node of the layout tree is listed with its natural size, its box in the
output figure and, for images, its label. Nothing is rendered. Without -o the
JSON is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.solve(cmd.Context(), args[0], flags, false)
			if err != nil {
				return err
			}

			jsonOpts := []export.JSONOption{export.WithJSONSource(args[0])}
			if withOptions {
				jsonOpts = append(jsonOpts, export.WithJSONOptions())
			}
			data, err := export.RenderJSON(res.Figure.Root, jsonOpts...)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data, res)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&withOptions, "options", false, "include each image's resolved label options")

	return cmd
}

// treeCommand creates the tree command, which diagrams the layout tree.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags    figureFlags
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "tree CONFIG",
		Short: "Draw the figure's layout tree as DOT or SVG",
		Long: `Draw the figure's layout tree as DOT or SVG.

Rows and columns are drawn as ellipses, images as boxes named after their
files. The format follows the -o extension (.dot, .gv or .svg). Without -o the
DOT source is written to stdout. Only image headers are read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := "dot"
			if output != "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}

			res, err := c.solve(cmd.Context(), args[0], flags, true)
			if err != nil {
				return err
			}
			data, err := export.Tree(cmd.Context(), res.Figure.Root, format, export.DOTOptions{Detailed: detailed})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data, res)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file: .dot, .gv or .svg (default: DOT on stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show boxes and labels on image nodes")

	return cmd
}

// solve loads and lays out a figure without rendering it. headerOnly skips
// decoding image pixels.
func (c *CLI) solve(ctx context.Context, config string, flags figureFlags, headerOnly bool) (*pipeline.Result, error) {
	s, err := c.loadSettings()
	if err != nil {
		return nil, err
	}
	opts, err := pipelineOptions(s, config, flags)
	if err != nil {
		return nil, err
	}
	opts.DryRun = headerOnly
	opts.Logger = loggerFromContext(ctx)

	runner := pipeline.NewRunner(nil, opts.Logger)
	defer runner.Close()
	return runner.Layout(ctx, opts)
}

func writeOutput(cmd *cobra.Command, path string, data []byte, res *pipeline.Result) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := imageio.WriteFile(path, data); err != nil {
		return err
	}
	printSuccess("Wrote %s", cmd.Name())
	printFile(path)
	printKeyValue("Images", fmt.Sprint(len(res.Figure.Leaves)))
	printKeyValue("Size", fmt.Sprintf("%dx%d px", res.Width, res.Height))
	return nil
}
