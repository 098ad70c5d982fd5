package export

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/layout"
)

// DOTOptions configures tree diagram rendering.
type DOTOptions struct {
	// Detailed adds box sizes and labels to each node.
	Detailed bool
}

// ToDOT converts a layout tree to Graphviz DOT format. Composites are drawn
// as ellipses and image leaves as boxes, children left to right in document
// order.
func ToDOT(root *layout.Node, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := make(map[*layout.Node]string)
	var edges []string
	_ = layout.PreOrder(root, func(n *layout.Node) error {
		id := "n" + strconv.Itoa(len(ids))
		ids[n] = id
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		return nil
	})
	_ = layout.PreOrder(root, func(n *layout.Node) error {
		for _, c := range n.Children {
			edges = append(edges, fmt.Sprintf("  %s -> %s;\n", ids[n], ids[c]))
		}
		return nil
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *layout.Node, detailed bool) string {
	var name string
	if n.IsLeaf() {
		name = strings.TrimSuffix(filepath.Base(n.Source), filepath.Ext(n.Source))
	} else {
		name = n.Kind.String()
	}
	if !detailed {
		return name
	}

	parts := []string{name}
	px := n.Box.Pixels()
	parts = append(parts, fmt.Sprintf("%dx%d at %d,%d", px.Dx(), px.Dy(), px.Min.X, px.Min.Y))
	if n.IsLeaf() {
		parts = append(parts, fmt.Sprintf("#%d", n.LabelIndex))
		if n.Label != "" {
			parts = append(parts, "label: "+n.Label)
		}
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(n *layout.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if !n.IsLeaf() {
		attrs = append(attrs, "shape=ellipse", "style=filled", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the diagram scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// Tree renders root as DOT or SVG depending on format ("dot" or "svg").
func Tree(ctx context.Context, root *layout.Node, format string, opts DOTOptions) ([]byte, error) {
	dot := ToDOT(root, opts)
	switch strings.ToLower(format) {
	case "dot", "gv":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(ctx, dot)
	default:
		return nil, errors.New(errors.ErrCodeIO, "unsupported diagram format %q (use dot or svg)", format)
	}
}
