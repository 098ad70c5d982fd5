// Package export writes a solved layout in machine-readable forms: a JSON
// description of every box, and a Graphviz diagram of the layout tree.
package export

import (
	"encoding/json"

	"github.com/matzehuels/figcomp/pkg/layout"
	"github.com/matzehuels/figcomp/pkg/options"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	source  string
	options bool
}

// WithJSONSource records the figure file the layout was built from.
func WithJSONSource(path string) JSONOption { return func(r *jsonRenderer) { r.source = path } }

// WithJSONOptions includes each leaf's resolved label options.
func WithJSONOptions() JSONOption { return func(r *jsonRenderer) { r.options = true } }

type jsonOutput struct {
	Source string   `json:"source,omitempty"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Leaves int      `json:"leaves"`
	Root   jsonNode `json:"root"`
}

type jsonNode struct {
	Kind     string       `json:"kind"`
	Where    string       `json:"where,omitempty"`
	Source   string       `json:"source,omitempty"`
	Path     string       `json:"path,omitempty"`
	Line     int          `json:"line,omitempty"`
	Index    *int         `json:"index,omitempty"`
	Label    string       `json:"label,omitempty"`
	Natural  jsonSize     `json:"natural"`
	Box      jsonBox      `json:"box"`
	Pixels   jsonPixels   `json:"pixels"`
	Options  *jsonOptions `json:"options,omitempty"`
	Children []jsonNode   `json:"children,omitempty"`
}

type jsonSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonPixels struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type jsonOptions struct {
	FormatStr string     `json:"format_str"`
	Pos       [2]float64 `json:"pos"`
	Size      float64    `json:"size"`
	Text      *string    `json:"text,omitempty"`
	Color     string     `json:"color"`
}

// RenderJSON exports the solved tree as a pretty-printed JSON document. Leaf
// boxes are given both in float geometry and snapped to pixels, as drawn.
func RenderJSON(root *layout.Node, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	px := root.Box.Pixels()
	out := jsonOutput{
		Source: r.source,
		Width:  px.Dx(),
		Height: px.Dy(),
		Leaves: len(layout.Leaves(root)),
		Root:   r.node(root),
	}
	return json.MarshalIndent(out, "", "  ")
}

// node converts n and its subtree. Recursion depth is bounded by
// layout.MaxDepth.
func (r *jsonRenderer) node(n *layout.Node) jsonNode {
	px := n.Box.Pixels()
	jn := jsonNode{
		Kind:    n.Kind.String(),
		Where:   n.Where,
		Line:    n.Line,
		Natural: jsonSize{Width: n.Natural.W, Height: n.Natural.H},
		Box:     jsonBox{X: n.Box.X, Y: n.Box.Y, Width: n.Box.W, Height: n.Box.H},
		Pixels:  jsonPixels{X: px.Min.X, Y: px.Min.Y, Width: px.Dx(), Height: px.Dy()},
	}

	if n.IsLeaf() {
		idx := n.LabelIndex
		jn.Index = &idx
		jn.Source = n.Source
		jn.Path = n.Path
		jn.Label = n.Label
		if r.options {
			jn.Options = leafOptions(n.Options)
		}
		return jn
	}

	jn.Children = make([]jsonNode, len(n.Children))
	for i, c := range n.Children {
		jn.Children[i] = r.node(c)
	}
	return jn
}

func leafOptions(o options.Options) *jsonOptions {
	return &jsonOptions{
		FormatStr: o.FormatStr,
		Pos:       [2]float64{o.Pos.X, o.Pos.Y},
		Size:      o.Size,
		Text:      o.Text,
		Color:     options.FormatColor(o.Color),
	}
}
