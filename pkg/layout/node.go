package layout

import (
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/options"
)

// Kind is the variant of a layout node.
type Kind int

const (
	Image Kind = iota
	Row
	Column
)

func (k Kind) String() string {
	switch k {
	case Row:
		return "Row"
	case Column:
		return "Col"
	default:
		return "Image"
	}
}

// Size is a width/height pair in pixels.
type Size struct {
	W, H float64
}

// Aspect returns W/H.
func (s Size) Aspect() float64 { return s.W / s.H }

// Scale returns s with both sides multiplied by f.
func (s Size) Scale(f float64) Size { return Size{W: s.W * f, H: s.H * f} }

// Rect is an axis-aligned box on the canvas. The origin is the top-left
// corner and Y grows downwards.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Pixels snaps r to whole pixels by rounding each edge. Neighbouring boxes
// share edges, so rounding edges rather than sizes keeps them gap-free.
func (r Rect) Pixels() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.Right())),
		int(math.Round(r.Bottom())),
	)
}

// Node is one element of the layout tree: an image leaf or a Row/Column of
// children.
type Node struct {
	Kind     Kind
	Children []*Node // Row and Column only, never empty

	// Image leaves only.
	Source  string // path as written in the figure file
	Path    string // Source resolved against the figure directory
	Asset   *imageio.Asset
	Options options.Options

	Natural Size // natural size, filled in by Solve for composites
	Box     Rect // final placement, filled in by Solve

	LabelIndex int    // pre-order leaf index, -1 for composites
	Label      string // rendered label text, empty for no label

	// Where locates the node in the tree, e.g. "Row[1].Col[0]".
	Where string
	// Line is the 1-based line of the node in the figure file, 0 if unknown.
	Line int
}

// IsLeaf reports whether n is an image leaf.
func (n *Node) IsLeaf() bool { return n.Kind == Image }

// Describe names n for error messages and logs, e.g.
// "Row[1].Col[0] b.png (line 7)".
func (n *Node) Describe() string {
	var b strings.Builder
	b.WriteString(n.Where)
	if n.IsLeaf() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(n.Source)
	}
	if n.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(n.Line))
		b.WriteByte(')')
	}
	return b.String()
}

// Figure is a built layout tree together with the global options it was
// resolved against.
type Figure struct {
	Root   *Node
	Global options.Partial
	// Leaves lists the image leaves in pre-order, which is also label order.
	Leaves []*Node
}
