package layout

import (
	"github.com/matzehuels/figcomp/pkg/errors"
)

// Target fixes the final figure size. At most one side is used: Width wins
// when both are set, and the zero Target keeps the natural size.
type Target struct {
	Width  float64
	Height float64
}

// Solve computes natural sizes bottom-up and then places every node
// top-down, filling in Natural and Box across the tree.
//
// A Row scales its children to the height of the shortest child and lays them
// out left to right; a Column scales its children to the width of the
// narrowest child and stacks them top to bottom. Aspect ratios are preserved
// throughout, so children of a composite tile its box exactly.
func Solve(root *Node, target Target) error {
	if err := PostOrder(root, naturalSize); err != nil {
		return err
	}

	size := root.Natural
	switch {
	case target.Width > 0:
		size = size.Scale(target.Width / size.W)
	case target.Height > 0:
		size = size.Scale(target.Height / size.H)
	}
	root.Box = Rect{W: size.W, H: size.H}

	return PreOrder(root, func(n *Node) error {
		switch n.Kind {
		case Row:
			placeRow(n)
		case Column:
			placeColumn(n)
		default:
			if r := n.Box.Pixels(); r.Dx() < 1 || r.Dy() < 1 {
				return errors.Config("%s: image shrinks to %dx%d pixels; increase the figure size", n.Describe(), r.Dx(), r.Dy())
			}
		}
		return nil
	})
}

func naturalSize(n *Node) error {
	switch n.Kind {
	case Image:
		if !(n.Natural.W > 0 && n.Natural.H > 0) {
			return errors.New(errors.ErrCodeInternal, "%s: image size not loaded", n.Describe())
		}
	case Row:
		h := n.Children[0].Natural.H
		for _, c := range n.Children[1:] {
			h = min(h, c.Natural.H)
		}
		var w float64
		for _, c := range n.Children {
			w += c.Natural.W * h / c.Natural.H
		}
		n.Natural = Size{W: w, H: h}
	case Column:
		w := n.Children[0].Natural.W
		for _, c := range n.Children[1:] {
			w = min(w, c.Natural.W)
		}
		var h float64
		for _, c := range n.Children {
			h += c.Natural.H * w / c.Natural.W
		}
		n.Natural = Size{W: w, H: h}
	}
	return nil
}

// placeRow sets child boxes left to right. The last child takes whatever
// width remains so the children end exactly at the parent's right edge.
func placeRow(n *Node) {
	box := n.Box
	x := box.X
	last := len(n.Children) - 1
	for i, c := range n.Children {
		w := c.Natural.W * box.H / c.Natural.H
		if i == last {
			w = box.Right() - x
		}
		c.Box = Rect{X: x, Y: box.Y, W: w, H: box.H}
		x += w
	}
}

func placeColumn(n *Node) {
	box := n.Box
	y := box.Y
	last := len(n.Children) - 1
	for i, c := range n.Children {
		h := c.Natural.H * box.W / c.Natural.W
		if i == last {
			h = box.Bottom() - y
		}
		c.Box = Rect{X: box.X, Y: y, W: box.W, H: h}
		y += h
	}
}
