package layout

// Tree walks use explicit stacks so deeply nested figures cannot exhaust the
// goroutine stack.

// PreOrder calls fn for every node, parents before children and children left
// to right. It stops at the first error.
func PreOrder(root *Node, fn func(*Node) error) error {
	if root == nil {
		return nil
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(n); err != nil {
			return err
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return nil
}

// PostOrder calls fn for every node, children left to right before their
// parent. It stops at the first error.
func PostOrder(root *Node, fn func(*Node) error) error {
	if root == nil {
		return nil
	}
	type frame struct {
		n    *Node
		done bool
	}
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.done || len(top.n.Children) == 0 {
			n := top.n
			stack = stack[:len(stack)-1]
			if err := fn(n); err != nil {
				return err
			}
			continue
		}
		top.done = true
		n := top.n
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: n.Children[i]})
		}
	}
	return nil
}

// Leaves returns the image leaves under root in pre-order.
func Leaves(root *Node) []*Node {
	var out []*Node
	_ = PreOrder(root, func(n *Node) error {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// Depth returns the number of levels in the tree rooted at root.
func Depth(root *Node) int {
	if root == nil {
		return 0
	}
	type frame struct {
		n     *Node
		depth int
	}
	max := 0
	stack := []frame{{root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > max {
			max = f.depth
		}
		for _, c := range f.n.Children {
			stack = append(stack, frame{c, f.depth + 1})
		}
	}
	return max
}
