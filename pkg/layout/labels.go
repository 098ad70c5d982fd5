package layout

// AssignLabels numbers the image leaves in pre-order and renders each leaf's
// label from its options. Leaves with a text override still take an index, so
// the leaves after them keep their positions in the sequence. It returns the
// number of leaves.
func AssignLabels(root *Node) (int, error) {
	next := 0
	err := PreOrder(root, func(n *Node) error {
		if !n.IsLeaf() {
			n.LabelIndex = -1
			return nil
		}
		label, err := n.Options.Label(next)
		if err != nil {
			return at(n, err)
		}
		n.LabelIndex = next
		n.Label = label
		next++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
