package layout

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/figcomp/pkg/config"
	"github.com/matzehuels/figcomp/pkg/errors"
	"github.com/matzehuels/figcomp/pkg/imageio"
	"github.com/matzehuels/figcomp/pkg/options"
)

// Reserved keys of the figure grammar.
const (
	KeyRow     = "Row"
	KeyCol     = "Col"
	KeyOptions = "Options"
)

// MaxDepth bounds Row/Col nesting.
const MaxDepth = 64

// AssetLoader loads the image behind a leaf.
type AssetLoader interface {
	Load(path string) (*imageio.Asset, error)
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Defaults are applied beneath the figure's Options block.
	Defaults options.Partial
	// Loader loads leaf images. Defaults to a full decoding imageio.Loader.
	Loader AssetLoader
	// Jobs caps concurrent image loads. Zero or less means unlimited.
	Jobs   int
	Logger *log.Logger
}

// leafSpec is a leaf waiting for option resolution.
type leafSpec struct {
	node     *Node
	override options.Partial
}

type builder struct {
	dir    string
	leaves []leafSpec
}

// Build interprets a parsed figure document as a layout tree, resolves every
// leaf's options and loads its image. Geometry and labels are left to Solve
// and AssignLabels.
//
// The document is a sequence of single-key mappings: at most one Options
// block (the last one wins if several are given) and exactly one figure root.
// A bare Row/Col mapping or a single image path is accepted as well.
func Build(ctx context.Context, doc *config.Document, opts BuildOptions) (*Figure, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	loader := opts.Loader
	if loader == nil {
		loader = imageio.Loader{}
	}

	block, rootNode, err := splitTopLevel(doc.Root, logger)
	if err != nil {
		return nil, err
	}

	blockOpts, err := options.FromNode(block)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "Options block (%s)", block.Position())
	}
	global := opts.Defaults.Merge(blockOpts)
	if err := global.RequireGlobals(); err != nil {
		return nil, err
	}
	// Block values were checked by FromNode; this catches bad settings defaults.
	if err := global.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "label defaults")
	}

	b := &builder{dir: doc.Dir}
	root, err := b.node(rootNode, "", 1)
	if err != nil {
		return nil, err
	}

	for _, spec := range b.leaves {
		o, err := options.Resolve(global, spec.override)
		if err != nil {
			return nil, at(spec.node, err)
		}
		spec.node.Options = o
	}

	leaves := make([]*Node, len(b.leaves))
	for i, spec := range b.leaves {
		leaves[i] = spec.node
	}
	if err := loadAssets(ctx, leaves, loader, opts.Jobs, logger); err != nil {
		return nil, err
	}

	return &Figure{Root: root, Global: global, Leaves: leaves}, nil
}

// splitTopLevel separates the Options block from the figure root.
func splitTopLevel(doc *config.Node, logger *log.Logger) (block, root *config.Node, err error) {
	if doc == nil {
		return nil, nil, errors.Config("figure file is empty")
	}

	switch doc.Kind {
	case config.Scalar:
		return nil, doc, nil
	case config.Mapping:
		if len(doc.Pairs) == 1 && doc.Pairs[0].Key == KeyOptions {
			return nil, nil, errors.Config("figure file has an Options block but no Row, Col or image")
		}
		return nil, doc, nil
	case config.Sequence:
	default:
		return nil, nil, errors.Config("figure file must be a list of Options and one Row, Col or image, got %s", doc.Kind)
	}

	for _, item := range doc.Items {
		if item.Kind == config.Mapping && len(item.Pairs) == 1 && item.Pairs[0].Key == KeyOptions {
			if block != nil {
				logger.Warn("multiple Options blocks, using the last one", "previous", block.Position(), "using", item.Pairs[0].Value.Position())
			}
			block = item.Pairs[0].Value
			continue
		}
		if root != nil {
			return nil, nil, errors.Config("figure file has more than one root (%s and %s); wrap them in a Row or Col", root.Position(), item.Position())
		}
		root = item
	}
	if root == nil {
		return nil, nil, errors.Config("figure file has no Row, Col or image")
	}
	return block, root, nil
}

func (b *builder) node(n *config.Node, where string, depth int) (*Node, error) {
	if depth > MaxDepth {
		return nil, errors.Config("%s (%s): nesting deeper than %d levels", where, n.Position(), MaxDepth)
	}

	switch n.Kind {
	case config.Scalar:
		return b.leaf(n.Value, where, n.Line, nil)

	case config.Mapping:
		if len(n.Pairs) != 1 {
			return nil, errors.Config("%s (%s): expected a single key (Row, Col or an image path), got %s", label(where), n.Position(), n)
		}
		key, val := n.Pairs[0].Key, n.Pairs[0].Value
		switch key {
		case KeyRow, KeyCol:
			return b.composite(key, val, where, n.Line, depth)
		case KeyOptions:
			return nil, errors.Config("%s (%s): Options is only allowed at the top level", label(where), n.Position())
		case "options", "row", "col", "column", "Column":
			return nil, errors.Config("%s (%s): unknown key %q (keys are case sensitive: Row, Col, Options)", label(where), n.Position(), key)
		}
		if val.Kind != config.Mapping && val.Kind != config.Null {
			return nil, errors.Config("%s (%s): options for %s must be a mapping, got %s", label(where), n.Position(), key, val.Kind)
		}
		return b.leaf(key, where, n.Line, val)

	default:
		return nil, errors.Config("%s (%s): expected Row, Col or an image path, got %s", label(where), n.Position(), n.Kind)
	}
}

func (b *builder) composite(key string, val *config.Node, where string, line, depth int) (*Node, error) {
	kind := Row
	if key == KeyCol {
		kind = Column
	}
	self := kind.String()
	if where != "" {
		self = where + "." + self
	}

	if val.Kind == config.Null || (val.Kind == config.Sequence && len(val.Items) == 0) {
		return nil, errors.Config("%s (line %d): %s has no children", self, line, key)
	}
	if val.Kind != config.Sequence {
		return nil, errors.Config("%s (line %d): %s must be a list, got %s", self, line, key, val.Kind)
	}

	n := &Node{Kind: kind, Where: self, Line: line, LabelIndex: -1}
	n.Children = make([]*Node, 0, len(val.Items))
	for i, item := range val.Items {
		child, err := b.node(item, self+"["+strconv.Itoa(i)+"]", depth+1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (b *builder) leaf(src, where string, line int, overrides *config.Node) (*Node, error) {
	n := &Node{Kind: Image, Source: src, Where: where, Line: line, LabelIndex: -1}
	if err := errors.ValidateImagePath(src); err != nil {
		return nil, at(n, err)
	}
	n.Path = src
	if !filepath.IsAbs(src) && b.dir != "" {
		n.Path = filepath.Join(b.dir, src)
	}

	override, err := options.FromNode(overrides)
	if err != nil {
		return nil, at(n, err)
	}
	b.leaves = append(b.leaves, leafSpec{node: n, override: override})
	return n, nil
}

// loadAssets loads every leaf image concurrently and records natural sizes.
// The first failure cancels the remaining loads.
func loadAssets(ctx context.Context, leaves []*Node, loader AssetLoader, jobs int, logger *log.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for _, leaf := range leaves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, err := loader.Load(leaf.Path)
			if err != nil {
				return at(leaf, err)
			}
			leaf.Asset = a
			leaf.Natural = Size{W: float64(a.Width), H: float64(a.Height)}
			logger.Debug("loaded image", "path", leaf.Source, "size", strconv.Itoa(a.Width)+"x"+strconv.Itoa(a.Height))
			return nil
		})
	}
	return g.Wait()
}

// at prefixes err with n's location, keeping err's code.
func at(n *Node, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(code, err, "%s", n.Describe())
}

func label(where string) string {
	if where == "" {
		return "root"
	}
	return where
}
