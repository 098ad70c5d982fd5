// Package config loads figure description files into a generic tree of
// mappings, sequences and scalars.
//
// Figure files are YAML (JSON files parse as well, since JSON is a subset of
// YAML). The loader keeps nothing but shape, scalar text and source position:
// interpreting the tree as a layout is the job of the layout package. Source
// positions let later stages report errors like
//
//	Row > Col[1] > b.png (line 7): label position must lie inside (0,1)
//
// # Example figure file
//
//	- Options:
//	    format_str: "{index+1}."
//	    pos: "0.05,0.05"
//	    size: 20
//	- Row:
//	    - square-im-1.png
//	    - rect-im-1.png: {text: "A!"}
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/figcomp/pkg/cache"
	"github.com/matzehuels/figcomp/pkg/errors"
)

// Kind classifies a Node by its syntactic shape.
type Kind int

const (
	Null Kind = iota
	Scalar
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	default:
		return "null"
	}
}

// Pair is one key/value entry of a mapping, in document order.
type Pair struct {
	Key   string
	Value *Node
}

// Node is one value of the parsed figure document.
type Node struct {
	Kind   Kind
	Value  string // scalar text (Scalar only)
	Tag    string // resolved YAML tag, e.g. "!!str", "!!int"
	Pairs  []Pair // Mapping only
	Items  []*Node
	Line   int
	Column int
}

// Document is a loaded figure file.
type Document struct {
	Path string // as given by the caller
	Dir  string // directory relative image paths are resolved against
	Hash string // SHA-256 of the raw bytes
	Root *Node
}

// Load reads and parses the figure file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read figure file %s", path)
	}

	root, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse figure file %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Document{
		Path: path,
		Dir:  filepath.Dir(abs),
		Hash: cache.Hash(data),
		Root: root,
	}, nil
}

// Parse decodes YAML bytes into a generic Node tree. Only the first document of
// a multi-document stream is used.
func Parse(data []byte) (*Node, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	return convert(doc.Content[0], 0)
}

// maxAliasDepth bounds alias expansion so self-referencing anchors cannot
// recurse forever.
const maxAliasDepth = 64

func convert(y *yaml.Node, depth int) (*Node, error) {
	if depth > maxAliasDepth {
		return nil, fmt.Errorf("line %d: aliases nested too deeply", y.Line)
	}

	n := &Node{Tag: y.ShortTag(), Line: y.Line, Column: y.Column}
	switch y.Kind {
	case yaml.AliasNode:
		if y.Alias == nil {
			return nil, fmt.Errorf("line %d: unresolved alias", y.Line)
		}
		return convert(y.Alias, depth+1)

	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			n.Kind = Null
			return n, nil
		}
		n.Kind = Scalar
		n.Value = y.Value

	case yaml.SequenceNode:
		n.Kind = Sequence
		n.Items = make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := convert(c, depth)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, item)
		}

	case yaml.MappingNode:
		n.Kind = Mapping
		n.Pairs = make([]Pair, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be plain strings", k.Line)
			}
			val, err := convert(v, depth)
			if err != nil {
				return nil, err
			}
			n.Pairs = append(n.Pairs, Pair{Key: k.Value, Value: val})
		}

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node", y.Line)
	}
	return n, nil
}

// Position formats the node's source position for error messages.
func (n *Node) Position() string {
	if n == nil || n.Line == 0 {
		return "unknown position"
	}
	return "line " + strconv.Itoa(n.Line)
}

// String returns the scalar text, or a short shape description for
// non-scalars.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case Scalar:
		return n.Value
	case Mapping:
		keys := make([]string, len(n.Pairs))
		for i, p := range n.Pairs {
			keys[i] = p.Key
		}
		return "{" + strings.Join(keys, ", ") + "}"
	case Sequence:
		return fmt.Sprintf("[%d items]", len(n.Items))
	default:
		return "null"
	}
}

// Get returns the value for key in a mapping node.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != Mapping {
		return nil, false
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Float parses a scalar node as a float64.
func (n *Node) Float() (float64, error) {
	if n == nil {
		return 0, fmt.Errorf("expected a number, got nothing")
	}
	if n.Kind != Scalar {
		return 0, fmt.Errorf("expected a number, got %s", n.Kind)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", n.Value)
	}
	return f, nil
}
