// Package options resolves per-image label options.
//
// Options come in layers. The figure's global Options block (optionally
// pre-filled from the user's settings file) provides defaults, and a leaf
// written as a mapping overrides them key by key:
//
//	- Options:
//	    format_str: "({alpha(index)})"
//	    pos: "0.05,0.05"
//	    size: 20
//	- Row:
//	    - a.png
//	    - b.png: {text: "B!", color: "#c00"}
//
// A [Partial] holds whatever keys one layer sets; [Resolve] merges two layers
// and validates the result into [Options].
package options

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/figcomp/pkg/config"
	"github.com/matzehuels/figcomp/pkg/errors"
)

// Option keys accepted in Options blocks and leaf overrides.
const (
	KeyFormatStr = "format_str"
	KeyPos       = "pos"
	KeySize      = "size"
	KeyText      = "text"
	KeyColor     = "color"
)

var knownKeys = map[string]bool{
	KeyFormatStr: true,
	KeyPos:       true,
	KeySize:      true,
	KeyText:      true,
	KeyColor:     true,
}

// Point is a label position relative to the image box, each component in (0,1).
type Point struct {
	X, Y float64
}

// Options is the fully resolved option record of one image leaf.
type Options struct {
	FormatStr string
	Pos       Point
	Size      float64     // font size in pixels
	Text      *string     // literal label overriding FormatStr
	Color     color.NRGBA // label colour

	tmpl *Template
}

// Label returns the label text for a leaf with the given index. Text
// overrides win; otherwise FormatStr is evaluated with index bound.
func (o Options) Label(index int) (string, error) {
	if o.Text != nil {
		return *o.Text, nil
	}
	if o.tmpl == nil {
		return "", nil
	}
	s, err := o.tmpl.Execute(index)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, err, "invalid %s %q", KeyFormatStr, o.FormatStr)
	}
	return s, nil
}

// Partial holds the option keys set by a single layer. Nil fields are unset.
type Partial struct {
	FormatStr *string
	Pos       *Point
	Size      *float64
	Text      *string
	Color     *color.NRGBA
}

// Merge returns p with every key set in over replacing p's value.
func (p Partial) Merge(over Partial) Partial {
	if over.FormatStr != nil {
		p.FormatStr = over.FormatStr
	}
	if over.Pos != nil {
		p.Pos = over.Pos
	}
	if over.Size != nil {
		p.Size = over.Size
	}
	if over.Text != nil {
		p.Text = over.Text
	}
	if over.Color != nil {
		p.Color = over.Color
	}
	return p
}

// RequireGlobals reports a ConfigError naming every required key p leaves
// unset.
func (p Partial) RequireGlobals() error {
	var missing []string
	if p.FormatStr == nil {
		missing = append(missing, KeyFormatStr)
	}
	if p.Pos == nil {
		missing = append(missing, KeyPos)
	}
	if p.Size == nil {
		missing = append(missing, KeySize)
	}
	if len(missing) > 0 {
		return errors.Config("missing required option(s) %s in the global Options block", strings.Join(missing, ", "))
	}
	return nil
}

// Resolve merges override onto global and validates the result. The keys
// format_str, pos and size are required in global even when an override
// replaces them.
func Resolve(global, override Partial) (Options, error) {
	if err := global.RequireGlobals(); err != nil {
		return Options{}, err
	}
	m := global.Merge(override)

	if err := ValidatePos(*m.Pos); err != nil {
		return Options{}, err
	}
	if err := ValidateSize(*m.Size); err != nil {
		return Options{}, err
	}

	opts := Options{
		FormatStr: *m.FormatStr,
		Pos:       *m.Pos,
		Size:      *m.Size,
		Text:      m.Text,
		Color:     color.NRGBA{A: 0xff},
	}
	if m.Color != nil {
		opts.Color = *m.Color
	}
	if opts.Text == nil {
		tmpl, err := ParseTemplate(opts.FormatStr)
		if err != nil {
			return Options{}, errors.Wrap(errors.ErrCodeConfig, err, "invalid %s %q", KeyFormatStr, opts.FormatStr)
		}
		opts.tmpl = tmpl
	}
	return opts, nil
}

// FromNode reads a Partial from an option mapping of the figure document.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func FromNode(n *config.Node) (Partial, error) {
	var p Partial
	if n == nil || n.Kind == config.Null {
		return p, nil
	}
	if n.Kind != config.Mapping {
		return p, errors.Config("options must be a mapping, got %s", n.Kind)
	}

	for _, pair := range n.Pairs {
		v := pair.Value
		switch pair.Key {
		case KeyFormatStr, KeyText:
			if v.Kind != config.Scalar {
				return p, errors.Config("%s must be a string, got %s", pair.Key, v.Kind)
			}
			s := v.Value
			if pair.Key == KeyText {
				p.Text = &s
			} else {
				p.FormatStr = &s
			}

		case KeyPos:
			pos, err := posFromNode(v)
			if err != nil {
				return p, err
			}
			p.Pos = &pos

		case KeySize:
			f, err := v.Float()
			if err != nil {
				return p, errors.Config("%s: %v", KeySize, err)
			}
			p.Size = &f

		case KeyColor:
			if v.Kind != config.Scalar {
				return p, errors.Config("%s must be a string, got %s", KeyColor, v.Kind)
			}
			c, err := ParseColor(v.Value)
			if err != nil {
				return p, err
			}
			p.Color = &c

		default:
			return p, errors.Config("unknown option %q (known: %s)", pair.Key, strings.Join(Keys(), ", "))
		}
	}
	return p, p.Validate()
}

// Keys returns the accepted option keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func posFromNode(n *config.Node) (Point, error) {
	switch n.Kind {
	case config.Scalar:
		return ParsePos(n.Value)
	case config.Sequence:
		if len(n.Items) != 2 {
			return Point{}, errors.Config("%s must have exactly two components, got %d", KeyPos, len(n.Items))
		}
		x, err := n.Items[0].Float()
		if err != nil {
			return Point{}, errors.Config("%s: %v", KeyPos, err)
		}
		y, err := n.Items[1].Float()
		if err != nil {
			return Point{}, errors.Config("%s: %v", KeyPos, err)
		}
		return Point{X: x, Y: y}, nil
	default:
		return Point{}, errors.Config("%s must be \"x,y\" or a two item list, got %s", KeyPos, n.Kind)
	}
}

// ParsePos parses "x,y", "(x, y)" or "x y" into a Point. Range checks are
// left to [ValidatePos].
func ParsePos(s string) (Point, error) {
	trimmed := strings.Trim(strings.TrimSpace(s), "()[]")
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 2 {
		return Point{}, errors.Config("%s %q must have exactly two components", KeyPos, s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, errors.Config("%s %q: %q is not a number", KeyPos, s, fields[0])
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, errors.Config("%s %q: %q is not a number", KeyPos, s, fields[1])
	}
	return Point{X: x, Y: y}, nil
}

// ValidatePos requires both components to lie strictly inside (0,1).
func ValidatePos(p Point) error {
	if !(p.X > 0 && p.X < 1) || !(p.Y > 0 && p.Y < 1) {
		return errors.Config("label position (%g, %g) must lie strictly inside (0,1)x(0,1)", p.X, p.Y)
	}
	return nil
}

// MaxSize caps the label font size in pixels.
const MaxSize = 4096

// ValidateSize requires a finite font size in (0, MaxSize].
func ValidateSize(size float64) error {
	if !(size > 0) || math.IsInf(size, 0) {
		return errors.Config("label size must be a positive number, got %g", size)
	}
	if size > MaxSize {
		return errors.Config("label size %g exceeds the maximum of %d pixels", size, MaxSize)
	}
	return nil
}

// Validate checks the values p sets. Unset keys are not reported; see
// [Partial.RequireGlobals].
func (p Partial) Validate() error {
	if p.Pos != nil {
		if err := ValidatePos(*p.Pos); err != nil {
			return err
		}
	}
	if p.Size != nil {
		if err := ValidateSize(*p.Size); err != nil {
			return err
		}
	}
	return nil
}

// ParseColor parses #rgb, #rrggbb or #rrggbbaa (the leading # is optional).
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	bad := errors.Config("invalid color %q (use #rgb, #rrggbb or #rrggbbaa)", s)

	switch len(hex) {
	case 3:
		var c [3]uint8
		for i := range c {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return color.NRGBA{}, bad
			}
			c[i] = uint8(v * 17)
		}
		return color.NRGBA{R: c[0], G: c[1], B: c[2], A: 0xff}, nil
	case 6, 8:
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, bad
		}
		if len(hex) == 6 {
			v = v<<8 | 0xff
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	default:
		return color.NRGBA{}, bad
	}
}

// FormatColor renders c as #rrggbb, or #rrggbbaa when not opaque.
func FormatColor(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
