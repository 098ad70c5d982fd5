package options

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Template is a compiled label format string. Literal text is copied as-is,
// {expr} placeholders are evaluated with the leaf's label index bound to
// `index`, and {{ / }} produce literal braces.
//
// Besides arithmetic the expression environment provides:
//
//	alpha(n)  0 → "a", 25 → "z", 26 → "aa"
//	ALPHA(n)  upper-case alpha
//	roman(n)  lower-case roman numeral of n ≥ 1
//	ROMAN(n)  upper-case roman
type Template struct {
	source   string
	segments []segment
}

type segment struct {
	literal string
	code    string
	program *vm.Program
}

// ParseTemplate compiles a label format string.
func ParseTemplate(s string) (*Template, error) {
	t := &Template{source: s}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed '{' at offset %d", i)
			}
			code := strings.TrimSpace(s[i+1 : i+1+end])
			if code == "" {
				return nil, fmt.Errorf("empty placeholder at offset %d", i)
			}
			program, err := expr.Compile(code, expr.Env(templateEnv(0)))
			if err != nil {
				return nil, fmt.Errorf("placeholder {%s}: %w", code, err)
			}
			flush()
			t.segments = append(t.segments, segment{code: code, program: program})
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// Execute renders the template for the given label index.
func (t *Template) Execute(index int) (string, error) {
	var b strings.Builder
	env := templateEnv(index)
	for _, seg := range t.segments {
		if seg.program == nil {
			b.WriteString(seg.literal)
			continue
		}
		out, err := expr.Run(seg.program, env)
		if err != nil {
			return "", fmt.Errorf("evaluate {%s} with index=%d: %w", seg.code, index, err)
		}
		fmt.Fprint(&b, out)
	}
	return b.String(), nil
}

// String returns the source format string.
func (t *Template) String() string { return t.source }

func templateEnv(index int) map[string]any {
	return map[string]any{
		"index": index,
		"alpha": Alpha,
		"ALPHA": func(n int) string { return strings.ToUpper(Alpha(n)) },
		"roman": Roman,
		"ROMAN": func(n int) string { return strings.ToUpper(Roman(n)) },
	}
}

// Alpha converts a zero-based index to spreadsheet-style letters:
// 0 → "a", 25 → "z", 26 → "aa". Negative n yields "".
func Alpha(n int) string {
	if n < 0 {
		return ""
	}
	var buf []byte
	for n >= 0 {
		buf = append([]byte{byte('a' + n%26)}, buf...)
		n = n/26 - 1
	}
	return string(buf)
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

// Roman returns the lower-case roman numeral of n. Non-positive n yields "".
func Roman(n int) string {
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}
