package normalize

import (
	"fmt"
	"strings"
)

// Grammar accepted by ParseLiteral:
//
//	value  := list | string | number
//	list   := '[' [ value { ',' value } [ ',' ] ] ']'
//	string := '\'' chars '\'' | '"' chars '"'
//	number := [ '-' | '+' ] digits [ '.' digits ] [ ( 'e' | 'E' ) [ '-' | '+' ] digits ]
//
// Identifiers, calls, operators and anything else are rejected.

// Literal is a parsed value: a string, a number kept as its source text, or a list.
type Literal struct {
	Kind  LiteralKind
	Text  string
	Items []Literal
}

// LiteralKind tags a Literal.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralList
)

// Entries reads the literal as a list of entries. A string or number is one
// entry. An inner list of strings and numbers is a single entry with its
// leaves joined by spaces, so ['milk', '1 gallon'] becomes "milk 1 gallon".
// Lists nested any deeper are an error.
func (l Literal) Entries() ([]string, error) {
	if l.Kind != LiteralList {
		return []string{l.Text}, nil
	}
	out := make([]string, 0, len(l.Items))
	for i, item := range l.Items {
		if item.Kind != LiteralList {
			out = append(out, item.Text)
			continue
		}
		parts := make([]string, 0, len(item.Items))
		for _, leaf := range item.Items {
			if leaf.Kind == LiteralList {
				return nil, fmt.Errorf("entry %d: lists nested more than one level", i)
			}
			if t := strings.TrimSpace(leaf.Text); t != "" {
				parts = append(parts, t)
			}
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out, nil
}

// maxLiteralDepth bounds list nesting.
const maxLiteralDepth = 32

// ParseLiteral parses src as a single literal value. Trailing input other
// than whitespace is an error.
func ParseLiteral(src string) (Literal, error) {
	p := &literalParser{src: src}
	v, err := p.value(0)
	if err != nil {
		return Literal{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Literal{}, p.errorf("unexpected trailing input %q", p.rest())
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("literal at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) rest() string {
	r := p.src[p.pos:]
	if len(r) > 24 {
		r = r[:24] + "..."
	}
	return r
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) value(depth int) (Literal, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Literal{}, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '[':
		if depth >= maxLiteralDepth {
			return Literal{}, p.errorf("lists nested deeper than %d", maxLiteralDepth)
		}
		return p.list(depth + 1)
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return p.number()
	default:
		return Literal{}, p.errorf("unexpected token %q", p.rest())
	}
}

func (p *literalParser) list(depth int) (Literal, error) {
	p.pos++ // '['
	out := Literal{Kind: LiteralList, Items: []Literal{}}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return Literal{}, p.errorf("unterminated list")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return out, nil
		}
		item, err := p.value(depth)
		if err != nil {
			return Literal{}, err
		}
		out.Items = append(out.Items, item)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return Literal{}, p.errorf("unterminated list")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, nil
		default:
			return Literal{}, p.errorf("expected ',' or ']', found %q", p.rest())
		}
	}
}

func (p *literalParser) str() (Literal, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return Literal{Kind: LiteralString, Text: b.String()}, nil
		case c == '\n':
			return Literal{}, p.errorf("newline in string")
		case c == '\\':
			if p.pos+1 >= len(p.src) {
				return Literal{}, p.errorf("unterminated escape")
			}
			p.pos++
			switch e := p.src[p.pos]; e {
			case '\\', '\'', '"':
				b.WriteByte(e)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return Literal{}, p.errorf("unterminated string")
}

func (p *literalParser) number() (Literal, error) {
	start := p.pos
	if c := p.src[p.pos]; c == '-' || c == '+' {
		p.pos++
	}
	if p.digits() == 0 {
		return Literal{}, p.errorf("malformed number")
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		if p.digits() == 0 {
			return Literal{}, p.errorf("malformed number")
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
			p.pos++
		}
		if p.digits() == 0 {
			return Literal{}, p.errorf("malformed exponent")
		}
	}
	if p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
		return Literal{}, p.errorf("unexpected token %q", p.rest())
	}
	return Literal{Kind: LiteralNumber, Text: p.src[start:p.pos]}, nil
}

func (p *literalParser) digits() int {
	n := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		n++
	}
	return n
}

func isIdentChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
