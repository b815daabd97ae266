package loader

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxDepth bounds container nesting. A valid profile nests three deep
// (mapping, stack, frame); the slack admits redundant parentheses.
const maxDepth = 32

// SyntaxError describes where the literal parser gave up.
type SyntaxError struct {
	Offset int // Byte offset into the input
	Line   int // 1-based line of Offset
	Col    int // 1-based byte column of Offset
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

type litKind int

const (
	litInt litKind = iota
	litStr
	litTuple
	litList
	litDict
)

func (k litKind) String() string {
	switch k {
	case litInt:
		return "integer"
	case litStr:
		return "string"
	case litTuple:
		return "tuple"
	case litList:
		return "list"
	case litDict:
		return "mapping"
	default:
		return "unknown"
	}
}

// literal is one parsed value. Only the fields matching kind are set.
type literal struct {
	kind  litKind
	pos   int
	i     int64
	s     string
	items []literal    // tuple, list
	pairs [][2]literal // dict, in source order
}

// litParser is a recursive descent parser for the literal subset profiles
// are written in: mappings, tuples, lists, strings and integers. Names,
// calls, operators and every other expression form are rejected.
type litParser struct {
	src   []byte
	pos   int
	depth int
}

func parseLiteral(src []byte) (literal, error) {
	p := &litParser{src: src}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return literal{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return literal{}, p.errorf("unexpected %s after value", p.describe())
	}
	return v, nil
}

func (p *litParser) errorf(format string, args ...any) *SyntaxError {
	line, col := 1, 1
	for _, b := range p.src[:min(p.pos, len(p.src))] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &SyntaxError{Offset: p.pos, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *litParser) describe() string {
	if p.pos >= len(p.src) {
		return "end of input"
	}
	r, _ := utf8.DecodeRune(p.src[p.pos:])
	return strconv.QuoteRune(r)
}

func (p *litParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; {
		case isSpace(c):
			p.pos++
		case c == '#':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '\\':
			// Explicit line continuation.
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == '\n' {
				p.pos += 2
				continue
			}
			return
		default:
			return
		}
	}
}

func (p *litParser) value() (literal, error) {
	switch c := p.peek(); {
	case c == '{':
		return p.container('{', '}', litDict)
	case c == '(':
		return p.container('(', ')', litTuple)
	case c == '[':
		return p.container('[', ']', litList)
	case c == '\'' || c == '"':
		return p.str("")
	case c == '+' || c == '-' || isDigit(c):
		return p.integer()
	case isLetter(c):
		start := p.pos
		for p.pos < len(p.src) && isLetter(p.src[p.pos]) && p.pos-start < 2 {
			p.pos++
		}
		prefix := string(p.src[start:p.pos])
		if q := p.peek(); (q == '\'' || q == '"') && validPrefix(prefix) {
			return p.str(strings.ToLower(prefix))
		}
		p.pos = start
		return literal{}, p.errorf("unexpected name %q: only literals are allowed", p.word())
	default:
		return literal{}, p.errorf("unexpected %s", p.describe())
	}
}

// word returns the identifier-like run at the current position.
func (p *litParser) word() string {
	end := p.pos
	for end < len(p.src) && (isLetter(p.src[end]) || isDigit(p.src[end]) || p.src[end] == '_') {
		end++
	}
	return string(p.src[p.pos:end])
}

func (p *litParser) container(open, close byte, kind litKind) (literal, error) {
	v := literal{kind: kind, pos: p.pos}
	p.depth++
	if p.depth > maxDepth {
		return literal{}, p.errorf("nesting deeper than %d", maxDepth)
	}
	defer func() { p.depth-- }()

	p.pos++ // open
	sawComma := false
	for {
		p.skipSpace()
		if p.peek() == close {
			p.pos++
			break
		}
		if p.pos >= len(p.src) {
			return literal{}, p.errorf("unterminated %s, expected %q", kind, close)
		}

		item, err := p.value()
		if err != nil {
			return literal{}, err
		}
		if kind == litDict {
			p.skipSpace()
			if p.peek() != ':' {
				return literal{}, p.errorf("expected ':' in mapping, found %s", p.describe())
			}
			p.pos++
			p.skipSpace()
			val, err := p.value()
			if err != nil {
				return literal{}, err
			}
			v.pairs = append(v.pairs, [2]literal{item, val})
		} else {
			v.items = append(v.items, item)
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			sawComma = true
		case close:
		default:
			return literal{}, p.errorf("expected ',' or %q, found %s", close, p.describe())
		}
	}

	// "(x)" is a parenthesized value, not a one-element tuple.
	if kind == litTuple && len(v.items) == 1 && !sawComma {
		return v.items[0], nil
	}
	return v, nil
}

func (p *litParser) integer() (literal, error) {
	start := p.pos
	if c := p.peek(); c == '+' || c == '-' {
		p.pos++
	}
	if !isDigit(p.peek()) {
		return literal{}, p.errorf("expected digit after sign, found %s", p.describe())
	}
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || isLetter(p.src[p.pos]) || p.src[p.pos] == '_') {
		p.pos++
	}
	token := string(p.src[start:p.pos])
	text := token
	// At most one Python 2 long suffix.
	if n := len(text); text[n-1] == 'l' || text[n-1] == 'L' {
		text = text[:n-1]
	}
	if p.peek() == '.' {
		return literal{}, p.errorf("floating point values are not allowed")
	}
	n, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		p.pos = start
		return literal{}, p.errorf("invalid integer %q", token)
	}
	return literal{kind: litInt, pos: start, i: n}, nil
}

// str parses a quoted string. prefix is the lowercased string prefix ("",
// "u", "b", "r", "ur", "br", ...). Without a "u" prefix, \x escapes produce raw
// bytes, matching how Python 2 wrote byte strings; with "u" they produce code
// points.
func (p *litParser) str(prefix string) (literal, error) {
	start := p.pos
	quote := p.src[p.pos]
	p.pos++
	raw := strings.Contains(prefix, "r")
	unicode := strings.Contains(prefix, "u")

	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			p.pos = start
			return literal{}, p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return literal{kind: litStr, pos: start, s: b.String()}, nil
		case c == '\n':
			return literal{}, p.errorf("newline in string")
		case c == '\\' && raw:
			b.WriteByte(c)
			if p.pos+1 < len(p.src) {
				b.WriteByte(p.src[p.pos+1])
				p.pos += 2
			} else {
				p.pos++
			}
		case c == '\\':
			if err := p.escape(&b, unicode); err != nil {
				return literal{}, err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

var simpleEscapes = map[byte]byte{
	'\\': '\\', '\'': '\'', '"': '"',
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
}

func (p *litParser) escape(b *strings.Builder, unicode bool) error {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	c := p.src[p.pos]
	if r, ok := simpleEscapes[c]; ok {
		b.WriteByte(r)
		p.pos++
		return nil
	}
	switch {
	case c == '\n':
		p.pos++
	case c >= '0' && c <= '7':
		end := p.pos
		for end < len(p.src) && end-p.pos < 3 && p.src[end] >= '0' && p.src[end] <= '7' {
			end++
		}
		n, _ := strconv.ParseUint(string(p.src[p.pos:end]), 8, 32)
		p.pos = end
		p.writeCode(b, rune(n), unicode)
	case c == 'x':
		return p.hexEscape(b, 2, unicode)
	case (c == 'u' || c == 'U') && unicode:
		width := 4
		if c == 'U' {
			width = 8
		}
		return p.hexEscape(b, width, true)
	default:
		// Unknown escapes are kept verbatim.
		b.WriteByte('\\')
	}
	return nil
}

func (p *litParser) hexEscape(b *strings.Builder, width int, unicode bool) error {
	p.pos++ // x, u or U
	if p.pos+width > len(p.src) {
		return p.errorf("truncated \\x escape")
	}
	n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+width]), 16, 32)
	if err != nil || n > utf8.MaxRune {
		return p.errorf("invalid escape %q", string(p.src[p.pos:p.pos+width]))
	}
	p.pos += width
	p.writeCode(b, rune(n), unicode)
	return nil
}

func (p *litParser) writeCode(b *strings.Builder, r rune, unicode bool) {
	if unicode || r > 0xff {
		b.WriteRune(r)
		return
	}
	b.WriteByte(byte(r))
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func validPrefix(prefix string) bool {
	switch strings.ToLower(prefix) {
	case "u", "b", "r", "ur", "br", "rb":
		return true
	}
	return false
}
