// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeKind discriminates the node variants of a parsed endpoint structure.
type NodeKind int

const (
	// KindScalar is a leaf value: a string, number, boolean, or null.
	KindScalar NodeKind = iota

	// KindList is an ordered sequence of nodes (list or tuple literal).
	KindList

	// KindDict is an ordered mapping of string keys to nodes. Entry order
	// follows the source literal so flattening stays deterministic.
	KindDict
)

// Node is one node of a parsed endpoint literal.
type Node struct {
	Kind    NodeKind
	Scalar  string
	Items   []*Node
	Entries []DictEntry
}

// DictEntry is one key/value pair of a dict node, in source order.
type DictEntry struct {
	Key   string
	Value *Node
}

// IsEmptyContainer reports whether the node is a list or dict with no
// children. Dict keys whose values are empty containers are treated as
// leaf endpoint names during flattening.
func (n *Node) IsEmptyContainer() bool {
	switch n.Kind {
	case KindList:
		return len(n.Items) == 0
	case KindDict:
		return len(n.Entries) == 0
	}
	return false
}

// parseLiteral parses a single container or scalar literal from the start of
// input and ignores any trailing text. The grammar matches Python literal
// syntax as accepted by ast.literal_eval, restricted to dicts, lists, tuples,
// quoted strings, numbers, True, False, and None. Nothing is executed and no
// identifiers other than the three keyword constants are accepted.
//
// The parser keeps an explicit container stack instead of recursing, so the
// nesting depth of model-produced input is bounded only by its length.
// Per prd001-endpoint-extraction R2.1-R2.4.
func parseLiteral(input string) (*Node, error) {
	s := &scanner{src: input}

	// Stack frame for the container currently being filled.
	type frame struct {
		node       *Node
		close      byte   // expected closing delimiter
		pendingKey string // dict key awaiting its value
		haveKey    bool
	}

	var stack []*frame
	var completed *Node

	// attach places a finished value into the innermost open container, or
	// marks it as the overall result when no container is open.
	attach := func(v *Node) error {
		if len(stack) == 0 {
			completed = v
			return nil
		}
		top := stack[len(stack)-1]
		if top.node.Kind == KindList {
			top.node.Items = append(top.node.Items, v)
			return nil
		}
		if !top.haveKey {
			if v.Kind != KindScalar {
				return fmt.Errorf("dict key must be a scalar at offset %d", s.pos)
			}
			top.pendingKey = v.Scalar
			top.haveKey = true
			if err := s.expect(':'); err != nil {
				return err
			}
			return nil
		}
		top.node.Entries = append(top.node.Entries, DictEntry{Key: top.pendingKey, Value: v})
		top.haveKey = false
		top.pendingKey = ""
		return nil
	}

	for completed == nil {
		s.skipSpace()
		c, ok := s.peek()
		if !ok {
			return nil, fmt.Errorf("unexpected end of input at offset %d", s.pos)
		}

		switch {
		case c == '{':
			s.next()
			stack = append(stack, &frame{node: &Node{Kind: KindDict}, close: '}'})

		case c == '[' || c == '(':
			s.next()
			closer := byte(']')
			if c == '(' {
				closer = ')'
			}
			stack = append(stack, &frame{node: &Node{Kind: KindList}, close: closer})

		case c == '}' || c == ']' || c == ')':
			if len(stack) == 0 {
				return nil, fmt.Errorf("unmatched %q at offset %d", c, s.pos)
			}
			top := stack[len(stack)-1]
			if top.close != c {
				return nil, fmt.Errorf("expected %q but found %q at offset %d", top.close, c, s.pos)
			}
			if top.haveKey {
				return nil, fmt.Errorf("dict key %q has no value at offset %d", top.pendingKey, s.pos)
			}
			s.next()
			stack = stack[:len(stack)-1]
			if err := attach(top.node); err != nil {
				return nil, err
			}
			if len(stack) > 0 {
				if err := s.consumeSeparator(stack[len(stack)-1].close); err != nil {
					return nil, err
				}
			}

		case c == '\'' || c == '"':
			str, err := s.readString()
			if err != nil {
				return nil, err
			}
			if err := attach(&Node{Kind: KindScalar, Scalar: str}); err != nil {
				return nil, err
			}
			if len(stack) > 0 && !stack[len(stack)-1].haveKey {
				if err := s.consumeSeparator(stack[len(stack)-1].close); err != nil {
					return nil, err
				}
			}

		default:
			tok, err := s.readBareToken()
			if err != nil {
				return nil, err
			}
			if err := attach(&Node{Kind: KindScalar, Scalar: tok}); err != nil {
				return nil, err
			}
			if len(stack) > 0 && !stack[len(stack)-1].haveKey {
				if err := s.consumeSeparator(stack[len(stack)-1].close); err != nil {
					return nil, err
				}
			}
		}
	}

	return completed, nil
}

// scanner is a minimal cursor over the literal source text.
type scanner struct {
	src string
	pos int
}

func (s *scanner) peek() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	return c
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && unicode.IsSpace(rune(s.src[s.pos])) {
		s.pos++
	}
}

// expect consumes the given punctuation byte, skipping leading whitespace.
func (s *scanner) expect(want byte) error {
	s.skipSpace()
	c, ok := s.peek()
	if !ok || c != want {
		return fmt.Errorf("expected %q at offset %d", want, s.pos)
	}
	s.next()
	return nil
}

// consumeSeparator consumes an optional comma after a container element.
// The element may instead be followed directly by the container's closing
// delimiter, which is left for the main loop.
func (s *scanner) consumeSeparator(closer byte) error {
	s.skipSpace()
	c, ok := s.peek()
	if !ok {
		return fmt.Errorf("unexpected end of input at offset %d", s.pos)
	}
	if c == ',' {
		s.next()
		return nil
	}
	if c == closer {
		return nil
	}
	return fmt.Errorf("expected %q or %q but found %q at offset %d", ',', closer, c, s.pos)
}

// readString consumes a quoted string, honoring backslash escapes. Both
// single and double quotes are accepted, as in Python source.
func (s *scanner) readString() (string, error) {
	quote := s.next()
	var b strings.Builder
	for {
		if s.pos >= len(s.src) {
			return "", fmt.Errorf("unterminated string at offset %d", s.pos)
		}
		c := s.next()
		if c == quote {
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if s.pos >= len(s.src) {
			return "", fmt.Errorf("unterminated escape at offset %d", s.pos)
		}
		e := s.next()
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(e)
		default:
			// Unknown escapes pass through verbatim, as Python does
			// for string literals.
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
}

// readBareToken consumes an unquoted token: a number or one of the keyword
// constants True, False, None. Any other identifier is rejected so the
// parser can never be steered into evaluating code.
func (s *scanner) readBareToken() (string, error) {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ',' || c == ':' || c == '}' || c == ']' || c == ')' || unicode.IsSpace(rune(c)) {
			break
		}
		s.pos++
	}
	tok := s.src[start:s.pos]
	if tok == "" {
		return "", fmt.Errorf("empty token at offset %d", start)
	}

	switch tok {
	case "True", "False", "None":
		return tok, nil
	}

	if isNumber(tok) {
		return tok, nil
	}
	return "", fmt.Errorf("invalid token %q at offset %d", tok, start)
}

// isNumber reports whether tok is an integer or float literal.
func isNumber(tok string) bool {
	seenDigit := false
	seenDot := false
	seenExp := false
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '-' || c == '+':
			if i != 0 && tok[i-1] != 'e' && tok[i-1] != 'E' {
				return false
			}
		case c == '.':
			if seenDot || seenExp {
				return false
			}
			seenDot = true
		case c == 'e' || c == 'E':
			if seenExp || !seenDigit {
				return false
			}
			seenExp = true
		default:
			return false
		}
	}
	return seenDigit
}
