// Package phylo reads and writes Newick gene trees and reconciles them against a
// catalogue of species clades.
package phylo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEmptyTree = errors.New("empty newick tree")

// Node is one node of a rooted tree. Length keeps the branch length as written so
// trees survive a round trip unchanged.
type Node struct {
	Name     string
	Length   string
	Children []*Node
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Walk visits n and all of its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Leaves returns the leaves below n from left to right.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(c *Node) {
		if c.IsLeaf() {
			leaves = append(leaves, c)
		}
	})
	return leaves
}

// LeafNames returns the trimmed names of the leaves below n.
func (n *Node) LeafNames() []string {
	leaves := n.Leaves()
	names := make([]string, len(leaves))
	for i, l := range leaves {
		names[i] = strings.TrimSpace(l.Name)
	}
	return names
}

// String formats the tree as Newick, terminated by a semicolon.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	sb.WriteByte(';')
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	if len(n.Children) > 0 {
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(',')
			}
			c.write(sb)
		}
		sb.WriteByte(')')
	}
	sb.WriteString(quoteLabel(n.Name))
	if n.Length != "" {
		sb.WriteByte(':')
		sb.WriteString(n.Length)
	}
}

func quoteLabel(s string) string {
	if !strings.ContainsAny(s, "()[]':;, \t\n") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// SyntaxError reports where a Newick string could not be parsed.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("newick: %s at offset %d", e.Msg, e.Offset)
}

type parser struct {
	s   string
	pos int
}

// Parse reads the first tree of a Newick string.
func Parse(s string) (*Node, error) {
	p := &parser{s: s}
	p.skip()
	if p.pos >= len(p.s) {
		return nil, ErrEmptyTree
	}

	root, err := p.node()
	if err != nil {
		return nil, err
	}

	p.skip()
	if p.pos < len(p.s) && p.s[p.pos] == ';' {
		p.pos++
		return root, nil
	}
	if p.pos < len(p.s) {
		return nil, p.errorf("unexpected %q", p.s[p.pos])
	}
	return root, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// skip moves past whitespace and bracketed comments.
func (p *parser) skip() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		case '[':
			end := strings.IndexByte(p.s[p.pos:], ']')
			if end < 0 {
				p.pos = len(p.s)
				return
			}
			p.pos += end + 1
		default:
			return
		}
	}
}

func (p *parser) node() (*Node, error) {
	n := &Node{}

	p.skip()
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		p.pos++
		for {
			child, err := p.node()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)

			p.skip()
			if p.pos >= len(p.s) {
				return nil, p.errorf("unclosed group")
			}
			if p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.s[p.pos] == ')' {
				p.pos++
				break
			}
			return nil, p.errorf("unexpected %q", p.s[p.pos])
		}
	}

	name, err := p.label()
	if err != nil {
		return nil, err
	}
	n.Name = name

	p.skip()
	if p.pos < len(p.s) && p.s[p.pos] == ':' {
		p.pos++
		p.skip()
		start := p.pos
		for p.pos < len(p.s) && !strings.ContainsRune("(),:;[ \t\n\r", rune(p.s[p.pos])) {
			p.pos++
		}
		length := p.s[start:p.pos]
		if _, err := strconv.ParseFloat(length, 64); err != nil {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("bad branch length %q", length)}
		}
		n.Length = length
	}

	return n, nil
}

func (p *parser) label() (string, error) {
	p.skip()
	if p.pos >= len(p.s) {
		return "", nil
	}

	if p.s[p.pos] == '\'' {
		p.pos++
		var sb strings.Builder
		for {
			if p.pos >= len(p.s) {
				return "", p.errorf("unterminated quoted label")
			}
			c := p.s[p.pos]
			p.pos++
			if c == '\'' {
				if p.pos < len(p.s) && p.s[p.pos] == '\'' {
					sb.WriteByte('\'')
					p.pos++
					continue
				}
				return sb.String(), nil
			}
			sb.WriteByte(c)
		}
	}

	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune("(),:;[", rune(p.s[p.pos])) {
		p.pos++
	}
	return strings.TrimSpace(p.s[start:p.pos]), nil
}

// FormatScore prints f the way the labels stored by earlier CoNekT releases do:
// the shortest representation that round-trips, always with a decimal point.
func FormatScore(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
