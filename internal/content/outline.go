// File: internal/content/outline.go
package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block is one block-level element of a post body.
type Block struct {
	Tag  string
	Text string
}

func (b Block) String() string { return b.Tag + ": " + b.Text }

var blockTags = map[atom.Atom]bool{
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.P:          true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Li:         true,
	atom.Figcaption: true,
}

// Outline parses an HTML fragment and lists its block-level elements in
// document order with whitespace-normalized text. Blocks nested inside
// another block are folded into the outer one; empty blocks are dropped.
func Outline(fragment string) ([]Block, error) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html fragment: %w", err)
	}

	var blocks []Block
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			if text := normalize(textOf(n)); text != "" {
				blocks = append(blocks, Block{Tag: n.Data, Text: text})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return blocks, nil
}

// Equivalent reports whether two fragments have the same outline. The
// platform rewrites markup on save (ids, classes, wrapper elements), so the
// comparison is by block tag and text only.
func Equivalent(a, b string) (bool, error) {
	oa, err := Outline(a)
	if err != nil {
		return false, err
	}
	ob, err := Outline(b)
	if err != nil {
		return false, err
	}
	if len(oa) != len(ob) {
		return false, nil
	}
	for i := range oa {
		if oa[i] != ob[i] {
			return false, nil
		}
	}
	return true, nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			if n.DataAtom == atom.Br {
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// normalize collapses whitespace runs to single spaces. strings.Fields treats
// the non-breaking spaces the editor inserts as whitespace too.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
