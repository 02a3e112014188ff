// Package markdown turns generated study-guide Markdown into a structured
// render tree and into sanitised HTML.
package markdown

import (
	"bytes"
	"html"
	"log"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Kind names a render tree node type.
type Kind string

const (
	KindDocument      Kind = "document"
	KindHeading       Kind = "heading"
	KindParagraph     Kind = "paragraph"
	KindList          Kind = "list"
	KindListItem      Kind = "list_item"
	KindCodeBlock     Kind = "code_block"
	KindBlockquote    Kind = "blockquote"
	KindThematicBreak Kind = "thematic_break"
	KindText          Kind = "text"
	KindEmphasis      Kind = "emphasis"
	KindStrong        Kind = "strong"
	KindCode          Kind = "code"
	KindLink          Kind = "link"
)

// Node is one element of the render tree.
type Node struct {
	Kind     Kind    `json:"kind"`
	Level    int     `json:"level,omitempty"`
	Ordered  bool    `json:"ordered,omitempty"`
	Text     string  `json:"text,omitempty"`
	Href     string  `json:"href,omitempty"`
	Language string  `json:"language,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

var (
	mdOnce sync.Once
	md     goldmark.Markdown

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func engine() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return md
}

func guidePolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class").OnElements("code", "pre")
		p.AllowURLSchemes("http", "https", "mailto")
		p.RequireParseableURLs(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Parse builds the render tree of a Markdown document.
func Parse(source string) *Node {
	src := []byte(source)
	doc := engine().Parser().Parse(text.NewReader(src))
	root := &Node{Kind: KindDocument}
	root.Children = convertChildren(doc, src)
	return root
}

// RenderHTML renders Markdown to HTML with scripts, handlers and unsafe URLs
// removed.
func RenderHTML(source string) string {
	var buf bytes.Buffer
	if err := engine().Convert([]byte(source), &buf); err != nil {
		log.Printf("WARN: Failed to render study guide markdown: %v", err)
		return "<pre>" + html.EscapeString(source) + "</pre>"
	}
	return guidePolicy().Sanitize(buf.String())
}

// Sanitize cleans HTML that was stored earlier, such as a restored guide.
func Sanitize(s string) string {
	return guidePolicy().Sanitize(s)
}

func convertChildren(n ast.Node, src []byte) []*Node {
	var out []*Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, convert(c, src)...)
	}
	return out
}

// convert maps one goldmark node. Containers without a render kind (text
// blocks of tight lists, tables, raw HTML) are flattened into their children.
func convert(n ast.Node, src []byte) []*Node {
	switch v := n.(type) {
	case *ast.Heading:
		return []*Node{{Kind: KindHeading, Level: v.Level, Children: convertChildren(v, src)}}
	case *ast.Paragraph:
		return []*Node{{Kind: KindParagraph, Children: convertChildren(v, src)}}
	case *ast.List:
		return []*Node{{Kind: KindList, Ordered: v.IsOrdered(), Children: convertChildren(v, src)}}
	case *ast.ListItem:
		return []*Node{{Kind: KindListItem, Children: convertChildren(v, src)}}
	case *ast.Blockquote:
		return []*Node{{Kind: KindBlockquote, Children: convertChildren(v, src)}}
	case *ast.ThematicBreak:
		return []*Node{{Kind: KindThematicBreak}}
	case *ast.FencedCodeBlock:
		return []*Node{{Kind: KindCodeBlock, Language: string(v.Language(src)), Text: lines(v, src)}}
	case *ast.CodeBlock:
		return []*Node{{Kind: KindCodeBlock, Text: lines(v, src)}}
	case *ast.Emphasis:
		kind := KindEmphasis
		if v.Level >= 2 {
			kind = KindStrong
		}
		return []*Node{{Kind: kind, Children: convertChildren(v, src)}}
	case *ast.CodeSpan:
		return []*Node{{Kind: KindCode, Text: plain(v, src)}}
	case *ast.Link:
		return []*Node{{Kind: KindLink, Href: string(v.Destination), Children: convertChildren(v, src)}}
	case *ast.AutoLink:
		url := string(v.URL(src))
		return []*Node{{Kind: KindLink, Href: url, Children: []*Node{{Kind: KindText, Text: url}}}}
	case *ast.Text:
		s := string(v.Segment.Value(src))
		switch {
		case v.HardLineBreak():
			s += "\n"
		case v.SoftLineBreak():
			s += " "
		}
		return []*Node{{Kind: KindText, Text: s}}
	case *ast.String:
		return []*Node{{Kind: KindText, Text: string(v.Value)}}
	case *ast.HTMLBlock, *ast.RawHTML:
		return nil
	default:
		return convertChildren(n, src)
	}
}

func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func plain(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// PlainText concatenates the text of n and its descendants.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.walk(func(c *Node) {
		if c.Kind == KindText || c.Kind == KindCode {
			b.WriteString(c.Text)
		}
	})
	return strings.TrimSpace(b.String())
}

// Headings lists heading texts in document order.
func (n *Node) Headings() []string {
	var out []string
	n.walk(func(c *Node) {
		if c.Kind == KindHeading {
			out = append(out, c.PlainText())
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}
