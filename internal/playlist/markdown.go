package playlist

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/time/rate"
)

// mdLink is one track reference extracted from a markdown playlist.
type mdLink struct {
	label  string
	target string
}

// parseMarkdown builds a playlist from a markdown document. Every link
// is a track: the link text becomes the label and the destination the
// target. Autolinks count too; code blocks never do.
func parseMarkdown(name string, data []byte, baseDir string, limiter *rate.Limiter) (*Playlist, error) {
	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var links []mdLink
	collectLinks(doc, reader.Source(), &links)

	pl := &Playlist{Name: name}
	for _, l := range links {
		item, err := newItem(l.label, l.target, baseDir, limiter)
		if err != nil {
			return nil, fmt.Errorf("playlist %s: %w", name, err)
		}
		pl.Items = append(pl.Items, item)
	}
	return pl, nil
}

// collectLinks recursively walks the AST gathering track references.
func collectLinks(node ast.Node, source []byte, out *[]mdLink) {
	switch n := node.(type) {
	case *ast.Link:
		target := string(n.Destination)
		if target != "" {
			*out = append(*out, mdLink{label: linkText(n, source), target: target})
		}
		return

	case *ast.AutoLink:
		target := string(n.URL(source))
		if target != "" {
			*out = append(*out, mdLink{target: target})
		}
		return

	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
		// Code examples are not tracks.
		return
	}

	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		collectLinks(c, source, out)
	}
}

// linkText flattens the text nodes under a link.
func linkText(node ast.Node, source []byte) string {
	var buf strings.Builder
	appendText(node, source, &buf)
	return strings.TrimSpace(buf.String())
}

func appendText(node ast.Node, source []byte, buf *strings.Builder) {
	if t, ok := node.(*ast.Text); ok {
		buf.Write(t.Segment.Value(source))
	}
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		appendText(c, source, buf)
	}
}
