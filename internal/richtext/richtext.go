// Package richtext reads the markup saved by the memory editor: it finds
// embedded media, renders Markdown, and produces plain-text excerpts.
package richtext

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/relive/relive/internal/markdown"
	"github.com/relive/relive/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ref is a media URL found in content.
type Ref struct {
	URL  string
	Kind string
}

var md = markdown.NewParser()

// ToHTML returns content as HTML, rendering it first when format is Markdown.
func ToHTML(content, format string) (string, error) {
	if format != model.ContentFormatMarkdown {
		return content, nil
	}
	out, err := md.Render([]byte(content))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return string(out), nil
}

// Extract returns the distinct media references in document order.
// <img src>, <video src>, <audio src> and <source src> inside video/audio
// are recognised; data: URIs and empty sources are skipped.
func Extract(content string) []Ref {
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var refs []Ref
	add := func(src, kind string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") || seen[src] {
			return
		}
		seen[src] = true
		refs = append(refs, Ref{URL: src, Kind: kind})
	}

	var walk func(n *html.Node, parentKind string)
	walk = func(n *html.Node, parentKind string) {
		kind := parentKind
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Img:
				add(attr(n, "src"), model.MediaKindImage)
			case atom.Video:
				kind = model.MediaKindVideo
				add(attr(n, "src"), kind)
			case atom.Audio:
				kind = model.MediaKindAudio
				add(attr(n, "src"), kind)
			case atom.Source:
				if parentKind != "" {
					add(attr(n, "src"), parentKind)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, kind)
		}
	}

	for _, n := range nodes {
		walk(n, "")
	}
	return refs
}

// PlainText strips markup and collapses whitespace.
func PlainText(content string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	skip := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

// Excerpt returns at most n runes of plain text, cut at a word boundary
// and suffixed with an ellipsis when truncated.
func Excerpt(content string, n int) string {
	text := PlainText(content)
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := n
	for cut > 0 && !unicode.IsSpace(runes[cut]) {
		cut--
	}
	if cut == 0 {
		cut = n
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace) + "…"
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
