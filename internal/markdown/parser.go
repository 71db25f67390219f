package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

// Document is a rendered Markdown file.
type Document struct {
	HTML []byte
	// Meta holds the decoded YAML front matter; empty when there is none
	// or it does not decode.
	Meta map[string]any
	// Body is the source with the front matter block removed.
	Body []byte
}

type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a GFM parser that keeps raw HTML, so <video> and
// <audio> blocks written inline survive rendering.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithUnsafe(),
		),
	)

	return &Parser{md: md}
}

// Render converts Markdown to HTML. Front matter is dropped.
func (p *Parser) Render(source []byte) ([]byte, error) {
	doc, err := p.Parse(source)
	if err != nil {
		return nil, err
	}
	return doc.HTML, nil
}

func (p *Parser) Parse(source []byte) (*Document, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if data := frontmatter.Get(ctx); data != nil {
		err = data.Decode(&meta)
		if err != nil {
			meta = map[string]any{}
		}
	}

	return &Document{
		HTML: buf.Bytes(),
		Meta: meta,
		Body: bytes.TrimSpace(stripFrontmatter(source)),
	}, nil
}

var frontmatterDelimiter = []byte("---")

// stripFrontmatter drops a leading "---" delimited YAML block.
func stripFrontmatter(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), frontmatterDelimiter) {
		return source
	}

	offset := len(lines[0])
	for _, line := range lines[1:] {
		offset += len(line)
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelimiter) {
			return source[offset:]
		}
	}
	return source
}
