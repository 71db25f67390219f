package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontmatter(t *testing.T) {
	source := []byte("---\ntitle: Lake\ntags: [swim, summer]\n---\n\n# Cold water\n\nBrr.\n")

	doc, err := NewParser().Parse(source)
	require.NoError(t, err)

	assert.Equal(t, "Lake", doc.Meta["title"])
	assert.Equal(t, []any{"swim", "summer"}, doc.Meta["tags"])
	assert.Equal(t, "# Cold water\n\nBrr.", string(doc.Body))
	assert.Contains(t, string(doc.HTML), "<h1")
	assert.NotContains(t, string(doc.HTML), "title: Lake")
}

func TestParseWithoutFrontmatter(t *testing.T) {
	doc, err := NewParser().Parse([]byte("<video src=\"/uploads/abc\"></video>\n\nplain"))
	require.NoError(t, err)

	assert.Empty(t, doc.Meta)
	assert.Contains(t, string(doc.HTML), `<video src="/uploads/abc"></video>`)
}

func TestStripFrontmatterUnterminated(t *testing.T) {
	source := []byte("---\ntitle: never closed\n")
	assert.Equal(t, source, stripFrontmatter(source))
}
