package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDocument(t *testing.T) {
	md := NewMarkdownRenderer()

	res, err := md.RenderDocument("Starry Night", []byte("Painted in **1889**.\n\n![sky](sky.jpg)\n"))
	require.NoError(t, err)
	html := string(res.HTML)

	assert.True(t, strings.HasPrefix(html, `<h1 id="starry-night">Starry Night</h1>`+"\n<hr>\n"), html)
	assert.Contains(t, html, "<strong>1889</strong>")
	assert.Contains(t, html, `<img src="sky.jpg" alt="sky">`)
	assert.Equal(t, "Painted in 1889.", res.Excerpt)
	assert.Equal(t, "sky.jpg", res.FirstImage)
}

func TestRenderKeepsRawHTMLAndLinks(t *testing.T) {
	md := NewMarkdownRenderer()

	res, err := md.Render([]byte("<figure>raw</figure>\n\nSee https://example.com today.\n"))
	require.NoError(t, err)
	html := string(res.HTML)
	assert.Contains(t, html, "<figure>raw</figure>")
	assert.Contains(t, html, `<a href="https://example.com">https://example.com</a>`)
}

func TestExcerptTruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("brush ", 60)
	got := excerpt(strings.TrimSpace(long), 20)
	assert.Equal(t, "brush brush brush…", got)
	assert.Equal(t, "short", excerpt("short", 20))
}
