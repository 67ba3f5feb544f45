package feed

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"artblog/internal/domain/content"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobots(t *testing.T) {
	assert.Equal(t, "User-agent: *\nAllow: /\n\nSitemap: https://a.example/sitemap.xml\n",
		string(Robots("https://a.example/sitemap.xml")))
	assert.Equal(t, "User-agent: *\nAllow: /\n", string(Robots("")))
}

func TestSitemap(t *testing.T) {
	day := time.Date(2024, 5, 2, 23, 0, 0, 0, time.UTC)
	out, err := Sitemap([]URL{
		{Loc: "https://a.example/", LastMod: day},
		{Loc: "https://a.example/category/painting/"},
	})
	require.NoError(t, err)

	var parsed struct {
		URLs []struct {
			Loc     string `xml:"loc"`
			LastMod string `xml:"lastmod"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(out, &parsed))
	require.Len(t, parsed.URLs, 2)
	assert.Equal(t, "https://a.example/", parsed.URLs[0].Loc)
	assert.Equal(t, "2024-05-02", parsed.URLs[0].LastMod)
	assert.Empty(t, parsed.URLs[1].LastMod)
	assert.Contains(t, string(out), `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
}

func TestAtom(t *testing.T) {
	older := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := []content.Meta{
		{Title: "Old Sketch", Slug: "/old-sketch/", Kind: content.KindPost, Date: older, Category: "sketches"},
		{Title: "About", Slug: "/about.html", Kind: content.KindPage, Date: newer},
		{Title: "New Painting", Slug: "/new-painting/", Kind: content.KindPost, Date: newer, Summary: "Fresh oil"},
	}

	out, err := Atom(AtomOptions{
		Title:   "Ink",
		BaseURL: "https://a.example",
		Author:  "Jo",
		Updated: newer,
	}, posts, map[string]string{"/new-painting/": "<p>body</p>"})
	require.NoError(t, err)
	doc := string(out)

	assert.Contains(t, doc, "Ink")
	assert.Contains(t, doc, "https://a.example/new-painting/")
	assert.Contains(t, doc, "https://a.example/old-sketch/")
	assert.NotContains(t, doc, "/about.html")
	assert.Less(t, strings.Index(doc, "New Painting"), strings.Index(doc, "Old Sketch"), "newest first")
}
