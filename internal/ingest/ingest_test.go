package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artblog/internal/domain/content"
	domainerr "artblog/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Starry Night", "starry-night"},
		{"A Study in Blue", "study-in-blue"},
		{"Café Terrace at Night", "cafe-terrace-at-night"},
		{"  Oil   on Canvas, 1889!  ", "oil-on-canvas-1889"},
		{"Theatre and Art", "theatre-and-art"},
		{"the a THE", ""},
		{"Straße und Æther", "strasse-und-aether"},
		{"Ørsted Fjord", "orsted-fjord"},
		{"北京", "bei-jing"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestParseFrontMatter(t *testing.T) {
	raw := "---\r\ntitle: Sunflowers\r\ncategory: Painting\r\ntags: oil, Still Life\r\ndate: 2024-03-01\r\n---\r\nBody *text*\r\n"

	fm, body, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Sunflowers", fm.Title)
	assert.Equal(t, "Painting", fm.Category)
	assert.Equal(t, Tags{"oil", "Still Life"}, fm.Tags)
	assert.Equal(t, "2024-03-01", fm.Date)
	assert.Equal(t, "Body *text*", strings.TrimSpace(string(body)))
}

func TestParseFrontMatterTagList(t *testing.T) {
	fm, _, err := ParseFrontMatter([]byte("---\ntitle: X\ntags:\n  - one\n  - two\n---\n"))
	require.NoError(t, err)
	assert.Equal(t, Tags{"one", "two"}, fm.Tags)
}

func TestParseFrontMatterErrors(t *testing.T) {
	_, _, err := ParseFrontMatter([]byte("# Just markdown\n"))
	assert.ErrorIs(t, err, domainerr.ErrNoFrontMatter)

	_, _, err = ParseFrontMatter([]byte("---\ntitle: [broken\n---\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainerr.ErrNoFrontMatter)
}

func TestResolveSlug(t *testing.T) {
	slug, err := ResolveSlug(FrontMatter{Title: "The Night Watch"})
	require.NoError(t, err)
	assert.Equal(t, "night-watch", slug)

	slug, err = ResolveSlug(FrontMatter{Title: "The Night Watch", Slug: "rembrandt"})
	require.NoError(t, err)
	assert.Equal(t, "rembrandt", slug)

	_, err = ResolveSlug(FrontMatter{Title: "!!!"})
	assert.ErrorIs(t, err, domainerr.ErrBadTitle)
}

func TestParseTime(t *testing.T) {
	assert.True(t, ParseTime("").IsZero())
	assert.True(t, ParseTime("yesterday").IsZero())

	got := ParseTime("2023-07-14")
	assert.Equal(t, 2023, got.Year())
	assert.Equal(t, time.July, got.Month())

	got = ParseTime("2023-07-14T10:30:00Z")
	assert.Equal(t, 10, got.UTC().Hour())
}

func TestReadSourcePost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sunflowers.md")
	writeFile(t, path, "---\ntitle: The Sunflowers\ncategory: painting\ncanonical: https://elsewhere.example/sun\ntags: [Oil, oil]\n---\nHello\n")

	p, err := ReadSource(path, content.KindPost)
	require.NoError(t, err)
	assert.Equal(t, content.KindPost, p.Meta.Kind)
	assert.Equal(t, "/sunflowers/", p.Meta.Slug)
	assert.Equal(t, filepath.Join("sunflowers", "index.html"), p.Meta.OutFile)
	assert.Equal(t, "painting", p.Meta.Category)
	assert.Equal(t, "https://elsewhere.example/sun", p.Meta.Canonical)
	assert.Equal(t, []string{"oil"}, p.Meta.Tags)
	assert.False(t, p.Meta.Date.IsZero(), "falls back to the file time")
	assert.Equal(t, path, p.Ref.SourcePath)
	assert.Equal(t, "Hello", strings.TrimSpace(string(p.Body)))
}

func TestReadSourcePage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.md"), "---\ntitle: Home\ncategory: ignored\n---\n")
	writeFile(t, filepath.Join(dir, "about.md"), "---\ntitle: About Me\n---\n")

	home, err := ReadSource(filepath.Join(dir, "index.md"), content.KindPage)
	require.NoError(t, err)
	assert.Equal(t, "/", home.Meta.Slug)
	assert.Equal(t, "index.html", home.Meta.OutFile)
	assert.Empty(t, home.Meta.Category)

	about, err := ReadSource(filepath.Join(dir, "about.md"), content.KindPage)
	require.NoError(t, err)
	assert.Equal(t, "/about.html", about.Meta.Slug)
	assert.Equal(t, "about.html", about.Meta.OutFile)
}

func TestReadSourceRequiresTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untitled.md")
	writeFile(t, path, "---\ncategory: painting\n---\nBody\n")

	_, err := ReadSource(path, content.KindPost)
	assert.ErrorIs(t, err, domainerr.ErrBadTitle)
	assert.Contains(t, err.Error(), "untitled.md")
}

func TestDiscoverSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.md"), "")
	writeFile(t, filepath.Join(root, "a", "z.markdown"), "")
	writeFile(t, filepath.Join(root, "a", "photo.jpg"), "")
	writeFile(t, filepath.Join(root, ".drafts", "hidden.md"), "")
	writeFile(t, filepath.Join(root, "skip.md"), "")

	files, err := DiscoverSource(
		[]string{root, filepath.Join(root, "a")},
		[]string{filepath.Join(root, "skip.md")},
	)
	require.NoError(t, err)

	var got []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		got = append(got, rel)
	}
	assert.Equal(t, []string{filepath.Join("a", "z.markdown"), "b.md"}, got)
}

func TestIngestKeepsDiscoveryOrder(t *testing.T) {
	root := t.TempDir()
	titles := []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}
	for i, title := range titles {
		writeFile(t, filepath.Join(root, string(rune('a'+i))+".md"), "---\ntitle: "+title+"\n---\n")
	}

	posts, err := Ingest(context.Background(), []string{root}, nil)
	require.NoError(t, err)
	require.Len(t, posts, len(titles))
	for i, p := range posts {
		assert.Equal(t, titles[i], p.Meta.Title)
	}
}

func TestIngestFailsOnBadPost(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.md"), "---\ntitle: Good\n---\n")
	writeFile(t, filepath.Join(root, "bad.md"), "no front matter\n")

	_, err := Ingest(context.Background(), []string{root}, nil)
	assert.ErrorIs(t, err, domainerr.ErrNoFrontMatter)
}

func TestIngestHonoursCancellation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alpha.md"), "---\ntitle: Alpha\n---\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Ingest(ctx, []string{root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
