package content

import (
	"strings"
	"time"
)

// Kind separates navigation pages from categorised posts.
type Kind string

const (
	KindPage Kind = "page"
	KindPost Kind = "post"
)

// Meta is the front matter of one page or post plus everything derived from
// it while the site is generated.
type Meta struct {
	Title     string
	Category  string
	Summary   string
	Image     string
	Tags      []string
	Canonical string
	Date      time.Time

	Kind Kind
	// Slug is the root-relative URL: "/", "/about.html" or "/my-post/".
	Slug    string
	OutFile string
	// Excerpt and FirstImage come from the rendered body and back up Summary
	// and Image when the front matter leaves them empty.
	Excerpt    string
	FirstImage string
}

func (m Meta) IsPage() bool { return m.Kind == KindPage }

// Description is the text used for the description meta tag.
func (m Meta) Description() string {
	if m.Summary != "" {
		return m.Summary
	}
	return m.Excerpt
}

// Cover is the image used for social previews.
func (m Meta) Cover() string {
	if m.Image != "" {
		return m.Image
	}
	return m.FirstImage
}

type BodyRef struct {
	SourcePath string
	ModTime    time.Time
}

// Post is one parsed Markdown source; Body is the Markdown after the front
// matter block.
type Post struct {
	Meta Meta
	Ref  BodyRef
	Body []byte
}

func (m *Meta) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Category = strings.TrimSpace(m.Category)
	m.Summary = strings.TrimSpace(m.Summary)
	m.Image = strings.TrimSpace(m.Image)
	m.Canonical = strings.TrimSpace(m.Canonical)
	m.Tags = normalizeStrings(m.Tags)
}

func normalizeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = strings.ToLower(item)
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
