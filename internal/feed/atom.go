package feed

import (
	"errors"
	"slices"
	"time"

	"artblog/internal/domain/content"

	atom "github.com/thomas11/atomgenerator"
)

// AtomOptions describe the site a feed belongs to.
type AtomOptions struct {
	Title   string
	BaseURL string
	Author  string
	Updated time.Time
}

// Atom renders posts newest first. bodies maps a post slug to its rendered
// HTML and may be nil.
func Atom(opt AtomOptions, posts []content.Meta, bodies map[string]string) ([]byte, error) {
	feed := atom.Feed{
		Title:   opt.Title,
		Link:    opt.BaseURL + "/",
		PubDate: opt.Updated,
	}
	feed.AddAuthor(atom.Author{
		Name: opt.Author,
		Uri:  opt.BaseURL + "/",
	})

	sorted := slices.Clone(posts)
	slices.SortStableFunc(sorted, func(a, b content.Meta) int {
		return b.Date.Compare(a.Date)
	})
	for _, p := range sorted {
		if p.IsPage() {
			continue
		}
		e := &atom.Entry{
			Title:       p.Title,
			Description: p.Description(),
			Link:        opt.BaseURL + p.Slug,
			PubDate:     p.Date,
		}
		if p.Category != "" {
			e.AddCategory(atom.Category{Term: p.Category})
		}
		for _, t := range p.Tags {
			e.AddCategory(atom.Category{Term: t})
		}
		if body, ok := bodies[p.Slug]; ok {
			e.Content = body
		}
		feed.AddEntry(e)
	}

	if errs := feed.Validate(); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return feed.GenXml()
}
