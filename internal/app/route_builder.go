package app

import (
	"fmt"

	"artblog/internal/domain/content"
	"artblog/internal/domain/site"
	"artblog/internal/index"
	"artblog/internal/ingest"
	"artblog/internal/render"
)

type RouteBuilder struct {
	Index *index.Store
}

// CategorySection pairs a category listing with the page that hosts it.
type CategorySection struct {
	Route   site.Route
	Section render.CategorySection
}

// BuildCategorySections groups the indexed posts by category, with the
// categories in preferred listed first.
func (rb *RouteBuilder) BuildCategorySections(preferred []string) ([]CategorySection, error) {
	groups, err := rb.Index.Categories(preferred)
	if err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(groups))
	out := make([]CategorySection, 0, len(groups))
	for _, g := range groups {
		base := ingest.Slugify(g.Name)
		if base == "" {
			base = "uncategorized"
		}
		// "Oil Painting" and "oil-painting" are distinct categories. A
		// suffixed slug may itself be another category's base slug.
		slug := base
		for n := 2; used[slug]; n++ {
			slug = fmt.Sprintf("%s-%d", base, n)
		}
		used[slug] = true
		route := site.CategoryRoute(slug)

		links := make([]render.Link, 0, len(g.Posts))
		for _, m := range g.Posts {
			links = append(links, render.Link{Title: m.Title, Href: m.Slug})
		}
		out = append(out, CategorySection{
			Route: route,
			Section: render.CategorySection{
				Name:  g.Name,
				Href:  route.Slug,
				Posts: links,
			},
		})
	}
	return out, nil
}

// BuildNav lists the pages in navigation order.
func (rb *RouteBuilder) BuildNav(pages []content.Meta) []render.NavItem {
	items := make([]render.NavItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, render.NavItem{Title: p.Title, Slug: p.Slug})
	}
	return items
}
