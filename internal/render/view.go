package render

import (
	"fmt"
	"html"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func escape(s string) string { return html.EscapeString(s) }

// NavItem is one entry of the navigation bar.
type NavItem struct {
	Title string
	Slug  string
}

// NavBar renders one <li> per item. The item whose slug equals current is
// marked "active" and the last item "right". Pass an empty current for
// pages that are not in the bar.
func NavBar(items []NavItem, current string) string {
	var b strings.Builder
	for i, it := range items {
		var classes []string
		if it.Slug == current {
			classes = append(classes, "active")
		}
		if i == len(items)-1 {
			classes = append(classes, "right")
		}
		b.WriteString("      <li><a ")
		if len(classes) > 0 {
			fmt.Fprintf(&b, `class="%s" `, strings.Join(classes, " "))
		}
		fmt.Fprintf(&b, `href="%s">%s</a></li>`, escape(it.Slug), escape(it.Title))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

type Link struct {
	Title string
	Href  string
}

// CategorySection is one heading of the home page listing.
type CategorySection struct {
	Name  string
	Href  string
	Posts []Link
}

// TitleCase capitalises each word and lowercases the rest, so "oil PAINTING"
// becomes "Oil Painting".
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// CategoryListing renders the grouped post links shown on the home page.
func CategoryListing(sections []CategorySection) string {
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "<h2><a href=\"%s\">%s</a></h2>\n", escape(s.Href), escape(TitleCase(s.Name)))
		writeLinks(&b, s.Posts)
	}
	return b.String()
}

// CategoryPage renders the body of a single category page.
func CategoryPage(s CategorySection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n<hr>\n", escape(TitleCase(s.Name)))
	writeLinks(&b, s.Posts)
	return b.String()
}

func writeLinks(b *strings.Builder, links []Link) {
	b.WriteString("<ul class=\"categorized-articles\">\n")
	for _, l := range links {
		fmt.Fprintf(b, "<li><a href=\"%s\">%s</a></li>\n", escape(l.Href), escape(l.Title))
	}
	b.WriteString("</ul>\n")
}

// MetaInfo is the per-page data for description and social preview tags.
type MetaInfo struct {
	Title       string
	Description string
	// ImageURL must already be absolute.
	ImageURL string
	URL      string
	SiteName string
	Type     string
}

func MetaTags(m MetaInfo) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	if m.Description != "" {
		add(`<meta name="description" content="%s">`, escape(m.Description))
	}
	add(`<meta property="og:title" content="%s">`, escape(m.Title))
	if m.Type != "" {
		add(`<meta property="og:type" content="%s">`, escape(m.Type))
	}
	add(`<meta property="og:url" content="%s">`, escape(m.URL))
	if m.SiteName != "" {
		add(`<meta property="og:site_name" content="%s">`, escape(m.SiteName))
	}
	if m.Description != "" {
		add(`<meta property="og:description" content="%s">`, escape(m.Description))
	}
	if m.ImageURL != "" {
		add(`<meta property="og:image" content="%s">`, escape(m.ImageURL))
	}
	return strings.Join(lines, "\n  ")
}

func FaviconTag(href string) string {
	if href == "" {
		return ""
	}
	return fmt.Sprintf(`<link rel="icon" href="%s">`, escape(href))
}

func LogoTag(src string) string {
	if src == "" {
		return ""
	}
	return fmt.Sprintf(`<div class="logo"><img src="%s" alt="logo"></div>`, escape(src))
}

func FeedTag(href, title string) string {
	if href == "" {
		return ""
	}
	return fmt.Sprintf(`<link rel="alternate" type="application/atom+xml" title="%s" href="%s">`, escape(title), escape(href))
}
