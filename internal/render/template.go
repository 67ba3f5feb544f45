package render

import (
	"context"
	"embed"
	"fmt"
	"regexp"
	"slices"
	"strings"

	domainerr "artblog/internal/domain/errors"
)

//go:embed assets/base.html assets/license.html assets/style.css
var assets embed.FS

var tokenPattern = regexp.MustCompile(`\{\{\s*([a-z][a-z0-9_]*)\s*\}\}`)

// Template is an HTML document with {{name}} placeholders.
type Template struct {
	name   string
	src    string
	tokens []string
}

func ParseTemplate(name, src string) *Template {
	t := &Template{name: name, src: src}
	for _, m := range tokenPattern.FindAllStringSubmatch(src, -1) {
		if !slices.Contains(t.tokens, m[1]) {
			t.tokens = append(t.tokens, m[1])
		}
	}
	return t
}

// Tokens lists the placeholder names in order of first appearance.
func (t *Template) Tokens() []string {
	return slices.Clone(t.tokens)
}

// Include splices a fragment into every {{token}} and returns the combined
// template. Placeholders inside the fragment become part of the result.
func (t *Template) Include(token string, fragment *Template) *Template {
	src := tokenPattern.ReplaceAllStringFunc(t.src, func(m string) string {
		if tokenPattern.FindStringSubmatch(m)[1] == token {
			return fragment.src
		}
		return m
	})
	return ParseTemplate(t.name, src)
}

// MissingTokenError names the placeholders Execute had no value for.
type MissingTokenError struct {
	Template string
	Tokens   []string
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("template %s: no value for %s", e.Template, strings.Join(e.Tokens, ", "))
}

func (e *MissingTokenError) Unwrap() error { return domainerr.ErrMissingToken }

// Execute replaces every placeholder in one pass. Inserted values are never
// scanned again, so text that looks like a placeholder inside a value is
// kept verbatim. A placeholder without a value is an error.
func (t *Template) Execute(values map[string]string) (string, error) {
	var missing []string
	for _, tok := range t.tokens {
		if _, ok := values[tok]; !ok {
			missing = append(missing, tok)
		}
	}
	if len(missing) > 0 {
		return "", &MissingTokenError{Template: t.name, Tokens: missing}
	}

	out := tokenPattern.ReplaceAllStringFunc(t.src, func(m string) string {
		return values[tokenPattern.FindStringSubmatch(m)[1]]
	})
	return out, nil
}

// SiteValues are the placeholders shared by every page of a site.
type SiteValues struct {
	SiteName      string
	Author        string
	BaseURL       string
	CopyrightYear string
	// FaviconURL, LogoURL and FeedURL are root-relative paths or empty.
	FaviconURL string
	LogoURL    string
	FeedURL    string
}

func (sv SiteValues) values() map[string]string {
	feedTitle := sv.SiteName
	if feedTitle == "" {
		feedTitle = sv.Author
	}
	return map[string]string{
		"site_name":      escape(sv.SiteName),
		"author":         escape(sv.Author),
		"base_url":       escape(sv.BaseURL + "/"),
		"copyright_year": escape(sv.CopyrightYear),
		"favicon":        FaviconTag(sv.FaviconURL),
		"logo":           LogoTag(sv.LogoURL),
		"feed":           FeedTag(sv.FeedURL, feedTitle),
	}
}

// PageView holds the per-page placeholders. Content, Meta and Nav are HTML.
type PageView struct {
	Title     string
	Canonical string
	Meta      string
	Nav       string
	Content   string
}

// Layout is the base page with the license fragment composed in and the site
// values bound.
type Layout struct {
	tpl  *Template
	site map[string]string
}

var _ Renderer = (*Layout)(nil)

func NewLayout(sv SiteValues) (*Layout, error) {
	base, err := assets.ReadFile("assets/base.html")
	if err != nil {
		return nil, err
	}
	license, err := assets.ReadFile("assets/license.html")
	if err != nil {
		return nil, err
	}
	tpl := ParseTemplate("base.html", string(base)).
		Include("license", ParseTemplate("license.html", strings.TrimRight(string(license), "\n")))
	return &Layout{tpl: tpl, site: sv.values()}, nil
}

func (l *Layout) RenderPage(ctx context.Context, v PageView) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(l.site)+5)
	for k, val := range l.site {
		values[k] = val
	}
	values["page_title"] = escape(v.Title)
	values["canonical"] = escape(v.Canonical)
	values["meta"] = v.Meta
	values["nav_line_items"] = v.Nav
	values["content"] = v.Content

	out, err := l.tpl.Execute(values)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Stylesheet returns the bundled style.css.
func Stylesheet() ([]byte, error) {
	return assets.ReadFile("assets/style.css")
}
