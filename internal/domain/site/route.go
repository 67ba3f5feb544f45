package site

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

type RouteKind string

const (
	RouteIndex    RouteKind = "index"
	RoutePage     RouteKind = "page"
	RoutePost     RouteKind = "post"
	RouteCategory RouteKind = "category"
	RouteAtom     RouteKind = "atom"
	RouteSitemap  RouteKind = "sitemap"
	RouteRobots   RouteKind = "robots"
	RouteStyle    RouteKind = "style"
	RouteImage    RouteKind = "site_image"
)

const (
	SiteImagesDir = "site_images"
	CategoryDir   = "category"
	StylePath     = "css/style.css"
)

// Route ties a root-relative URL to the file that serves it.
type Route struct {
	Kind RouteKind
	// Slug is the URL path, always starting with "/".
	Slug    string
	OutPath string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.OutPath != "" {
		parts = append(parts, "out="+r.OutPath)
	}
	return strings.Join(parts, " ")
}

// URL joins the route to a base URL that has no trailing slash.
func (r Route) URL(baseURL string) string {
	return baseURL + r.Slug
}

// PageRoute maps a page file name to "/" for index.md and "/<name>.html"
// otherwise.
func PageRoute(fileName string) Route {
	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if base == "index.md" {
		return Route{Kind: RouteIndex, Slug: "/", OutPath: "index.html"}
	}
	return Route{Kind: RoutePage, Slug: "/" + name + ".html", OutPath: name + ".html"}
}

// PostRoute maps a post slug segment to "/<slug>/" served by <slug>/index.html.
func PostRoute(slug string) Route {
	return Route{
		Kind:    RoutePost,
		Slug:    "/" + slug + "/",
		OutPath: filepath.Join(slug, "index.html"),
	}
}

func CategoryRoute(slug string) Route {
	return Route{
		Kind:    RouteCategory,
		Slug:    path.Join("/", CategoryDir, slug) + "/",
		OutPath: filepath.Join(CategoryDir, slug, "index.html"),
	}
}

// SiteImageRoute places a logo or favicon under /site_images/.
func SiteImageRoute(srcPath string) Route {
	name := filepath.Base(srcPath)
	return Route{
		Kind:    RouteImage,
		Slug:    path.Join("/", SiteImagesDir, name),
		OutPath: filepath.Join(SiteImagesDir, name),
	}
}

var (
	AtomRoute    = Route{Kind: RouteAtom, Slug: "/index.xml", OutPath: "index.xml"}
	SitemapRoute = Route{Kind: RouteSitemap, Slug: "/sitemap.xml", OutPath: "sitemap.xml"}
	RobotsRoute  = Route{Kind: RouteRobots, Slug: "/robots.txt", OutPath: "robots.txt"}
	StyleRoute   = Route{Kind: RouteStyle, Slug: "/" + StylePath, OutPath: filepath.FromSlash(StylePath)}
)

// Validate rejects routes that would escape the output directory.
func (r Route) Validate() error {
	if !strings.HasPrefix(r.Slug, "/") {
		return fmt.Errorf("route %s: slug must start with /", r)
	}
	clean := filepath.Clean(r.OutPath)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("route %s: output path escapes the output directory", r)
	}
	return nil
}
