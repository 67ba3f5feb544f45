package site

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRoute(t *testing.T) {
	home := PageRoute("index.md")
	assert.Equal(t, RouteIndex, home.Kind)
	assert.Equal(t, "/", home.Slug)
	assert.Equal(t, "index.html", home.OutPath)

	about := PageRoute(filepath.Join("pages", "about.md"))
	assert.Equal(t, RoutePage, about.Kind)
	assert.Equal(t, "/about.html", about.Slug)
	assert.Equal(t, "about.html", about.OutPath)
}

func TestPostAndCategoryRoutes(t *testing.T) {
	p := PostRoute("starry-night")
	assert.Equal(t, "/starry-night/", p.Slug)
	assert.Equal(t, filepath.Join("starry-night", "index.html"), p.OutPath)
	assert.Equal(t, "https://a.example/starry-night/", p.URL("https://a.example"))

	c := CategoryRoute("oil-painting")
	assert.Equal(t, "/category/oil-painting/", c.Slug)
	assert.Equal(t, filepath.Join("category", "oil-painting", "index.html"), c.OutPath)
}

func TestSiteImageRoute(t *testing.T) {
	r := SiteImageRoute("/home/jo/art/logo.png")
	assert.Equal(t, "/site_images/logo.png", r.Slug)
	assert.Equal(t, filepath.Join("site_images", "logo.png"), r.OutPath)
}

func TestRouteValidate(t *testing.T) {
	assert.NoError(t, PostRoute("ok").Validate())
	assert.NoError(t, StyleRoute.Validate())
	assert.Error(t, Route{Kind: RoutePost, Slug: "no-slash", OutPath: "x"}.Validate())
	assert.Error(t, Route{Kind: RoutePost, Slug: "/x/", OutPath: filepath.Join("..", "x")}.Validate())
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "robots slug=/robots.txt out=robots.txt", RobotsRoute.String())
}
