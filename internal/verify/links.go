// Package verify checks the generated site for internal links that point at
// files the build did not produce.
package verify

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// Link is one URL found in a generated page.
type Link struct {
	URL       string
	Tag       string
	Attribute string
}

// BrokenLink is an internal link whose target is missing from the output.
type BrokenLink struct {
	Page string
	Link Link
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s: <%s %s=%q>", b.Page, b.Link.Tag, b.Link.Attribute, b.Link.URL)
}

var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"link":   "href",
	"script": "src",
	"source": "src",
}

// ExtractLinks returns the link-bearing attributes of an HTML document.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// Checker resolves links of pages under OutputDir. Absolute links count as
// internal when their host matches BaseURL.
type Checker struct {
	OutputDir string
	BaseURL   string
	// Feeds are output-relative feed files whose entry links are checked too.
	Feeds []string
}

// Check walks every .html file in the output and returns the broken links.
func (c Checker) Check() ([]BrokenLink, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}

	var broken []BrokenLink
	err = filepath.WalkDir(c.OutputDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.OutputDir, p)
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		links, err := ExtractLinks(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", rel, err)
		}

		pageURL := "/" + filepath.ToSlash(rel)
		for _, l := range links {
			target, ok := c.resolve(base, pageURL, l.URL)
			if !ok {
				continue
			}
			if !c.exists(target) {
				broken = append(broken, BrokenLink{Page: filepath.ToSlash(rel), Link: l})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, name := range c.Feeds {
		fb, err := c.checkFeed(base, name)
		if err != nil {
			return nil, err
		}
		broken = append(broken, fb...)
	}
	return broken, nil
}

// checkFeed parses an Atom or RSS file and checks the link of every item.
// A feed that was not generated is skipped.
func (c Checker) checkFeed(base *url.URL, name string) ([]BrokenLink, error) {
	f, err := os.Open(filepath.Join(c.OutputDir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var broken []BrokenLink
	for _, item := range feed.Items {
		target, ok := c.resolve(base, "/"+name, item.Link)
		if ok && !c.exists(target) {
			broken = append(broken, BrokenLink{
				Page: name,
				Link: Link{URL: item.Link, Tag: "entry", Attribute: "link"},
			})
		}
	}
	return broken, nil
}

// resolve maps an internal link to a root-relative path. External links,
// fragments and non-http schemes report false.
func (c Checker) resolve(base *url.URL, pageURL, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch {
	case u.Scheme == "" && u.Host == "":
		if u.Path == "" {
			return "", false
		}
		if strings.HasPrefix(u.Path, "/") {
			return u.Path, true
		}
		return path.Join(path.Dir(pageURL), u.Path), true
	case (u.Scheme == "http" || u.Scheme == "https") && strings.EqualFold(u.Host, base.Host):
		p := strings.TrimPrefix(u.Path, strings.TrimSuffix(base.Path, "/"))
		if p == "" {
			p = "/"
		}
		return p, true
	default:
		return "", false
	}
}

func (c Checker) exists(urlPath string) bool {
	p := filepath.Join(c.OutputDir, filepath.FromSlash(strings.TrimPrefix(urlPath, "/")))
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(p, "index.html"))
		return err == nil
	}
	return true
}
