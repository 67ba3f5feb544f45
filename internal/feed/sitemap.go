package feed

import (
	"bytes"
	"encoding/xml"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URL struct {
	Loc     string    `xml:"loc"`
	LastMod time.Time `xml:"-"`
	// LastModText is filled from LastMod when the sitemap is rendered.
	LastModText string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	NS      string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Sitemap renders the sitemaps.org XML document for urls.
func Sitemap(urls []URL) ([]byte, error) {
	set := urlSet{NS: sitemapNS, URLs: make([]URL, 0, len(urls))}
	for _, u := range urls {
		if !u.LastMod.IsZero() {
			u.LastModText = u.LastMod.UTC().Format(time.DateOnly)
		}
		set.URLs = append(set.URLs, u)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots allows every crawler and points it at the sitemap.
func Robots(sitemapURL string) []byte {
	var b bytes.Buffer
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	if sitemapURL != "" {
		b.WriteString("\nSitemap: ")
		b.WriteString(sitemapURL)
		b.WriteByte('\n')
	}
	return b.Bytes()
}
