package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	domainerr "artblog/internal/domain/errors"

	"github.com/adrg/frontmatter"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type FrontMatter struct {
	Title     string `yaml:"title"`
	Slug      string `yaml:"slug"`
	Category  string `yaml:"category"`
	Summary   string `yaml:"summary"`
	Image     string `yaml:"image"`
	Tags      Tags   `yaml:"tags"`
	Canonical string `yaml:"canonical"`
	Date      string `yaml:"date"`
}

// Tags accepts both a YAML list and a comma separated string.
type Tags []string

func (t *Tags) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, s := range strings.Split(value.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	default:
		return fmt.Errorf("tags: expected a list or a string, line %d", value.Line)
	}
}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// ParseFrontMatter splits raw into its YAML front matter block and the
// Markdown body that follows it.
func ParseFrontMatter(raw []byte) (FrontMatter, []byte, error) {
	src := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))

	var fm FrontMatter
	body, err := frontmatter.MustParse(bytes.NewReader(src), &fm, yamlFormat)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return FrontMatter{}, nil, domainerr.ErrNoFrontMatter
		}
		return FrontMatter{}, nil, fmt.Errorf("invalid front matter: %w", err)
	}
	return fm, body, nil
}

// ResolveSlug derives the URL segment of a post from its slug override or
// its title.
func ResolveSlug(fm FrontMatter) (string, error) {
	src := strings.TrimSpace(fm.Slug)
	if src == "" {
		src = strings.TrimSpace(fm.Title)
	}
	if src == "" {
		return "", domainerr.ErrBadTitle
	}
	slug := Slugify(src)
	if slug == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", domainerr.ErrBadTitle, src)
	}
	return slug, nil
}

func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		time.DateOnly,
		"2006-01-02 15:04",
		time.DateTime,
	} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

var stopwords = map[string]struct{}{
	"the": {},
	"a":   {},
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify transliterates s to ASCII, lowercases it, drops the stopwords
// "the" and "a" and joins the remaining words with "-".
func Slugify(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	folded = unidecode.Unidecode(folded)
	words := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, "-")
}
