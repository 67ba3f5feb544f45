package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	domainerr "artblog/internal/domain/errors"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed example.yml
var exampleConfig []byte

// IndexPage is the page that receives the category listing and the "/" slug.
const IndexPage = "index.md"

type Config struct {
	SiteName      string   `yaml:"site_name"`
	Author        string   `yaml:"author"`
	BaseURL       string   `yaml:"base_url"`
	CopyrightYear string   `yaml:"copyright_year"`
	Sources       []string `yaml:"sources"`
	Output        string   `yaml:"output"`
	PagesFolder   string   `yaml:"pages_folder"`
	PagesOrder    []string `yaml:"pages_order"`
	Categories    []string `yaml:"categories"`
	Logo          string   `yaml:"logo"`
	Favicon       string   `yaml:"favicon"`
	IndexPath     string   `yaml:"index_path"`

	// Derived at load time.
	PageTitlePostfix string    `yaml:"-"`
	Dir              string    `yaml:"-"`
	Path             string    `yaml:"-"`
	Now              time.Time `yaml:"-"`
}

func Default() Config {
	return Config{
		Now: time.Now(),
	}
}

// PagePath returns the source path of a page listed in pages_order.
func (c Config) PagePath(name string) string {
	return filepath.Join(c.PagesFolder, name)
}

// EnvPath is the optional dotenv file read alongside the config.
func (c Config) EnvPath() string {
	return filepath.Join(c.Dir, ".env")
}

// WatchPaths lists every file or directory whose change affects the output.
func (c Config) WatchPaths() []string {
	out := append([]string{}, c.Sources...)
	out = append(out, c.PagesFolder)
	for _, p := range []string{c.Logo, c.Favicon, c.Path} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads, normalizes and validates the config at path.
func Load(path string) (Config, error) {
	cfg := Default()

	abs, err := filepath.Abs(path)
	if err != nil {
		return cfg, err
	}
	cfg.Path = abs
	cfg.Dir = filepath.Dir(abs)

	dotenv := map[string]string{}
	envFile := cfg.EnvPath()
	if _, err := os.Stat(envFile); err == nil {
		if dotenv, err = godotenv.Read(envFile); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return cfg, err
	}
	data = expandEnv(data, dotenv)

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WriteTemplate writes an annotated starter config to path. It refuses to
// overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, exampleConfig, 0o644)
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${NAME} references only; a bare "$" stays literal. The
// process environment wins over dotenv, which is re-read on every Load.
func expandEnv(data []byte, dotenv map[string]string) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		return []byte(dotenv[name])
	})
}

func (c *Config) normalize() error {
	c.SiteName = strings.TrimSpace(c.SiteName)
	c.Author = strings.TrimSpace(c.Author)
	c.BaseURL = strings.Trim(strings.TrimSpace(c.BaseURL), "/")
	c.CopyrightYear = strings.TrimSpace(c.CopyrightYear)
	if c.CopyrightYear == "" {
		c.CopyrightYear = strconv.Itoa(c.Now.Year())
	}
	if c.SiteName != "" {
		c.PageTitlePostfix = " | " + c.SiteName
	}

	var err error
	for i, s := range c.Sources {
		if c.Sources[i], err = c.resolve(s); err != nil {
			return err
		}
	}
	for _, p := range []*string{&c.Output, &c.PagesFolder, &c.Logo, &c.Favicon, &c.IndexPath} {
		if *p, err = c.resolve(*p); err != nil {
			return err
		}
	}
	if c.IndexPath == "" {
		c.IndexPath = filepath.Join(c.Dir, ".artblog", "index.db")
	}

	for i, p := range c.PagesOrder {
		c.PagesOrder[i] = strings.TrimSpace(p)
	}
	cats := c.Categories[:0]
	for _, cat := range c.Categories {
		if cat = strings.TrimSpace(cat); cat != "" {
			cats = append(cats, cat)
		}
	}
	c.Categories = cats
	return nil
}

func (c Config) resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", p, err)
		}
		p = filepath.Join(home, p[1:])
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.Dir, p)
	}
	return filepath.Clean(p), nil
}

// Validate checks values and that every referenced input exists.
func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if c.Author == "" {
		ve.Add("author", "must not be empty")
	}

	if c.BaseURL == "" {
		ve.Add("base_url", "must not be empty")
	} else if !isValidAbsURL(c.BaseURL) {
		ve.Addf("base_url", "%q is not a valid absolute URL", c.BaseURL)
	}

	if len(c.Sources) == 0 {
		ve.Add("sources", "must list at least one directory")
	}
	for _, s := range c.Sources {
		checkDir(&ve, "sources", s)
	}

	if c.Output == "" {
		ve.Add("output", "must not be empty")
	} else if info, err := os.Stat(c.Output); err == nil && !info.IsDir() {
		ve.Addf("output", "%s is not a directory", c.Output)
	}

	if c.PagesFolder == "" {
		ve.Add("pages_folder", "must not be empty")
	} else if checkDir(&ve, "pages_folder", c.PagesFolder) {
		for _, name := range c.PagesOrder {
			checkFile(&ve, "pages_order", c.PagePath(name))
		}
	}
	if !slices.Contains(c.PagesOrder, IndexPage) {
		ve.Addf("pages_order", "must contain %s", IndexPage)
	}

	if c.Logo != "" {
		checkFile(&ve, "logo", c.Logo)
	}
	if c.Favicon != "" {
		checkFile(&ve, "favicon", c.Favicon)
	}

	if c.Output != "" {
		if within(c.Output, c.IndexPath) {
			ve.Addf("index_path", "%s must not be inside output", c.IndexPath)
		}
		// Output is emptied before a build.
		for _, s := range append([]string{c.PagesFolder}, c.Sources...) {
			if s != "" && within(c.Output, s) {
				ve.Addf("output", "%s must not contain input folder %s", c.Output, s)
			}
		}
	}

	return ve.Err()
}

func checkDir(ve *domainerr.ValidationError, field, p string) bool {
	info, err := os.Stat(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		ve.Addf(field, "folder not found: %s", p)
	case err != nil:
		ve.Addf(field, "%s: %v", p, err)
	case !info.IsDir():
		ve.Addf(field, "%s is not a directory", p)
	default:
		return true
	}
	return false
}

func checkFile(ve *domainerr.ValidationError, field, p string) {
	info, err := os.Stat(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
		ve.Addf(field, "file not found: %s", p)
	case err != nil:
		ve.Addf(field, "%s: %v", p, err)
	case info.IsDir():
		ve.Addf(field, "%s is a directory", p)
	}
}

func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
