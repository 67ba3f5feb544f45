package build

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"artblog/internal/app"
	"artblog/internal/domain/config"
	"artblog/internal/domain/content"
	domainerr "artblog/internal/domain/errors"
	"artblog/internal/domain/site"
	"artblog/internal/feed"
	"artblog/internal/index"
	"artblog/internal/ingest"
	"artblog/internal/metrics"
	"artblog/internal/render"
	"artblog/internal/verify"

	"github.com/otiai10/copy"
)

type Options struct {
	// PreserveOutput keeps the current contents of the output directory.
	PreserveOutput bool
	// Strict turns broken internal links into a build error.
	Strict bool
}

type Builder struct {
	Cfg      config.Config
	Opts     Options
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

type Result struct {
	Pages       int
	Posts       int
	Categories  int
	Written     int
	Unchanged   int
	BrokenLinks []verify.BrokenLink
}

// document is a page or post with its rendered Markdown.
type document struct {
	content.Post
	html string
}

func (b *Builder) recorder() metrics.Recorder {
	if b.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return b.Recorder
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func (b *Builder) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	b.recorder().ObserveStageDuration(name, time.Since(start))
	b.logger().Debug("Stage finished", "stage", name, "duration", time.Since(start), "error", err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (b *Builder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res, err := b.run(ctx)
	b.recorder().ObserveBuildDuration(time.Since(start))
	if err != nil {
		b.recorder().IncBuildOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	b.recorder().IncBuildOutcome(metrics.OutcomeSuccess)
	b.recorder().AddFilesWritten(res.Written)
	b.recorder().AddFilesUnchanged(res.Unchanged)
	b.logger().Info("Build complete",
		"pages", res.Pages,
		"posts", res.Posts,
		"categories", res.Categories,
		"written", res.Written,
		"unchanged", res.Unchanged,
		"duration", time.Since(start))
	return res, nil
}

func (b *Builder) run(ctx context.Context) (*Result, error) {
	cfg := b.Cfg
	log := b.logger()
	log.Info("Building site", "output", cfg.Output, "preserve_output", b.Opts.PreserveOutput)

	if err := b.stage("prepare", func() error {
		return prepareOutput(cfg.Output, b.Opts.PreserveOutput)
	}); err != nil {
		return nil, err
	}

	st, err := index.Open(index.OpenOptions{Path: cfg.IndexPath})
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer st.Close()

	out := &output{dir: cfg.Output, store: st}
	md := render.NewMarkdownRenderer()

	var pages, posts []document
	if err := b.stage("pages", func() error {
		pages, err = b.readPages(md)
		return err
	}); err != nil {
		return nil, err
	}
	if err := b.stage("posts", func() error {
		posts, err = b.readPosts(ctx, md)
		return err
	}); err != nil {
		return nil, err
	}

	metas := make([]content.Meta, 0, len(pages)+len(posts))
	for _, d := range append(append([]document{}, pages...), posts...) {
		metas = append(metas, d.Meta)
	}
	if err := b.stage("index", func() error {
		return st.Rebuild(metas)
	}); err != nil {
		return nil, err
	}

	rb := &app.RouteBuilder{Index: st}
	sections, err := rb.BuildCategorySections(cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	sv := render.SiteValues{
		SiteName:      cfg.SiteName,
		Author:        cfg.Author,
		BaseURL:       cfg.BaseURL,
		CopyrightYear: cfg.CopyrightYear,
	}
	if cfg.Favicon != "" {
		sv.FaviconURL = site.SiteImageRoute(cfg.Favicon).Slug
	}
	if cfg.Logo != "" {
		sv.LogoURL = site.SiteImageRoute(cfg.Logo).Slug
	}
	if len(posts) > 0 {
		sv.FeedURL = site.AtomRoute.Slug
	}
	layout, err := render.NewLayout(sv)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}

	pageMetas := make([]content.Meta, 0, len(pages))
	for _, p := range pages {
		pageMetas = append(pageMetas, p.Meta)
	}
	nav := rb.BuildNav(pageMetas)

	if err := b.stage("render", func() error {
		return b.writeDocuments(ctx, layout, out, nav, pages, posts, sections)
	}); err != nil {
		return nil, err
	}

	if err := b.stage("assets", func() error {
		return b.copyAssets(out, posts)
	}); err != nil {
		return nil, err
	}

	if err := b.stage("feeds", func() error {
		return b.writeFeeds(out, pages, posts, sections)
	}); err != nil {
		return nil, err
	}

	if err := st.PutFingerprints(out.fingerprints); err != nil {
		return nil, fmt.Errorf("record fingerprints: %w", err)
	}

	res := &Result{
		Pages:      len(pages),
		Posts:      len(posts),
		Categories: len(sections),
		Written:    out.written,
		Unchanged:  out.unchanged,
	}

	if err := b.stage("verify", func() error {
		broken, err := verify.Checker{
			OutputDir: cfg.Output,
			BaseURL:   cfg.BaseURL,
			Feeds:     []string{filepath.ToSlash(site.AtomRoute.OutPath)},
		}.Check()
		if err != nil {
			return err
		}
		res.BrokenLinks = broken
		for _, bl := range broken {
			log.Warn("Broken internal link", "link", bl.String())
		}
		if b.Opts.Strict && len(broken) > 0 {
			return fmt.Errorf("%w: %d found", domainerr.ErrBrokenLinks, len(broken))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return res, nil
}

// prepareOutput creates dir and, unless preserve is set, removes everything
// inside it while keeping the directory itself.
func prepareOutput(dir string, preserve bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if preserve {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) readPages(md *render.MarkdownRenderer) ([]document, error) {
	docs := make([]document, 0, len(b.Cfg.PagesOrder))
	for _, name := range b.Cfg.PagesOrder {
		p, err := ingest.ReadSource(b.Cfg.PagePath(name), content.KindPage)
		if err != nil {
			return nil, err
		}

		var res render.MarkdownResult
		if p.Meta.Slug == "/" {
			// The home page shows its body as an intro above the category
			// listing, without a title heading.
			if len(strings.TrimSpace(string(p.Body))) > 0 {
				res, err = md.Render(p.Body)
			}
		} else {
			res, err = md.RenderDocument(p.Meta.Title, p.Body)
		}
		if err != nil {
			return nil, fmt.Errorf("markdown render(%s): %w", p.Ref.SourcePath, err)
		}
		docs = append(docs, b.finish(p, res))
	}
	return docs, nil
}

func (b *Builder) readPosts(ctx context.Context, md *render.MarkdownRenderer) ([]document, error) {
	skip := make([]string, 0, len(b.Cfg.PagesOrder))
	for _, name := range b.Cfg.PagesOrder {
		skip = append(skip, b.Cfg.PagePath(name))
	}
	posts, err := ingest.Ingest(ctx, b.Cfg.Sources, skip)
	if err != nil {
		return nil, err
	}

	docs := make([]document, 0, len(posts))
	for _, p := range posts {
		res, err := md.RenderDocument(p.Meta.Title, p.Body)
		if err != nil {
			return nil, fmt.Errorf("markdown render(%s): %w", p.Ref.SourcePath, err)
		}
		docs = append(docs, b.finish(p, res))
	}
	return docs, nil
}

// finish fills the fields derived from the rendered body and the site.
func (b *Builder) finish(p content.Post, res render.MarkdownResult) document {
	p.Meta.Excerpt = res.Excerpt
	p.Meta.FirstImage = res.FirstImage
	if p.Meta.Canonical == "" {
		p.Meta.Canonical = b.Cfg.BaseURL + p.Meta.Slug
	}
	return document{Post: p, html: string(res.HTML)}
}

func (b *Builder) pageTitle(title string) string {
	return title + b.Cfg.PageTitlePostfix
}

func (b *Builder) metaTags(m content.Meta, kind string) string {
	return render.MetaTags(render.MetaInfo{
		Title:       m.Title,
		Description: m.Description(),
		ImageURL:    absoluteURL(b.Cfg.BaseURL, m.Slug, m.Cover()),
		URL:         m.Canonical,
		SiteName:    b.Cfg.SiteName,
		Type:        kind,
	})
}

func (b *Builder) writeDocuments(
	ctx context.Context,
	layout render.Renderer,
	out *output,
	nav []render.NavItem,
	pages, posts []document,
	sections []app.CategorySection,
) error {
	listing := make([]render.CategorySection, 0, len(sections))
	for _, s := range sections {
		listing = append(listing, s.Section)
	}

	for _, p := range pages {
		body := p.html
		kind := "article"
		if p.Meta.Slug == "/" {
			body += render.CategoryListing(listing)
			kind = "website"
		}
		page := render.PageView{
			Title:     b.pageTitle(p.Meta.Title),
			Canonical: p.Meta.Canonical,
			Meta:      b.metaTags(p.Meta, kind),
			Nav:       render.NavBar(nav, p.Meta.Slug),
			Content:   body,
		}
		if err := b.renderTo(ctx, layout, out, p.Meta.OutFile, page); err != nil {
			return err
		}
	}

	postNav := render.NavBar(nav, "")
	for _, p := range posts {
		page := render.PageView{
			Title:     b.pageTitle(p.Meta.Title),
			Canonical: p.Meta.Canonical,
			Meta:      b.metaTags(p.Meta, "article"),
			Nav:       postNav,
			Content:   p.html,
		}
		if err := b.renderTo(ctx, layout, out, p.Meta.OutFile, page); err != nil {
			return err
		}
	}

	for _, s := range sections {
		title := render.TitleCase(s.Section.Name)
		page := render.PageView{
			Title:     b.pageTitle(title),
			Canonical: s.Route.URL(b.Cfg.BaseURL),
			Meta: render.MetaTags(render.MetaInfo{
				Title:    title,
				URL:      s.Route.URL(b.Cfg.BaseURL),
				SiteName: b.Cfg.SiteName,
				Type:     "website",
			}),
			Nav:     postNav,
			Content: render.CategoryPage(s.Section),
		}
		if err := b.renderTo(ctx, layout, out, s.Route.OutPath, page); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) renderTo(ctx context.Context, layout render.Renderer, out *output, rel string, page render.PageView) error {
	htmlBytes, err := layout.RenderPage(ctx, page)
	if err != nil {
		return fmt.Errorf("render %s: %w", rel, err)
	}
	return out.write(rel, htmlBytes)
}

func (b *Builder) copyAssets(out *output, posts []document) error {
	cfg := b.Cfg

	css, err := render.Stylesheet()
	if err != nil {
		return err
	}
	if err := out.write(site.StyleRoute.OutPath, css); err != nil {
		return err
	}

	for _, img := range []string{cfg.Logo, cfg.Favicon} {
		if img == "" {
			continue
		}
		dst := filepath.Join(cfg.Output, site.SiteImageRoute(img).OutPath)
		if err := copy.Copy(img, dst); err != nil {
			return fmt.Errorf("copy %s: %w", img, err)
		}
	}

	// Page assets keep their place relative to the page HTML at the root.
	err = copy.Copy(cfg.PagesFolder, cfg.Output, copy.Options{
		Skip: func(info os.FileInfo, src, _ string) (bool, error) {
			if info.IsDir() {
				return src != cfg.PagesFolder && strings.HasPrefix(info.Name(), "."), nil
			}
			return ingest.IsMarkdown(src), nil
		},
	})
	if err != nil {
		return fmt.Errorf("copy pages folder: %w", err)
	}

	for _, p := range posts {
		if err := copySiblings(p.Ref.SourcePath, filepath.Join(cfg.Output, filepath.Dir(p.Meta.OutFile))); err != nil {
			return err
		}
	}
	return nil
}

// copySiblings copies the regular non-Markdown files next to a post source
// into the post's output directory. Subdirectories are not descended.
func copySiblings(source, dstDir string) error {
	srcDir := filepath.Dir(source)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || ingest.IsMarkdown(e.Name()) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		src := filepath.Join(srcDir, e.Name())
		if err := copy.Copy(src, filepath.Join(dstDir, e.Name())); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
	}
	return nil
}

func (b *Builder) writeFeeds(out *output, pages, posts []document, sections []app.CategorySection) error {
	cfg := b.Cfg

	var urls []feed.URL
	for _, d := range append(append([]document{}, pages...), posts...) {
		// A post may point its canonical URL at another site.
		urls = append(urls, feed.URL{Loc: cfg.BaseURL + d.Meta.Slug, LastMod: d.Meta.Date})
	}
	for _, s := range sections {
		urls = append(urls, feed.URL{Loc: s.Route.URL(cfg.BaseURL)})
	}
	sitemap, err := feed.Sitemap(urls)
	if err != nil {
		return fmt.Errorf("sitemap: %w", err)
	}
	if err := out.write(site.SitemapRoute.OutPath, sitemap); err != nil {
		return err
	}
	if err := out.write(site.RobotsRoute.OutPath, feed.Robots(site.SitemapRoute.URL(cfg.BaseURL))); err != nil {
		return err
	}

	if len(posts) == 0 {
		return nil
	}
	metas := make([]content.Meta, 0, len(posts))
	bodies := make(map[string]string, len(posts))
	for _, p := range posts {
		metas = append(metas, p.Meta)
		bodies[p.Meta.Slug] = p.html
	}
	title := cfg.SiteName
	if title == "" {
		title = cfg.Author
	}
	atom, err := feed.Atom(feed.AtomOptions{
		Title:   title,
		BaseURL: cfg.BaseURL,
		Author:  cfg.Author,
		Updated: cfg.Now,
	}, metas, bodies)
	if err != nil {
		return fmt.Errorf("atom feed: %w", err)
	}
	return out.write(site.AtomRoute.OutPath, atom)
}

// absoluteURL resolves an image reference found on the page at slug.
func absoluteURL(baseURL, slug, ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return baseURL + ref
	}
	dir := slug
	if !strings.HasSuffix(dir, "/") {
		dir = path.Dir(dir)
	}
	return baseURL + path.Join(dir, ref)
}
