package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"artblog/internal/domain/content"
	domainerr "artblog/internal/domain/errors"
	"artblog/internal/domain/site"
)

// ReadSource parses one Markdown file into a page or post with its route
// already resolved.
func ReadSource(path string, kind content.Kind) (content.Post, error) {
	st, err := os.Stat(path)
	if err != nil {
		return content.Post{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return content.Post{}, err
	}

	fm, body, err := ParseFrontMatter(raw)
	if err != nil {
		return content.Post{}, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return content.Post{}, fmt.Errorf("%s: %w", path, domainerr.ErrBadTitle)
	}

	meta := content.Meta{
		Title:     fm.Title,
		Category:  fm.Category,
		Summary:   fm.Summary,
		Image:     fm.Image,
		Tags:      fm.Tags,
		Canonical: fm.Canonical,
		Kind:      kind,
		Date:      ParseTime(fm.Date),
	}
	if meta.Date.IsZero() {
		meta.Date = st.ModTime()
	}

	var route site.Route
	switch kind {
	case content.KindPage:
		route = site.PageRoute(filepath.Base(path))
		// The home page and pages are listed in the navigation bar only.
		meta.Category = ""
		meta.Canonical = ""
	default:
		slug, err := ResolveSlug(fm)
		if err != nil {
			return content.Post{}, fmt.Errorf("%s: %w", path, err)
		}
		route = site.PostRoute(slug)
	}
	if err := route.Validate(); err != nil {
		return content.Post{}, fmt.Errorf("%s: %w", path, err)
	}
	meta.Slug = route.Slug
	meta.OutFile = route.OutPath
	meta.Normalize()

	return content.Post{
		Meta: meta,
		Ref: content.BodyRef{
			SourcePath: path,
			ModTime:    st.ModTime(),
		},
		Body: body,
	}, nil
}

type result struct {
	i    int
	post content.Post
	err  error
}

// Ingest reads every post under roots except the files in skip. Posts are
// returned in discovery order; the first failure aborts the run.
func Ingest(ctx context.Context, roots []string, skip []string) ([]content.Post, error) {
	files, err := DiscoverSource(roots, skip)
	if err != nil {
		return nil, err
	}

	workers := min(runtime.GOMAXPROCS(0), max(len(files), 1))
	jobs := make(chan int)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, err := ReadSource(files[i].Path, content.KindPost)
				results <- result{i: i, post: p, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]content.Post, len(files))
	var firstErr error
	for r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
		}
		out[r.i] = r.post
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
