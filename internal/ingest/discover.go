package ingest

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// MarkdownExtensions are the file suffixes treated as Markdown sources.
var MarkdownExtensions = []string{".md", ".mkd", ".mkdn", ".mdown", ".markdown"}

type SourceFile struct {
	Path string
}

func IsMarkdown(name string) bool {
	return slices.Contains(MarkdownExtensions, strings.ToLower(filepath.Ext(name)))
}

// DiscoverSource walks every root in lexical order and returns the Markdown
// files found, leaving out the paths in skip.
func DiscoverSource(roots []string, skip []string) ([]SourceFile, error) {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[filepath.Clean(s)] = struct{}{}
	}

	var out []SourceFile
	seen := make(map[string]struct{})
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !IsMarkdown(d.Name()) {
				return nil
			}
			path = filepath.Clean(path)
			if _, ok := skipped[path]; ok {
				return nil
			}
			// Overlapping roots must not yield the same post twice.
			if _, ok := seen[path]; ok {
				return nil
			}
			seen[path] = struct{}{}
			out = append(out, SourceFile{Path: path})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
