package index

import (
	"encoding/json"
	"errors"
	"strings"

	"artblog/internal/domain/build"
	"artblog/internal/domain/content"

	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("not found")

// CategoryGroup is one category with its posts in build order.
type CategoryGroup struct {
	Name  string
	Posts []content.Meta
}

func (s *Store) GetMeta(slug string) (content.Meta, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return content.Meta{}, ErrNotFound
	}
	var m content.Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bMeta)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(slug))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &m)
	})
	return m, err
}

// List returns every indexed page or post of kind in build order. An empty
// kind returns both.
func (s *Store) List(kind content.Kind) ([]content.Meta, error) {
	var out []content.Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		orderB := tx.Bucket(bIdxOrder)
		metaB := tx.Bucket(bMeta)
		if orderB == nil || metaB == nil {
			return nil
		}
		return orderB.ForEach(func(_, slug []byte) error {
			m, err := decodeMeta(metaB, slug)
			if err != nil || m == nil {
				return err
			}
			if kind == "" || m.Kind == kind {
				out = append(out, *m)
			}
			return nil
		})
	})
	return out, err
}

// CategoryNames returns categories in order of first appearance.
func (s *Store) CategoryNames() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bCatOrder)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			out = append(out, string(v))
			return nil
		})
	})
	return out, err
}

func (s *Store) ListByCategory(cat string) ([]content.Meta, error) {
	cat = strings.TrimSpace(cat)
	if cat == "" {
		return nil, nil
	}

	var out []content.Meta
	err := s.db.View(func(tx *bolt.Tx) error {
		parent := tx.Bucket(bIdxCat)
		metaB := tx.Bucket(bMeta)
		if parent == nil || metaB == nil {
			return nil
		}
		sb := parent.Bucket([]byte(cat))
		if sb == nil {
			return nil
		}

		cur := sb.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			slug := slugFromSeqSlugKey(k)
			if slug == "" {
				continue
			}
			m, err := decodeMeta(metaB, []byte(slug))
			if err != nil {
				return err
			}
			if m != nil {
				out = append(out, *m)
			}
		}
		return nil
	})
	return out, err
}

// Categories groups posts by category. Names in preferred (compared without
// case) come first in that order; the rest follow in first-seen order.
func (s *Store) Categories(preferred []string) ([]CategoryGroup, error) {
	names, err := s.CategoryNames()
	if err != nil {
		return nil, err
	}

	ordered := make([]string, 0, len(names))
	used := make(map[string]bool, len(names))
	for _, p := range preferred {
		for _, n := range names {
			if !used[n] && strings.EqualFold(n, p) {
				ordered = append(ordered, n)
				used[n] = true
			}
		}
	}
	for _, n := range names {
		if !used[n] {
			ordered = append(ordered, n)
		}
	}

	groups := make([]CategoryGroup, 0, len(ordered))
	for _, n := range ordered {
		posts, err := s.ListByCategory(n)
		if err != nil {
			return nil, err
		}
		if len(posts) == 0 {
			continue
		}
		groups = append(groups, CategoryGroup{Name: n, Posts: posts})
	}
	return groups, nil
}

// Fingerprint returns the recorded hash of an output file, or ErrNotFound.
func (s *Store) Fingerprint(path string) (build.Fingerprint, error) {
	var fp build.Fingerprint
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bOutHash)
		if b == nil {
			return ErrNotFound
		}
		v := b.Get([]byte(path))
		if v == nil {
			return ErrNotFound
		}
		fp = build.Fingerprint{Path: path, Hash: string(v)}
		return nil
	})
	return fp, err
}

func decodeMeta(metaB *bolt.Bucket, slug []byte) (*content.Meta, error) {
	v := metaB.Get(slug)
	if v == nil {
		return nil, nil
	}
	var m content.Meta
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
