package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"artblog/internal/domain/build"
	"artblog/internal/domain/content"
	domainerr "artblog/internal/domain/errors"

	bolt "go.etcd.io/bbolt"
)

// Rebuild replaces the content index with metas, in the given order. A slug
// seen twice aborts the rebuild and leaves the previous index untouched.
func (s *Store) Rebuild(metas []content.Meta) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range contentBuckets {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}

		metaB, err := tx.CreateBucket(bMeta)
		if err != nil {
			return err
		}
		orderB, err := tx.CreateBucket(bIdxOrder)
		if err != nil {
			return err
		}
		idxCatB, err := tx.CreateBucket(bIdxCat)
		if err != nil {
			return err
		}
		catOrderB, err := tx.CreateBucket(bCatOrder)
		if err != nil {
			return err
		}

		var catSeq uint64
		for i, m := range metas {
			seq := uint64(i)
			if strings.TrimSpace(m.Slug) == "" {
				return fmt.Errorf("index: %q has no slug", m.Title)
			}
			if metaB.Get([]byte(m.Slug)) != nil {
				return fmt.Errorf("%w: %s (%q)", domainerr.ErrDuplicateSlug, m.Slug, m.Title)
			}
			mb, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := metaB.Put([]byte(m.Slug), mb); err != nil {
				return err
			}
			if err := orderB.Put(seqKey(seq), []byte(m.Slug)); err != nil {
				return err
			}

			cat := strings.TrimSpace(m.Category)
			if m.IsPage() || cat == "" {
				continue
			}
			sb := idxCatB.Bucket([]byte(cat))
			if sb == nil {
				if sb, err = idxCatB.CreateBucket([]byte(cat)); err != nil {
					return err
				}
				if err := catOrderB.Put(seqKey(catSeq), []byte(cat)); err != nil {
					return err
				}
				catSeq++
			}
			if err := sb.Put(makeSeqSlugKey(seq, m.Slug), []byte{1}); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutFingerprints records the hashes of files written to the output.
func (s *Store) PutFingerprints(fps []build.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bOutHash)
		if err != nil {
			return err
		}
		for _, fp := range fps {
			if err := b.Put([]byte(fp.Path), []byte(fp.Hash)); err != nil {
				return err
			}
		}
		return nil
	})
}
