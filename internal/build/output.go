package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	dombuild "artblog/internal/domain/build"
	"artblog/internal/index"
)

// output writes generated files and skips those whose bytes match the hash
// recorded by the previous build.
type output struct {
	dir   string
	store *index.Store

	fingerprints []dombuild.Fingerprint
	written      int
	unchanged    int
}

func (o *output) write(rel string, data []byte) error {
	if !filepath.IsLocal(rel) {
		return fmt.Errorf("write %s: path escapes the output directory", rel)
	}
	full := filepath.Join(o.dir, rel)
	fp := dombuild.NewFingerprint(filepath.ToSlash(rel), data)

	prev, err := o.store.Fingerprint(fp.Path)
	switch {
	case err == nil && prev.Matches(fp):
		if _, statErr := os.Stat(full); statErr == nil {
			o.unchanged++
			o.fingerprints = append(o.fingerprints, fp)
			return nil
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return statErr
		}
	case err != nil && !errors.Is(err, index.ErrNotFound):
		return fmt.Errorf("lookup fingerprint %s: %w", fp.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	o.fingerprints = append(o.fingerprints, fp)
	o.written++
	return nil
}
