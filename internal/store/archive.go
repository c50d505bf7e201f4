// internal/store/archive.go
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxCollisionSuffix = 100

// Archive stores the exact primary label program per printed record.
type Archive struct {
	dir string
	ext string
}

// NewArchive creates dir if needed. ext is used without a leading dot.
func NewArchive(dir, ext string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %v", ErrPersistence, dir, err)
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "zpl"
	}
	return &Archive{dir: dir, ext: ext}, nil
}

// Dir returns the archive directory.
func (a *Archive) Dir() string {
	return a.dir
}

// Save writes program to {serial}_{timestamp}.{ext} and returns the file name.
// Existing files are never overwritten.
func (a *Archive) Save(serial string, at time.Time, program []byte) (string, error) {
	if serial == "" {
		serial = "UNKNOWN"
	}
	base := fmt.Sprintf("%s_%s", sanitizeName(serial), at.Format("20060102_150405.000000"))
	base = strings.Replace(base, ".", "_", 1)

	for i := 0; i < maxCollisionSuffix; i++ {
		name := base + "." + a.ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d.%s", base, i, a.ext)
		}

		f, err := os.OpenFile(filepath.Join(a.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: create %s: %v", ErrPersistence, name, err)
		}

		_, werr := f.Write(program)
		cerr := f.Close()
		if werr != nil {
			return "", fmt.Errorf("%w: write %s: %v", ErrPersistence, name, werr)
		}
		if cerr != nil {
			return "", fmt.Errorf("%w: close %s: %v", ErrPersistence, name, cerr)
		}
		return name, nil
	}

	return "", fmt.Errorf("%w: no free archive name for %s", ErrPersistence, base)
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
