package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"
)

var (
	sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
)

// ValidateDir validates migration filenames + basic SQL headers on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateEmbedded runs the same checks over the migrations compiled into the binary.
func ValidateEmbedded() error {
	return ValidateFS(embedded, embeddedDir)
}

// ValidateFS checks that every .sql file under dir in fsys has a unique
// version prefix and both goose sections.
func ValidateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{} // version -> filename

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}

		version := m[1]
		if prev, ok := seen[version]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		full := path.Join(dir, name)
		b, err := fs.ReadFile(fsys, full)
		if err != nil {
			return fmt.Errorf("read file %q: %w", full, err)
		}

		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	return nil
}
