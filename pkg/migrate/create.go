package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s: statements must run on both postgres and sqlite
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql using the current UTC time.
func CreateSQLMigration(dir string, name string) (string, error) {
	return createSQLMigrationAt(dir, name, time.Now().UTC())
}

func createSQLMigrationAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := migrationSlug(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*_"+safe+".sql"))
	if err != nil {
		return "", fmt.Errorf("scan %q: %w", dir, err)
	}
	if len(existing) > 0 {
		return "", fmt.Errorf("migration %q already exists: %s", safe, existing[0])
	}

	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", at.Format(versionLayout), safe))
	if err := os.WriteFile(fullpath, []byte(fmt.Sprintf(sqlTemplate, safe)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func migrationSlug(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
