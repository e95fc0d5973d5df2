package migrate

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/example/usercli/internal/db"
)

//go:embed sqlite/*.sql postgres/*.sql
var fs embed.FS

// tables in drop order
var tables = []string{"users", "schema_migrations"}

// CreateAll creates every table that does not exist yet. Safe to call on an
// already initialized store.
func CreateAll(ctx context.Context, q db.Querier) error {
	dir := string(q.Dialect())
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s migrations: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := q.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return err
	}

	for _, f := range files {
		var applied bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=?)`, f).Scan(&applied); err != nil {
			return err
		}
		if applied {
			continue
		}

		b, err := fs.ReadFile(path.Join(dir, f))
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := q.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES (?)`, f); err != nil {
			return err
		}
	}

	return nil
}

func DropAll(ctx context.Context, q db.Querier) error {
	for _, t := range tables {
		if _, err := q.Exec(ctx, `DROP TABLE IF EXISTS `+t); err != nil {
			return fmt.Errorf("drop %s: %w", t, err)
		}
	}
	return nil
}
