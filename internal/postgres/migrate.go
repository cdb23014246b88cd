package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration that has not been recorded yet, in file name order
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to prepare the migrations table").
			Mark(ierr.ErrDatabase)
	}

	files, err := migrationFiles()
	if err != nil {
		return err
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read applied migrations").
			Mark(ierr.ErrDatabase)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, file := range files {
		if done[file] {
			db.logger.Debugw("skipping applied migration", "file", file)
			continue
		}

		content, err := migrationFS.ReadFile("migrations/" + file)
		if err != nil {
			return ierr.WithError(err).
				WithMessagef("read migration %s", file).
				Mark(ierr.ErrSystem)
		}

		db.logger.Infow("applying migration", "file", file)

		err = db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, file)
			return err
		})
		if err != nil {
			return ierr.WithError(err).
				WithMessagef("apply migration %s", file).
				WithHint("Failed to apply database migration").
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
