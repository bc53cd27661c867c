package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type migration struct {
	version string
	path    string
}

// Migrate applies every *.sql file in dir that has not been applied yet, in
// lexical order, each in its own transaction. It returns the versions applied.
func Migrate(ctx context.Context, db *pgxpool.Pool, dir string) ([]string, error) {
	if _, err := db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		   version    TEXT PRIMARY KEY,
		   applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		 )`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	done, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	pending, err := pendingMigrations(dir, done)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(pending))
	for _, m := range pending {
		sql, err := os.ReadFile(m.path)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", m.version, err)
		}
		err = pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		applied = append(applied, m.version)
	}
	return applied, nil
}

func pendingMigrations(dir string, done []string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	seen := make(map[string]bool, len(done))
	for _, v := range done {
		seen[v] = true
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		version := strings.TrimSuffix(e.Name(), ".sql")
		if seen[version] {
			continue
		}
		out = append(out, migration{version: version, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
