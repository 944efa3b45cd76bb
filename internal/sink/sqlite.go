package sink

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/agenthands/recordlink/internal/core/model"
	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite opens a database file with the pure-Go sqlite driver. The
// caller owns the handle.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return db, nil
}

// SQLiteSink replaces Table inside one transaction: rows go to a staging
// table that is renamed over the old one.
type SQLiteSink struct {
	DB    *sql.DB
	Table string
}

func (s SQLiteSink) WriteMapping(ctx context.Context, entries []model.MappingEntry, width int) error {
	if !tableName.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q", s.Table)
	}
	staging := s.Table + "_staging"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %q`, staging),
		fmt.Sprintf(`CREATE TABLE %q (duplicate_id CHAR(%d) NOT NULL, canonical_id CHAR(%d) NOT NULL)`, staging, width, width),
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("prepare staging table: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (duplicate_id, canonical_id) VALUES (?, ?)`, staging))
	if err != nil {
		return err
	}
	defer ins.Close()
	for _, e := range entries {
		if _, err := ins.ExecContext(ctx, e.Duplicate, e.Canonical); err != nil {
			return fmt.Errorf("insert %s -> %s: %w", e.Duplicate, e.Canonical, err)
		}
	}

	stmts = []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %q`, s.Table),
		fmt.Sprintf(`ALTER TABLE %q RENAME TO %q`, staging, s.Table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q (duplicate_id, canonical_id)`, "idx_"+s.Table+"_map", s.Table),
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("swap mapping table: %w", err)
		}
	}
	return tx.Commit()
}

// ReadMapping returns the rows of table ordered by canonical, then duplicate.
func ReadMapping(ctx context.Context, db *sql.DB, table string) ([]model.MappingEntry, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT duplicate_id, canonical_id FROM %q ORDER BY canonical_id, duplicate_id`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MappingEntry
	for rows.Next() {
		var e model.MappingEntry
		if err := rows.Scan(&e.Duplicate, &e.Canonical); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
