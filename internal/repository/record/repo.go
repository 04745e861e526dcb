package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/vecsync/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL DEFAULT '',
	description         TEXT NOT NULL DEFAULT '',
	portal_id           TEXT NOT NULL DEFAULT '',
	department          TEXT NOT NULL DEFAULT '',
	categories          TEXT NOT NULL DEFAULT '[]',
	column_fields       TEXT NOT NULL DEFAULT '[]',
	is_test             INTEGER NOT NULL DEFAULT 0,
	metadata_updated_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_datasets_portal ON datasets(portal_id);
CREATE INDEX IF NOT EXISTS idx_datasets_updated ON datasets(metadata_updated_at);
`

const selectColumns = `id, name, description, portal_id, department, categories, column_fields, is_test, metadata_updated_at`

// Repo is the SQLite-backed record store.
type Repo struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Repo, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open record store: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	r := New(sqlDB)
	if err := r.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Close closes the database.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates the datasets table if missing.
func (r *Repo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate record store: %w", err)
	}
	return nil
}

// Upsert inserts or replaces records in one transaction.
func (r *Repo) Upsert(ctx context.Context, records ...domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO datasets (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			portal_id = excluded.portal_id,
			department = excluded.department,
			categories = excluded.categories,
			column_fields = excluded.column_fields,
			is_test = excluded.is_test,
			metadata_updated_at = excluded.metadata_updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		cats, err := json.Marshal(nonNil(rec.Categories))
		if err != nil {
			return fmt.Errorf("encode categories %s: %w", rec.ID, err)
		}
		cols, err := json.Marshal(nonNil(rec.ColumnFields))
		if err != nil {
			return fmt.Errorf("encode columns %s: %w", rec.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.Name, rec.Description, rec.PortalID, rec.Department,
			string(cats), string(cols), rec.IsTest, rec.MetadataUpdatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountAll counts records updated at or after watermark.
func (r *Repo) CountAll(ctx context.Context, watermark time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets WHERE metadata_updated_at >= ?`,
		watermark.UnixMilli(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// CountForPortals counts records of the given portals updated at or after watermark.
func (r *Repo) CountForPortals(ctx context.Context, portalIDs []string, watermark time.Time) (int, error) {
	if len(portalIDs) == 0 {
		return 0, nil
	}
	in, args := inClause(portalIDs)
	args = append(args, watermark.UnixMilli())

	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM datasets WHERE portal_id IN (`+in+`) AND metadata_updated_at >= ?`,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records for portals: %w", err)
	}
	return n, nil
}

// FindPage returns one page of records in id order. Empty portalIDs means all portals.
func (r *Repo) FindPage(
	ctx context.Context, limit, offset int, portalIDs []string, watermark time.Time,
) ([]domain.Record, error) {
	var (
		where = []string{"metadata_updated_at >= ?"}
		args  = []any{watermark.UnixMilli()}
	)
	if len(portalIDs) > 0 {
		in, inArgs := inClause(portalIDs)
		where = append(where, "portal_id IN ("+in+")")
		args = append(args, inArgs...)
	}
	args = append(args, limit, offset)

	q := `SELECT ` + selectColumns + ` FROM datasets WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY id LIMIT ? OFFSET ?`
	return r.query(ctx, q, args...)
}

// FindByIDs returns the records with the given ids, in no particular order.
// Unknown ids are skipped.
func (r *Repo) FindByIDs(ctx context.Context, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	return r.query(ctx, `SELECT `+selectColumns+` FROM datasets WHERE id IN (`+in+`)`, args...)
}

// Get returns one record or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domain.Record, error) {
	recs, err := r.query(ctx, `SELECT `+selectColumns+` FROM datasets WHERE id = ?`, id)
	if err != nil {
		return domain.Record{}, err
	}
	if len(recs) == 0 {
		return domain.Record{}, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return recs[0], nil
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (domain.Record, error) {
	var (
		rec        domain.Record
		cats, cols string
		updatedMs  int64
	)
	err := rows.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.PortalID, &rec.Department,
		&cats, &cols, &rec.IsTest, &updatedMs,
	)
	if err != nil {
		return domain.Record{}, fmt.Errorf("scan record: %w", err)
	}
	if err := decodeList(cats, &rec.Categories); err != nil {
		return domain.Record{}, fmt.Errorf("decode categories %s: %w", rec.ID, err)
	}
	if err := decodeList(cols, &rec.ColumnFields); err != nil {
		return domain.Record{}, fmt.Errorf("decode columns %s: %w", rec.ID, err)
	}
	rec.MetadataUpdatedAt = time.UnixMilli(updatedMs).UTC()
	return rec, nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("invalid JSON list: %w", err)
	}
	return nil
}

func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(values)), ","), args
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
