package masterdata

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/address-resolver/app/models"
)

// ErrVersionNotFound is returned when no snapshot exists for a version
var ErrVersionNotFound = errors.New("masterdata: snapshot version not found")

// VersionInfo describes one stored snapshot
type VersionInfo struct {
	Version   string    `json:"version"`
	Records   int       `json:"records"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// SQLiteStore keeps master snapshots keyed by version so a large dump only
// has to be parsed once
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database at dsn and applies the schema
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS master_versions (
	version    TEXT PRIMARY KEY,
	records    INTEGER NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS geo_records (
	version     TEXT NOT NULL REFERENCES master_versions(version),
	seq         INTEGER NOT NULL,
	subdistrict TEXT NOT NULL,
	district    TEXT NOT NULL,
	province    TEXT NOT NULL,
	postal_code TEXT NOT NULL,
	PRIMARY KEY (version, seq)
);

CREATE INDEX IF NOT EXISTS idx_master_versions_created_at ON master_versions(created_at);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores a snapshot of m. Saving a version that already exists is a no-op.
func (s *SQLiteStore) Save(ctx context.Context, m *Master, source string) error {
	if m.Version() == "" {
		return eris.New("sqlite: master has no version")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO master_versions (version, records, source, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(version) DO NOTHING`,
		m.Version(), m.Len(), source, time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "sqlite: insert version")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO geo_records (version, seq, subdistrict, district, province, postal_code) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	for i, r := range m.Records() {
		if _, err := stmt.ExecContext(ctx, m.Version(), i, r.Subdistrict, r.District, r.Province, r.PostalCode); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d", i)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// LoadVersion rebuilds the Master stored under version
func (s *SQLiteStore) LoadVersion(ctx context.Context, version string) (*Master, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM master_versions WHERE version = ?`, version).Scan(&exists)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup version")
	}
	if exists == 0 {
		return nil, ErrVersionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT subdistrict, district, province, postal_code FROM geo_records WHERE version = ? ORDER BY seq`, version)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query records")
	}
	defer rows.Close()

	var records []models.GeoRecord
	for rows.Next() {
		var r models.GeoRecord
		if err := rows.Scan(&r.Subdistrict, &r.District, &r.Province, &r.PostalCode); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate records")
	}
	return NewMaster(records, version), nil
}

// Latest rebuilds the most recently saved Master
func (s *SQLiteStore) Latest(ctx context.Context) (*Master, error) {
	versions, err := s.Versions(ctx)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrVersionNotFound
	}
	return s.LoadVersion(ctx, versions[0].Version)
}

// Versions lists stored snapshots, newest first
func (s *SQLiteStore) Versions(ctx context.Context) ([]VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, records, source, created_at FROM master_versions ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query versions")
	}
	defer rows.Close()

	var out []VersionInfo
	for rows.Next() {
		var v VersionInfo
		if err := rows.Scan(&v.Version, &v.Records, &v.Source, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan version")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate versions")
}
