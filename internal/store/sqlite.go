package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"leadparser-engine/internal/domain"
)

// SQLite is the default LeadStore backend. A single-writer pool plus a
// UNIQUE index on identity_key makes Upsert an atomic test-and-set.
type SQLite struct {
	pool *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates the
// schema.
func OpenSQLite(path string) (*SQLite, error) {
	// modernc sqlite DSN form: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(1) // sqlite wants a single writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	s := &SQLite{pool: pool}
	if err := s.migrate(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

func (s *SQLite) migrate() error {
	tx, err := s.pool.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS leads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  identity_key TEXT NOT NULL UNIQUE,
  niche TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  zip TEXT NOT NULL DEFAULT '',
  rating REAL NOT NULL DEFAULT 0,
  review_count INTEGER NOT NULL DEFAULT 0,
  website TEXT NOT NULL DEFAULT '',
  gmb_link TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  date_added TEXT NOT NULL,
  lead_score INTEGER NOT NULL DEFAULT 0,
  pitch_text TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  call_status TEXT NOT NULL DEFAULT '',
  follow_up_date TEXT NOT NULL DEFAULT '',
  raw_json TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  started_at TEXT NOT NULL,
  finished_at TEXT,
  niches TEXT NOT NULL DEFAULT '[]',
  total_scraped INTEGER NOT NULL DEFAULT 0,
  new_leads INTEGER NOT NULL DEFAULT 0,
  duplicates INTEGER NOT NULL DEFAULT 0,
  errors INTEGER NOT NULL DEFAULT 0
);
`); err != nil {
		return err
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_leads_niche ON leads(niche);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(lead_score DESC);`,
	} {
		if _, err := tx.Exec(idx); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Upsert(ctx context.Context, l domain.Lead) (UpsertResult, error) {
	rawB, _ := json.Marshal(l)

	res, err := s.pool.ExecContext(ctx, `
INSERT OR IGNORE INTO leads(
  identity_key, niche, name, phone, address, city, state, zip,
  rating, review_count, website, gmb_link, source, date_added,
  lead_score, pitch_text, notes, call_status, follow_up_date, raw_json
) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?);`,
		l.IdentityKey, l.Niche, l.Name, l.Phone, l.Address, l.City, l.State, l.Zip,
		l.Rating, l.ReviewCount, l.Website, l.GMBLink, l.Source, l.DateAdded,
		l.LeadScore, l.PitchText, l.Notes, l.CallStatus, l.FollowUpDate, string(rawB),
	)
	if err != nil {
		return Duplicate, fmt.Errorf("insert lead: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return Duplicate, nil
	}
	return Inserted, nil
}

const leadColumns = `identity_key, niche, name, phone, address, city, state, zip,
rating, review_count, website, gmb_link, source, date_added,
lead_score, pitch_text, notes, call_status, follow_up_date`

func (s *SQLite) List(ctx context.Context, opts ListOpts) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE lead_score >= ?`
	args := []any{opts.MinScore}
	if opts.Niche != "" {
		query += ` AND niche = ?`
		args = append(args, opts.Niche)
	}
	query += ` ORDER BY lead_score DESC, identity_key ASC;`

	rows, err := s.pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(
			&l.IdentityKey, &l.Niche, &l.Name, &l.Phone, &l.Address, &l.City, &l.State, &l.Zip,
			&l.Rating, &l.ReviewCount, &l.Website, &l.GMBLink, &l.Source, &l.DateAdded,
			&l.LeadScore, &l.PitchText, &l.Notes, &l.CallStatus, &l.FollowUpDate,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.pool.ExecContext(ctx, `DELETE FROM leads;`)
	return err
}

func (s *SQLite) Summary(ctx context.Context) ([]NicheSummary, error) {
	rows, err := s.pool.QueryContext(ctx, `
SELECT niche, COUNT(*), AVG(lead_score)
FROM leads
GROUP BY niche
ORDER BY niche ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NicheSummary
	for rows.Next() {
		var n NicheSummary
		if err := rows.Scan(&n.Niche, &n.Count, &n.AvgScore); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLite) StartSession(ctx context.Context, niches []string) (int64, error) {
	nichesB, _ := json.Marshal(niches)
	res, err := s.pool.ExecContext(ctx, `
INSERT INTO sessions(started_at, niches) VALUES(?, ?);`,
		time.Now().UTC().Format(time.RFC3339), string(nichesB))
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) EndSession(ctx context.Context, id int64, stats domain.RunStats) error {
	_, err := s.pool.ExecContext(ctx, `
UPDATE sessions
SET finished_at = ?, total_scraped = ?, new_leads = ?, duplicates = ?, errors = ?
WHERE id = ?;`,
		time.Now().UTC().Format(time.RFC3339),
		stats.Total, stats.New, stats.Duplicates, stats.Errors, id)
	return err
}
