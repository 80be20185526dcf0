package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"leadparser-engine/internal/domain"
)

// Postgres backs the LeadStore with a shared database, for teams running
// the pipeline from more than one machine. ON CONFLICT DO NOTHING gives the
// same atomic first-write-wins semantics as the sqlite backend.
type Postgres struct {
	pool *sql.DB
}

func OpenPostgres(dsn string) (*Postgres, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(4)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	return p.pool.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS leads (
  id BIGSERIAL PRIMARY KEY,
  identity_key TEXT NOT NULL UNIQUE,
  niche TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  zip TEXT NOT NULL DEFAULT '',
  rating DOUBLE PRECISION NOT NULL DEFAULT 0,
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
CREATE TABLE IF NOT EXISTS sessions (
  id BIGSERIAL PRIMARY KEY,
  started_at TEXT NOT NULL,
  finished_at TEXT,
  niches TEXT NOT NULL DEFAULT '[]',
  total_scraped INTEGER NOT NULL DEFAULT 0,
  new_leads INTEGER NOT NULL DEFAULT 0,
  duplicates INTEGER NOT NULL DEFAULT 0,
  errors INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_leads_niche ON leads(niche);
CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(lead_score DESC);
`)
	return err
}

func (p *Postgres) Upsert(ctx context.Context, l domain.Lead) (UpsertResult, error) {
	rawB, _ := json.Marshal(l)

	res, err := p.pool.ExecContext(ctx, `
INSERT INTO leads(
  identity_key, niche, name, phone, address, city, state, zip,
  rating, review_count, website, gmb_link, source, date_added,
  lead_score, pitch_text, notes, call_status, follow_up_date, raw_json
) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT (identity_key) DO NOTHING;`,
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

func (p *Postgres) List(ctx context.Context, opts ListOpts) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE lead_score >= $1`
	args := []any{opts.MinScore}
	if opts.Niche != "" {
		query += ` AND niche = $2`
		args = append(args, opts.Niche)
	}
	query += ` ORDER BY lead_score DESC, identity_key ASC;`

	rows, err := p.pool.QueryContext(ctx, query, args...)
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

func (p *Postgres) Clear(ctx context.Context) error {
	_, err := p.pool.ExecContext(ctx, `DELETE FROM leads;`)
	return err
}

func (p *Postgres) Summary(ctx context.Context) ([]NicheSummary, error) {
	rows, err := p.pool.QueryContext(ctx, `
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

func (p *Postgres) StartSession(ctx context.Context, niches []string) (int64, error) {
	nichesB, _ := json.Marshal(niches)
	var id int64
	err := p.pool.QueryRowContext(ctx, `
INSERT INTO sessions(started_at, niches) VALUES($1, $2) RETURNING id;`,
		time.Now().UTC().Format(time.RFC3339), string(nichesB)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("start session: %w", err)
	}
	return id, nil
}

func (p *Postgres) EndSession(ctx context.Context, id int64, stats domain.RunStats) error {
	_, err := p.pool.ExecContext(ctx, `
UPDATE sessions
SET finished_at = $1, total_scraped = $2, new_leads = $3, duplicates = $4, errors = $5
WHERE id = $6;`,
		time.Now().UTC().Format(time.RFC3339),
		stats.Total, stats.New, stats.Duplicates, stats.Errors, id)
	return err
}
