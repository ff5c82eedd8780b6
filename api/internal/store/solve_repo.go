package store

import (
	"context"
	"database/sql"
	"time"
)

const schema = `
create table if not exists solves (
  id           bigserial primary key,
  created_at   timestamptz not null default now(),
  session      text not null default '',
  source       text not null default '',
  problem_text text not null default '',
  image_sha256 text not null default '',
  model        text not null default '',
  solution     text not null default '',
  failed       boolean not null default false
);
create index if not exists solves_created_at_idx on solves (created_at desc);
create index if not exists solves_session_idx on solves (session, created_at desc);`

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

type SolveRepo struct{ DB *sql.DB }

func NewSolveRepo(db *sql.DB) *SolveRepo { return &SolveRepo{DB: db} }

// SolveRow: одна запись истории решений.
type SolveRow struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Session     string    `json:"-"`
	Source      string    `json:"source"`
	ProblemText string    `json:"problem_text"`
	ImageSHA256 string    `json:"image_sha256,omitempty"`
	Model       string    `json:"model"`
	Solution    string    `json:"solution"`
	Failed      bool      `json:"failed"`
}

func (r *SolveRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schema)
	return err
}

func (r *SolveRepo) Insert(ctx context.Context, row SolveRow) (int64, error) {
	const q = `
insert into solves (session, source, problem_text, image_sha256, model, solution, failed)
values ($1,$2,$3,$4,$5,$6,$7)
returning id`
	var id int64
	err := r.DB.QueryRowContext(ctx, q,
		row.Session, row.Source, row.ProblemText, row.ImageSHA256, row.Model, row.Solution, row.Failed,
	).Scan(&id)
	return id, err
}

// Recent возвращает последние записи одной сессии, новые первыми.
func (r *SolveRepo) Recent(ctx context.Context, session string, limit int) ([]SolveRow, error) {
	const q = `
select id, created_at, session, source, problem_text, image_sha256, model, solution, failed
from solves
where session = $1
order by created_at desc, id desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, session, ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SolveRow, 0, 16)
	for rows.Next() {
		var s SolveRow
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Session, &s.Source, &s.ProblemText,
			&s.ImageSHA256, &s.Model, &s.Solution, &s.Failed); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClampLimit приводит limit к [1, maxRecentLimit], 0 и меньше: дефолт.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}
