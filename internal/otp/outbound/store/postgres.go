package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
)

// MigrationFS holds the SQL migrations for the postgres driver under "migrations".
//
//go:embed migrations/*.sql
var MigrationFS embed.FS

// MigrationDir is the directory inside MigrationFS.
const MigrationDir = "migrations"

const (
	queryUpsert = `INSERT INTO otp_records (email, purpose, id, code_hash, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email, purpose) DO UPDATE
SET id = EXCLUDED.id, code_hash = EXCLUDED.code_hash, created_at = EXCLUDED.created_at`

	queryFind = `SELECT id, email, purpose, code_hash, created_at
FROM otp_records WHERE email = $1 AND purpose = $2`

	queryDelete  = `DELETE FROM otp_records WHERE email = $1 AND purpose = $2`
	queryConsume = `DELETE FROM otp_records WHERE email = $1 AND purpose = $2 AND id = $3`
	querySweep   = `DELETE FROM otp_records WHERE created_at < $1`
)

// Postgres keeps records in the otp_records table. Reaping is done by Sweep.
type Postgres struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewPostgres(conn *pgxpool.Pool, ins instrument.Instrumentation) *Postgres {
	return &Postgres{conn: conn, ins: ins}
}

func (s *Postgres) mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}
	return err
}

func (s *Postgres) Upsert(ctx context.Context, rec entity.OTPRecord) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Postgres.Upsert")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryUpsert, rec.Email, rec.Purpose, rec.ID, rec.CodeHash, rec.CreatedAt.UTC())
	return err
}

func (s *Postgres) Find(ctx context.Context, email, purpose string) (_ *entity.OTPRecord, err error) {
	ctx, span := startSpan(ctx, s.ins, "Postgres.Find")
	defer func() { endSpan(span, err) }()

	var rec entity.OTPRecord
	err = s.conn.QueryRow(ctx, queryFind, email, purpose).
		Scan(&rec.ID, &rec.Email, &rec.Purpose, &rec.CodeHash, &rec.CreatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	return &rec, nil
}

func (s *Postgres) Delete(ctx context.Context, email, purpose string) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Postgres.Delete")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryDelete, email, purpose)
	return err
}

func (s *Postgres) Consume(ctx context.Context, email, purpose string, id int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "Postgres.Consume")
	defer func() { endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsume, email, purpose, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Postgres) Sweep(ctx context.Context, olderThan time.Time) (_ int64, err error) {
	ctx, span := startSpan(ctx, s.ins, "Postgres.Sweep")
	defer func() { endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, querySweep, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
