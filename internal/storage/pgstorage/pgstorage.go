package pgstorage

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/kedr891/skin-portfolio/internal/domain"
	"github.com/kedr891/skin-portfolio/pkg/postgres"
)

var _ domain.Storage = (*Storage)(nil)

type Storage struct {
	pg      *postgres.Postgres
	builder squirrel.StatementBuilderType
}

// New - хранилище поверх пула; при старте применяет встроенные миграции
func New(ctx context.Context, pg *postgres.Postgres) (*Storage, error) {
	storage := &Storage{
		pg:      pg,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}

	if err := storage.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return storage, nil
}

func (s *Storage) Close() {
	if s == nil || s.pg == nil {
		return
	}
	s.pg.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if s.pg == nil || s.pg.Pool == nil {
		return fmt.Errorf("database connection is nil")
	}

	if err := s.pg.Ping(ctx); err != nil {
		return errors.Wrap(err, "health check ping failed")
	}

	return nil
}

// querier - общее у пула и транзакции
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Storage) execQuery(ctx context.Context, q execer, query squirrel.Sqlizer) (int64, error) {
	queryText, args, err := query.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "generate query error")
	}

	tag, err := q.Exec(ctx, queryText, args...)
	if err != nil {
		return 0, errors.Wrap(mapError(err), "exec query error")
	}

	return tag.RowsAffected(), nil
}

func (s *Storage) query(ctx context.Context, q querier, query squirrel.Sqlizer) (pgx.Rows, error) {
	queryText, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "generate query error")
	}

	rows, err := q.Query(ctx, queryText, args...)
	if err != nil {
		return nil, errors.Wrap(mapError(err), "rows query error")
	}

	return rows, nil
}

func (s *Storage) queryRow(ctx context.Context, q querier, query squirrel.Sqlizer, dest ...any) error {
	queryText, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "generate query error")
	}

	if err := q.QueryRow(ctx, queryText, args...).Scan(dest...); err != nil {
		return errors.Wrap(mapError(err), "row query error")
	}

	return nil
}
