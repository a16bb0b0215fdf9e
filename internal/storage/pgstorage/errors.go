package pgstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kedr891/skin-portfolio/internal/domain"
)

const (
	_pgUniqueViolation      = "23505"
	_pgSerializationFailure = "40001"
	_pgDeadlockDetected     = "40P01"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// mapError - коды postgres в доменные ошибки; остальное как есть
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case _pgUniqueViolation, _pgSerializationFailure, _pgDeadlockDetected:
			return fmt.Errorf("%w: %s (%s)", domain.ErrConcurrencyConflict, pgErr.Message, pgErr.Code)
		}
	}

	return err
}
