package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geoflow/geoflow/internal/domain"
)

// translateError maps Postgres constraint failures onto the typed domain
// errors so callers never have to inspect SQLSTATE codes.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return domain.UniqueViolation{Constraint: pgErr.ConstraintName}
	case "23503":
		return domain.ForeignKeyViolation{Constraint: pgErr.ConstraintName}
	case "23514":
		return domain.CheckViolation{Constraint: pgErr.ConstraintName}
	}
	return err
}
