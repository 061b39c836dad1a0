package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors to AppError instances.
// It handles the common patterns seen from the primary store:
// - pgx.ErrNoRows → NotFound
// - Unique constraint violations → Conflict
// - Foreign key violations → ForeignKey
// - Check / NOT NULL violations → Validation
// - Connection-class failures → Unavailable (retryable by the caller)
// - Context timeouts/cancellations → Timeout/Canceled
//
// If the error is not a recognized database error, it returns the original error.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "database operation timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "database operation canceled", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr, err)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError, cause error) error {
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return &AppError{Code: ErrCodeConflict, Message: "duplicate record", Cause: cause}
	case pgErr.Code == pgerrcode.ForeignKeyViolation:
		return &AppError{Code: ErrCodeForeignKey, Message: "related record missing", Cause: cause}
	case pgErr.Code == pgerrcode.CheckViolation,
		pgErr.Code == pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "invalid record data", Cause: cause}
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgErr.Code == pgerrcode.TooManyConnections,
		pgErr.Code == pgerrcode.CannotConnectNow:
		return &AppError{Code: ErrCodeUnavailable, Message: "database unavailable", Cause: cause}
	case pgErr.Code == pgerrcode.SerializationFailure,
		pgErr.Code == pgerrcode.DeadlockDetected:
		return &AppError{Code: ErrCodeUnavailable, Message: "transient database contention", Cause: cause}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "database error", Cause: cause}
	}
}
