package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nglaszik/docwatch/internal/domain"
)

// IsPgDuplicateError checks if error is a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return pgCode(err) == "23505"
}

// IsPgNoRowsError checks if error is a "no rows" error
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError checks if error is a foreign key violation
func IsPgForeignKeyError(err error) bool {
	return pgCode(err) == "23503"
}

// IsPgTransientError reports failures that may succeed on retry: lost or refused
// connections (class 08), serialization failures, deadlocks, admin shutdown and
// connection exhaustion.
func IsPgTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch code := pgCode(err); {
	case strings.HasPrefix(code, "08"):
		return true
	case code == "40001", code == "40P01", code == "57P01", code == "53300":
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// Wrap annotates a driver error with the failing operation. Transient failures become
// *domain.TransientStorageError so the service layer can retry them.
func Wrap(op string, err error) error {
	return classify(op, err)
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsPgTransientError(err) {
		return &domain.TransientStorageError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
