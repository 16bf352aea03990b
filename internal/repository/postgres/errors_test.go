package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/nglaszik/docwatch/internal/domain"
)

func TestIsPgTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("update: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"no rows", pgx.ErrNoRows, false},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPgTransientError(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("noop", nil))

	err := Wrap("insert node", &pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, err, domain.ErrTransient)
	var tse *domain.TransientStorageError
	if assert.ErrorAs(t, err, &tse) {
		assert.Equal(t, "insert node", tse.Op)
	}

	err = Wrap("insert node", &pgconn.PgError{Code: "23505"})
	assert.NotErrorIs(t, err, domain.ErrTransient)
	assert.True(t, IsPgDuplicateError(err))
	assert.Contains(t, err.Error(), "insert node")
}
