package pg

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

type panicStringer struct{}

func (panicStringer) String() string { panic("incomplete model") }

type staticStringer string

func (s staticStringer) String() string { return string(s) }

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad conn", err: driver.ErrBadConn, want: true},
		{name: "wrapped bad conn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), want: true},
		{name: "conn done", err: sql.ErrConnDone, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "no rows", err: sql.ErrNoRows, want: false},
		{name: "statement error", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsConnectionError(tc.err))
		})
	}
}

func TestGetPgErrorDetails(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key",
		TableName:      "videos",
		ConstraintName: "videos_filename_key",
	})

	details := GetPgErrorDetails(err, staticStringer(`INSERT INTO "videos"`))
	assert.Equal(t, "INSERT INTO videos", details["query"])
	assert.Equal(t, "23505", details["pg.code"])
	assert.Equal(t, "videos", details["pg.table"])
	assert.Equal(t, "videos_filename_key", details["pg.constraint"])

	details = GetPgErrorDetails(errors.New("boom"), panicStringer{})
	assert.Empty(t, details)
}
