package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique violation with column",
			err: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "request_id",
			},
			wantCode:  ErrCodeConflict,
			wantField: "request_id",
		},
		{
			name: "unique violation from detail",
			err: &pgconn.PgError{
				Code:   pgerrcode.UniqueViolation,
				Detail: `Key (request_id)=(abc) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "request_id",
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "other pg error",
			err:      &pgconn.PgError{Code: pgerrcode.DeadlockDetected},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(tt.err)
			if got := GetCode(err); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("MapDBError() field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestMapDBError_Passthrough(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Errorf("MapDBError(nil) should be nil")
	}
	plain := fmt.Errorf("not a db error")
	if got := MapDBError(plain); got != plain {
		t.Errorf("MapDBError(plain) = %v, want original", got)
	}
}
