package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkgotcode/vietmarket/internal/apperr"
)

// ErrInvalidDSN is returned by Config.Validate when DSN is empty.
var ErrInvalidDSN = errors.New("database: DSN is required")

// classify maps a pgx error to the apperr taxonomy: integrity-constraint
// violations (class 23) are non-retryable IntegrityErrors, everything else
// coming off the wire is a retryable StorageTransient
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23" {
		return apperr.New(apperr.KindIntegrity, op, err)
	}
	return apperr.New(apperr.KindStorageTransient, op, err)
}
