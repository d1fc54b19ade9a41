package contributiondb

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/wordbloom/contrib-engine/app/shared"
)

// ErrAggregateNotFound is returned when a user has no aggregate row yet.
var ErrAggregateNotFound = errors.New("user aggregate not found")

// mapError classifies driver errors into the shared taxonomy. Unique
// violations become ConflictError; timeouts and connection trouble become
// TransientPersistenceError; everything else passes through.
func mapError(op, entity, key string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		return &shared.ConflictError{Entity: entity, Key: key}
	}

	if isTransient(err) {
		return &shared.TransientPersistenceError{Op: op, Err: err}
	}

	return err
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
