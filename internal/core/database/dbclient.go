package db

import (
	"context"
	"time"

	"github.com/markdave123-py/Synopsis/internal/core"
)

// DbClient is the Postgres-backed session store. It only ever sees sealed
// token values.
type DbClient interface {
	core.SessionStore

	// DeleteSessionsBefore removes sessions created before cutoff and
	// returns how many went.
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
