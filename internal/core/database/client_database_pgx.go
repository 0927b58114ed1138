package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

var _ DbClient = (*DatabaseClient)(nil)

// NewDatabaseClient opens a pgx-backed pool, pings it and bootstraps the
// session schema.
func NewDatabaseClient(ctx context.Context, databaseURL string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) Save(ctx context.Context, rec *models.SessionRecord) error {
	if rec == nil {
		return errors.New("nil session")
	}
	const q = `
		INSERT INTO sessions (id, access_token, refresh_token, token_type, expiry, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		ON CONFLICT (id) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type    = EXCLUDED.token_type,
			expiry        = EXCLUDED.expiry
	`
	var created sql.NullTime
	if !rec.CreatedAt.IsZero() {
		created = sql.NullTime{Time: rec.CreatedAt, Valid: true}
	}
	_, err := c.db.ExecContext(ctx, q,
		rec.ID, rec.AccessToken, rec.RefreshToken, rec.TokenType, rec.Expiry, created)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *DatabaseClient) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	const q = `
		SELECT id, access_token, refresh_token, token_type, expiry, created_at
		FROM sessions WHERE id = $1
	`
	var rec models.SessionRecord
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.AccessToken, &rec.RefreshToken, &rec.TokenType, &rec.Expiry, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &rec, nil
}

func (c *DatabaseClient) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (c *DatabaseClient) DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
