package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sso_sessions (
	id VARCHAR(64) PRIMARY KEY,
	subject VARCHAR(255) NOT NULL,
	issuer TEXT NOT NULL,
	user_id VARCHAR(255) NOT NULL,
	username VARCHAR(255),
	email VARCHAR(255),
	full_name VARCHAR(255),
	groups TEXT[],
	access_token TEXT NOT NULL,
	token_type VARCHAR(32),
	token_expiry TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sso_sessions_expires_at ON sso_sessions(expires_at);
`

// PostgresStore persists sessions in the sso_sessions table
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore creates a store on db, creating the table if needed
func NewPostgresStore(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if _, err := db.ExecContext(ctx, createSessionsTable); err != nil {
		return nil, fmt.Errorf("failed to ensure sso_sessions table: %w", err)
	}

	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) Backend() string {
	return "postgres"
}

// Get retrieves an unexpired session
func (s *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess        Session
		username    sql.NullString
		email       sql.NullString
		fullName    sql.NullString
		tokenType   sql.NullString
		tokenExpiry sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, subject, issuer, user_id, username, email, full_name, groups,
			access_token, token_type, token_expiry, created_at, expires_at
		FROM sso_sessions
		WHERE id = $1 AND expires_at > $2
	`, id, s.now()).Scan(
		&sess.ID, &sess.Subject, &sess.Issuer, &sess.UserID,
		&username, &email, &fullName, pq.Array(&sess.Groups),
		&sess.AccessToken, &tokenType, &tokenExpiry,
		&sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("postgres get failed: %w", err)
	}

	sess.Username = username.String
	sess.Email = email.String
	sess.FullName = fullName.String
	sess.TokenType = tokenType.String
	if tokenExpiry.Valid {
		sess.TokenExpiry = tokenExpiry.Time
	}

	return &sess, nil
}

// Save inserts or replaces a session, expiring it after ttl
func (s *PostgresStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl)

	var tokenExpiry sql.NullTime
	if !sess.TokenExpiry.IsZero() {
		tokenExpiry = sql.NullTime{Time: sess.TokenExpiry, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sso_sessions (
			id, subject, issuer, user_id, username, email, full_name, groups,
			access_token, token_type, token_expiry, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			subject = EXCLUDED.subject,
			issuer = EXCLUDED.issuer,
			user_id = EXCLUDED.user_id,
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			groups = EXCLUDED.groups,
			access_token = EXCLUDED.access_token,
			token_type = EXCLUDED.token_type,
			token_expiry = EXCLUDED.token_expiry,
			expires_at = EXCLUDED.expires_at
	`, sess.ID, sess.Subject, sess.Issuer, sess.UserID, sess.Username, sess.Email,
		sess.FullName, pq.Array(sess.Groups), sess.AccessToken, sess.TokenType,
		tokenExpiry, sess.CreatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("postgres save failed: %w", err)
	}
	return nil
}

// Delete removes a session
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sso_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("postgres delete failed: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired sessions and returns how many were removed
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sso_sessions WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("postgres purge failed: %w", err)
	}
	return result.RowsAffected()
}
