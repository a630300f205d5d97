package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"larkmd/internal/auth"
)

// CredentialStore persists the single credential row in SQLite.
type CredentialStore struct {
	db *DB
}

func NewCredentialStore(db *DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Load() (*auth.Credentials, error) {
	c := &auth.Credentials{}
	var tenantFetched, expires sql.NullTime
	err := s.db.Conn().QueryRow(
		`SELECT tenant_token, tenant_fetched_at, access_token, refresh_token, expires_at
		 FROM credentials WHERE id = 1`,
	).Scan(&c.TenantToken, &tenantFetched, &c.AccessToken, &c.RefreshToken, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if tenantFetched.Valid {
		c.TenantFetchedAt = tenantFetched.Time
	}
	if expires.Valid {
		c.ExpiresAt = expires.Time
	}
	return c, nil
}

func (s *CredentialStore) Save(c *auth.Credentials) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO credentials (id, tenant_token, tenant_fetched_at, access_token, refresh_token, expires_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			tenant_token = excluded.tenant_token,
			tenant_fetched_at = excluded.tenant_fetched_at,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at`,
		c.TenantToken, c.TenantFetchedAt, c.AccessToken, c.RefreshToken, c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) Clear() error {
	_, err := s.db.Conn().Exec(`DELETE FROM credentials WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
