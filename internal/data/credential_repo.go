package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/data/pgxutil"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// CredentialRepo provides database operations for password credential
// records (one per user and provider).
type CredentialRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCredentialRepo creates a CredentialRepo with the real clock.
func NewCredentialRepo(db *sql.DB) *CredentialRepo {
	return &CredentialRepo{DB: db, timeProvider: RealTimeProvider{}}
}

const credentialColumns = `id, user_id, email, provider, password_hash, created_at, updated_at`

// Create inserts a new credential record.
func (r *CredentialRepo) Create(ctx context.Context, cred *model.Credential) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO credentials (user_id, email, provider, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			cred.UserID, cred.Email, cred.Provider, cred.PasswordHash, r.timeProvider.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByEmail retrieves a credential by email.
func (r *CredentialRepo) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	return r.getOne(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE email = $1`, email)
}

// GetByUserAndProvider retrieves the credential for a user identity and
// provider. A user created via a non-password provider has no LOCAL row.
func (r *CredentialRepo) GetByUserAndProvider(
	ctx context.Context,
	userID string,
	provider model.ProviderType,
) (*model.Credential, error) {
	return r.getOne(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = $1 AND provider = $2`,
		userID, provider)
}

// UpdatePasswordHash replaces the stored hash for the user's provider row.
func (r *CredentialRepo) UpdatePasswordHash(
	ctx context.Context,
	userID string,
	provider model.ProviderType,
	hash string,
) error {
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE credentials SET password_hash = $1, updated_at = $2
			WHERE user_id = $3 AND provider = $4`,
			hash, r.timeProvider.Now().UTC(), userID, provider,
		)
		if execErr != nil {
			return execErr
		}
		updated = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	if updated == 0 {
		return apperrors.NotFound("credential not found")
	}
	return nil
}

// ExistsByEmail reports whether a credential with the email exists.
func (r *CredentialRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM credentials WHERE email = $1)`, email,
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", apperrors.MapDBError(err))
	}
	return exists, nil
}

func (r *CredentialRepo) getOne(ctx context.Context, query string, args ...any) (*model.Credential, error) {
	var out model.Credential
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		out, collectErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Credential])
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
