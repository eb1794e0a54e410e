package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/data/pgxutil"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// UserRepo provides database operations for user entities.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a UserRepo with the real clock.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

const userColumns = `id, nickname, profile_image_key, role, status, created_at, updated_at`

// Create inserts a new user.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO users (id, nickname, profile_image_key, role, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			user.ID, user.Nickname, user.ProfileImageKey, user.Role, user.Status,
			r.timeProvider.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByID retrieves a user by identity, including soft-deleted rows; the
// caller decides how a DELETED status is treated.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		out, collectErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ExistsByNickname reports whether any user holds the nickname.
func (r *UserRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1)`, nickname,
		).Scan(&exists)
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return exists, nil
}

// UpdateProfile applies the non-nil fields of the update. A no-op update is
// not an error.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, nickname, profileImageKey *string) error {
	if nickname == nil && profileImageKey == nil {
		return nil
	}
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE users SET
				nickname = COALESCE($1, nickname),
				profile_image_key = COALESCE($2, profile_image_key),
				updated_at = $3
			WHERE id = $4`,
			nickname, profileImageKey, r.timeProvider.Now().UTC(), id,
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
		return apperrors.NotFound("user not found")
	}
	return nil
}

// UpdateStatus moves the user to the given lifecycle status.
func (r *UserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx,
			`UPDATE users SET status = $1, updated_at = $2 WHERE id = $3`,
			status, r.timeProvider.Now().UTC(), id,
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
		return apperrors.NotFound("user not found")
	}
	return nil
}
