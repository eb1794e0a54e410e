package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/data/pgxutil"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// PostRepo provides database operations for posts and post likes.
type PostRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPostRepo creates a PostRepo with the real clock.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db, timeProvider: RealTimeProvider{}}
}

const postColumns = `id, user_id, title, content, image_key, status,
	view_count, comment_count, like_count, created_at, updated_at`

// Create inserts a new post.
func (r *PostRepo) Create(ctx context.Context, post *model.Post) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO posts (id, user_id, title, content, image_key, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			post.ID, post.UserID, post.Title, post.Content, post.ImageKey,
			post.Status, r.timeProvider.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// GetByID retrieves an active post.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var out model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+postColumns+` FROM posts WHERE id = $1 AND status = $2`,
			id, model.PostStatusActive)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		out, collectErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Post])
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// List returns active posts newest first. A nil cursor starts from the top;
// otherwise rows strictly older than the cursor position are returned. One
// extra row is fetched to decide HasNext.
func (r *PostRepo) List(ctx context.Context, cursor *model.Cursor, limit int) (model.Slice[model.Post], error) {
	var items []model.Post
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var (
			rows     pgx.Rows
			queryErr error
		)
		if cursor == nil {
			rows, queryErr = conn.Query(ctx, `
				SELECT `+postColumns+` FROM posts
				WHERE status = $1
				ORDER BY created_at DESC, id DESC
				LIMIT $2`,
				model.PostStatusActive, limit+1)
		} else {
			rows, queryErr = conn.Query(ctx, `
				SELECT `+postColumns+` FROM posts
				WHERE status = $1 AND (created_at, id) < ($2, $3)
				ORDER BY created_at DESC, id DESC
				LIMIT $4`,
				model.PostStatusActive, cursor.CreatedAt, cursor.ID, limit+1)
		}
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		items, collectErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.Post])
		return collectErr
	})
	if err != nil {
		return model.Slice[model.Post]{}, apperrors.MapDBError(err)
	}
	return paginate(items, limit, func(p model.Post) model.Cursor {
		return model.Cursor{ID: p.ID, CreatedAt: p.CreatedAt}
	}), nil
}

// IncrementViewCount bumps the view counter. Missing or deleted posts are
// ignored; view tracking is best effort.
func (r *PostRepo) IncrementViewCount(ctx context.Context, id string) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx,
			`UPDATE posts SET view_count = view_count + 1 WHERE id = $1 AND status = $2`,
			id, model.PostStatusActive)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// Update applies the non-nil fields of the update to an active post.
func (r *PostRepo) Update(ctx context.Context, id string, req model.UpdatePostRequest) error {
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE posts SET
				title = COALESCE($1, title),
				content = COALESCE($2, content),
				image_key = COALESCE($3, image_key),
				updated_at = $4
			WHERE id = $5 AND status = $6`,
			req.Title, req.Content, req.ImageKey,
			r.timeProvider.Now().UTC(), id, model.PostStatusActive,
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
		return apperrors.NotFound("post not found")
	}
	return nil
}

// SoftDelete marks the post deleted. The row and its comments stay in place.
func (r *PostRepo) SoftDelete(ctx context.Context, id string) error {
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx,
			`UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			model.PostStatusDeleted, r.timeProvider.Now().UTC(), id, model.PostStatusActive,
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
		return apperrors.NotFound("post not found")
	}
	return nil
}

// Like records a like and bumps the counter in one transaction. Liking a
// post twice is a conflict.
func (r *PostRepo) Like(ctx context.Context, postID, userID string) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(ctx, `
			INSERT INTO post_likes (post_id, user_id, created_at)
			SELECT $1, $2, $3 WHERE EXISTS (
				SELECT 1 FROM posts WHERE id = $1 AND status = $4
			)`,
			postID, userID, r.timeProvider.Now().UTC(), model.PostStatusActive,
		)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, execErr = tx.Exec(ctx,
			`UPDATE posts SET like_count = like_count + 1 WHERE id = $1`, postID)
		return execErr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return apperrors.NotFound("post not found")
		}
		if apperrors.IsConflict(mapped) {
			return apperrors.Conflict("already liked")
		}
		return mapped
	}
	return nil
}

// Unlike removes a like and drops the counter. Removing a like that does
// not exist is a no-op.
func (r *PostRepo) Unlike(ctx context.Context, postID, userID string) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		_, execErr = tx.Exec(ctx, `
			UPDATE posts SET like_count = GREATEST(like_count - 1, 0)
			WHERE id = $1`, postID)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// IsLiked reports whether the user currently likes the post.
func (r *PostRepo) IsLiked(ctx context.Context, postID, userID string) (bool, error) {
	var liked bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`,
			postID, userID,
		).Scan(&liked)
	})
	if err != nil {
		return false, apperrors.MapDBError(err)
	}
	return liked, nil
}

// paginate trims the extra lookahead row and derives the next cursor.
func paginate[T any](items []T, limit int, cursorOf func(T) model.Cursor) model.Slice[T] {
	out := model.Slice[T]{Items: items}
	if len(items) > limit {
		out.Items = items[:limit]
		out.HasNext = true
	}
	if out.HasNext && len(out.Items) > 0 {
		c := cursorOf(out.Items[len(out.Items)-1])
		out.NextCursor = &c
	}
	return out
}
