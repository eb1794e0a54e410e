package data

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/data/pgxutil"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// CommentRepo provides database operations for comments.
type CommentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewCommentRepo creates a CommentRepo with the real clock.
func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{DB: db, timeProvider: RealTimeProvider{}}
}

const commentColumns = `id, post_id, user_id, parent_id, comment_group,
	depth, content, deleted, created_at, updated_at`

// Create inserts a comment and bumps the post's comment counter in one
// transaction. The caller has already resolved comment_group and depth.
func (r *CommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, execErr := tx.Exec(ctx, `
			UPDATE posts SET comment_count = comment_count + 1
			WHERE id = $1 AND status = $2`,
			comment.PostID, model.PostStatusActive,
		)
		if execErr != nil {
			return execErr
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		_, execErr = tx.Exec(ctx, `
			INSERT INTO comments (id, post_id, user_id, parent_id, comment_group, depth, content, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			comment.ID, comment.PostID, comment.UserID, comment.ParentID,
			comment.CommentGroup, comment.Depth, comment.Content,
			r.timeProvider.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return apperrors.NotFound("post not found")
		}
		return mapped
	}
	return nil
}

// GetByID retrieves a comment, deleted or not.
func (r *CommentRepo) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	var out model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		out, collectErr = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Comment])
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListTopLevel returns top-level comments of a post oldest first, cursor
// paginated. Deleted comments are included so reply trees under them stay
// reachable; callers mask their content.
func (r *CommentRepo) ListTopLevel(ctx context.Context, postID string, cursor *model.Cursor, limit int) (model.Slice[model.Comment], error) {
	var items []model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var (
			rows     pgx.Rows
			queryErr error
		)
		if cursor == nil {
			rows, queryErr = conn.Query(ctx, `
				SELECT `+commentColumns+` FROM comments
				WHERE post_id = $1 AND depth = 0
				ORDER BY created_at ASC, id ASC
				LIMIT $2`,
				postID, limit+1)
		} else {
			rows, queryErr = conn.Query(ctx, `
				SELECT `+commentColumns+` FROM comments
				WHERE post_id = $1 AND depth = 0 AND (created_at, id) > ($2, $3)
				ORDER BY created_at ASC, id ASC
				LIMIT $4`,
				postID, cursor.CreatedAt, cursor.ID, limit+1)
		}
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		items, collectErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.Comment])
		return collectErr
	})
	if err != nil {
		return model.Slice[model.Comment]{}, apperrors.MapDBError(err)
	}
	return paginate(items, limit, func(c model.Comment) model.Cursor {
		return model.Cursor{ID: c.ID, CreatedAt: c.CreatedAt}
	}), nil
}

// ListByGroups returns every comment belonging to the given reply groups,
// oldest first. Used to hydrate the reply trees under a page of top-level
// comments in a single query.
func (r *CommentRepo) ListByGroups(ctx context.Context, postID string, groups []string) ([]model.Comment, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	var items []model.Comment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, queryErr := conn.Query(ctx, `
			SELECT `+commentColumns+` FROM comments
			WHERE post_id = $1 AND comment_group = ANY($2) AND parent_id IS NOT NULL
			ORDER BY created_at ASC, id ASC`,
			postID, groups)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()
		var collectErr error
		items, collectErr = pgx.CollectRows(rows, pgx.RowToStructByName[model.Comment])
		return collectErr
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return items, nil
}

// Update replaces the content of a live comment.
func (r *CommentRepo) Update(ctx context.Context, id, content string) error {
	var updated int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, `
			UPDATE comments SET content = $1, updated_at = $2
			WHERE id = $3 AND NOT deleted`,
			content, r.timeProvider.Now().UTC(), id,
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
		return apperrors.NotFound("comment not found")
	}
	return nil
}

// SoftDelete marks the comment deleted and drops the post's comment counter
// in one transaction. Deleting twice is a not-found.
func (r *CommentRepo) SoftDelete(ctx context.Context, id string) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, func(tx pgx.Tx) error {
		var postID string
		scanErr := tx.QueryRow(ctx, `
			UPDATE comments SET deleted = TRUE, updated_at = $1
			WHERE id = $2 AND NOT deleted
			RETURNING post_id`,
			r.timeProvider.Now().UTC(), id,
		).Scan(&postID)
		if scanErr != nil {
			return scanErr
		}
		_, execErr := tx.Exec(ctx, `
			UPDATE posts SET comment_count = GREATEST(comment_count - 1, 0)
			WHERE id = $1`, postID)
		return execErr
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return apperrors.NotFound("comment not found")
		}
		return mapped
	}
	return nil
}
