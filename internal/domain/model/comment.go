package model

import (
	"strings"
	"time"

	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// MaxCommentDepth bounds reply nesting. Depth 0 is a top-level comment.
const MaxCommentDepth = 3

const commentMaxLen = 1000

// Comment is a post comment. Replies share the CommentGroup of their
// top-level ancestor so a whole thread loads with one query.
type Comment struct {
	ID           string     `db:"id"`
	PostID       string     `db:"post_id"`
	UserID       string     `db:"user_id"`
	ParentID     *string    `db:"parent_id"`
	CommentGroup string     `db:"comment_group"`
	Depth        int        `db:"depth"`
	Content      string     `db:"content"`
	Deleted      bool       `db:"deleted"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
}

// CreateCommentRequest carries inputs for creating a comment or reply.
type CreateCommentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

// Validate checks the request fields.
func (r *CreateCommentRequest) Validate() error {
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return apperrors.ValidationField("content", "content is required")
	}
	if len([]rune(content)) > commentMaxLen {
		return apperrors.ValidationField("content", "content must be at most 1000 characters")
	}
	return nil
}

// UpdateCommentRequest carries the replacement content for a comment.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// Validate checks the request fields.
func (r *UpdateCommentRequest) Validate() error {
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return apperrors.ValidationField("content", "content is required")
	}
	if len([]rune(content)) > commentMaxLen {
		return apperrors.ValidationField("content", "content must be at most 1000 characters")
	}
	return nil
}
