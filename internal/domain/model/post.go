package model

import (
	"strings"
	"time"

	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostStatusActive  PostStatus = "ACTIVE"
	PostStatusDeleted PostStatus = "DELETED"
)

const postTitleMaxLen = 100

// Post is a community posting with denormalized interaction counters.
// Counters are maintained by the repositories so list queries never join.
type Post struct {
	ID           string     `json:"postId"       db:"id"`
	UserID       string     `json:"-"            db:"user_id"`
	Title        string     `json:"title"        db:"title"`
	Content      string     `json:"content"      db:"content"`
	ImageKey     *string    `json:"imageKey"     db:"image_key"`
	ViewCount    int64      `json:"viewCount"    db:"view_count"`
	CommentCount int64      `json:"commentCount" db:"comment_count"`
	LikeCount    int64      `json:"likeCount"    db:"like_count"`
	Status       PostStatus `json:"-"            db:"status"`
	CreatedAt    time.Time  `json:"createdAt"    db:"created_at"`
	UpdatedAt    *time.Time `json:"updatedAt"    db:"updated_at"`
}

// CreatePostRequest carries inputs for creating a post.
type CreatePostRequest struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageKey *string `json:"imageKey"`
}

// Validate checks the request fields.
func (r *CreatePostRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return apperrors.ValidationField("title", "title is required")
	}
	if len([]rune(title)) > postTitleMaxLen {
		return apperrors.ValidationField("title", "title must be at most 100 characters")
	}
	if strings.TrimSpace(r.Content) == "" {
		return apperrors.ValidationField("content", "content is required")
	}
	return nil
}

// UpdatePostRequest carries partial updates for a post. Nil fields are left
// unchanged.
type UpdatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	ImageKey *string `json:"imageKey"`
}

// Validate checks the provided fields.
func (r *UpdatePostRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return apperrors.ValidationField("title", "title must not be empty")
		}
		if len([]rune(title)) > postTitleMaxLen {
			return apperrors.ValidationField("title", "title must be at most 100 characters")
		}
	}
	if r.Content != nil && strings.TrimSpace(*r.Content) == "" {
		return apperrors.ValidationField("content", "content must not be empty")
	}
	return nil
}

// Cursor is an opaque pagination position: the (createdAt, id) pair of the
// last item of the previous page. Ordering is created_at DESC, id DESC.
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slice is a cursor-paginated page of items.
type Slice[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *Cursor `json:"nextCursor"`
	HasNext    bool    `json:"hasNext"`
}
