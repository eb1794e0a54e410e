package service

import (
	"context"
	"html"
	"time"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// CommentRepository is the subset of the comment repository the comment
// service needs.
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id string) (*model.Comment, error)
	ListTopLevel(ctx context.Context, postID string, cursor *model.Cursor, limit int) (model.Slice[model.Comment], error)
	ListByGroups(ctx context.Context, postID string, groups []string) ([]model.Comment, error)
	Update(ctx context.Context, id, content string) error
	SoftDelete(ctx context.Context, id string) error
}

// CommentServiceOptions groups dependencies for CommentService.
type CommentServiceOptions struct {
	Comments CommentRepository
	Authors  AuthorResolver
}

// CommentService serves comment threads under posts.
type CommentService struct {
	comments CommentRepository
	authors  AuthorResolver
}

// NewCommentService constructs a new CommentService.
func NewCommentService(opts CommentServiceOptions) *CommentService {
	return &CommentService{comments: opts.Comments, authors: opts.Authors}
}

const deletedCommentPlaceholder = "(deleted)"

// CommentView is one node of a comment tree.
type CommentView struct {
	CommentID string         `json:"commentId"`
	ParentID  *string        `json:"parentId"`
	Content   string         `json:"content"`
	Deleted   bool           `json:"deleted"`
	Depth     int            `json:"depth"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    Author         `json:"author"`
	IsMine    bool           `json:"isMine"`
	Replies   []*CommentView `json:"replies"`
}

// CommentPage is a cursor-paginated page of top-level comments with their
// reply trees attached.
type CommentPage struct {
	Items      []*CommentView `json:"items"`
	NextCursor *model.Cursor  `json:"nextCursor"`
	HasNext    bool           `json:"hasNext"`
}

// Create stores a comment or reply. A reply inherits the thread group of
// its top-level ancestor and sits one level below its parent, capped at
// the maximum nesting depth. Content is HTML-escaped on write.
func (s *CommentService) Create(ctx context.Context, postID, userID string, req model.CreateCommentRequest) (*model.Comment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:      NewID(),
		PostID:  postID,
		UserID:  userID,
		Content: html.EscapeString(req.Content),
	}
	if req.ParentID == nil {
		// A top-level comment anchors its own thread group.
		comment.CommentGroup = comment.ID
	} else {
		parent, err := s.comments.GetByID(ctx, *req.ParentID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.ValidationField("parentId", "parent comment not found")
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperrors.ValidationField("parentId", "parent comment belongs to another post")
		}
		if parent.Deleted {
			return nil, apperrors.ValidationField("parentId", "cannot reply to a deleted comment")
		}
		if parent.Depth+1 > model.MaxCommentDepth {
			return nil, apperrors.ValidationField("parentId", "maximum reply depth reached")
		}
		comment.ParentID = req.ParentID
		comment.CommentGroup = parent.CommentGroup
		comment.Depth = parent.Depth + 1
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// List returns a page of the post's top-level comments with their reply
// trees, oldest first.
func (s *CommentService) List(ctx context.Context, postID string, cursor *model.Cursor, limit int, viewer domainauth.Principal) (*CommentPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err := s.comments.ListTopLevel(ctx, postID, cursor, limit)
	if err != nil {
		return nil, err
	}

	groups := make([]string, 0, len(page.Items))
	for i := range page.Items {
		groups = append(groups, page.Items[i].CommentGroup)
	}
	replies, err := s.comments.ListByGroups(ctx, postID, groups)
	if err != nil {
		return nil, err
	}

	authors := map[string]Author{}
	view := func(c *model.Comment) (*CommentView, error) {
		author, ok := authors[c.UserID]
		if !ok {
			author, err = s.authors.AuthorOf(ctx, c.UserID)
			if err != nil {
				return nil, err
			}
			authors[c.UserID] = author
		}
		v := &CommentView{
			CommentID: c.ID,
			ParentID:  c.ParentID,
			Content:   c.Content,
			Deleted:   c.Deleted,
			Depth:     c.Depth,
			CreatedAt: c.CreatedAt,
			Author:    author,
			IsMine:    viewer.UserID != "" && c.UserID == viewer.UserID,
		}
		if c.Deleted {
			// Deleted comments stay as tree anchors but hide their text.
			v.Content = deletedCommentPlaceholder
		}
		return v, nil
	}

	nodes := map[string]*CommentView{}
	out := &CommentPage{
		Items:      make([]*CommentView, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasNext:    page.HasNext,
	}
	for i := range page.Items {
		v, viewErr := view(&page.Items[i])
		if viewErr != nil {
			return nil, viewErr
		}
		nodes[v.CommentID] = v
		out.Items = append(out.Items, v)
	}
	// Replies arrive oldest first, so every parent is materialized before
	// its children.
	for i := range replies {
		v, viewErr := view(&replies[i])
		if viewErr != nil {
			return nil, viewErr
		}
		nodes[v.CommentID] = v
		if v.ParentID != nil {
			if parent, ok := nodes[*v.ParentID]; ok {
				parent.Replies = append(parent.Replies, v)
			}
		}
	}
	return out, nil
}

// Update replaces the content of the caller's comment.
func (s *CommentService) Update(ctx context.Context, commentID string, caller domainauth.Principal, req model.UpdateCommentRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.authorizeComment(ctx, commentID, caller); err != nil {
		return err
	}
	return s.comments.Update(ctx, commentID, html.EscapeString(req.Content))
}

// Delete soft-deletes the caller's comment. Its replies stay visible.
func (s *CommentService) Delete(ctx context.Context, commentID string, caller domainauth.Principal) error {
	if err := s.authorizeComment(ctx, commentID, caller); err != nil {
		return err
	}
	return s.comments.SoftDelete(ctx, commentID)
}

func (s *CommentService) authorizeComment(ctx context.Context, commentID string, caller domainauth.Principal) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Deleted {
		return apperrors.NotFound("comment not found")
	}
	if comment.UserID != caller.UserID && !caller.IsAdmin() {
		return apperrors.Forbidden("not the author")
	}
	return nil
}
