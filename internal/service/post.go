package service

import (
	"context"
	"log/slog"
	"time"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
)

// PostRepository is the subset of the post repository the post service needs.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	List(ctx context.Context, cursor *model.Cursor, limit int) (model.Slice[model.Post], error)
	IncrementViewCount(ctx context.Context, id string) error
	Update(ctx context.Context, id string, req model.UpdatePostRequest) error
	SoftDelete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
	IsLiked(ctx context.Context, postID, userID string) (bool, error)
}

// AuthorResolver maps a user id to its public author view.
type AuthorResolver interface {
	AuthorOf(ctx context.Context, userID string) (Author, error)
}

// PostServiceOptions groups dependencies for PostService.
type PostServiceOptions struct {
	Posts   PostRepository
	Authors AuthorResolver
	Extras  PostServiceExtras
}

// PostServiceExtras groups the optional collaborators of PostService.
type PostServiceExtras struct {
	Storage ports.ObjectStorage
	Logger  *slog.Logger
}

// PostService serves the post CRUD and like surface.
type PostService struct {
	posts   PostRepository
	authors AuthorResolver
	storage ports.ObjectStorage
	logger  *slog.Logger
}

// NewPostService constructs a new PostService.
func NewPostService(opts PostServiceOptions) *PostService {
	logger := opts.Extras.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		posts:   opts.Posts,
		authors: opts.Authors,
		storage: opts.Extras.Storage,
		logger:  logger,
	}
}

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// PostSummary is the list view of a post.
type PostSummary struct {
	PostID       string    `json:"postId"`
	Title        string    `json:"title"`
	ViewCount    int64     `json:"viewCount"`
	CommentCount int64     `json:"commentCount"`
	LikeCount    int64     `json:"likeCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       Author    `json:"author"`
}

// PostDetail is the full view of a post.
type PostDetail struct {
	PostSummary
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl"`
	IsLiked  bool    `json:"isLiked"`
	IsMine   bool    `json:"isMine"`
}

// PostPage is a cursor-paginated page of post summaries.
type PostPage struct {
	Items      []PostSummary `json:"items"`
	NextCursor *model.Cursor `json:"nextCursor"`
	HasNext    bool          `json:"hasNext"`
}

// Create validates and stores a new post.
func (s *PostService) Create(ctx context.Context, userID string, req model.CreatePostRequest) (*model.Post, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	post := &model.Post{
		ID:       NewID(),
		UserID:   userID,
		Title:    req.Title,
		Content:  req.Content,
		ImageKey: req.ImageKey,
		Status:   model.PostStatusActive,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns the full post view for the viewer and bumps the view counter.
// The counter bump is best effort and does not fail the read.
func (s *PostService) Get(ctx context.Context, postID string, viewer domainauth.Principal) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.posts.IncrementViewCount(ctx, postID); err != nil {
		s.logger.Warn("view count increment failed",
			slog.String("post_id", postID),
			slog.Any("error", err),
		)
	} else {
		post.ViewCount++
	}

	author, err := s.authors.AuthorOf(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	detail := &PostDetail{
		PostSummary: summarize(post, author),
		Content:     post.Content,
		IsMine:      post.UserID == viewer.UserID,
	}
	if post.ImageKey != nil && *post.ImageKey != "" && s.storage != nil {
		signed, presignErr := s.storage.PresignGet(ctx, *post.ImageKey)
		if presignErr == nil {
			detail.ImageURL = &signed.URL
		}
	}
	if viewer.UserID != "" {
		liked, likeErr := s.posts.IsLiked(ctx, postID, viewer.UserID)
		if likeErr != nil {
			return nil, likeErr
		}
		detail.IsLiked = liked
	}
	return detail, nil
}

// List returns a page of post summaries, newest first.
func (s *PostService) List(ctx context.Context, cursor *model.Cursor, limit int) (*PostPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err := s.posts.List(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	// Authors repeat heavily inside a page; resolve each one once.
	authors := map[string]Author{}
	out := &PostPage{
		Items:      make([]PostSummary, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasNext:    page.HasNext,
	}
	for i := range page.Items {
		post := &page.Items[i]
		author, ok := authors[post.UserID]
		if !ok {
			author, err = s.authors.AuthorOf(ctx, post.UserID)
			if err != nil {
				return nil, err
			}
			authors[post.UserID] = author
		}
		out.Items = append(out.Items, summarize(post, author))
	}
	return out, nil
}

// Update applies changes to a post owned by the caller.
func (s *PostService) Update(ctx context.Context, postID string, caller domainauth.Principal, req model.UpdatePostRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := s.authorize(ctx, postID, caller); err != nil {
		return err
	}
	return s.posts.Update(ctx, postID, req)
}

// Delete soft-deletes a post owned by the caller.
func (s *PostService) Delete(ctx context.Context, postID string, caller domainauth.Principal) error {
	if err := s.authorize(ctx, postID, caller); err != nil {
		return err
	}
	return s.posts.SoftDelete(ctx, postID)
}

// Like records the caller's like on the post.
func (s *PostService) Like(ctx context.Context, postID, userID string) error {
	return s.posts.Like(ctx, postID, userID)
}

// Unlike removes the caller's like. Unliking a post that was never liked
// is a no-op.
func (s *PostService) Unlike(ctx context.Context, postID, userID string) error {
	return s.posts.Unlike(ctx, postID, userID)
}

// authorize loads the post and checks the caller may modify it. Admins may
// modify any post.
func (s *PostService) authorize(ctx context.Context, postID string, caller domainauth.Principal) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != caller.UserID && !caller.IsAdmin() {
		return apperrors.Forbidden("not the author")
	}
	return nil
}

func summarize(post *model.Post, author Author) PostSummary {
	return PostSummary{
		PostID:       post.ID,
		Title:        post.Title,
		ViewCount:    post.ViewCount,
		CommentCount: post.CommentCount,
		LikeCount:    post.LikeCount,
		CreatedAt:    post.CreatedAt,
		Author:       author,
	}
}
