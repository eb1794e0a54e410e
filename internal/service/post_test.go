package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
)

// memoryPostRepo is an in-memory PostRepository for tests.
type memoryPostRepo struct {
	posts []model.Post
	likes map[string]map[string]bool
}

func newMemoryPostRepo() *memoryPostRepo {
	return &memoryPostRepo{likes: map[string]map[string]bool{}}
}

func (m *memoryPostRepo) Create(_ context.Context, post *model.Post) error {
	p := *post
	p.CreatedAt = time.Now()
	m.posts = append(m.posts, p)
	return nil
}

func (m *memoryPostRepo) find(id string) *model.Post {
	for i := range m.posts {
		if m.posts[i].ID == id && m.posts[i].Status == model.PostStatusActive {
			return &m.posts[i]
		}
	}
	return nil
}

func (m *memoryPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if p := m.find(id); p != nil {
		out := *p
		return &out, nil
	}
	return nil, apperrors.NotFound("post not found")
}

func (m *memoryPostRepo) List(_ context.Context, _ *model.Cursor, limit int) (model.Slice[model.Post], error) {
	var items []model.Post
	for i := len(m.posts) - 1; i >= 0; i-- {
		if m.posts[i].Status == model.PostStatusActive {
			items = append(items, m.posts[i])
		}
	}
	out := model.Slice[model.Post]{Items: items}
	if len(items) > limit {
		out.Items = items[:limit]
		out.HasNext = true
	}
	return out, nil
}

func (m *memoryPostRepo) IncrementViewCount(_ context.Context, id string) error {
	if p := m.find(id); p != nil {
		p.ViewCount++
	}
	return nil
}

func (m *memoryPostRepo) Update(_ context.Context, id string, req model.UpdatePostRequest) error {
	p := m.find(id)
	if p == nil {
		return apperrors.NotFound("post not found")
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	return nil
}

func (m *memoryPostRepo) SoftDelete(_ context.Context, id string) error {
	p := m.find(id)
	if p == nil {
		return apperrors.NotFound("post not found")
	}
	p.Status = model.PostStatusDeleted
	return nil
}

func (m *memoryPostRepo) Like(_ context.Context, postID, userID string) error {
	p := m.find(postID)
	if p == nil {
		return apperrors.NotFound("post not found")
	}
	if m.likes[postID] == nil {
		m.likes[postID] = map[string]bool{}
	}
	if m.likes[postID][userID] {
		return apperrors.Conflict("already liked")
	}
	m.likes[postID][userID] = true
	p.LikeCount++
	return nil
}

func (m *memoryPostRepo) Unlike(_ context.Context, postID, userID string) error {
	if m.likes[postID] != nil && m.likes[postID][userID] {
		delete(m.likes[postID], userID)
		if p := m.find(postID); p != nil {
			p.LikeCount--
		}
	}
	return nil
}

func (m *memoryPostRepo) IsLiked(_ context.Context, postID, userID string) (bool, error) {
	return m.likes[postID] != nil && m.likes[postID][userID], nil
}

func newPostFixture() (*PostService, *memoryPostRepo) {
	repo := newMemoryPostRepo()
	svc := NewPostService(PostServiceOptions{Posts: repo, Authors: staticAuthors{}})
	return svc, repo
}

func TestPostService_Create_Validation(t *testing.T) {
	svc, _ := newPostFixture()

	_, err := svc.Create(context.Background(), "user-1", model.CreatePostRequest{Title: "", Content: "body"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	post, err := svc.Create(context.Background(), "user-1", model.CreatePostRequest{Title: "hello", Content: "body"})
	require.NoError(t, err)
	assert.NotEmpty(t, post.ID)
	assert.Equal(t, model.PostStatusActive, post.Status)
}

func TestPostService_Get_BumpsViewCountAndFlags(t *testing.T) {
	svc, _ := newPostFixture()
	ctx := context.Background()
	post, err := svc.Create(ctx, "user-1", model.CreatePostRequest{Title: "hello", Content: "body"})
	require.NoError(t, err)
	require.NoError(t, svc.Like(ctx, post.ID, "user-2"))

	detail, err := svc.Get(ctx, post.ID, domainauth.Principal{UserID: "user-2", Role: domainauth.RoleUser})

	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.ViewCount)
	assert.True(t, detail.IsLiked)
	assert.False(t, detail.IsMine)
	assert.Equal(t, "nick-user-1", detail.Author.Nickname)

	detail, err = svc.Get(ctx, post.ID, domainauth.Principal{UserID: "user-1", Role: domainauth.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.ViewCount)
	assert.True(t, detail.IsMine)
	assert.False(t, detail.IsLiked)
}

func TestPostService_List_CapsLimit(t *testing.T) {
	svc, _ := newPostFixture()
	ctx := context.Background()
	for range 3 {
		_, err := svc.Create(ctx, "user-1", model.CreatePostRequest{Title: "t", Content: "c"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, nil, 2)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNext)
}

func TestPostService_UpdateDelete_Authorization(t *testing.T) {
	svc, _ := newPostFixture()
	ctx := context.Background()
	post, err := svc.Create(ctx, "user-1", model.CreatePostRequest{Title: "mine", Content: "body"})
	require.NoError(t, err)

	title := "hijacked"
	err = svc.Update(ctx, post.ID, domainauth.Principal{UserID: "user-2", Role: domainauth.RoleUser}, model.UpdatePostRequest{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	err = svc.Update(ctx, post.ID, domainauth.Principal{UserID: "user-1", Role: domainauth.RoleUser}, model.UpdatePostRequest{Title: &title})
	require.NoError(t, err)

	// Admins may remove any post.
	err = svc.Delete(ctx, post.ID, domainauth.Principal{UserID: "admin-1", Role: domainauth.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Get(ctx, post.ID, domainauth.Principal{})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPostService_LikeTwiceConflicts(t *testing.T) {
	svc, _ := newPostFixture()
	ctx := context.Background()
	post, err := svc.Create(ctx, "user-1", model.CreatePostRequest{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NoError(t, svc.Like(ctx, post.ID, "user-2"))
	err = svc.Like(ctx, post.ID, "user-2")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	// Unlike is idempotent.
	require.NoError(t, svc.Unlike(ctx, post.ID, "user-2"))
	require.NoError(t, svc.Unlike(ctx, post.ID, "user-2"))
}
