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

// memoryCommentRepo is an in-memory CommentRepository for tests.
type memoryCommentRepo struct {
	comments []model.Comment
}

func (m *memoryCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	c := *comment
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, c)
	return nil
}

func (m *memoryCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	for i := range m.comments {
		if m.comments[i].ID == id {
			c := m.comments[i]
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("comment not found")
}

func (m *memoryCommentRepo) ListTopLevel(_ context.Context, postID string, _ *model.Cursor, limit int) (model.Slice[model.Comment], error) {
	var items []model.Comment
	for _, c := range m.comments {
		if c.PostID == postID && c.Depth == 0 {
			items = append(items, c)
		}
	}
	out := model.Slice[model.Comment]{Items: items}
	if len(items) > limit {
		out.Items = items[:limit]
		out.HasNext = true
	}
	return out, nil
}

func (m *memoryCommentRepo) ListByGroups(_ context.Context, postID string, groups []string) ([]model.Comment, error) {
	inGroups := map[string]bool{}
	for _, g := range groups {
		inGroups[g] = true
	}
	var items []model.Comment
	for _, c := range m.comments {
		if c.PostID == postID && c.ParentID != nil && inGroups[c.CommentGroup] {
			items = append(items, c)
		}
	}
	return items, nil
}

func (m *memoryCommentRepo) Update(_ context.Context, id, content string) error {
	for i := range m.comments {
		if m.comments[i].ID == id && !m.comments[i].Deleted {
			m.comments[i].Content = content
			return nil
		}
	}
	return apperrors.NotFound("comment not found")
}

func (m *memoryCommentRepo) SoftDelete(_ context.Context, id string) error {
	for i := range m.comments {
		if m.comments[i].ID == id && !m.comments[i].Deleted {
			m.comments[i].Deleted = true
			return nil
		}
	}
	return apperrors.NotFound("comment not found")
}

// staticAuthors resolves every user to a fixed author view.
type staticAuthors struct{}

func (staticAuthors) AuthorOf(_ context.Context, userID string) (Author, error) {
	return Author{UserID: userID, Nickname: "nick-" + userID}, nil
}

func newCommentFixture() (*CommentService, *memoryCommentRepo) {
	repo := &memoryCommentRepo{}
	svc := NewCommentService(CommentServiceOptions{Comments: repo, Authors: staticAuthors{}})
	return svc, repo
}

func TestCommentService_Create_TopLevelAnchorsOwnGroup(t *testing.T) {
	svc, _ := newCommentFixture()

	c, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{Content: "hello"})

	require.NoError(t, err)
	assert.Equal(t, c.ID, c.CommentGroup)
	assert.Equal(t, 0, c.Depth)
	assert.Nil(t, c.ParentID)
}

func TestCommentService_Create_ReplyInheritsGroup(t *testing.T) {
	svc, _ := newCommentFixture()
	top, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{Content: "top"})
	require.NoError(t, err)

	reply, err := svc.Create(context.Background(), "post-1", "user-2", model.CreateCommentRequest{
		Content:  "reply",
		ParentID: &top.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, top.ID, reply.CommentGroup)
	assert.Equal(t, 1, reply.Depth)
}

func TestCommentService_Create_DepthCap(t *testing.T) {
	svc, _ := newCommentFixture()
	parentID := ""
	var last *model.Comment
	for i := 0; i <= model.MaxCommentDepth; i++ {
		req := model.CreateCommentRequest{Content: "nested"}
		if parentID != "" {
			req.ParentID = &parentID
		}
		c, err := svc.Create(context.Background(), "post-1", "user-1", req)
		require.NoError(t, err)
		parentID = c.ID
		last = c
	}
	require.Equal(t, model.MaxCommentDepth, last.Depth)

	_, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{
		Content:  "too deep",
		ParentID: &last.ID,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCommentService_Create_ParentChecks(t *testing.T) {
	svc, repo := newCommentFixture()
	top, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{Content: "top"})
	require.NoError(t, err)

	t.Run("parent in another post", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "post-2", "user-1", model.CreateCommentRequest{
			Content:  "crossing",
			ParentID: &top.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown parent", func(t *testing.T) {
		ghost := "no-such-comment"
		_, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{
			Content:  "orphan",
			ParentID: &ghost,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("deleted parent", func(t *testing.T) {
		require.NoError(t, repo.SoftDelete(context.Background(), top.ID))
		_, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{
			Content:  "necro",
			ParentID: &top.ID,
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCommentService_Create_EscapesHTML(t *testing.T) {
	svc, _ := newCommentFixture()

	c, err := svc.Create(context.Background(), "post-1", "user-1", model.CreateCommentRequest{
		Content: `<script>alert("x")</script>`,
	})

	require.NoError(t, err)
	assert.NotContains(t, c.Content, "<script>")
	assert.Contains(t, c.Content, "&lt;script&gt;")
}

func TestCommentService_List_BuildsReplyTrees(t *testing.T) {
	svc, _ := newCommentFixture()
	ctx := context.Background()

	top, err := svc.Create(ctx, "post-1", "user-1", model.CreateCommentRequest{Content: "top"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, "post-1", "user-2", model.CreateCommentRequest{Content: "reply", ParentID: &top.ID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "post-1", "user-1", model.CreateCommentRequest{Content: "nested", ParentID: &reply.ID})
	require.NoError(t, err)

	page, err := svc.List(ctx, "post-1", nil, 10, domainauth.Principal{UserID: "user-1"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	root := page.Items[0]
	assert.Equal(t, top.ID, root.CommentID)
	assert.True(t, root.IsMine)
	require.Len(t, root.Replies, 1)
	assert.Equal(t, reply.ID, root.Replies[0].CommentID)
	assert.False(t, root.Replies[0].IsMine)
	require.Len(t, root.Replies[0].Replies, 1)
	assert.Equal(t, "nested", root.Replies[0].Replies[0].Content)
}

func TestCommentService_List_MasksDeletedContent(t *testing.T) {
	svc, repo := newCommentFixture()
	ctx := context.Background()

	top, err := svc.Create(ctx, "post-1", "user-1", model.CreateCommentRequest{Content: "secret"})
	require.NoError(t, err)
	reply, err := svc.Create(ctx, "post-1", "user-2", model.CreateCommentRequest{Content: "still here", ParentID: &top.ID})
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, top.ID))

	page, err := svc.List(ctx, "post-1", nil, 10, domainauth.Principal{})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	root := page.Items[0]
	assert.True(t, root.Deleted)
	assert.Equal(t, deletedCommentPlaceholder, root.Content)
	// Replies under a deleted comment stay visible.
	require.Len(t, root.Replies, 1)
	assert.Equal(t, reply.ID, root.Replies[0].CommentID)
	assert.Equal(t, "still here", root.Replies[0].Content)
}

func TestCommentService_UpdateDelete_Authorization(t *testing.T) {
	svc, _ := newCommentFixture()
	ctx := context.Background()
	c, err := svc.Create(ctx, "post-1", "user-1", model.CreateCommentRequest{Content: "mine"})
	require.NoError(t, err)

	err = svc.Update(ctx, c.ID, domainauth.Principal{UserID: "user-2", Role: domainauth.RoleUser}, model.UpdateCommentRequest{Content: "hijack"})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Admins may moderate any comment.
	err = svc.Delete(ctx, c.ID, domainauth.Principal{UserID: "admin-1", Role: domainauth.RoleAdmin})
	require.NoError(t, err)

	// Deleting again reports not found.
	err = svc.Delete(ctx, c.ID, domainauth.Principal{UserID: "user-1", Role: domainauth.RoleUser})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
