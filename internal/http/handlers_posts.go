package httpx

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	apperrors "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/errors"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
)

// PostServiceInterface defines the interface for post operations.
type PostServiceInterface interface {
	Create(ctx context.Context, userID string, req model.CreatePostRequest) (*model.Post, error)
	Get(ctx context.Context, postID string, viewer domainauth.Principal) (*service.PostDetail, error)
	List(ctx context.Context, cursor *model.Cursor, limit int) (*service.PostPage, error)
	Update(ctx context.Context, postID string, caller domainauth.Principal, req model.UpdatePostRequest) error
	Delete(ctx context.Context, postID string, caller domainauth.Principal) error
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
}

// PostHandlers provides HTTP handlers for the /posts surface.
type PostHandlers struct {
	Svc PostServiceInterface
}

// decodeCursor parses the opaque base64 cursor query parameter. An absent
// parameter means the first page.
func decodeCursor(r *http.Request) (*model.Cursor, error) {
	raw := r.URL.Query().Get("cursor")
	if raw == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, apperrors.ValidationField("cursor", "malformed cursor")
	}
	var c model.Cursor
	if err := json.Unmarshal(data, &c); err != nil || c.ID == "" {
		return nil, apperrors.ValidationField("cursor", "malformed cursor")
	}
	return &c, nil
}

// encodeCursor renders a cursor for the next page request.
func encodeCursor(c *model.Cursor) *string {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil
	}
	s := base64.RawURLEncoding.EncodeToString(data)
	return &s
}

func pageSize(r *http.Request) int {
	if raw := r.URL.Query().Get("size"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}

// page is the wire shape of a cursor-paginated listing.
type page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
	HasNext    bool    `json:"hasNext"`
}

// Create handles POST /posts.
func (h *PostHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	post, err := h.Svc.Create(r.Context(), principal.UserID, req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"postId": post.ID})
}

// List handles GET /posts?cursor=&size=.
func (h *PostHandlers) List(w http.ResponseWriter, r *http.Request) {
	cursor, err := decodeCursor(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	result, err := h.Svc.List(r.Context(), cursor, pageSize(r))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page[service.PostSummary]{
		Items:      result.Items,
		NextCursor: encodeCursor(result.NextCursor),
		HasNext:    result.HasNext,
	})
}

// Get handles GET /posts/{id}.
func (h *PostHandlers) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.Svc.Get(r.Context(), r.PathValue("id"), principal)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, detail)
}

// Update handles PATCH /posts/{id}.
func (h *PostHandlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.UpdatePostRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Svc.Update(r.Context(), r.PathValue("id"), principal, req); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /posts/{id}.
func (h *PostHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(r.Context(), r.PathValue("id"), principal); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /posts/{id}/like.
func (h *PostHandlers) Like(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Like(r.Context(), r.PathValue("id"), principal.UserID); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlike handles DELETE /posts/{id}/like.
func (h *PostHandlers) Unlike(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Unlike(r.Context(), r.PathValue("id"), principal.UserID); err != nil {
		WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
