package httpx

import (
	"context"
	"net/http"

	domainauth "github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/auth"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/domain/model"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
)

// CommentServiceInterface defines the interface for comment operations.
type CommentServiceInterface interface {
	Create(ctx context.Context, postID, userID string, req model.CreateCommentRequest) (*model.Comment, error)
	List(ctx context.Context, postID string, cursor *model.Cursor, limit int, viewer domainauth.Principal) (*service.CommentPage, error)
	Update(ctx context.Context, commentID string, caller domainauth.Principal, req model.UpdateCommentRequest) error
	Delete(ctx context.Context, commentID string, caller domainauth.Principal) error
}

// CommentHandlers provides HTTP handlers for comments under posts.
type CommentHandlers struct {
	Svc CommentServiceInterface
}

// Create handles POST /posts/{id}/comments.
func (h *CommentHandlers) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.CreateCommentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	comment, err := h.Svc.Create(r.Context(), r.PathValue("id"), principal.UserID, req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"commentId": comment.ID})
}

// List handles GET /posts/{id}/comments?cursor=&size=.
func (h *CommentHandlers) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	cursor, err := decodeCursor(r)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	result, err := h.Svc.List(r.Context(), r.PathValue("id"), cursor, pageSize(r), principal)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, page[*service.CommentView]{
		Items:      result.Items,
		NextCursor: encodeCursor(result.NextCursor),
		HasNext:    result.HasNext,
	})
}

// Update handles PATCH /comments/{id}.
func (h *CommentHandlers) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req model.UpdateCommentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Svc.Update(r.Context(), r.PathValue("id"), principal, req); err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// Delete handles DELETE /comments/{id}.
func (h *CommentHandlers) Delete(w http.ResponseWriter, r *http.Request) {
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
