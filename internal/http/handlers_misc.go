package httpx

import (
	"io"
	"net/http"

	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/ports"
	"github.com/100-hours-a-week/3-vani-kim-community-BE/internal/service"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for readiness/liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// termsHandler serves the static service and privacy terms payload.
func termsHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"service": "By using this community you agree to post respectfully, " +
			"keep your credentials to yourself, and accept that withdrawn " +
			"accounts keep their public contributions under a masked name.",
		"privacy": "We store your email, nickname, and the content you post. " +
			"Passwords are stored only as salted hashes. Refresh sessions " +
			"expire automatically and can be revoked by logging out.",
	})
}

// imageKind restricts presign requests to the two supported upload targets.
var imageKeyPrefix = map[string]string{
	"profile": "profile/",
	"post":    "post/",
}

var imageExtension = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageHandlers provides presigned upload URL generation.
type ImageHandlers struct {
	Storage ports.ObjectStorage
}

// Presign handles POST /images/presign. The server picks the object key so
// clients cannot overwrite each other's uploads.
func (h *ImageHandlers) Presign(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	var req struct {
		Kind        string `json:"kind"`
		ContentType string `json:"contentType"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	prefix, ok := imageKeyPrefix[req.Kind]
	if !ok {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: "kind must be profile or post"})
		return
	}
	ext, ok := imageExtension[req.ContentType]
	if !ok {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: "unsupported content type"})
		return
	}

	key := prefix + service.NewID() + ext
	signed, err := h.Storage.PresignPut(r.Context(), key, req.ContentType)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"uploadUrl": signed.URL,
		"key":       signed.Key,
	})
}
