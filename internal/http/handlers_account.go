package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/holygrail/holygrail-web/internal/errors"
	"github.com/holygrail/holygrail-web/internal/ports"
)

// AccountHandlers serves the signed-in user's profile and admin user edits.
type AccountHandlers struct {
	Svc    AuthFlows
	Logger *slog.Logger
}

func (h *AccountHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Me returns the session placed by RequireSession.
// GET /api/me.
func (h *AccountHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Unauthorized("authentication required"))
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(sess))
}

// Refresh re-reads the profile from the backend and stores it.
// POST /api/me/refresh.
func (h *AccountHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Svc.RefreshProfile(r.Context())
	if err != nil {
		h.logger().WarnContext(r.Context(), "profile refresh failed", slog.Any("error", err))
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, viewOf(sess))
}

// UpdateUser applies a partial update to another account.
// PUT /api/admin/users/{id}.
func (h *AccountHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: string(apperrors.ErrCodeValidation),
			Err:     errors.New("user id must be a positive integer"),
			Field:   "id",
		})
		return
	}

	var in ports.UserUpdate
	if !DecodeJSON(w, r, &in) {
		return
	}

	user, err := h.Svc.UpdateUser(r.Context(), id, in)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	h.logger().InfoContext(r.Context(), "user updated",
		slog.Int64("user_id", user.ID),
		slog.String("role", user.Role.String()))
	WriteJSON(w, http.StatusOK, user)
}
