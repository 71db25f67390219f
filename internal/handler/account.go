package handler

import (
	"log/slog"
	"net/http"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

type AccountHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAccountHandler(authService *service.AuthService, userService *service.UserService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ui.JSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var update service.ProfileUpdate
	if !decodeJSON(w, r, &update) {
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, update)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, updated)
}

// Delete removes the account with all memories and uploads, then ends the session.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.DeleteAccount(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !ctxkeys.BearerAuth(r.Context()) {
		h.authService.ClearJWTCookie(w)
	}
	slog.Info("account deleted", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}
