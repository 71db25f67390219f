package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
	"github.com/relive/relive/internal/validation"
)

// maxJSONBody caps request bodies; memory content itself is limited to 1 MiB.
const maxJSONBody = 2 << 20

// respondError maps service and repository errors to a status and a JSON body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, validation.ErrFileTooLarge):
		ui.Error(w, http.StatusRequestEntityTooLarge, err.Error())
	case service.IsValidation(err):
		ui.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrMemoryNotFound),
		errors.Is(err, repository.ErrFileNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		ui.Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		ui.Error(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrPasswordlessLogin):
		ui.Error(w, http.StatusUnauthorized, service.ErrPasswordlessLogin.Error())
	case errors.Is(err, service.ErrEmailAlreadyExists):
		ui.Error(w, http.StatusConflict, service.ErrEmailAlreadyExists.Error())
	case errors.Is(err, service.ErrInvalidResetToken):
		ui.Error(w, http.StatusBadRequest, service.ErrInvalidResetToken.Error())
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		ui.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a single JSON object into v, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ui.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		ui.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return n, nil
}
