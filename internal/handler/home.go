package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/relive/relive/internal/ui"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HomeHandler struct {
	appName string
	db      Pinger
}

func NewHomeHandler(appName string, db Pinger) *HomeHandler {
	return &HomeHandler{appName: appName, db: db}
}

func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.HomePage(h.appName))
}

func (h *HomeHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		ui.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	ui.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers JSON under /api/ and an HTML page elsewhere.
func (h *HomeHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		ui.Error(w, http.StatusNotFound, "not found")
		return
	}
	ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFoundPage(h.appName))
}
