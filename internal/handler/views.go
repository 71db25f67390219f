package handler

import (
	"net/http"
	"strings"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

// ViewHandler serves the read-only journal views.
type ViewHandler struct {
	dashboardService *service.DashboardService
	timelineService  *service.TimelineService
	galleryService   *service.GalleryService
	statsService     *service.StatsService
}

func NewViewHandler(
	dashboardService *service.DashboardService,
	timelineService *service.TimelineService,
	galleryService *service.GalleryService,
	statsService *service.StatsService,
) *ViewHandler {
	return &ViewHandler{
		dashboardService: dashboardService,
		timelineService:  timelineService,
		galleryService:   galleryService,
		statsService:     statsService,
	}
}

func (h *ViewHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	dashboard, err := h.dashboardService.Dashboard(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, dashboard)
}

func (h *ViewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	stats, err := h.statsService.Stats(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, stats)
}

func (h *ViewHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	year, err := queryInt(r, "year")
	if err != nil {
		ui.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		ui.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	years, err := h.timelineService.Timeline(r.Context(), user.ID, service.TimelineFilter{
		Year:  year,
		Month: month,
		Tag:   service.NormalizeTagName(r.URL.Query().Get("tag")),
		Mood:  strings.TrimSpace(r.URL.Query().Get("mood")),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if years == nil {
		years = []*model.TimelineYear{}
	}

	ui.JSON(w, http.StatusOK, map[string]any{"years": years})
}

type galleryResponse struct {
	Items []*model.GalleryItem `json:"items"`
	Page  model.Page           `json:"page"`
}

func (h *ViewHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	page, err := queryInt(r, "page")
	if err != nil {
		ui.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	perPage, err := queryInt(r, "per_page")
	if err != nil {
		ui.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items, p, err := h.galleryService.Gallery(r.Context(), user.ID, r.URL.Query().Get("kind"), page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, galleryResponse{Items: items, Page: p})
}
