package handler

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

type MemoryHandler struct {
	memoryService *service.MemoryService
}

func NewMemoryHandler(memoryService *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{memoryService: memoryService}
}

type memoryListResponse struct {
	Memories []*model.Memory `json:"memories"`
	Page     model.Page      `json:"page"`
}

func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	filter, err := memoryFilterFromQuery(r)
	if err != nil {
		ui.Error(w, http.StatusBadRequest, err.Error())
		return
	}
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

	memories, p, err := h.memoryService.List(r.Context(), user.ID, filter, page, perPage)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, memoryListResponse{Memories: memories, Page: p})
}

// memoryFilterFromQuery reads q, tag, mood, from, to and sort. Both dates are
// inclusive calendar days.
func memoryFilterFromQuery(r *http.Request) (model.MemoryFilter, error) {
	q := r.URL.Query()
	filter := model.MemoryFilter{
		Query: strings.TrimSpace(q.Get("q")),
		Tag:   service.NormalizeTagName(q.Get("tag")),
		Mood:  strings.TrimSpace(q.Get("mood")),
		Sort:  q.Get("sort"),
	}

	if filter.Sort != "" && !slices.Contains([]string{model.MemorySortDate, model.MemorySortUpdated, model.MemorySortTitle}, filter.Sort) {
		return filter, errors.New("sort must be one of date, updated, title")
	}

	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filter, errors.New("from must be a date (YYYY-MM-DD)")
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filter, errors.New("to must be a date (YYYY-MM-DD)")
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, errors.New("from must not be after to")
	}

	return filter, nil
}

func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in service.MemoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	memory, err := h.memoryService.Create(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/memories/"+memory.ID)
	ui.JSON(w, http.StatusCreated, memory)
}

func (h *MemoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	memory, err := h.memoryService.ByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, memory)
}

func (h *MemoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in service.MemoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	memory, err := h.memoryService.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, memory)
}

func (h *MemoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.memoryService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
