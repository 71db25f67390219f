package handler

import (
	"net/http"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

type TagHandler struct {
	tagService *service.TagService
}

func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	tags, err := h.tagService.Tags(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if tags == nil {
		tags = []*model.Tag{}
	}

	ui.JSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.tagService.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, tag)
}
