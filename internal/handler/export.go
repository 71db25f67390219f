package handler

import (
	"fmt"
	"net/http"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/ui"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Export downloads every memory of the user as one JSON document.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	export, err := h.exportService.Export(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("relive-export-%s.json", export.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ui.JSON(w, http.StatusOK, export)
}
