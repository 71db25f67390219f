package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/relive/relive/internal/ctxkeys"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/storage"
	"github.com/relive/relive/internal/ui"
)

// multipartOverhead leaves room for boundaries and the kind field.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	fileService *service.FileService
	maxBody     int64
}

// NewUploadHandler rejects request bodies larger than the biggest media limit.
func NewUploadHandler(fileService *service.FileService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
		maxBody:     maxUploadSize + multipartOverhead,
	}
}

type uploadResponse struct {
	*model.File
	URL string `json:"url"`
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ui.Error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		ui.Error(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	_, header, err := r.FormFile("file")
	if err != nil {
		ui.Error(w, http.StatusBadRequest, "file is required")
		return
	}

	kind := r.FormValue("kind")
	if kind != "" && !model.IsMediaKind(kind) {
		ui.Error(w, http.StatusBadRequest, "kind must be one of image, video, audio")
		return
	}

	file, err := h.fileService.Upload(r.Context(), user.ID, header, kind)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusCreated, uploadResponse{File: file, URL: file.URL()})
}

// Serve redirects to a presigned link when the storage supports it, otherwise streams the object.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	file, err := h.fileService.ByID(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	url, presigned, err := h.fileService.PresignedURL(r.Context(), file)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if presigned {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	rc, err := h.fileService.Open(r.Context(), file)
	if errors.Is(err, storage.ErrObjectNotFound) {
		ui.Error(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)

	_, err = io.Copy(w, rc)
	if err != nil {
		slog.Warn("failed to stream upload", "error", err, "file_id", file.ID)
	}
}
