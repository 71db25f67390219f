package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/storage"
	"github.com/relive/relive/internal/validation"
)

type FileService struct {
	fileRepo    repository.FileRepository
	storage     storage.Storage
	constraints map[string]validation.FileConstraints
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage, constraints map[string]validation.FileConstraints) *FileService {
	return &FileService{
		fileRepo:    fileRepo,
		storage:     storage,
		constraints: constraints,
	}
}

// Upload validates and stores a media file and creates its database record.
// kindHint picks the constraint set when the same container can be video or
// audio; an empty hint classifies by content.
func (s *FileService) Upload(ctx context.Context, userID string, header *multipart.FileHeader, kindHint string) (*model.File, error) {
	kind, err := s.classify(header, kindHint)
	if err != nil {
		return nil, err
	}

	mimeType, err := validation.DetectContentType(header)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content type: %w", err)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	id := uuid.New().String()
	filename := id + ext
	storagePath := path.Join("private", kind+"s", filename)

	err = s.storage.Save(ctx, storagePath, file, mimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           id,
		UserID:       userID,
		Kind:         kind,
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(ctx, fileModel)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file uploaded", "user_id", userID, "file_id", id, "kind", kind, "size", header.Size)
	return fileModel, nil
}

func (s *FileService) classify(header *multipart.FileHeader, kindHint string) (string, error) {
	if kindHint == "" {
		kind, err := validation.ClassifyMedia(header, s.constraints)
		if err != nil {
			return "", invalid(err)
		}
		return kind, nil
	}

	constraints, ok := s.constraints[kindHint]
	if !ok {
		return "", invalid(fmt.Errorf("unknown media kind: %s", kindHint))
	}
	err := validation.ValidateFile(header, constraints)
	if err != nil {
		return "", invalid(err)
	}
	return kindHint, nil
}

func (s *FileService) ByID(ctx context.Context, userID, id string) (*model.File, error) {
	return s.fileRepo.ByID(ctx, userID, id)
}

// Open streams the stored object.
func (s *FileService) Open(ctx context.Context, file *model.File) (io.ReadCloser, error) {
	return s.storage.Open(ctx, file.StoragePath)
}

// PresignedURL returns a temporary direct link when the storage backend supports it.
func (s *FileService) PresignedURL(ctx context.Context, file *model.File) (string, bool, error) {
	presigner, ok := s.storage.(storage.Presigner)
	if !ok {
		return "", false, nil
	}
	url, err := presigner.PresignedURL(ctx, file.StoragePath)
	if err != nil {
		return "", true, err
	}
	return url, true, nil
}

// Delete removes a file from storage and database
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	file, err := s.fileRepo.ByID(ctx, userID, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	// Delete from storage (best effort)
	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(ctx, userID, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// FileIDFromURL extracts the upload ID from a "/uploads/{id}" URL, absolute or relative.
func FileIDFromURL(url string) (string, bool) {
	idx := strings.Index(url, model.FileURLPrefix)
	if idx < 0 {
		return "", false
	}
	id := url[idx+len(model.FileURLPrefix):]
	id, _, _ = strings.Cut(id, "?")
	id, _, _ = strings.Cut(id, "#")
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// DeleteByURL deletes the upload behind url; non-upload URLs and missing files are ignored.
func (s *FileService) DeleteByURL(ctx context.Context, userID, url string) error {
	id, ok := FileIDFromURL(url)
	if !ok {
		return nil
	}
	err := s.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil
	}
	return err
}

func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	files, err := s.fileRepo.AllUserFiles(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			// Log but continue - physical file may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
