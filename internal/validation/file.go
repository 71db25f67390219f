package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/relive/relive/internal/model"
)

// ErrFileTooLarge is wrapped by size violations so callers can answer 413.
var ErrFileTooLarge = errors.New("file too large")

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// MediaConstraints returns the upload rules for each media kind.
// Sniffed types are what http.DetectContentType reports, which is why
// .m4a audio is accepted as video/mp4 and Ogg as application/ogg.
func MediaConstraints(maxImage, maxVideo, maxAudio int64) map[string]FileConstraints {
	return map[string]FileConstraints{
		model.MediaKindImage: {
			AllowedMimeTypes: map[string]bool{
				"image/jpeg": true,
				"image/png":  true,
				"image/webp": true,
				"image/gif":  true,
			},
			AllowedExtensions: map[string]bool{
				".jpg":  true,
				".jpeg": true,
				".png":  true,
				".webp": true,
				".gif":  true,
			},
			MaxSize: maxImage,
		},
		model.MediaKindVideo: {
			AllowedMimeTypes: map[string]bool{
				"video/mp4":  true,
				"video/webm": true,
			},
			AllowedExtensions: map[string]bool{
				".mp4":  true,
				".m4v":  true,
				".webm": true,
			},
			MaxSize: maxVideo,
		},
		model.MediaKindAudio: {
			AllowedMimeTypes: map[string]bool{
				"audio/mpeg":      true,
				"audio/wave":      true,
				"audio/ogg":       true,
				"application/ogg": true,
				"video/webm":      true, // browser MediaRecorder output
				"video/mp4":       true,
			},
			AllowedExtensions: map[string]bool{
				".mp3":  true,
				".wav":  true,
				".ogg":  true,
				".oga":  true,
				".weba": true,
				".webm": true,
				".m4a":  true,
			},
			MaxSize: maxAudio,
		},
	}
}

// ClassifyMedia validates an upload and returns the media kind it matches.
// Kinds are tried image, video, audio; extensions disambiguate containers
// shared by video and audio (webm, mp4).
func ClassifyMedia(header *multipart.FileHeader, byKind map[string]FileConstraints) (string, error) {
	var lastErr error
	for _, kind := range model.MediaKinds {
		constraints, ok := byKind[kind]
		if !ok {
			continue
		}
		err := validateAgainstConstraint(header, constraints)
		if err == nil {
			return kind, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no file constraints provided")
	}
	return "", lastErr
}

// ValidateFile validates a file upload against one or more constraint sets
// If multiple constraints are provided, file must match at least one (OR logic)
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// DetectContentType sniffs the MIME type from the first 512 bytes and rewinds the file.
func DetectContentType(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return http.DetectContentType(buffer[:n]), nil
}

// validateAgainstConstraint validates a file against a single constraint set
func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) error {
	// Check file size first (before reading content)
	if header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, maxMB)
	}

	// Detect actual content type from file content (magic numbers)
	detectedType, err := DetectContentType(header)
	if err != nil {
		return err
	}

	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %s", ext)
	}

	return nil
}
