package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relive/relive/internal/model"
)

var (
	pngHeader  = []byte("\x89PNG\x0D\x0A\x1A\x0A\x00\x00\x00\x0DIHDR")
	webmHeader = []byte("\x1A\x45\xDF\xA3\x01\x00\x00\x00\x00\x00\x00\x1F\x42\x86\x81\x01webm")
	mp3Header  = []byte("ID3\x03\x00\x00\x00\x00\x00\x00")
)

// fileHeader builds a real *multipart.FileHeader by parsing a multipart body.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func TestClassifyMedia(t *testing.T) {
	byKind := MediaConstraints(1<<20, 1<<20, 1<<20)

	kind, err := ClassifyMedia(fileHeader(t, "beach.png", pngHeader), byKind)
	require.NoError(t, err)
	assert.Equal(t, model.MediaKindImage, kind)

	kind, err = ClassifyMedia(fileHeader(t, "clip.webm", webmHeader), byKind)
	require.NoError(t, err)
	assert.Equal(t, model.MediaKindVideo, kind)

	kind, err = ClassifyMedia(fileHeader(t, "note.mp3", mp3Header), byKind)
	require.NoError(t, err)
	assert.Equal(t, model.MediaKindAudio, kind)
}

func TestClassifyMediaRejects(t *testing.T) {
	byKind := MediaConstraints(1<<20, 1<<20, 1<<20)

	_, err := ClassifyMedia(fileHeader(t, "notes.txt", []byte("plain text")), byKind)
	assert.Error(t, err)

	// PNG bytes behind an audio extension
	_, err = ClassifyMedia(fileHeader(t, "fake.mp3", pngHeader), byKind)
	assert.Error(t, err)
}

func TestValidateFileSizeLimit(t *testing.T) {
	byKind := MediaConstraints(8, 1<<20, 1<<20)

	err := ValidateFile(fileHeader(t, "big.png", pngHeader), byKind[model.MediaKindImage])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestValidateFileRecordingAsAudio(t *testing.T) {
	byKind := MediaConstraints(1<<20, 1<<20, 1<<20)

	err := ValidateFile(fileHeader(t, "recording.webm", webmHeader), byKind[model.MediaKindAudio])
	assert.NoError(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "correct horse battery", false},
		{"too short", "short", true},
		{"common pattern", "mypassword12345", true},
		{"contains email", "alice-the-great-99", true},
		{"too long", string(bytes.Repeat([]byte("x"), 73)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, "alice@example.com")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Alice <alice@example.com>"))
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Alice"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(string(bytes.Repeat([]byte("a"), 101))))
}
