package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/relive/relive/internal/app"
	"github.com/relive/relive/internal/config"
	"github.com/relive/relive/internal/middleware"
	"github.com/relive/relive/internal/routes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery-staple"

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

type server struct {
	t          *testing.T
	handler    http.Handler
	csrfCookie *http.Cookie
	csrfToken  string
}

func newServer(t *testing.T) *server {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		AppName:                  "ReLive",
		AppEnv:                   "development",
		AppURL:                   "http://localhost:8090",
		Port:                     "8090",
		DBDriver:                 "sqlite",
		DBConnection:             filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite",
		JWTSecret:                "test-secret-test-secret-test-secret",
		JWTExpiry:                time.Hour,
		TokenPasswordResetExpiry: time.Hour,
		EmailFrom:                "noreply@example.com",
		StorageDriver:            config.StorageDriverLocal,
		StorageLocalPath:         filepath.Join(dir, "uploads"),
		MaxImageSize:             10 << 20,
		MaxVideoSize:             100 << 20,
		MaxAudioSize:             25 << 20,
	}

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	s := &server{t: t, handler: routes.SetupRoutes(a)}

	// A safe request hands out the CSRF cookie and token
	rec := s.request(http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	s.csrfToken = rec.Header().Get(middleware.CSRFHeader)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf_token" {
			s.csrfCookie = c
		}
	}
	require.NotNil(t, s.csrfCookie)

	return s
}

// request sends body as JSON. With a token it authenticates as a bearer client,
// otherwise it behaves like a browser holding the CSRF cookie.
func (s *server) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.authorize(req, token)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *server) authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		return
	}
	if s.csrfCookie != nil {
		req.AddCookie(s.csrfCookie)
		req.Header.Set(middleware.CSRFHeader, s.csrfToken)
	}
}

func (s *server) upload(token, filename string, content []byte) *httptest.ResponseRecorder {
	s.t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	s.authorize(req, token)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// signup creates an account and returns its bearer token.
func (s *server) signup(email string) string {
	s.t.Helper()

	rec := s.request(http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": testPassword,
		"name":     "Test User",
	}, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &resp)
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decode(t, rec, &resp)
	return resp.Error
}

func TestHealthAndNotFound(t *testing.T) {
	s := newServer(t)

	rec := s.request(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.request(http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", errorMessage(t, rec))

	rec = s.request(http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = s.request(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ReLive")
	assert.Contains(t, rec.Body.String(), `name="csrf-token" content="`+s.csrfToken+`"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	rec := s.request(http.MethodPost, "/auth/signup", map[string]string{
		"email":    "ADA@example.com",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.request(http.MethodPost, "/auth/signup", map[string]string{
		"email":    "bob@example.com",
		"password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "at least 12 characters")

	rec = s.request(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong-but-long-enough",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", errorMessage(t, rec))

	rec = s.request(http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var authCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			authCookie = c
		}
	}
	require.NotNil(t, authCookie)
	assert.True(t, authCookie.HttpOnly)

	// Cookie session
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(authCookie)
	cookieRec := httptest.NewRecorder()
	s.handler.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)

	// Bearer session
	rec = s.request(http.MethodGet, "/api/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.Equal(t, "Test User", me.Name)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.request(http.MethodGet, "/api/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", errorMessage(t, rec))

	rec = s.request(http.MethodGet, "/api/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordDoesNotRevealAccounts(t *testing.T) {
	s := newServer(t)
	s.signup("ada@example.com")

	known := s.request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ada@example.com"}, "")
	unknown := s.request(http.MethodPost, "/auth/forgot-password", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	rec := s.request(http.MethodPost, "/auth/reset-password", map[string]string{
		"token":    "bogus",
		"password": "another-long-passphrase",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCSRFRequiredForCookieClients(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid CSRF token", errorMessage(t, rec))
}

func TestOAuthNotConfigured(t *testing.T) {
	s := newServer(t)

	rec := s.request(http.MethodGet, "/auth/google", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Callback without the state cookie goes back home
	rec = s.request(http.MethodGet, "/auth/github/callback?state=x&code=y", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?auth_error=oauth", rec.Header().Get("Location"))
}

type memoryJSON struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	ContentHTML string   `json:"content_html"`
	Media       []struct {
		URL  string `json:"url"`
		Kind string `json:"kind"`
	} `json:"media"`
}

func TestMemoryCRUD(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	rec := s.request(http.MethodPost, "/api/memories", map[string]any{
		"title":          "Beach day",
		"content":        "# Sun\n\nWe swam all afternoon.",
		"content_format": "markdown",
		"date":           "2024-07-14",
		"mood":           "happy",
		"tags":           []string{"Summer", "family"},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created memoryJSON
	decode(t, rec, &created)
	assert.Equal(t, "/api/memories/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, []string{"family", "summer"}, created.Tags)

	rec = s.request(http.MethodGet, "/api/memories/"+created.ID, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var got memoryJSON
	decode(t, rec, &got)
	assert.Equal(t, "Beach day", got.Title)
	assert.Contains(t, got.ContentHTML, "<h1")

	rec = s.request(http.MethodPut, "/api/memories/"+created.ID, map[string]any{
		"title":          "Beach day with friends",
		"content":        "<p>Updated</p>",
		"content_format": "html",
		"date":           "2024-07-15",
		"tags":           []string{"summer"},
	}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &got)
	assert.Equal(t, "Beach day with friends", got.Title)
	assert.Equal(t, []string{"summer"}, got.Tags)

	rec = s.request(http.MethodGet, "/api/memories?tag=summer&from=2024-07-15&to=2024-07-15", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Memories []memoryJSON `json:"memories"`
		Page     struct {
			Total int `json:"total"`
		} `json:"page"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Page.Total)
	require.Len(t, list.Memories, 1)
	assert.Equal(t, created.ID, list.Memories[0].ID)

	rec = s.request(http.MethodGet, "/api/memories?sort=random", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.request(http.MethodGet, "/api/memories?from=yesterday", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Another account can't see it
	other := s.signup("grace@example.com")
	rec = s.request(http.MethodGet, "/api/memories/"+created.ID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.request(http.MethodDelete, "/api/memories/"+created.ID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodDelete, "/api/memories/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.request(http.MethodGet, "/api/memories/"+created.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMemoryValidationErrors(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	rec := s.request(http.MethodPost, "/api/memories", map[string]any{
		"content": "no title",
		"date":    "2024-07-14",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorMessage(t, rec), "title")

	rec = s.request(http.MethodPost, "/api/memories", map[string]any{
		"title":   "Bad field",
		"date":    "2024-07-14",
		"unknown": true,
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", errorMessage(t, rec))
}

func TestUploadServeAndGallery(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	rec := s.upload(token, "notes.txt", []byte("just text, not media"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.upload(token, "photo.png", pngHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var uploaded struct {
		ID   string `json:"id"`
		URL  string `json:"url"`
		Kind string `json:"kind"`
	}
	decode(t, rec, &uploaded)
	assert.Equal(t, "/uploads/"+uploaded.ID, uploaded.URL)
	assert.Equal(t, "image", uploaded.Kind)

	rec = s.request(http.MethodGet, uploaded.URL, nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	other := s.signup("grace@example.com")
	rec = s.request(http.MethodGet, uploaded.URL, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodPost, "/api/memories", map[string]any{
		"title":   "Sunset",
		"content": `<p>Look</p><img src="` + uploaded.URL + `">`,
		"date":    "2024-08-01",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var memory memoryJSON
	decode(t, rec, &memory)
	require.Len(t, memory.Media, 1)
	assert.Equal(t, uploaded.URL, memory.Media[0].URL)

	rec = s.request(http.MethodGet, "/api/gallery?kind=image", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var gallery struct {
		Items []struct {
			URL         string `json:"url"`
			MemoryID    string `json:"memory_id"`
			MemoryTitle string `json:"memory_title"`
		} `json:"items"`
	}
	decode(t, rec, &gallery)
	require.Len(t, gallery.Items, 1)
	assert.Equal(t, memory.ID, gallery.Items[0].MemoryID)
	assert.Equal(t, "Sunset", gallery.Items[0].MemoryTitle)

	rec = s.request(http.MethodGet, "/api/gallery?kind=hologram", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewsAndExport(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	for _, date := range []string{"2023-03-10", "2024-03-02", "2024-05-20"} {
		rec := s.request(http.MethodPost, "/api/memories", map[string]any{
			"title": "Memory " + date,
			"date":  date,
			"mood":  "calm",
			"tags":  []string{"walk"},
		}, token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.request(http.MethodGet, "/api/stats", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		TotalMemories int            `json:"total_memories"`
		TotalTags     int            `json:"total_tags"`
		Moods         map[string]int `json:"moods"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, 3, stats.TotalMemories)
	assert.Equal(t, 1, stats.TotalTags)
	assert.Equal(t, 3, stats.Moods["calm"])

	rec = s.request(http.MethodGet, "/api/dashboard", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard struct {
		Recent []memoryJSON `json:"recent"`
	}
	decode(t, rec, &dashboard)
	require.Len(t, dashboard.Recent, 3)
	assert.Equal(t, "Memory 2024-05-20", dashboard.Recent[0].Title)

	rec = s.request(http.MethodGet, "/api/timeline?year=2024", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline struct {
		Years []struct {
			Year   int `json:"year"`
			Count  int `json:"count"`
			Months []struct {
				Month int `json:"month"`
			} `json:"months"`
		} `json:"years"`
	}
	decode(t, rec, &timeline)
	require.Len(t, timeline.Years, 1)
	assert.Equal(t, 2024, timeline.Years[0].Year)
	assert.Equal(t, 2, timeline.Years[0].Count)

	rec = s.request(http.MethodGet, "/api/timeline?month=3", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &timeline)
	assert.Len(t, timeline.Years, 2)

	rec = s.request(http.MethodGet, "/api/timeline?month=13", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.request(http.MethodGet, "/api/timeline?year=abc", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodGet, "/api/tags", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var tags struct {
		Tags []struct {
			Name        string `json:"name"`
			MemoryCount int    `json:"memory_count"`
		} `json:"tags"`
	}
	decode(t, rec, &tags)
	require.Len(t, tags.Tags, 1)
	assert.Equal(t, 3, tags.Tags[0].MemoryCount)

	rec = s.request(http.MethodPost, "/api/tags", map[string]string{"name": "  Travel "}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"travel"`)

	rec = s.request(http.MethodGet, "/api/export", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	var export struct {
		Memories []memoryJSON `json:"memories"`
		User     struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	decode(t, rec, &export)
	assert.Len(t, export.Memories, 3)
	assert.Equal(t, "ada@example.com", export.User.Email)
}

func TestAccountUpdateAndDelete(t *testing.T) {
	s := newServer(t)
	token := s.signup("ada@example.com")

	rec := s.request(http.MethodPatch, "/api/me", map[string]any{"name": "Ada Lovelace"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	rec = s.request(http.MethodPatch, "/api/me", map[string]any{
		"current_password": "not-the-right-one",
		"new_password":     "another-long-passphrase",
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.request(http.MethodDelete, "/api/me", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.request(http.MethodGet, "/api/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
