package service_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/relive/relive/internal/cache"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/service"
	"github.com/relive/relive/internal/testutil"
	"github.com/relive/relive/internal/validation"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

type env struct {
	user      *model.User
	memories  *service.MemoryService
	files     *service.FileService
	stats     *service.StatsService
	dashboard *service.DashboardService
	timeline  *service.TimelineService
	gallery   *service.GalleryService
	tags      *service.TagService
	importer  *service.Importer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithCache(t, cache.NopStatsCache{})
}

func newEnvWithCache(t *testing.T, statsCache cache.StatsCache) *env {
	t.Helper()
	conn := testutil.TestDB(t)
	user := testutil.CreateUser(t, conn, "writer@example.com")

	memoryRepo := repository.NewMemoryRepository(conn)
	mediaRepo := repository.NewMediaRepository(conn)
	tagRepo := repository.NewTagRepository(conn)

	files := service.NewFileService(
		repository.NewFileRepository(conn),
		testutil.TestStorage(t),
		validation.MediaConstraints(10<<20, 100<<20, 25<<20),
	)
	stats := service.NewStatsService(memoryRepo, mediaRepo, tagRepo, statsCache)
	memories := service.NewMemoryService(memoryRepo, files, stats)

	return &env{
		user:      user,
		memories:  memories,
		files:     files,
		stats:     stats,
		dashboard: service.NewDashboardService(stats, memories),
		timeline:  service.NewTimelineService(memories),
		gallery:   service.NewGalleryService(mediaRepo),
		tags:      service.NewTagService(tagRepo, stats),
		importer:  service.NewImporter(memories),
	}
}

// uploadHeader builds a real multipart file header for filename with content.
func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func (e *env) upload(t *testing.T) *model.File {
	t.Helper()
	file, err := e.files.Upload(context.Background(), e.user.ID, uploadHeader(t, "photo.png", pngHeader), "")
	require.NoError(t, err)
	return file
}

// mapStatsCache is an in-process StatsCache that counts hits.
type mapStatsCache struct {
	mu    sync.Mutex
	stats map[string]model.Stats
	hits  int
}

func newMapStatsCache() *mapStatsCache {
	return &mapStatsCache{stats: map[string]model.Stats{}}
}

func (c *mapStatsCache) Get(_ context.Context, userID string) (*model.Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats, ok := c.stats[userID]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &stats, true, nil
}

func (c *mapStatsCache) Set(_ context.Context, userID string, stats *model.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[userID] = *stats
	return nil
}

func (c *mapStatsCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, userID)
	return nil
}

func (c *mapStatsCache) cached(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stats[userID]
	return ok
}
