package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateSyncsMediaFromContent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	photo := e.upload(t)

	memory, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title: "  Lake trip ",
		Content: `<p>Sunset</p><img src="` + photo.URL() + `">` +
			`<video controls><source src="https://cdn.example.com/clip.mp4"></video>` +
			`<img src="` + photo.URL() + `"><img src="data:image/png;base64,AAAA">`,
		Date: "2024-03-15",
		Mood: "😊",
		Tags: []string{"Travel", " travel ", "Family"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lake trip", memory.Title)
	assert.Equal(t, model.ContentFormatHTML, memory.ContentFormat)
	assert.Equal(t, "2024-03-15", memory.Date.Format("2006-01-02"))
	assert.Equal(t, []string{"family", "travel"}, memory.Tags)
	require.Len(t, memory.Media, 2)

	kinds := map[string]string{}
	for _, m := range memory.Media {
		kinds[m.URL] = m.Kind
	}
	assert.Equal(t, map[string]string{
		photo.URL():                        model.MediaKindImage,
		"https://cdn.example.com/clip.mp4": model.MediaKindVideo,
	}, kinds)
	assert.Equal(t, "Sunset", memory.Excerpt)
}

func TestMemoryMediaFollowsContentOrderAndUploadKind(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	voice, err := e.files.Upload(ctx, e.user.ID, uploadHeader(t, "note.mp3", []byte("ID3\x03\x00\x00\x00\x00\x00\x00")), "")
	require.NoError(t, err)
	require.Equal(t, model.MediaKindAudio, voice.Kind)
	photo := e.upload(t)

	memory, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title:   "Voice memo",
		Content: `<img src="https://example.com/first.jpg"><img src="` + voice.URL() + `"><img src="` + photo.URL() + `">`,
		Date:    "2024-06-01",
	})
	require.NoError(t, err)

	got, err := e.memories.ByID(ctx, e.user.ID, memory.ID)
	require.NoError(t, err)
	require.Len(t, got.Media, 3)
	assert.Equal(t, "https://example.com/first.jpg", got.Media[0].URL)
	assert.Equal(t, voice.URL(), got.Media[1].URL)
	assert.Equal(t, model.MediaKindAudio, got.Media[1].Kind)
	assert.WithinDuration(t, voice.CreatedAt, got.Media[1].UploadedAt, time.Second)
	assert.Equal(t, photo.URL(), got.Media[2].URL)
	assert.Equal(t, model.MediaKindImage, got.Media[2].Kind)
}

func TestMemoryUpdateReplacesMedia(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	memory, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title:   "Concert",
		Content: `<audio src="/uploads/a"></audio><img src="/uploads/b">`,
		Date:    "2024-05-01",
	})
	require.NoError(t, err)
	require.Len(t, memory.Media, 2)

	updated, err := e.memories.Update(ctx, e.user.ID, memory.ID, service.MemoryInput{
		Title:   "Concert",
		Content: `<p>No pictures this time</p>`,
		Date:    "2024-05-01",
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Media)
	assert.Empty(t, updated.Tags)
}

func TestMemoryMarkdownContent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	memory, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title:         "Notes",
		Content:       "# Day\n\n![pic](/uploads/x)\n\n<audio src=\"/uploads/y\"></audio>\n",
		ContentFormat: model.ContentFormatMarkdown,
		Date:          "2024-01-02",
	})
	require.NoError(t, err)

	require.Len(t, memory.Media, 2)
	assert.Contains(t, memory.ContentHTML, "<h1")
	assert.Equal(t, "# Day\n\n![pic](/uploads/x)\n\n<audio src=\"/uploads/y\"></audio>\n", memory.Content)
}

func TestMemoryValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	tests := []struct {
		name  string
		input service.MemoryInput
	}{
		{"missing title", service.MemoryInput{Date: "2024-01-01"}},
		{"missing date", service.MemoryInput{Title: "x"}},
		{"bad date", service.MemoryInput{Title: "x", Date: "yesterday"}},
		{"bad format", service.MemoryInput{Title: "x", Date: "2024-01-01", ContentFormat: "rtf"}},
		{"too many tags", service.MemoryInput{Title: "x", Date: "2024-01-01", Tags: make([]string, 21)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.memories.Create(ctx, e.user.ID, tt.input)
			require.Error(t, err)
			assert.True(t, service.IsValidation(err))
		})
	}
}

func TestMemoryDeleteRemovesOrphanedUploads(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	shared := e.upload(t)
	single := e.upload(t)

	first, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title:   "First",
		Content: `<img src="` + shared.URL() + `"><img src="` + single.URL() + `">`,
		Date:    "2024-02-01",
	})
	require.NoError(t, err)
	_, err = e.memories.Create(ctx, e.user.ID, service.MemoryInput{
		Title:   "Second",
		Content: `<img src="` + shared.URL() + `">`,
		Date:    "2024-02-02",
	})
	require.NoError(t, err)

	require.NoError(t, e.memories.Delete(ctx, e.user.ID, first.ID))

	_, err = e.memories.ByID(ctx, e.user.ID, first.ID)
	assert.ErrorIs(t, err, repository.ErrMemoryNotFound)

	_, err = e.files.ByID(ctx, e.user.ID, shared.ID)
	assert.NoError(t, err)
	_, err = e.files.ByID(ctx, e.user.ID, single.ID)
	assert.ErrorIs(t, err, repository.ErrFileNotFound)
}

func TestMemoryListQueryAndPagination(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	for _, in := range []service.MemoryInput{
		{Title: "Hiking in the Alps", Content: "<p>Snowy peaks</p>", Date: "2024-07-01", Tags: []string{"outdoors"}},
		{Title: "Birthday dinner", Content: "<p>Cake and candles</p>", Date: "2024-06-01"},
		{Title: "Quiet Sunday", Content: "<p>Read a book</p>", Date: "2024-05-01"},
	} {
		_, err := e.memories.Create(ctx, e.user.ID, in)
		require.NoError(t, err)
	}

	found, page, err := e.memories.List(ctx, e.user.ID, model.MemoryFilter{Query: "alps"}, 1, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Hiking in the Alps", found[0].Title)
	assert.Equal(t, 1, page.Total)

	found, _, err = e.memories.List(ctx, e.user.ID, model.MemoryFilter{Query: "candles"}, 1, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Birthday dinner", found[0].Title)

	found, page, err = e.memories.List(ctx, e.user.ID, model.MemoryFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Quiet Sunday", found[0].Title)
	assert.Equal(t, model.Page{Page: 2, PerPage: 2, Total: 3, TotalPages: 2}, page)
}

func TestMemoryOwnership(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	memory, err := e.memories.Create(ctx, e.user.ID, service.MemoryInput{Title: "Mine", Date: "2024-01-01"})
	require.NoError(t, err)

	_, err = e.memories.ByID(ctx, "someone-else", memory.ID)
	assert.ErrorIs(t, err, repository.ErrMemoryNotFound)

	_, err = e.memories.Update(ctx, "someone-else", memory.ID, service.MemoryInput{Title: "Theirs", Date: "2024-01-01"})
	assert.ErrorIs(t, err, repository.ErrMemoryNotFound)

	err = e.memories.Delete(ctx, "someone-else", memory.ID)
	assert.ErrorIs(t, err, repository.ErrMemoryNotFound)
}
