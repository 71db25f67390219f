package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/relive/relive/internal/richtext"
	"github.com/samber/lo"
)

const (
	maxTitleLength    = 200
	maxMoodLength     = 32
	maxLocationLength = 200
	maxContentBytes   = 1 << 20
	excerptLength     = 200
	dateLayout        = "2006-01-02"
)

// MemoryInput is the editable part of a memory as submitted by the editor.
type MemoryInput struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	ContentFormat string   `json:"content_format"`
	Date          string   `json:"date"`
	Location      string   `json:"location"`
	Mood          string   `json:"mood"`
	Tags          []string `json:"tags"`
}

func (in MemoryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.RuneLength(1, maxTitleLength)),
		validation.Field(&in.Content, validation.Length(0, maxContentBytes)),
		validation.Field(&in.ContentFormat, validation.In(model.ContentFormatHTML, model.ContentFormatMarkdown)),
		validation.Field(&in.Date, validation.Required, validation.By(func(value any) error {
			_, err := parseMemoryDate(value.(string))
			return err
		})),
		validation.Field(&in.Location, validation.RuneLength(0, maxLocationLength)),
		validation.Field(&in.Mood, validation.RuneLength(0, maxMoodLength)),
		validation.Field(&in.Tags,
			validation.Length(0, maxTagsPerMemory),
			validation.Each(validation.RuneLength(0, maxTagLength)),
		),
	)
}

// parseMemoryDate accepts YYYY-MM-DD or RFC 3339 and keeps only the calendar date.
func parseMemoryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, errors.New("must be a date in YYYY-MM-DD format")
		}
	}
	return model.DayOf(t), nil
}

// StatsInvalidator drops cached stats after a write.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type MemoryService struct {
	memoryRepository repository.MemoryRepository
	fileService      *FileService
	stats            StatsInvalidator
}

func NewMemoryService(memoryRepository repository.MemoryRepository, fileService *FileService, stats StatsInvalidator) *MemoryService {
	return &MemoryService{
		memoryRepository: memoryRepository,
		fileService:      fileService,
		stats:            stats,
	}
}

func (s *MemoryService) Create(ctx context.Context, userID string, in MemoryInput) (*model.Memory, error) {
	now := time.Now().UTC()
	memory := &model.Memory{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tags, media, err := s.apply(ctx, memory, in, nil)
	if err != nil {
		return nil, err
	}

	err = s.memoryRepository.Create(ctx, memory, tags, media)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}
	s.stats.Invalidate(ctx, userID)

	slog.Info("memory created", "user_id", userID, "memory_id", memory.ID, "media", len(media))
	return s.ByID(ctx, userID, memory.ID)
}

func (s *MemoryService) Update(ctx context.Context, userID, memoryID string, in MemoryInput) (*model.Memory, error) {
	memory, err := s.memoryRepository.ByID(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}

	existing, err := s.memoryRepository.Media(ctx, []string{memory.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load media: %w", err)
	}

	tags, media, err := s.apply(ctx, memory, in, existing[memory.ID])
	if err != nil {
		return nil, err
	}
	memory.UpdatedAt = time.Now().UTC()

	err = s.memoryRepository.Update(ctx, memory, tags, media)
	if err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}
	s.stats.Invalidate(ctx, userID)

	slog.Info("memory updated", "user_id", userID, "memory_id", memory.ID, "media", len(media))
	return s.ByID(ctx, userID, memory.ID)
}

// apply validates in, copies it onto memory and derives the tags and media to store.
func (s *MemoryService) apply(ctx context.Context, memory *model.Memory, in MemoryInput, existing []*model.Media) ([]string, []*model.Media, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Mood = strings.TrimSpace(in.Mood)
	if in.ContentFormat == "" {
		in.ContentFormat = model.ContentFormatHTML
	}

	err := in.Validate()
	if err != nil {
		return nil, nil, invalid(err)
	}

	date, err := parseMemoryDate(in.Date)
	if err != nil {
		return nil, nil, invalid(fmt.Errorf("date: %w", err))
	}

	memory.Title = in.Title
	memory.Content = in.Content
	memory.ContentFormat = in.ContentFormat
	memory.Date = date
	memory.Location = optional(in.Location)
	memory.Mood = optional(in.Mood)

	rendered, err := richtext.ToHTML(in.Content, in.ContentFormat)
	if err != nil {
		return nil, nil, invalid(err)
	}

	media := s.mediaFromContent(ctx, memory.UserID, rendered, existing)
	return NormalizeTags(in.Tags), media, nil
}

// mediaFromContent mirrors the media embedded in content, in document order.
// Uploads keep their stored kind and creation time; other URLs keep the time
// of the previous save, then now.
func (s *MemoryService) mediaFromContent(ctx context.Context, userID, content string, existing []*model.Media) []*model.Media {
	previous := lo.SliceToMap(existing, func(m *model.Media) (string, time.Time) {
		return m.URL, m.UploadedAt
	})
	now := time.Now().UTC()

	return lo.Map(richtext.Extract(content), func(ref richtext.Ref, _ int) *model.Media {
		media := &model.Media{URL: ref.URL, Kind: ref.Kind, UploadedAt: now}
		if uploadedAt, ok := previous[ref.URL]; ok {
			media.UploadedAt = uploadedAt
		}
		if id, isUpload := FileIDFromURL(ref.URL); isUpload {
			file, err := s.fileService.ByID(ctx, userID, id)
			if err == nil {
				media.Kind = file.Kind
				media.UploadedAt = file.CreatedAt
			}
		}
		return media
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ByID returns the memory with tags, media and rendered HTML.
func (s *MemoryService) ByID(ctx context.Context, userID, memoryID string) (*model.Memory, error) {
	memory, err := s.memoryRepository.ByID(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}

	err = s.hydrate(ctx, []*model.Memory{memory}, true)
	if err != nil {
		return nil, err
	}
	return memory, nil
}

// All returns every memory matching filter, hydrated, in the requested order.
func (s *MemoryService) All(ctx context.Context, userID string, filter model.MemoryFilter) ([]*model.Memory, error) {
	memories, err := s.memoryRepository.Memories(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	err = s.hydrate(ctx, memories, false)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(filter.Query) != "" {
		memories = lo.Filter(memories, func(m *model.Memory, _ int) bool {
			return matchesQuery(m, filter.Query)
		})
	}
	return memories, nil
}

// List returns one page of memories matching filter.
func (s *MemoryService) List(ctx context.Context, userID string, filter model.MemoryFilter, page, perPage int) ([]*model.Memory, model.Page, error) {
	memories, err := s.All(ctx, userID, filter)
	if err != nil {
		return nil, model.Page{}, err
	}

	p := Paginate(len(memories), page, perPage)
	return pageOf(memories, p), p, nil
}

// Recent returns the n most recent memories by date.
func (s *MemoryService) Recent(ctx context.Context, userID string, n int) ([]*model.Memory, error) {
	memories, _, err := s.List(ctx, userID, model.MemoryFilter{}, 1, n)
	return memories, err
}

func (s *MemoryService) Delete(ctx context.Context, userID, memoryID string) error {
	media, err := s.memoryRepository.Media(ctx, []string{memoryID})
	if err != nil {
		return fmt.Errorf("failed to load media: %w", err)
	}

	err = s.memoryRepository.Delete(ctx, userID, memoryID)
	if err != nil {
		return err
	}
	s.stats.Invalidate(ctx, userID)

	s.deleteOrphanedUploads(ctx, userID, media[memoryID])

	slog.Info("memory deleted", "user_id", userID, "memory_id", memoryID)
	return nil
}

// deleteOrphanedUploads removes uploads no other memory of the user still embeds.
func (s *MemoryService) deleteOrphanedUploads(ctx context.Context, userID string, media []*model.Media) {
	for _, m := range media {
		if _, ok := FileIDFromURL(m.URL); !ok {
			continue
		}

		referenced, err := s.memoryRepository.URLReferenced(ctx, userID, m.URL)
		if err != nil {
			slog.Warn("failed to check upload references", "error", err, "url", m.URL)
			continue
		}
		if referenced {
			continue
		}

		err = s.fileService.DeleteByURL(ctx, userID, m.URL)
		if err != nil {
			slog.Warn("failed to delete orphaned upload", "error", err, "url", m.URL)
		}
	}
}

// hydrate fills tags, media and the derived text fields.
func (s *MemoryService) hydrate(ctx context.Context, memories []*model.Memory, withHTML bool) error {
	if len(memories) == 0 {
		return nil
	}
	ids := lo.Map(memories, func(m *model.Memory, _ int) string { return m.ID })

	tags, err := s.memoryRepository.Tags(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	media, err := s.memoryRepository.Media(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load media: %w", err)
	}

	for _, m := range memories {
		m.Tags = tags[m.ID]
		if m.Tags == nil {
			m.Tags = []string{}
		}
		m.Media = media[m.ID]
		if m.Media == nil {
			m.Media = []*model.Media{}
		}

		rendered, err := richtext.ToHTML(m.Content, m.ContentFormat)
		if err != nil {
			slog.Warn("failed to render memory content", "error", err, "memory_id", m.ID)
			rendered = m.Content
		}
		if withHTML {
			m.ContentHTML = rendered
		}
		m.Excerpt = richtext.Excerpt(rendered, excerptLength)
	}
	return nil
}

// matchesQuery requires every term to fuzzy-match the title, a tag, or a word of the text.
func matchesQuery(m *model.Memory, query string) bool {
	words := strings.Fields(richtext.PlainText(m.Content))

	for _, term := range strings.Fields(query) {
		if fuzzy.MatchFold(term, m.Title) {
			continue
		}
		if lo.ContainsBy(m.Tags, func(tag string) bool { return fuzzy.MatchFold(term, tag) }) {
			continue
		}
		if len(fuzzy.FindFold(term, words)) > 0 {
			continue
		}
		return false
	}
	return true
}
