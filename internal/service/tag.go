package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxTagLength     = 50
	maxTagsPerMemory = 20
)

// NormalizeTagName trims, collapses inner whitespace and case-folds a tag.
func NormalizeTagName(name string) string {
	// Casers carry state and are not shared between goroutines.
	return cases.Lower(language.Und).String(strings.Join(strings.Fields(name), " "))
}

// NormalizeTags normalizes names and drops blanks and duplicates, keeping first-seen order.
func NormalizeTags(names []string) []string {
	normalized := lo.Map(names, func(name string, _ int) string {
		return NormalizeTagName(name)
	})
	return lo.Uniq(lo.Compact(normalized))
}

type TagService struct {
	tagRepository repository.TagRepository
	stats         StatsInvalidator
}

func NewTagService(tagRepository repository.TagRepository, stats StatsInvalidator) *TagService {
	return &TagService{
		tagRepository: tagRepository,
		stats:         stats,
	}
}

func (s *TagService) Tags(ctx context.Context, userID string) ([]*model.Tag, error) {
	tags, err := s.tagRepository.Tags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Create(ctx context.Context, userID, name string) (*model.Tag, error) {
	name = NormalizeTagName(name)
	if name == "" {
		return nil, invalid(fmt.Errorf("name: cannot be blank"))
	}
	if utf8.RuneCountInString(name) > maxTagLength {
		return nil, invalid(fmt.Errorf("name: the length must be no more than %d", maxTagLength))
	}

	tag, err := s.tagRepository.Ensure(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.stats.Invalidate(ctx, userID)
	return tag, nil
}
