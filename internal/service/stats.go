package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/relive/relive/internal/cache"
	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const dashboardRecentCount = 5

type StatsService struct {
	memoryRepository repository.MemoryRepository
	mediaRepository  repository.MediaRepository
	tagRepository    repository.TagRepository
	cache            cache.StatsCache
	now              func() time.Time
}

func NewStatsService(
	memoryRepository repository.MemoryRepository,
	mediaRepository repository.MediaRepository,
	tagRepository repository.TagRepository,
	statsCache cache.StatsCache,
) *StatsService {
	if statsCache == nil {
		statsCache = cache.NopStatsCache{}
	}
	return &StatsService{
		memoryRepository: memoryRepository,
		mediaRepository:  mediaRepository,
		tagRepository:    tagRepository,
		cache:            statsCache,
		now:              time.Now,
	}
}

// Stats returns cached stats when present, computing and caching them otherwise.
func (s *StatsService) Stats(ctx context.Context, userID string) (*model.Stats, error) {
	stats, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		slog.Warn("stats cache read failed", "error", err, "user_id", userID)
	}
	if ok {
		return stats, nil
	}

	stats, err = s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.cache.Set(ctx, userID, stats)
	if err != nil {
		slog.Warn("stats cache write failed", "error", err, "user_id", userID)
	}
	return stats, nil
}

func (s *StatsService) Invalidate(ctx context.Context, userID string) {
	err := s.cache.Delete(ctx, userID)
	if err != nil {
		slog.Warn("stats cache invalidation failed", "error", err, "user_id", userID)
	}
}

func (s *StatsService) compute(ctx context.Context, userID string) (*model.Stats, error) {
	stats := &model.Stats{}
	today := model.DayOf(s.now().UTC())
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.memoryRepository.CountUserMemories(ctx, userID, nil, nil)
		stats.TotalMemories = count
		return err
	})
	g.Go(func() error {
		count, err := s.memoryRepository.CountUserMemories(ctx, userID, &monthStart, &monthEnd)
		stats.MemoriesThisMonth = count
		return err
	})
	g.Go(func() error {
		byKind, err := s.mediaRepository.CountByKind(ctx, userID)
		stats.MediaByKind = byKind
		stats.TotalMedia = lo.Sum(lo.Values(byKind))
		return err
	})
	g.Go(func() error {
		count, err := s.tagRepository.Count(ctx, userID)
		stats.TotalTags = count
		return err
	})
	g.Go(func() error {
		moods, err := s.memoryRepository.MoodCounts(ctx, userID)
		stats.Moods = moods
		return err
	})
	g.Go(func() error {
		dates, err := s.memoryRepository.MemoryDates(ctx, userID)
		stats.CurrentStreak, stats.LongestStreak = Streaks(dates, today)
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

// Streaks returns the current run of consecutive days ending today or
// yesterday, and the longest run ever. Multiple memories on one day count once.
func Streaks(dates []time.Time, today time.Time) (current, longest int) {
	days := lo.Uniq(lo.Map(dates, func(d time.Time, _ int) int64 {
		return dayNumber(d)
	}))
	if len(days) == 0 {
		return 0, 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i] > days[j] })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i-1]-days[i] == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	// Future-dated memories don't extend the current streak.
	todayNumber := dayNumber(today)
	i := 0
	for i < len(days) && days[i] > todayNumber {
		i++
	}
	if i == len(days) || todayNumber-days[i] > 1 {
		return 0, longest
	}

	current = 1
	for i++; i < len(days) && days[i-1]-days[i] == 1; i++ {
		current++
	}
	return current, longest
}

func dayNumber(t time.Time) int64 {
	return model.DayOf(t).Unix() / (24 * 60 * 60)
}
