package service

import (
	"context"
	"fmt"
	"time"

	"github.com/relive/relive/internal/model"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	statsService  *StatsService
	memoryService *MemoryService
	now           func() time.Time
}

func NewDashboardService(statsService *StatsService, memoryService *MemoryService) *DashboardService {
	return &DashboardService{
		statsService:  statsService,
		memoryService: memoryService,
		now:           time.Now,
	}
}

func (s *DashboardService) Dashboard(ctx context.Context, userID string) (*model.Dashboard, error) {
	dashboard := &model.Dashboard{}
	today := model.DayOf(s.now().UTC())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.statsService.Stats(ctx, userID)
		dashboard.Stats = stats
		return err
	})
	g.Go(func() error {
		recent, err := s.memoryService.Recent(ctx, userID, dashboardRecentCount)
		dashboard.Recent = recent
		return err
	})
	g.Go(func() error {
		all, err := s.memoryService.All(ctx, userID, model.MemoryFilter{})
		dashboard.OnThisDay = OnThisDay(all, today)
		return err
	})

	err := g.Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return dashboard, nil
}

// OnThisDay keeps memories from earlier years that share today's month and day.
func OnThisDay(memories []*model.Memory, today time.Time) []*model.Memory {
	return lo.Filter(memories, func(m *model.Memory, _ int) bool {
		return m.Date.Month() == today.Month() &&
			m.Date.Day() == today.Day() &&
			m.Date.Year() < today.Year()
	})
}
