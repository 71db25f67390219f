package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/relive/relive/internal/model"
	"github.com/samber/lo"
)

// TimelineFilter narrows the timeline; zero values are ignored.
// Month without Year matches that month in every year.
type TimelineFilter struct {
	Year  int
	Month int
	Tag   string
	Mood  string
}

func (f TimelineFilter) Validate() error {
	if f.Month < 0 || f.Month > 12 {
		return invalid(fmt.Errorf("month: must be between 1 and 12"))
	}
	if f.Year < 0 {
		return invalid(fmt.Errorf("year: must be positive"))
	}
	return nil
}

// memoryFilter turns the calendar parts into a date range where possible.
func (f TimelineFilter) memoryFilter() model.MemoryFilter {
	filter := model.MemoryFilter{Tag: f.Tag, Mood: f.Mood}
	if f.Year == 0 {
		return filter
	}

	from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	if f.Month != 0 {
		from = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, 0)
	}
	filter.From = &from
	filter.To = &to
	return filter
}

// Group sorts memories by date descending (ties by creation, newest first)
// and buckets them into years and months, both descending.
func Group(memories []*model.Memory) []*model.TimelineYear {
	sorted := make([]*model.Memory, len(memories))
	copy(sorted, memories)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	years := []*model.TimelineYear{}
	for _, memory := range sorted {
		year, month := memory.Date.Year(), memory.Date.Month()

		if len(years) == 0 || years[len(years)-1].Year != year {
			years = append(years, &model.TimelineYear{Year: year})
		}
		y := years[len(years)-1]

		if len(y.Months) == 0 || y.Months[len(y.Months)-1].Month != int(month) {
			y.Months = append(y.Months, &model.TimelineMonth{
				Month: int(month),
				Label: fmt.Sprintf("%s %d", month, year),
			})
		}
		m := y.Months[len(y.Months)-1]

		m.Memories = append(m.Memories, memory)
		m.Count++
		y.Count++
	}

	return years
}

type TimelineService struct {
	memoryService *MemoryService
}

func NewTimelineService(memoryService *MemoryService) *TimelineService {
	return &TimelineService{memoryService: memoryService}
}

func (s *TimelineService) Timeline(ctx context.Context, userID string, filter TimelineFilter) ([]*model.TimelineYear, error) {
	err := filter.Validate()
	if err != nil {
		return nil, err
	}

	memories, err := s.memoryService.All(ctx, userID, filter.memoryFilter())
	if err != nil {
		return nil, err
	}

	if filter.Year == 0 && filter.Month != 0 {
		memories = lo.Filter(memories, func(m *model.Memory, _ int) bool {
			return int(m.Date.Month()) == filter.Month
		})
	}

	return Group(memories), nil
}
