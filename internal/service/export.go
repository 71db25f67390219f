package service

import (
	"context"
	"time"

	"github.com/relive/relive/internal/model"
)

// Export is the downloadable archive of a user's journal.
type Export struct {
	ExportedAt time.Time       `json:"exported_at"`
	User       *model.User     `json:"user"`
	Memories   []*model.Memory `json:"memories"`
}

type ExportService struct {
	userService   *UserService
	memoryService *MemoryService
}

func NewExportService(userService *UserService, memoryService *MemoryService) *ExportService {
	return &ExportService{
		userService:   userService,
		memoryService: memoryService,
	}
}

func (s *ExportService) Export(ctx context.Context, userID string) (*Export, error) {
	user, err := s.userService.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	memories, err := s.memoryService.All(ctx, userID, model.MemoryFilter{})
	if err != nil {
		return nil, err
	}
	if memories == nil {
		memories = []*model.Memory{}
	}

	return &Export{
		ExportedAt: time.Now().UTC(),
		User:       user,
		Memories:   memories,
	}, nil
}
