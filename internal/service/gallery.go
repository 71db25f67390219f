package service

import (
	"context"
	"fmt"

	"github.com/relive/relive/internal/model"
	"github.com/relive/relive/internal/repository"
)

type GalleryService struct {
	mediaRepository repository.MediaRepository
}

func NewGalleryService(mediaRepository repository.MediaRepository) *GalleryService {
	return &GalleryService{mediaRepository: mediaRepository}
}

// Gallery returns one page of the user's media, newest memory first.
// An empty kind lists every kind.
func (s *GalleryService) Gallery(ctx context.Context, userID, kind string, page, perPage int) ([]*model.GalleryItem, model.Page, error) {
	if kind != "" && !model.IsMediaKind(kind) {
		return nil, model.Page{}, invalid(fmt.Errorf("kind: must be one of image, video, audio"))
	}

	total, err := s.mediaRepository.Count(ctx, userID, kind)
	if err != nil {
		return nil, model.Page{}, fmt.Errorf("failed to count media: %w", err)
	}

	p := Paginate(total, page, perPage)
	items, err := s.mediaRepository.Gallery(ctx, userID, kind, p.PerPage, p.Offset())
	if err != nil {
		return nil, model.Page{}, fmt.Errorf("failed to list media: %w", err)
	}
	if items == nil {
		items = []*model.GalleryItem{}
	}

	return items, p, nil
}
