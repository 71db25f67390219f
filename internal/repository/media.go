package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/relive/relive/internal/model"
)

type MediaRepository interface {
	// Gallery lists the user's media newest first, optionally narrowed to one kind.
	Gallery(ctx context.Context, userID, kind string, limit, offset int) ([]*model.GalleryItem, error)
	Count(ctx context.Context, userID, kind string) (int, error)
	CountByKind(ctx context.Context, userID string) (map[string]int, error)
}

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Gallery(ctx context.Context, userID, kind string, limit, offset int) ([]*model.GalleryItem, error) {
	var items []*model.GalleryItem
	query := `SELECT md.id, md.memory_id, md.url, md.kind, md.uploaded_at,
	                 m.title AS memory_title, m.memory_date AS memory_date
	          FROM media md JOIN memories m ON m.id = md.memory_id
	          WHERE m.user_id = $1 AND ($2 = '' OR md.kind = $2)
	          ORDER BY m.memory_date DESC, md.uploaded_at DESC
	          LIMIT $3 OFFSET $4`

	err := r.db.SelectContext(ctx, &items, query, userID, kind, limit, offset)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *mediaRepository) Count(ctx context.Context, userID, kind string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM media md JOIN memories m ON m.id = md.memory_id
	          WHERE m.user_id = $1 AND ($2 = '' OR md.kind = $2)`

	err := r.db.GetContext(ctx, &count, query, userID, kind)
	return count, err
}

func (r *mediaRepository) CountByKind(ctx context.Context, userID string) (map[string]int, error) {
	var rows []struct {
		Kind  string `db:"kind"`
		Count int    `db:"count"`
	}
	query := `SELECT md.kind, COUNT(*) AS count FROM media md JOIN memories m ON m.id = md.memory_id
	          WHERE m.user_id = $1
	          GROUP BY md.kind`

	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(model.MediaKinds))
	for _, kind := range model.MediaKinds {
		counts[kind] = 0
	}
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}
