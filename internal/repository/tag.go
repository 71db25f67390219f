package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/relive/relive/internal/model"
)

type TagRepository interface {
	// Tags lists the user's tags with how many memories use each, by name.
	Tags(ctx context.Context, userID string) ([]*model.Tag, error)
	// Ensure returns the named tag, creating it when missing.
	Ensure(ctx context.Context, userID, name string) (*model.Tag, error)
	Count(ctx context.Context, userID string) (int, error)
}

type tagRepository struct {
	db *sqlx.DB
}

func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) Tags(ctx context.Context, userID string) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT t.id, t.user_id, t.name, t.created_at, COUNT(mt.memory_id) AS memory_count
	          FROM tags t LEFT JOIN memory_tags mt ON mt.tag_id = t.id
	          WHERE t.user_id = $1
	          GROUP BY t.id, t.user_id, t.name, t.created_at
	          ORDER BY t.name ASC`

	err := r.db.SelectContext(ctx, &tags, query, userID)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *tagRepository) Ensure(ctx context.Context, userID, name string) (*model.Tag, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = upsertTags(ctx, tx, userID, []string{name})
	if err != nil {
		return nil, err
	}

	tag := &model.Tag{}
	err = tx.GetContext(ctx, tag, `SELECT * FROM tags WHERE user_id = $1 AND name = $2`, userID, name)
	if err != nil {
		return nil, err
	}

	return tag, tx.Commit()
}

func (r *tagRepository) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tags WHERE user_id = $1`, userID)
	return count, err
}

// upsertTags creates any missing tags for the user and returns the IDs of all names, in order.
func upsertTags(ctx context.Context, tx *sqlx.Tx, userID string, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	now := time.Now().UTC()

	for _, name := range names {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tags (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, name) DO NOTHING`,
			uuid.New().String(), userID, name, now)
		if err != nil {
			return nil, err
		}

		var id string
		err = tx.GetContext(ctx, &id, `SELECT id FROM tags WHERE user_id = $1 AND name = $2`, userID, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}
