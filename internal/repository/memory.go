package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/relive/relive/internal/model"
)

var (
	ErrMemoryNotFound = errors.New("memory not found")
)

type MemoryRepository interface {
	// Create inserts the memory together with its tags and media in one transaction.
	Create(ctx context.Context, memory *model.Memory, tags []string, media []*model.Media) error
	// Update rewrites the memory row and replaces its tags and media in one transaction.
	Update(ctx context.Context, memory *model.Memory, tags []string, media []*model.Media) error
	ByID(ctx context.Context, userID, memoryID string) (*model.Memory, error)
	Memories(ctx context.Context, userID string, filter model.MemoryFilter) ([]*model.Memory, error)
	Delete(ctx context.Context, userID, memoryID string) error
	Tags(ctx context.Context, memoryIDs []string) (map[string][]string, error)
	Media(ctx context.Context, memoryIDs []string) (map[string][]*model.Media, error)
	CountUserMemories(ctx context.Context, userID string, from, to *time.Time) (int, error)
	MemoryDates(ctx context.Context, userID string) ([]time.Time, error)
	MoodCounts(ctx context.Context, userID string) (map[string]int, error)
	URLReferenced(ctx context.Context, userID, url string) (bool, error)
}

type memoryRepository struct {
	db *sqlx.DB
}

func NewMemoryRepository(db *sqlx.DB) MemoryRepository {
	return &memoryRepository{db: db}
}

func (r *memoryRepository) Create(ctx context.Context, memory *model.Memory, tags []string, media []*model.Media) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `INSERT INTO memories (id, user_id, title, content, content_format, memory_date, location, mood, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

		_, err := tx.ExecContext(ctx, query,
			memory.ID,
			memory.UserID,
			memory.Title,
			memory.Content,
			memory.ContentFormat,
			memory.Date,
			memory.Location,
			memory.Mood,
			memory.CreatedAt,
			memory.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert memory: %w", err)
		}

		return replaceRelations(ctx, tx, memory, tags, media)
	})
}

func (r *memoryRepository) Update(ctx context.Context, memory *model.Memory, tags []string, media []*model.Media) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `UPDATE memories
		          SET title = $1, content = $2, content_format = $3, memory_date = $4, location = $5, mood = $6, updated_at = $7
		          WHERE id = $8 AND user_id = $9`

		result, err := tx.ExecContext(ctx, query,
			memory.Title,
			memory.Content,
			memory.ContentFormat,
			memory.Date,
			memory.Location,
			memory.Mood,
			memory.UpdatedAt,
			memory.ID,
			memory.UserID,
		)
		err = expectRows(result, err, ErrMemoryNotFound)
		if err != nil {
			return err
		}

		return replaceRelations(ctx, tx, memory, tags, media)
	})
}

// replaceRelations deletes then re-inserts the memory's tag links and media rows.
func replaceRelations(ctx context.Context, tx *sqlx.Tx, memory *model.Memory, tags []string, media []*model.Media) error {
	tagIDs, err := upsertTags(ctx, tx, memory.UserID, tags)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = $1`, memory.ID)
	if err != nil {
		return fmt.Errorf("failed to clear memory tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err = tx.ExecContext(ctx, `INSERT INTO memory_tags (memory_id, tag_id) VALUES ($1, $2)`, memory.ID, tagID)
		if err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM media WHERE memory_id = $1`, memory.ID)
	if err != nil {
		return fmt.Errorf("failed to clear media: %w", err)
	}
	for i, m := range media {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.MemoryID = memory.ID
		m.Position = i
		_, err = tx.ExecContext(ctx, `INSERT INTO media (id, memory_id, url, kind, position, uploaded_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, m.MemoryID, m.URL, m.Kind, m.Position, m.UploadedAt)
		if err != nil {
			return fmt.Errorf("failed to insert media: %w", err)
		}
	}

	return nil
}

func (r *memoryRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = fn(tx)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *memoryRepository) ByID(ctx context.Context, userID, memoryID string) (*model.Memory, error) {
	memory := &model.Memory{}
	query := `SELECT * FROM memories WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, memory, query, memoryID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemoryNotFound
	}
	if err != nil {
		return nil, err
	}

	return memory, nil
}

// Memories returns the user's memories matching the SQL-expressible parts of filter.
// Free-text queries are applied by the caller.
func (r *memoryRepository) Memories(ctx context.Context, userID string, filter model.MemoryFilter) ([]*model.Memory, error) {
	var memories []*model.Memory

	conditions := []string{"user_id = $1"}
	args := []any{userID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Mood != "" {
		conditions = append(conditions, "mood = "+arg(filter.Mood))
	}
	if filter.From != nil {
		conditions = append(conditions, "memory_date >= "+arg(filter.From.UTC()))
	}
	if filter.To != nil {
		conditions = append(conditions, "memory_date < "+arg(filter.To.UTC()))
	}
	if filter.Tag != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM memory_tags mt JOIN tags t ON t.id = mt.tag_id
			WHERE mt.memory_id = memories.id AND t.name = `+arg(filter.Tag)+`)`)
	}

	var orderBy string
	switch filter.Sort {
	case model.MemorySortUpdated:
		orderBy = "ORDER BY updated_at DESC"
	case model.MemorySortTitle:
		orderBy = "ORDER BY LOWER(title) ASC, memory_date DESC"
	default:
		orderBy = "ORDER BY memory_date DESC, created_at DESC"
	}

	query := `SELECT * FROM memories WHERE ` + strings.Join(conditions, " AND ") + " " + orderBy

	err := r.db.SelectContext(ctx, &memories, query, args...)
	if err != nil {
		return nil, err
	}

	return memories, nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID, memoryID string) error {
	query := `DELETE FROM memories WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, memoryID, userID)
	return expectRows(result, err, ErrMemoryNotFound)
}

// Tags returns tag names per memory ID, alphabetically.
func (r *memoryRepository) Tags(ctx context.Context, memoryIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(memoryIDs))
	if len(memoryIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT mt.memory_id, t.name
		FROM memory_tags mt JOIN tags t ON t.id = mt.tag_id
		WHERE mt.memory_id IN (?)
		ORDER BY t.name ASC`, memoryIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		MemoryID string `db:"memory_id"`
		Name     string `db:"name"`
	}
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.MemoryID] = append(result[row.MemoryID], row.Name)
	}
	return result, nil
}

// Media returns media rows per memory ID in the order they appear in the content.
func (r *memoryRepository) Media(ctx context.Context, memoryIDs []string) (map[string][]*model.Media, error) {
	result := make(map[string][]*model.Media, len(memoryIDs))
	if len(memoryIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM media WHERE memory_id IN (?) ORDER BY position ASC`, memoryIDs)
	if err != nil {
		return nil, err
	}

	var media []*model.Media
	err = r.db.SelectContext(ctx, &media, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, m := range media {
		result[m.MemoryID] = append(result[m.MemoryID], m)
	}
	return result, nil
}

// CountUserMemories counts the user's memories dated in [from, to). Nil bounds are open.
func (r *memoryRepository) CountUserMemories(ctx context.Context, userID string, from, to *time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM memories WHERE user_id = $1`
	args := []any{userID}
	if from != nil {
		args = append(args, from.UTC())
		query += fmt.Sprintf(" AND memory_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, to.UTC())
		query += fmt.Sprintf(" AND memory_date < $%d", len(args))
	}

	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	return count, err
}

// MemoryDates returns every memory date for the user, newest first.
func (r *memoryRepository) MemoryDates(ctx context.Context, userID string) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.SelectContext(ctx, &dates, `SELECT memory_date FROM memories WHERE user_id = $1 ORDER BY memory_date DESC`, userID)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *memoryRepository) MoodCounts(ctx context.Context, userID string) (map[string]int, error) {
	var rows []struct {
		Mood  string `db:"mood"`
		Count int    `db:"count"`
	}
	query := `SELECT mood, COUNT(*) AS count FROM memories
	          WHERE user_id = $1 AND mood IS NOT NULL AND mood <> ''
	          GROUP BY mood`

	err := r.db.SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Mood] = row.Count
	}
	return counts, nil
}

// URLReferenced reports whether any of the user's memories still embeds url.
func (r *memoryRepository) URLReferenced(ctx context.Context, userID, url string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM media md JOIN memories m ON m.id = md.memory_id
	          WHERE m.user_id = $1 AND md.url = $2`

	err := r.db.GetContext(ctx, &count, query, userID, url)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
