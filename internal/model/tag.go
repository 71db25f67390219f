package model

import (
	"time"
)

type Tag struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// Computed fields (not in database)
	MemoryCount int `db:"memory_count" json:"memory_count"`
}
