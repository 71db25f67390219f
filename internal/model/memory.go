package model

import (
	"time"
)

const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

const (
	MemorySortDate    = "date"
	MemorySortUpdated = "updated"
	MemorySortTitle   = "title"
)

type Memory struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"-"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	ContentFormat string    `db:"content_format" json:"content_format"`
	Date          time.Time `db:"memory_date" json:"date"`
	Location      *string   `db:"location" json:"location,omitempty"`
	Mood          *string   `db:"mood" json:"mood,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Computed fields (not in database)
	Tags        []string `db:"-" json:"tags"`
	Media       []*Media `db:"-" json:"media"`
	ContentHTML string   `db:"-" json:"content_html,omitempty"`
	Excerpt     string   `db:"-" json:"excerpt,omitempty"`
}

// MemoryFilter narrows memory listings. Zero values mean "no filter".
type MemoryFilter struct {
	Query string
	Tag   string
	Mood  string
	From  *time.Time
	To    *time.Time
	Sort  string
}

// DayOf returns t's calendar date as midnight UTC, which is how memory dates are stored.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
