package model

import (
	"time"
)

const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
	MediaKindAudio = "audio"
)

var MediaKinds = []string{MediaKindImage, MediaKindVideo, MediaKindAudio}

func IsMediaKind(kind string) bool {
	switch kind {
	case MediaKindImage, MediaKindVideo, MediaKindAudio:
		return true
	}
	return false
}

type Media struct {
	ID         string    `db:"id" json:"id"`
	MemoryID   string    `db:"memory_id" json:"memory_id"`
	URL        string    `db:"url" json:"url"`
	Kind       string    `db:"kind" json:"kind"`
	Position   int       `db:"position" json:"-"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// GalleryItem is a media row joined with the memory it belongs to.
type GalleryItem struct {
	Media
	MemoryTitle string    `db:"memory_title" json:"memory_title"`
	MemoryDate  time.Time `db:"memory_date" json:"memory_date"`
}
