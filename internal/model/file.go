package model

import (
	"time"
)

// File is an uploaded object. Content embeds it as URL() and the
// editor never sees the storage path.
type File struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"-"`
	Kind         string    `db:"kind" json:"kind"`
	Filename     string    `db:"filename" json:"filename"`
	OriginalName string    `db:"original_name" json:"original_name"`
	MimeType     string    `db:"mime_type" json:"mime_type"`
	Size         int64     `db:"size" json:"size"`
	StoragePath  string    `db:"storage_path" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const FileURLPrefix = "/uploads/"

func (f *File) URL() string {
	return FileURLPrefix + f.ID
}
