package service

import (
	"github.com/relive/relive/internal/model"
)

const (
	DefaultPerPage = 24
	MaxPerPage     = 100
)

// Paginate clamps the requested page and size against total.
// perPage <= 0 means DefaultPerPage; totalPages is at least 1.
func Paginate(total, page, perPage int) model.Page {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	perPage = min(perPage, MaxPerPage)

	totalPages := (total + perPage - 1) / perPage
	totalPages = max(totalPages, 1)

	page = max(page, 1)
	page = min(page, totalPages)

	return model.Page{
		Page:       page,
		PerPage:    perPage,
		Total:      max(total, 0),
		TotalPages: totalPages,
	}
}

// pageOf returns the slice of items that falls on p.
func pageOf[T any](items []T, p model.Page) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
