package model

type TimelineMonth struct {
	Month    int       `json:"month"`
	Label    string    `json:"label"`
	Count    int       `json:"count"`
	Memories []*Memory `json:"memories"`
}

type TimelineYear struct {
	Year   int              `json:"year"`
	Count  int              `json:"count"`
	Months []*TimelineMonth `json:"months"`
}

type Page struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}
