package pagination

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a resolved page. Zero fields mean "use the default".
type PageRequest struct {
	Page  int
	Limit int
}

// PageParams binds page and limit from a query string. Pointers keep an
// explicit page=0 or limit=0 visible to the validator instead of reading as
// absent.
type PageParams struct {
	Page  *int `form:"page" binding:"omitempty,min=1"`
	Limit *int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Request converts bound params into a PageRequest.
func (p PageParams) Request() PageRequest {
	var req PageRequest
	if p.Page != nil {
		req.Page = *p.Page
	}
	if p.Limit != nil {
		req.Limit = *p.Limit
	}
	return req
}

// Defaults fills in page 1 and the default limit when they are missing.
func (p *PageRequest) Defaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta describes where a page sits within the full result set.
type Meta struct {
	CurrentPage     int   `json:"current_page"`
	TotalPages      int   `json:"total_pages"`
	TotalCount      int64 `json:"total_count"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
	Limit           int   `json:"limit"`
}

// NewMeta computes page metadata from the total number of matching rows.
func NewMeta(req PageRequest, totalCount int64) Meta {
	totalPages := int(math.Ceil(float64(totalCount) / float64(req.Limit)))
	return Meta{
		CurrentPage:     req.Page,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		HasNextPage:     req.Page < totalPages,
		HasPreviousPage: req.Page > 1,
		Limit:           req.Limit,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.Limit)
	}
}
