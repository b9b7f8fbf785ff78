package domain

import "math"

// Pagination defaults and bounds shared by every list operation.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a validated 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest validates page and limit. Zero values select the defaults.
func NewPageRequest(page, limit int) (PageRequest, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	var errs ValidationErrors
	limitValid := limit >= 1 && limit <= MaxLimit
	switch {
	case page < 1:
		errs = append(errs, NewValidationError("page", "must be a positive integer", nil))
	case limitValid && page > math.MaxInt/limit:
		// (page-1)*limit must fit in an int
		errs = append(errs, NewValidationError("page", "is too large", nil))
	}
	if !limitValid {
		errs = append(errs, NewValidationError("limit", "must be between 1 and 100", nil))
	}
	if err := errs.OrNil(); err != nil {
		return PageRequest{}, err
	}

	return PageRequest{Page: page, Limit: limit}, nil
}

// Offset is the number of rows to skip for this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes where a page sits within the full result set.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// NewPagination computes page metadata for total matching records.
func NewPagination(req PageRequest, total int) Pagination {
	totalPages := 0
	if req.Limit > 0 {
		totalPages = (total + req.Limit - 1) / req.Limit
	}

	return Pagination{
		CurrentPage: req.Page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNextPage: req.Page < totalPages,
		HasPrevPage: req.Page > 1,
	}
}
