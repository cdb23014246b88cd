package types

import (
	ierr "github.com/invoicegen/invoicegen/internal/errors"
)

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_MAX_LIMIT     = 1000
)

// QueryFilter represents a generic limit/offset query filter
type QueryFilter struct {
	Limit  int `json:"limit,omitempty" form:"limit"`
	Offset int `json:"offset,omitempty" form:"offset"`
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit <= 0 {
		return FILTER_DEFAULT_LIMIT
	}
	return f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset < 0 {
		return 0
	}
	return f.Offset
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit < 0 || f.Limit > FILTER_MAX_LIMIT {
		return ierr.NewErrorf("limit must be between 0 and %d", FILTER_MAX_LIMIT).
			WithHintf("Limit must be between 0 and %d", FILTER_MAX_LIMIT).
			Mark(ierr.ErrValidation)
	}
	if f.Offset < 0 {
		return ierr.NewError("offset must be non-negative").
			WithHint("Offset must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
