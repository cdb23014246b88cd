package router

import (
	"context"
	"errors"
	"testing"

	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	log := logger.NewNoopLogger()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network timeout", timeoutErr{}, true},
		{"cancelled", context.Canceled, false},
		{"not found", ierr.NewError("gone").Mark(ierr.ErrNotFound), false},
		{"validation", ierr.NewError("bad").Mark(ierr.ErrValidation), false},
		{"render", ierr.NewError("chrome crashed").Mark(ierr.ErrRender), true},
		{"database", ierr.NewError("conn reset").Mark(ierr.ErrDatabase), true},
		{"unknown", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(log, tt.err))
		})
	}
}
