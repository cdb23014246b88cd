package router

import (
	"context"
	"net"

	"github.com/cockroachdb/errors"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
)

// shouldRetry treats business failures as final and everything else as transient
func shouldRetry(logger *logger.Logger, err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", err)
		return true
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if ierr.IsValidation(err) ||
		ierr.IsNotFound(err) ||
		ierr.IsPermissionDenied(err) ||
		ierr.IsUnauthorized(err) {
		logger.Debugw("not retrying business error", "error", err)
		return false
	}

	return true
}
