package chrome

import (
	"context"
	"time"

	"github.com/h2non/filetype"
	"github.com/invoicegen/invoicegen/internal/config"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"golang.org/x/sync/semaphore"
)

// Exporter prints HTML documents to PDF
type Exporter interface {
	Export(ctx context.Context, html string) ([]byte, error)
}

type exporter struct {
	launcher Launcher
	sem      *semaphore.Weighted
	timeout  time.Duration
	logger   *logger.Logger
}

func NewExporter(cfg *config.Configuration, launcher Launcher, logger *logger.Logger) Exporter {
	return &exporter{
		launcher: launcher,
		sem:      semaphore.NewWeighted(cfg.PDF.MaxConcurrent),
		timeout:  cfg.PDF.Timeout,
		logger:   logger,
	}
}

// Export launches a dedicated browser, prints html as an A4 page and always tears the browser down.
// At most cfg.PDF.MaxConcurrent exports run at once; the rest wait until ctx or cfg.PDF.Timeout ends.
func (e *exporter) Export(ctx context.Context, html string) ([]byte, error) {
	printOpts := DefaultPrintOpts()

	// the deadline covers the wait for a slot as well as the print
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Error generating PDF").
			WithMessage("waiting for a free browser slot").
			Mark(ierr.ErrRender)
	}
	defer e.sem.Release(1)

	start := time.Now()

	browser, err := e.launcher.Launch(ctx)
	if err != nil {
		e.logger.Errorw("failed to launch browser", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Error generating PDF").
			WithMessage("launch browser").
			Mark(ierr.ErrRender)
	}
	defer browser.Close()

	data, err := browser.PrintToPDF(html, printOpts)
	if err != nil {
		e.logger.Errorw("failed to print pdf", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Error generating PDF").
			WithMessage("print to pdf").
			Mark(ierr.ErrRender)
	}

	if !filetype.Is(data, "pdf") {
		return nil, ierr.NewError("browser output is not a pdf document").
			WithHint("Error generating PDF").
			WithReportableDetails(map[string]any{
				"size": len(data),
			}).
			Mark(ierr.ErrRender)
	}

	e.logger.Debugw("exported pdf",
		"size", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}
