package chrome

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/invoicegen/invoicegen/internal/config"
)

// Browser is one running headless browser dedicated to a single export
type Browser interface {
	PrintToPDF(html string, opts PrintOpts) ([]byte, error)
	// Close terminates the browser process; safe to call more than once
	Close()
}

// Launcher starts an isolated browser bound to ctx
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

type execLauncher struct {
	opts []chromedp.ExecAllocatorOption
}

// NewLauncher starts a fresh Chrome process per Launch call
func NewLauncher(cfg *config.Configuration) Launcher {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.Flag("disable-setuid-sandbox", cfg.PDF.NoSandbox),
	)
	if cfg.PDF.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.PDF.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.PDF.ChromePath))
	}
	return &execLauncher{opts: opts}
}

func (l *execLauncher) Launch(ctx context.Context) (Browser, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	b := &chromeBrowser{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
	}

	// an empty Run starts the process so launch failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

type chromeBrowser struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (b *chromeBrowser) PrintToPDF(html string, opts PrintOpts) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(b.ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPaperWidth(opts.PaperWidth).
				WithPaperHeight(opts.PaperHeight).
				WithMarginTop(opts.MarginTop).
				WithMarginBottom(opts.MarginBottom).
				WithMarginLeft(opts.MarginLeft).
				WithMarginRight(opts.MarginRight).
				WithPrintBackground(opts.PrintBackground).
				Do(ctx)
			return err
		}),
	)
	return buf, err
}

func (b *chromeBrowser) Close() {
	b.cancel()
}
