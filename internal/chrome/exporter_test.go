package chrome

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/invoicegen/invoicegen/internal/config"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var samplePDF = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n%%EOF")

type fakeBrowser struct {
	out      []byte
	err      error
	delay    time.Duration
	closed   int32
	gotOpts  PrintOpts
	inflight *int32
	peak     *int32
}

func (b *fakeBrowser) PrintToPDF(_ string, opts PrintOpts) ([]byte, error) {
	b.gotOpts = opts
	if b.inflight != nil {
		n := atomic.AddInt32(b.inflight, 1)
		defer atomic.AddInt32(b.inflight, -1)
		for {
			p := atomic.LoadInt32(b.peak)
			if n <= p || atomic.CompareAndSwapInt32(b.peak, p, n) {
				break
			}
		}
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.out, b.err
}

func (b *fakeBrowser) Close() {
	atomic.AddInt32(&b.closed, 1)
}

type fakeLauncher struct {
	mu       sync.Mutex
	browsers []*fakeBrowser
	newFn    func() *fakeBrowser
	err      error
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	if l.err != nil {
		return nil, l.err
	}
	b := l.newFn()
	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()
	return b, nil
}

type ExporterSuite struct {
	suite.Suite
	cfg *config.Configuration
	ctx context.Context
}

func TestExporter(t *testing.T) {
	suite.Run(t, new(ExporterSuite))
}

func (s *ExporterSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.cfg.PDF.Timeout = 5 * time.Second
	s.cfg.PDF.MaxConcurrent = 2
	s.ctx = context.Background()
}

func (s *ExporterSuite) newExporter(l Launcher) Exporter {
	return NewExporter(s.cfg, l, logger.NewNoopLogger())
}

func (s *ExporterSuite) TestExportSuccessUsesA4Layout() {
	l := &fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{out: samplePDF} }}

	data, err := s.newExporter(l).Export(s.ctx, "<html><body>hi</body></html>")
	s.Require().NoError(err)
	s.Equal(samplePDF, data)

	s.Require().Len(l.browsers, 1)
	b := l.browsers[0]
	s.EqualValues(1, atomic.LoadInt32(&b.closed))
	s.Equal(A4WidthInches, b.gotOpts.PaperWidth)
	s.Equal(A4HeightInches, b.gotOpts.PaperHeight)
	s.InDelta(0.2083, b.gotOpts.MarginTop, 0.0001)
	s.InDelta(0.2083, b.gotOpts.MarginLeft, 0.0001)
	s.True(b.gotOpts.PrintBackground)
}

func (s *ExporterSuite) TestLaunchFailureIsRenderError() {
	l := &fakeLauncher{err: errors.New("chrome not found")}

	data, err := s.newExporter(l).Export(s.ctx, "<html></html>")
	s.Nil(data)
	s.True(ierr.IsRender(err))

	// the slot is given back even though nothing launched
	exp := s.newExporter(&fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{out: samplePDF} }})
	_, err = exp.Export(s.ctx, "<html></html>")
	s.NoError(err)
}

func (s *ExporterSuite) TestLaunchFailureReleasesSemaphore() {
	s.cfg.PDF.MaxConcurrent = 1
	l := &fakeLauncher{err: errors.New("boom")}
	exp := s.newExporter(l)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(s.ctx, time.Second)
		_, err := exp.Export(ctx, "<html></html>")
		cancel()
		s.True(ierr.IsRender(err))
		s.NotContains(err.Error(), "context deadline exceeded")
	}
}

func (s *ExporterSuite) TestPrintFailureClosesBrowser() {
	l := &fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{err: errors.New("target crashed")} }}

	_, err := s.newExporter(l).Export(s.ctx, "<html></html>")
	s.True(ierr.IsRender(err))
	s.Require().Len(l.browsers, 1)
	s.EqualValues(1, atomic.LoadInt32(&l.browsers[0].closed))
}

func (s *ExporterSuite) TestNonPDFOutputRejected() {
	l := &fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{out: []byte("<html>")} }}

	_, err := s.newExporter(l).Export(s.ctx, "<html></html>")
	s.True(ierr.IsRender(err))
	s.EqualValues(1, atomic.LoadInt32(&l.browsers[0].closed))
}

func (s *ExporterSuite) TestConcurrencyIsBounded() {
	var inflight, peak int32
	l := &fakeLauncher{newFn: func() *fakeBrowser {
		return &fakeBrowser{out: samplePDF, delay: 20 * time.Millisecond, inflight: &inflight, peak: &peak}
	}}
	exp := s.newExporter(l)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := exp.Export(s.ctx, "<html></html>")
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	s.LessOrEqual(atomic.LoadInt32(&peak), int32(2))
}

func (s *ExporterSuite) TestCancelledWhileWaitingForSlot() {
	s.cfg.PDF.MaxConcurrent = 1
	release := make(chan struct{})
	started := make(chan struct{})
	l := &fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{out: samplePDF} }}
	blocking := &blockingLauncher{inner: l, started: started, release: release}
	exp := s.newExporter(blocking)

	go func() { _, _ = exp.Export(s.ctx, "<html></html>") }()
	<-started

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := exp.Export(ctx, "<html></html>")
	s.True(ierr.IsRender(err))

	close(release)
}

func (s *ExporterSuite) TestQueuedExportGivesUpAfterTimeout() {
	s.cfg.PDF.MaxConcurrent = 1
	s.cfg.PDF.Timeout = 50 * time.Millisecond
	release := make(chan struct{})
	started := make(chan struct{})
	l := &fakeLauncher{newFn: func() *fakeBrowser { return &fakeBrowser{out: samplePDF} }}
	exp := s.newExporter(&blockingLauncher{inner: l, started: started, release: release})

	go func() { _, _ = exp.Export(s.ctx, "<html></html>") }()
	<-started

	// no deadline on the caller's side, only the configured timeout bounds the wait
	done := make(chan error, 1)
	go func() {
		_, err := exp.Export(context.Background(), "<html></html>")
		done <- err
	}()

	select {
	case err := <-done:
		s.True(ierr.IsRender(err))
	case <-time.After(2 * time.Second):
		s.Fail("queued export did not give up")
	}

	close(release)
}

type blockingLauncher struct {
	inner   Launcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingLauncher) Launch(ctx context.Context) (Browser, error) {
	b.once.Do(func() {
		close(b.started)
		<-b.release
	})
	return b.inner.Launch(ctx)
}

func TestDefaultPrintOpts(t *testing.T) {
	o := DefaultPrintOpts()
	require.True(t, o.PrintBackground)
	assert.Equal(t, 8.27, o.PaperWidth)
	assert.Equal(t, 11.69, o.PaperHeight)
	assert.Equal(t, 20.0/96.0, o.MarginBottom)
}
