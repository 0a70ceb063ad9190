package render

import (
	"context"
	"fmt"
	"time"

	"smartsheet/internal/sheets"
	"smartsheet/internal/shared/logging"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const (
	defaultWidth   = 1200
	defaultHeight  = 800
	defaultTimeout = 30 * time.Second
	captureQuality = 100 // 100 yields PNG
)

// RotaSource supplies the shifts to render.
type RotaSource interface {
	ListStaffRota(ctx context.Context) ([]sheets.RotaShift, error)
}

// Options configures a RotaRenderer.
type Options struct {
	Chrome  ChromeConfig
	Width   int
	Height  int
	Timeout time.Duration
	Logger  logging.Logger
	// Now is overridable for deterministic subtitles.
	Now func() time.Time
}

// RotaRenderer screenshots the staff rota table with headless Chrome.
type RotaRenderer struct {
	source  RotaSource
	chrome  ChromeConfig
	width   int
	height  int
	timeout time.Duration
	logger  logging.Logger
	now     func() time.Time
}

// NewRotaRenderer builds a renderer reading shifts from source.
func NewRotaRenderer(source RotaSource, opts Options) *RotaRenderer {
	r := &RotaRenderer{
		source:  source,
		chrome:  opts.Chrome,
		width:   opts.Width,
		height:  opts.Height,
		timeout: opts.Timeout,
		logger:  logging.OrNop(opts.Logger),
		now:     opts.Now,
	}
	if r.width <= 0 {
		r.width = defaultWidth
	}
	if r.height <= 0 {
		r.height = defaultHeight
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// HTML returns the document that Render screenshots.
func (r *RotaRenderer) HTML(ctx context.Context) (string, error) {
	if r.source == nil {
		return "", fmt.Errorf("rota source not configured")
	}
	shifts, err := r.source.ListStaffRota(ctx)
	if err != nil {
		return "", fmt.Errorf("load staff rota: %w", err)
	}
	return BuildRotaHTML(shifts, r.now())
}

// Render produces a full-page PNG of the current rota.
func (r *RotaRenderer) Render(ctx context.Context) ([]byte, error) {
	htmlDoc, err := r.HTML(ctx)
	if err != nil {
		return nil, err
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	chromeCtx, closeFn, err := newChromeContext(renderCtx, r.chrome)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var png []byte
	started := time.Now()
	tasks := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(int64(r.width), int64(r.height), 1, false),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlDoc).Do(ctx)
		}),
		chromedp.WaitVisible("#rota", chromedp.ByQuery),
		chromedp.FullScreenshot(&png, captureQuality),
	}
	if err := chromedp.Run(chromeCtx, tasks...); err != nil {
		return nil, fmt.Errorf("capture rota screenshot: %w", err)
	}
	r.logger.Info("Rendered staff rota (%d bytes) in %s", len(png), time.Since(started).Round(time.Millisecond))
	return png, nil
}
