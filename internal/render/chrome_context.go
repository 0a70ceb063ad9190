package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chromedp/chromedp"
)

// ChromeConfig selects the browser used for screenshots.
type ChromeConfig struct {
	// Mode is "local" (spawn Chrome) or "remote" (attach over CDP).
	Mode        string
	ChromePath  string
	RemoteURL   string
	Headless    bool
	UserDataDir string
}

func newChromeContext(ctx context.Context, cfg ChromeConfig) (context.Context, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "local":
		return newLocalChromeContext(ctx, cfg)
	case "remote":
		return newRemoteChromeContext(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported renderer mode %q", cfg.Mode)
	}
}

func newLocalChromeContext(ctx context.Context, cfg ChromeConfig) (context.Context, func(), error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if path := strings.TrimSpace(cfg.ChromePath); path != "" {
		opts = append(opts, chromedp.ExecPath(path))
	}
	if dir := strings.TrimSpace(cfg.UserDataDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			opts = append(opts, chromedp.UserDataDir(dir))
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	closeFn := func() {
		chromeCancel()
		allocCancel()
	}
	return chromeCtx, closeFn, nil
}

func newRemoteChromeContext(ctx context.Context, cfg ChromeConfig) (context.Context, func(), error) {
	cdpURL := strings.TrimSpace(cfg.RemoteURL)
	if cdpURL == "" {
		return nil, nil, errors.New("remote renderer requires a CDP URL")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, cdpURL)
	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	closeFn := func() {
		chromeCancel()
		allocCancel()
	}
	return chromeCtx, closeFn, nil
}
