package export

import (
	"context"
	"encoding/base64"

	"github.com/chromedp/chromedp"
)

const (
	viewportWidth  = 800
	viewportHeight = 1100
)

// Chrome rasterizes through headless Chrome. RemoteURL points at a running
// browser's DevTools endpoint; empty starts a local one per capture.
type Chrome struct {
	RemoteURL string
}

func (c *Chrome) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, c.RemoteURL)
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (c *Chrome) Capture(ctx context.Context, document, selector string, scale float64) ([]byte, error) {
	allocCtx, cancelAlloc := c.allocator(ctx)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	url := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(document))

	var buf []byte
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(scale)),
		chromedp.Navigate(url),
		// страница ставит data-typeset после MathJax (или если MathJax не загрузился)
		chromedp.WaitReady(`body[data-typeset="done"]`, chromedp.ByQuery),
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
