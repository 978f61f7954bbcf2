package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	appLog "churchcal/internal/log"
)

// Default capture parameters. They match the layout of the /calendar page
// on a landscape printout.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 960
	DefaultTimeoutSec = 30
)

// Output formats.
const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// Options defines parameters for a Chromium-based calendar snapshot.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar?view=month".
	URL string

	// OutputPath is where the snapshot is written. The file is replaced
	// atomically so the web server never serves a half-written snapshot.
	OutputPath string

	// Format is FormatPNG or FormatPDF. Empty means PNG.
	Format string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

func (o *Options) validate() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	switch o.Format {
	case "":
		o.Format = FormatPNG
	case FormatPNG, FormatPDF:
	default:
		return fmt.Errorf("capture: unsupported format %q", o.Format)
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// Capture launches a headless Chromium via chromedp, navigates to
// opts.URL, waits until the page root reports data-ready="true" and then
// writes either a full-page PNG screenshot or a landscape PDF.
func Capture(parentCtx context.Context, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var out []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
	}
	if opts.Format == FormatPDF {
		tasks = append(tasks, chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			out = buf
			return nil
		}))
	} else {
		tasks = append(tasks, chromedp.FullScreenshot(&out, 100))
	}

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := writeAtomic(opts.OutputPath, out); err != nil {
		return fmt.Errorf("capture: failed to write %s: %w", opts.Format, err)
	}
	appLog.Info("calendar snapshot written", "path", opts.OutputPath, "format", opts.Format, "bytes", len(out), "took", time.Since(start))
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".churchcal-snapshot-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
