package commands

import (
	"net"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"churchcal/internal/capture"
)

func addCapture(topLevel *cobra.Command) {
	var (
		target string
		o      capture.Options
	)
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Snapshot a running calendar page to PNG or PDF.",
		Example: `
churchcal capture
churchcal capture --url 'http://127.0.0.1:8080/calendar?view=week' --format png --output week.png
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			rt, err := loadRuntime(configPath)
			if err != nil {
				return err
			}
			opts := captureOptions(rt, target)
			if o.OutputPath != "" {
				opts.OutputPath = o.OutputPath
			}
			if o.Format != "" {
				opts.Format = o.Format
			}
			if o.Width > 0 {
				opts.Width = o.Width
			}
			if o.Height > 0 {
				opts.Height = o.Height
			}
			if o.Timeout > 0 {
				opts.Timeout = o.Timeout
			}
			return capture.Capture(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "Page to capture (default: the configured listen address)")
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Output file (default from config)")
	cmd.Flags().StringVar(&o.Format, "format", "", "png or pdf (default from config)")
	cmd.Flags().IntVar(&o.Width, "width", 0, "Viewport width in pixels")
	cmd.Flags().IntVar(&o.Height, "height", 0, "Viewport height in pixels")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 30*time.Second, "Capture timeout")

	topLevel.AddCommand(cmd)
}

// captureOptions fills capture.Options from config. An empty target
// points at the local server's /calendar page in the default view.
func captureOptions(rt *runtime, target string) capture.Options {
	if target == "" {
		target = localCalendarURL(rt)
	}
	return capture.Options{
		URL:        target,
		OutputPath: rt.cfg.Capture.Output,
		Format:     rt.cfg.Capture.Format,
		Width:      rt.cfg.Capture.Width,
		Height:     rt.cfg.Capture.Height,
	}
}

func localCalendarURL(rt *runtime) string {
	host, port, err := net.SplitHostPort(rt.cfg.Listen)
	if err != nil {
		host, port = "127.0.0.1", "8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	u := url.URL{
		Scheme:   "http",
		Host:     net.JoinHostPort(host, port),
		Path:     "/calendar",
		RawQuery: url.Values{"view": {rt.cfg.DefaultView}}.Encode(),
	}
	if ba := rt.cfg.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		u.User = url.UserPassword(ba.Username, ba.Password)
	}
	return u.String()
}
