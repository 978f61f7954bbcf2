package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCaptureValidatesOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing url", Options{OutputPath: "out.png"}, "URL is required"},
		{"missing output", Options{URL: "http://127.0.0.1/calendar"}, "OutputPath is required"},
		{"bad format", Options{URL: "http://127.0.0.1/calendar", OutputPath: "out.gif", Format: "gif"}, "unsupported format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Capture(context.Background(), tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	o := Options{URL: "http://127.0.0.1/calendar", OutputPath: "out.png"}
	if err := o.validate(); err != nil {
		t.Fatal(err)
	}
	if o.Format != FormatPNG || o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout == 0 {
		t.Fatalf("defaults not applied: %+v", o)
	}
}

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "calendar.pdf")
	if err := writeAtomic(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := writeAtomic(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
