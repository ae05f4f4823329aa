package screenshot

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"themesniff/internal/slogutil"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestCheckDimensions(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		w, h     int
		errors   int
		warnings int
	}{
		{"ideal", "png", 1200, 900, 0, 0},
		{"small 4:3", "jpeg", 400, 300, 0, 0},
		{"too large", "png", 2400, 1800, 1, 0},
		{"wrong ratio", "png", 1200, 800, 0, 1},
		{"too large and wrong ratio", "png", 1920, 1080, 1, 1},
		{"gif", "gif", 400, 300, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs := CheckDimensions(tt.format, tt.w, tt.h, true)
			var errs, warns int
			for _, m := range msgs {
				if m.Severity == "error" {
					errs++
				} else {
					warns++
				}
			}
			if errs != tt.errors || warns != tt.warnings {
				t.Errorf("errors = %d, warnings = %d; want %d, %d", errs, warns, tt.errors, tt.warnings)
			}
		})
	}

	if msgs := CheckDimensions("png", 1200, 800, false); len(msgs) != 0 {
		t.Errorf("hidden warnings still produced %d messages", len(msgs))
	}
}

func TestResults(t *testing.T) {
	v := NewValidator(slogutil.NewDiscardLogger())
	dir := t.TempDir()

	res, err := v.Results(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Totals.Errors != 1 || res.Files[0].Path != filepath.Join(dir, "screenshot.png") {
		t.Errorf("missing screenshot result = %+v", res)
	}

	writePNG(t, filepath.Join(dir, "screenshot.png"), 120, 90)
	res, err = v.Results(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Files[0].Clean() {
		t.Errorf("valid screenshot produced %+v", res.Files[0].Messages)
	}
}

func TestResults_JPEGFallbackAndCorrupt(t *testing.T) {
	v := NewValidator(slogutil.NewDiscardLogger())
	dir := t.TempDir()

	path := filepath.Join(dir, "screenshot.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := v.Results(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Files[0].Path != path || res.Totals.Errors != 1 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Files[0].Messages[0].Text, "not a valid PNG or JPEG") {
		t.Errorf("message = %q", res.Files[0].Messages[0].Text)
	}
}
