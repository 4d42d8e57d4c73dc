package render

import (
	"bytes"
	"image/color"
	"testing"

	"commutewatch/pkg/heatmap"
)

func TestSafeLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Home → Work", "HometoWork"},
		{"Work → Home", "WorktoHome"},
		{"NORTH", "NORTH"},
		{"a b c", "abc"},
	}

	for _, tt := range tests {
		if got := SafeLabel(tt.label); got != tt.want {
			t.Errorf("SafeLabel(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	got := OutputFilename("Home → Work")
	want := "heatmap_pretty_HometoWork.png"
	if got != want {
		t.Errorf("OutputFilename = %q, want %q", got, want)
	}
}

func TestViridisEndpoints(t *testing.T) {
	first := color.RGBA{0x44, 0x01, 0x54, 0xff}
	last := color.RGBA{0xfd, 0xe7, 0x25, 0xff}

	tests := []struct {
		pos  float64
		want color.RGBA
	}{
		{0.0, first},
		{-0.5, first},
		{1.0, last},
		{2.0, last},
		{0.5, color.RGBA{0x21, 0x91, 0x8c, 0xff}}, // middle anchor
	}

	for _, tt := range tests {
		if got := Viridis(tt.pos); got != tt.want {
			t.Errorf("Viridis(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestLuminanceTextContrast(t *testing.T) {
	if l := Luminance(color.RGBA{0xff, 0xff, 0xff, 0xff}); l < 0.99 {
		t.Errorf("white luminance = %v, want ~1.0", l)
	}
	if l := Luminance(color.RGBA{0, 0, 0, 0xff}); l != 0 {
		t.Errorf("black luminance = %v, want 0", l)
	}

	// Bright cells get black text, dark cells get white text
	if l := Luminance(Viridis(1.0)); l <= 0.5 {
		t.Errorf("viridis top luminance = %v, want > 0.5", l)
	}
	if l := Luminance(Viridis(0.0)); l > 0.5 {
		t.Errorf("viridis bottom luminance = %v, want <= 0.5", l)
	}
}

func TestPositionFlatRange(t *testing.T) {
	if got := position(42, 42, 42); got != 0 {
		t.Errorf("position on flat range = %v, want 0", got)
	}
}

func buildTestHeatmap(t *testing.T) *heatmap.DirectionHeatmap {
	t.Helper()

	short := "1800s"
	long := "4500s"
	samples := heatmap.Normalize([]heatmap.RawSample{
		{DateLocal: "2026-01-05", DepartureRFC3339: "2026-01-05T08:00:00-08:00", Direction: "H2W", Duration: &short},
		{DateLocal: "2026-01-06", DepartureRFC3339: "2026-01-06T08:15:00-08:00", Direction: "H2W", Duration: &long},
	})

	hm := heatmap.Build(samples)["Home → Work"]
	if hm == nil {
		t.Fatal("expected a Home → Work heatmap")
	}
	return hm
}

func TestHeatmapDimensions(t *testing.T) {
	hm := buildTestHeatmap(t)
	img := Heatmap(hm, "Home → Work")

	wantW := marginLeft + len(hm.TimeAxis)*cellWidth + colorbarGap + colorbarWidth + marginRight
	wantH := marginTop + len(hm.WeekdayOrder)*cellHeight + marginBottom
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Errorf("image size = %dx%d, want %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
	}
}

func TestHeatmapCellColors(t *testing.T) {
	hm := buildTestHeatmap(t)
	img := Heatmap(hm, "Home → Work")

	// Monday 08:00 holds the minimum value, so its fill is the low end of
	// the colormap. Sample just inside the border, clear of any text.
	if got := img.RGBAAt(marginLeft+3, marginTop+3); got != Viridis(0) {
		t.Errorf("filled cell color = %v, want %v", got, Viridis(0))
	}

	// Tuesday 08:00 has no observation and stays white
	if got := img.RGBAAt(marginLeft+3, marginTop+cellHeight+3); got != white {
		t.Errorf("empty cell color = %v, want white", got)
	}
}

func TestHeatmapDeterministic(t *testing.T) {
	hm := buildTestHeatmap(t)
	a := Heatmap(hm, "Home → Work")
	b := Heatmap(hm, "Home → Work")
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two renders of the same heatmap differ")
	}
}
