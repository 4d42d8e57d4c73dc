package heatmap

import "testing"

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes *float64
		want    string
	}{
		{"absent cell", nil, ""},
		{"zero minutes", fptr(0), "00m"},
		{"single digit pads", fptr(8), "08m"},
		{"under an hour", fptr(45), "45m"},
		{"rounds down", fptr(59.4), "59m"},
		{"rounds up across the hour", fptr(59.6), "1h\n00m"},
		{"exactly one hour", fptr(60), "1h\n00m"},
		{"hour and change", fptr(100), "1h\n40m"},
		{"pads remainder", fptr(62), "1h\n02m"},
		{"multiple hours", fptr(125.2), "2h\n05m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMinutes(tt.minutes); got != tt.want {
				t.Errorf("FormatMinutes = %q, want %q", got, tt.want)
			}
		})
	}
}

func fptr(f float64) *float64 {
	return &f
}
