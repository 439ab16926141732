package source

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // empty means nil expected
	}{
		{"dashed", "2026-08-29", "2026-08-29"},
		{"dotted", "2026.08.29", "2026-08-29"},
		{"slashed", "2026/08/29", "2026-08-29"},
		{"with time", "2026-08-29 14:30", "2026-08-29"},
		{"padded", "  2026-08-29  ", "2026-08-29"},
		{"empty", "", ""},
		{"garbage", "상시모집", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.input)
			if tt.want == "" {
				if got != nil {
					t.Errorf("ParseDate(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDate(%q) = nil, want %s", tt.input, tt.want)
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseDateUsesKST(t *testing.T) {
	got := ParseDate("2026-08-29")
	if got == nil {
		t.Fatal("expected parsed date")
	}
	_, offset := got.Zone()
	if offset != 9*60*60 {
		t.Errorf("expected KST offset +09:00, got %d seconds", offset)
	}
	if !got.Equal(time.Date(2026, 8, 29, 0, 0, 0, 0, time.FixedZone("KST", 9*60*60))) {
		t.Errorf("unexpected instant: %v", got)
	}
}
