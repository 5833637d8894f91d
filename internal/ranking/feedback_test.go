package ranking

import "testing"

func TestAdjustment(t *testing.T) {
	tests := []struct {
		name           string
		more, less     bool
		score          float64
		wantAdjustment float64
	}{
		{"ordered", true, true, 40, 0},
		{"harder than placed", true, false, 40, 2},
		{"easier than placed", false, true, 40, -2},
		{"rejects both low", false, false, 49.9, 5},
		{"rejects both midpoint", false, false, 50, -5},
		{"rejects both high", false, false, 80, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjustment(tt.more, tt.less, tt.score); got != tt.wantAdjustment {
				t.Errorf("Adjustment(%v, %v, %v) = %v, want %v", tt.more, tt.less, tt.score, got, tt.wantAdjustment)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-3, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{98 + 2, 100},
		{98 + 5, 100},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
