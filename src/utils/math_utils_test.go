package utils

import "testing"

func TestClampInt(t *testing.T) {
	tests := []struct{ v, want int }{{-5, 1}, {1, 1}, {50, 50}, {100, 100}, {500, 100}}
	for _, tt := range tests {
		if got := ClampInt(tt.v, 1, 100); got != tt.want {
			t.Errorf("ClampInt(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		val       float64
		precision uint
		want      float64
	}{
		{75, 2, 75},
		{33.33333, 1, 33.3},
		{66.666, 2, 66.67},
		{0.5, 0, 1},
	}
	for _, tt := range tests {
		if got := RoundFloat(tt.val, tt.precision); got != tt.want {
			t.Errorf("RoundFloat(%v, %d) = %v, want %v", tt.val, tt.precision, got, tt.want)
		}
	}
}

func TestETagMatches(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`"x", "abc"`, true},
		{"*", true},
		{`"abd"`, false},
	}
	for _, tt := range tests {
		if got := ETagMatches(tt.header, `"abc"`); got != tt.want {
			t.Errorf("ETagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
