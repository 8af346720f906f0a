package logger

import "testing"

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(2, 5)
	allowed := 0
	for i := 0; i < 20; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 8 {
		t.Fatalf("allowed = %d, want 8", allowed)
	}

	s.Set(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	tests := []struct {
		in       string
		num, den int
	}{
		{"", 0, 0},
		{"1/10", 1, 10},
		{" 3 / 4 ", 3, 4},
		{"50", 1, 50},
		{"0", 0, 0},
		{"x/2", 0, 0},
		{"nope", 0, 0},
	}
	for _, tt := range tests {
		num, den := parseRatioSpec(tt.in)
		if num != tt.num || den != tt.den {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", tt.in, num, den, tt.num, tt.den)
		}
	}
}
