package dynamo

import (
	"math"
	"sync/atomic"
	"testing"
)

func TestTolerance_Round(t *testing.T) {
	tests := []struct {
		digits int
		in     float64
		want   float64
	}{
		{2, 1.234, 1.23},
		{2, 1.235001, 1.24},
		{0, 2.6, 3},
		{6, 0.1 + 0.2, 0.3},
	}

	for _, tt := range tests {
		tol := NewTolerance(tt.digits)
		if got := tol.Round(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Round(%v) with %d digits = %v, want %v", tt.in, tt.digits, got, tt.want)
		}
	}
}

func TestTolerance_Equal(t *testing.T) {
	tol := NewTolerance(6)

	if !tol.Equal(0.1+0.2, 0.3) {
		t.Error("expected 0.1+0.2 to equal 0.3")
	}
	if tol.Equal(1.0, 1.00001) {
		t.Error("expected 1.0 and 1.00001 to differ at 6 digits")
	}
	if !tol.Equal(1.0, 1.0000001) {
		t.Error("expected 1.0 and 1.0000001 to be equal at 6 digits")
	}
}

func TestTolerance_Less(t *testing.T) {
	tol := NewTolerance(3)

	if tol.Less(1.0001, 1.0002) {
		t.Error("values equal at 3 digits must not compare less")
	}
	if !tol.Less(1.0, 1.01) {
		t.Error("expected 1.0 < 1.01")
	}
}

func TestTolerance_NegativeDigits(t *testing.T) {
	tol := NewTolerance(-3)
	if tol.Digits() != 0 {
		t.Errorf("expected 0 digits, got %d", tol.Digits())
	}
	if tol.Epsilon() != 1 {
		t.Errorf("expected epsilon 1, got %v", tol.Epsilon())
	}
}

func TestNormalized(t *testing.T) {
	v := Normalized(Vec{3, 0, 4})
	if math.Abs(v.Len()-1) > 1e-12 {
		t.Errorf("expected unit length, got %v", v.Len())
	}

	if z := Normalized(Vec{}); z != (Vec{}) {
		t.Errorf("expected zero vector, got %v", z)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec
		valid bool
	}{
		{"zero", Vec{}, true},
		{"normal", Vec{1, 2, 3}, true},
		{"with NaN", Vec{1, math.NaN(), 0}, false},
		{"with +Inf", Vec{math.Inf(1), 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.v); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestRunBatches(t *testing.T) {
	for _, workers := range []int{0, 1, 4} {
		var sum atomic.Int64
		seen := make([]bool, 50)
		RunBatches(50, workers, func(i int) {
			seen[i] = true
			sum.Add(int64(i))
		})

		if sum.Load() != 49*50/2 {
			t.Errorf("workers=%d: expected sum %d, got %d", workers, 49*50/2, sum.Load())
		}
		for i, ok := range seen {
			if !ok {
				t.Errorf("workers=%d: index %d not visited", workers, i)
			}
		}
	}
}
