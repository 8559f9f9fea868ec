package services

import (
	"strings"
	"testing"
	"time"
)

func TestLessonAmount(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		unit     int
		rate     float64
		want     float64
	}{
		{"one unit", 60, 60, 30, 30},
		{"half unit", 30, 60, 30, 15},
		{"one and a half units", 90, 60, 30, 45},
		{"two 45 minute units", 90, 45, 25, 50},
		{"rounding to cents", 50, 60, 29.99, 24.99},
		{"zero unit duration", 60, 0, 30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lessonAmount(tt.duration, tt.unit, tt.rate); got != tt.want {
				t.Errorf("lessonAmount(%d, %d, %.2f) = %.4f, want %.2f", tt.duration, tt.unit, tt.rate, got, tt.want)
			}
		})
	}
}

func TestRoundCents(t *testing.T) {
	if got := roundCents(10.004); got != 10.00 {
		t.Errorf("roundCents(10.004) = %v, want 10.00", got)
	}
	if got := roundCents(10.006); got != 10.01 {
		t.Errorf("roundCents(10.006) = %v, want 10.01", got)
	}
	if got := roundCents(0); got != 0 {
		t.Errorf("roundCents(0) = %v, want 0", got)
	}
}

func TestNewInvoiceNumber(t *testing.T) {
	periodEnd := time.Date(2026, time.September, 30, 0, 0, 0, 0, time.UTC)

	number := newInvoiceNumber(periodEnd)
	if !strings.HasPrefix(number, "INV-202609-") {
		t.Errorf("expected period prefix, got %q", number)
	}
	if len(number) != len("INV-202609-")+8 {
		t.Errorf("expected 8 char suffix, got %q", number)
	}

	other := newInvoiceNumber(periodEnd)
	if number == other {
		t.Errorf("expected unique invoice numbers, got %q twice", number)
	}
}
