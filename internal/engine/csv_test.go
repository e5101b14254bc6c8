package engine

import (
	"testing"
	"time"
)

func TestCellString_HumanizesDurationSpaceSeparated(t *testing.T) {
	got := CellString(time.Hour + 6*time.Minute)
	if got != "1h 6m" {
		t.Fatalf("got %q, want %q", got, "1h 6m")
	}
}

func TestCellString_DurationTrimsZeroUnits(t *testing.T) {
	got := CellString(90 * time.Second)
	if got != "1m 30s" {
		t.Fatalf("got %q, want %q", got, "1m 30s")
	}
}

func TestCellString_ZeroDuration(t *testing.T) {
	if got := CellString(time.Duration(0)); got != "0s" {
		t.Fatalf("got %q, want 0s", got)
	}
}

func TestCellString_NegativeDuration(t *testing.T) {
	got := CellString(-(time.Hour + 30*time.Minute))
	if got != "-1h 30m" {
		t.Fatalf("got %q, want -1h 30m", got)
	}
}

func TestCellString_NilIsEmpty(t *testing.T) {
	if got := CellString(nil); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
