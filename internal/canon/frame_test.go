package canon

import (
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCanonicalizeSortsAndDedupes(t *testing.T) {
	raw := RawFrame{
		Index: []time.Time{day(2024, 1, 3), day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 2)},
		Columns: []RawColumn{
			{Name: "Close", Values: []float64{30, 10, 11, 20}},
			{Name: "Open", Values: []float64{30, 10, 11, 20}},
			{Name: "High", Values: []float64{30, 10, 11, 20}},
			{Name: "Low", Values: []float64{30, 10, 11, 20}},
			{Name: "Volume", Values: []float64{300, 100, 110, 200}},
		},
	}
	f, err := Canonicalize(raw, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("expected 3 rows after dedupe, got %d", f.Len())
	}
	for i := 1; i < f.Len(); i++ {
		if !f.Index[i].After(f.Index[i-1]) {
			t.Fatalf("index not strictly ascending at %d", i)
		}
	}
	// duplicate 2024-01-01 entries: keep the first occurrence, close=10 wins.
	if f.Close[0] != 10 {
		t.Errorf("expected duplicate-keep-first close=10, got %v", f.Close[0])
	}
}

func TestCanonicalizeMissingAdjCloseFallsBackToClose(t *testing.T) {
	raw := RawFrame{
		Index: []time.Time{day(2024, 1, 1)},
		Columns: []RawColumn{
			{Name: "Close", Values: []float64{100}},
			{Name: "Open", Values: []float64{99}},
			{Name: "High", Values: []float64{101}},
			{Name: "Low", Values: []float64{98}},
			{Name: "Volume", Values: []float64{1000}},
		},
	}
	f, err := Canonicalize(raw, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.AdjClose[0] != 100 {
		t.Errorf("expected AdjClose to fall back to Close, got %v", f.AdjClose[0])
	}
}

func TestCanonicalizeMissingColumnBecomesNaN(t *testing.T) {
	raw := RawFrame{
		Index: []time.Time{day(2024, 1, 1)},
		Columns: []RawColumn{
			{Name: "Close", Values: []float64{100}},
		},
	}
	f, err := Canonicalize(raw, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(f.Volume[0]) {
		t.Errorf("expected missing Volume column to be NaN, got %v", f.Volume[0])
	}
}

func TestCanonicalizeEmptyInputReturnsEmptyFrame(t *testing.T) {
	f, err := Canonicalize(RawFrame{}, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("expected empty frame, got %d rows", f.Len())
	}
}

func TestTrimRange(t *testing.T) {
	raw := RawFrame{
		Index: []time.Time{day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 3)},
		Columns: []RawColumn{
			{Name: "Close", Values: []float64{1, 2, 3}},
			{Name: "Open", Values: []float64{1, 2, 3}},
			{Name: "High", Values: []float64{1, 2, 3}},
			{Name: "Low", Values: []float64{1, 2, 3}},
			{Name: "Volume", Values: []float64{1, 2, 3}},
		},
	}
	f, _ := Canonicalize(raw, "test")
	start := day(2024, 1, 2)
	trimmed := TrimRange(f, &start, nil)
	if trimmed.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", trimmed.Len())
	}
}
