package yahoo

import (
	"testing"
)

func TestParseCSVHappyPath(t *testing.T) {
	body := []byte("Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-02,100,105,99,104,104,1000\n" +
		"2024-01-03,104,106,103,105,105,1200\n")
	idx, open, high, low, closeCol, adjClose, volume, err := parseCSV(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(idx))
	}
	if open[0] != 100 || high[0] != 105 || low[0] != 99 || closeCol[0] != 104 || adjClose[0] != 104 || volume[0] != 1000 {
		t.Errorf("unexpected first row values: %v %v %v %v %v %v", open[0], high[0], low[0], closeCol[0], adjClose[0], volume[0])
	}
}

func TestParseCSVSkipsUnparseableDates(t *testing.T) {
	body := []byte("Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"not-a-date,100,105,99,104,104,1000\n" +
		"2024-01-03,104,106,103,105,105,1200\n")
	idx, _, _, _, _, _, _, err := parseCSV(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("expected 1 row after skipping bad date, got %d", len(idx))
	}
}

func TestParseCSVHeaderOnlyReturnsEmpty(t *testing.T) {
	body := []byte("Date,Open,High,Low,Close,Adj Close,Volume\n")
	idx, _, _, _, _, _, _, err := parseCSV(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx != nil {
		t.Errorf("expected nil index for header-only input, got %v", idx)
	}
}
