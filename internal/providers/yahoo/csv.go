package yahoo

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseCSV decodes the Yahoo "Date,Open,High,Low,Close,Adj Close,Volume"
// CSV format returned by the daily download fallback endpoint.
func parseCSV(body []byte) (idx []time.Time, open, high, low, closeCol, adjClose, volume []float64, err error) {
	r := csv.NewReader(strings.NewReader(string(body)))
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, nil, nil, nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, nil, nil, nil, nil, nil, nil
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	get := func(row []string, name string) float64 {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return 0
		}
		f, _ := strconv.ParseFloat(row[i], 64)
		return f
	}

	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		di, ok := col["Date"]
		if !ok || di >= len(row) {
			continue
		}
		t, perr := time.Parse("2006-01-02", row[di])
		if perr != nil {
			continue
		}
		idx = append(idx, t.UTC())
		open = append(open, get(row, "Open"))
		high = append(high, get(row, "High"))
		low = append(low, get(row, "Low"))
		closeCol = append(closeCol, get(row, "Close"))
		adjClose = append(adjClose, get(row, "Adj Close"))
		volume = append(volume, get(row, "Volume"))
	}
	if len(idx) == 0 {
		return nil, nil, nil, nil, nil, nil, nil, fmt.Errorf("no rows parsed")
	}
	return idx, open, high, low, closeCol, adjClose, volume, nil
}
