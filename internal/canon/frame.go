// Package canon implements the canonicalization step of the extraction
// pipeline: turning whatever a provider adapter downloaded into a strict
// OHLCV frame. It deliberately is not a general-purpose dataframe: a
// Frame is six aligned float64 columns plus a sorted, duplicate-free
// time index, nothing more.
package canon

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sawpanic/marketsim/internal/taxonomy"
)

// Frame is the canonical OHLCV representation every provider adapter
// must produce before data enters the normalizer/typology pipeline.
type Frame struct {
	Index    []time.Time
	Open     []float64
	High     []float64
	Low      []float64
	Close    []float64
	AdjClose []float64
	Volume   []float64
}

// Len reports the number of rows in the frame.
func (f *Frame) Len() int { return len(f.Index) }

// RawColumn is a single named, possibly unsorted, possibly duplicate
// column as handed back by a provider adapter's JSON/CSV decoding step,
// before canonicalization.
type RawColumn struct {
	Name   string
	Values []float64
}

// RawFrame is the provider-facing shape: a time index (not required to
// be sorted, deduplicated, or tz-naive) plus named columns, tolerant of
// alternate capitalizations ("Close" vs "close") and the presence or
// absence of "Adj Close".
type RawFrame struct {
	Index   []time.Time
	Columns []RawColumn
}

// Canonicalize converts a RawFrame into a Frame: it resolves column
// aliases, coerces to float64 (non-numeric becomes NaN), strips any
// timezone, sorts ascending, and drops duplicate timestamps keeping the
// first occurrence. It is idempotent: canonicalizing an already-canonical
// frame returns an equal frame.
func Canonicalize(raw RawFrame, source string) (*Frame, error) {
	if len(raw.Index) == 0 {
		return &Frame{}, nil
	}

	col := func(names ...string) []float64 {
		for _, want := range names {
			for _, c := range raw.Columns {
				if strings.EqualFold(c.Name, want) {
					return c.Values
				}
			}
		}
		out := make([]float64, len(raw.Index))
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	idx := stripTZ(raw.Index)
	open := col("Open")
	high := col("High")
	low := col("Low")
	adjClose := col("Adj Close")
	closeCol := col("Close")
	volume := col("Volume")

	hasAdjClose := false
	for _, c := range raw.Columns {
		if strings.EqualFold(c.Name, "Adj Close") {
			hasAdjClose = true
		}
	}
	if !hasAdjClose || len(adjClose) != len(idx) {
		adjClose = closeCol
	}

	order := sortedOrder(idx)
	dedup := dedupeKeepFirst(idx, order)

	f := &Frame{
		Index:    make([]time.Time, 0, len(dedup)),
		Open:     make([]float64, 0, len(dedup)),
		High:     make([]float64, 0, len(dedup)),
		Low:      make([]float64, 0, len(dedup)),
		Close:    make([]float64, 0, len(dedup)),
		AdjClose: make([]float64, 0, len(dedup)),
		Volume:   make([]float64, 0, len(dedup)),
	}
	for _, i := range dedup {
		f.Index = append(f.Index, idx[i])
		f.Open = append(f.Open, open[i])
		f.High = append(f.High, high[i])
		f.Low = append(f.Low, low[i])
		f.Close = append(f.Close, closeCol[i])
		f.AdjClose = append(f.AdjClose, adjClose[i])
		f.Volume = append(f.Volume, volume[i])
	}

	if f.Len() == 0 {
		return nil, taxonomy.New(taxonomy.KindNormalization, "canonicalized frame is empty", source, "")
	}
	return f, nil
}

// TrimRange returns the subset of f whose index falls within
// [start, end], inclusive on both ends, either bound optional.
func TrimRange(f *Frame, start, end *time.Time) *Frame {
	if f == nil || f.Len() == 0 {
		return f
	}
	lo, hi := 0, f.Len()
	if start != nil {
		lo = sort.Search(f.Len(), func(i int) bool { return !f.Index[i].Before(*start) })
	}
	if end != nil {
		hi = sort.Search(f.Len(), func(i int) bool { return f.Index[i].After(*end) })
	}
	if lo >= hi {
		return &Frame{}
	}
	return &Frame{
		Index:    append([]time.Time(nil), f.Index[lo:hi]...),
		Open:     append([]float64(nil), f.Open[lo:hi]...),
		High:     append([]float64(nil), f.High[lo:hi]...),
		Low:      append([]float64(nil), f.Low[lo:hi]...),
		Close:    append([]float64(nil), f.Close[lo:hi]...),
		AdjClose: append([]float64(nil), f.AdjClose[lo:hi]...),
		Volume:   append([]float64(nil), f.Volume[lo:hi]...),
	}
}

func stripTZ(ts []time.Time) []time.Time {
	out := make([]time.Time, len(ts))
	for i, t := range ts {
		out[i] = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return out
}

func sortedOrder(ts []time.Time) []int {
	order := make([]int, len(ts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return ts[order[i]].Before(ts[order[j]]) })
	return order
}

// dedupeKeepFirst walks the sorted order and, for runs of equal
// timestamps, keeps the index that appeared first in the original
// input, per spec.md's explicit "keep the first occurrence" invariant.
func dedupeKeepFirst(ts []time.Time, order []int) []int {
	out := make([]int, 0, len(order))
	i := 0
	for i < len(order) {
		j := i
		best := order[i]
		for j+1 < len(order) && ts[order[j+1]].Equal(ts[order[i]]) {
			j++
			if order[j] < best {
				best = order[j]
			}
		}
		out = append(out, best)
		i = j + 1
	}
	return out
}
