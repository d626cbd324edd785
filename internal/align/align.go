// Package align implements multi-series index alignment (union or
// intersect) and optional forward/backward fill, grounded on
// original_source's normalizer.py (_align_dict, _apply_fill).
package align

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/marketsim/internal/canon"
)

// Strategy selects how multiple frames' time indices are combined.
type Strategy string

const (
	Union     Strategy = "union"
	Intersect Strategy = "intersect"
)

// Frames reindexes every frame in the input map onto a common sorted
// index built by union or intersection, filling newly introduced rows
// with NaN. Map iteration order does not affect the result: the
// resulting index is always sorted ascending.
func Frames(frames map[string]*canon.Frame, strategy Strategy) map[string]*canon.Frame {
	if len(frames) == 0 {
		return map[string]*canon.Frame{}
	}

	idx := combinedIndex(frames, strategy)
	out := make(map[string]*canon.Frame, len(frames))
	for sym, f := range frames {
		out[sym] = reindex(f, idx)
	}
	return out
}

// Fill applies forward-fill and/or back-fill to every column of f,
// in that order (ffill then bfill), matching _apply_fill's semantics.
func Fill(f *canon.Frame, ffill, bfill bool) *canon.Frame {
	if !ffill && !bfill {
		return f
	}
	out := &canon.Frame{
		Index:    f.Index,
		Open:     append([]float64(nil), f.Open...),
		High:     append([]float64(nil), f.High...),
		Low:      append([]float64(nil), f.Low...),
		Close:    append([]float64(nil), f.Close...),
		AdjClose: append([]float64(nil), f.AdjClose...),
		Volume:   append([]float64(nil), f.Volume...),
	}
	cols := [][]float64{out.Open, out.High, out.Low, out.Close, out.AdjClose, out.Volume}
	for _, c := range cols {
		if ffill {
			forwardFill(c)
		}
		if bfill {
			backwardFill(c)
		}
	}
	return out
}

func combinedIndex(frames map[string]*canon.Frame, strategy Strategy) []time.Time {
	var idx []time.Time
	first := true
	for _, f := range frames {
		if strategy == Intersect {
			if first {
				idx = append(idx, f.Index...)
				first = false
				continue
			}
			idx = intersectSorted(idx, f.Index)
		} else {
			idx = unionSorted(idx, f.Index)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i].Before(idx[j]) })
	return idx
}

func unionSorted(a, b []time.Time) []time.Time {
	set := make(map[int64]time.Time, len(a)+len(b))
	for _, t := range a {
		set[t.UnixNano()] = t
	}
	for _, t := range b {
		set[t.UnixNano()] = t
	}
	out := make([]time.Time, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	return out
}

func intersectSorted(a, b []time.Time) []time.Time {
	set := make(map[int64]struct{}, len(b))
	for _, t := range b {
		set[t.UnixNano()] = struct{}{}
	}
	out := make([]time.Time, 0)
	for _, t := range a {
		if _, ok := set[t.UnixNano()]; ok {
			out = append(out, t)
		}
	}
	return out
}

func reindex(f *canon.Frame, idx []time.Time) *canon.Frame {
	pos := make(map[int64]int, f.Len())
	for i, t := range f.Index {
		pos[t.UnixNano()] = i
	}
	out := &canon.Frame{
		Index:    idx,
		Open:     make([]float64, len(idx)),
		High:     make([]float64, len(idx)),
		Low:      make([]float64, len(idx)),
		Close:    make([]float64, len(idx)),
		AdjClose: make([]float64, len(idx)),
		Volume:   make([]float64, len(idx)),
	}
	for i, t := range idx {
		src, ok := pos[t.UnixNano()]
		if !ok {
			out.Open[i] = math.NaN()
			out.High[i] = math.NaN()
			out.Low[i] = math.NaN()
			out.Close[i] = math.NaN()
			out.AdjClose[i] = math.NaN()
			out.Volume[i] = math.NaN()
			continue
		}
		out.Open[i] = f.Open[src]
		out.High[i] = f.High[src]
		out.Low[i] = f.Low[src]
		out.Close[i] = f.Close[src]
		out.AdjClose[i] = f.AdjClose[src]
		out.Volume[i] = f.Volume[src]
	}
	return out
}

func forwardFill(col []float64) {
	var last float64
	haveLast := false
	for i, v := range col {
		if math.IsNaN(v) {
			if haveLast {
				col[i] = last
			}
			continue
		}
		last = v
		haveLast = true
	}
}

func backwardFill(col []float64) {
	var next float64
	haveNext := false
	for i := len(col) - 1; i >= 0; i-- {
		v := col[i]
		if math.IsNaN(v) {
			if haveNext {
				col[i] = next
			}
			continue
		}
		next = v
		haveNext = true
	}
}
