package interval

import "sort"

// Span is a closed interval [Start, End]. A Span with Start > End is empty.
type Span struct {
	Start, End int
}

// Empty reports whether the span contains no positions.
func (s Span) Empty() bool { return s.Start > s.End }

// Width returns the number of positions in the span, zero if empty.
func (s Span) Width() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start + 1
}

// Shift returns the span translated by delta.
func (s Span) Shift(delta int) Span { return Span{s.Start + delta, s.End + delta} }

// Overlaps reports whether the closed intervals [s1, e1] and [s2, e2] share
// at least one position.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 <= e2 && s2 <= e1
}

// Intersect returns the intersection of [s1, e1] and [s2, e2] as a Span.
// The result is empty if the intervals do not overlap.
func Intersect(s1, e1, s2, e2 int) Span {
	s := s1
	if s2 > s {
		s = s2
	}
	e := e1
	if e2 < e {
		e = e2
	}
	return Span{s, e}
}

// FirstGap returns the lowest maximal sub-interval of [start, end] that is
// not covered by any of the given spans. Returns false if the spans cover
// [start, end] completely. The spans need not be sorted or disjoint; spans
// outside [start, end] are ignored.
func FirstGap(start, end int, spans []Span) (Span, bool) {
	if start > end {
		return Span{}, false
	}
	clipped := make([]Span, 0, len(spans))
	for _, s := range spans {
		c := Intersect(s.Start, s.End, start, end)
		if !c.Empty() {
			clipped = append(clipped, c)
		}
	}
	sort.Slice(clipped, func(i, j int) bool { return clipped[i].Start < clipped[j].Start })
	pos := start
	for _, s := range clipped {
		if s.Start > pos {
			return Span{pos, s.Start - 1}, true
		}
		if s.End >= pos {
			pos = s.End + 1
		}
		if pos > end {
			return Span{}, false
		}
	}
	return Span{pos, end}, true
}
