package positional

import (
	"sort"

	"github.com/grailbio/sv/interval"
)

// Subnode restricts a path node to a sub-interval of its positional range.
// It is a derived view and holds no state of its own.
type Subnode struct {
	node       *PathNode
	start, end int // restricted first-kmer interval
}

// NewSubnode returns the view of n over its full positional interval.
func NewSubnode(n *PathNode) Subnode {
	return Subnode{node: n, start: n.start, end: n.end}
}

// Node returns the underlying path node.
func (s Subnode) Node() *PathNode { return s.node }

// FirstStart returns the restricted interval's low bound.
func (s Subnode) FirstStart() int { return s.start }

// FirstEnd returns the restricted interval's high bound.
func (s Subnode) FirstEnd() int { return s.end }

// Width returns the number of positions in the restricted interval.
func (s Subnode) Width() int { return s.end - s.start + 1 }

// Length returns the kmer length of the underlying node.
func (s Subnode) Length() int { return s.node.Length() }

// Next yields one subnode per successor whose interval intersects this
// subnode's interval shifted by the node length. Results are in a stable
// deterministic order.
func (s Subnode) Next() []Subnode {
	length := s.node.Length()
	var out []Subnode
	for _, nb := range s.node.next {
		iv := interval.Intersect(s.start+length, s.end+length, nb.start, nb.end)
		if !iv.Empty() {
			out = append(out, Subnode{node: nb, start: iv.Start, end: iv.End})
		}
	}
	sortSubnodes(out)
	return out
}

// Prev yields one subnode per predecessor whose last kmer can sit
// immediately before this subnode's interval.
func (s Subnode) Prev() []Subnode {
	var out []Subnode
	for _, nb := range s.node.prev {
		length := nb.Length()
		iv := interval.Intersect(s.start-length, s.end-length, nb.start, nb.end)
		if !iv.Empty() {
			out = append(out, Subnode{node: nb, start: iv.Start, end: iv.End})
		}
	}
	sortSubnodes(out)
	return out
}

func sortSubnodes(list []Subnode) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.node.FirstKmer() < b.node.FirstKmer()
	})
}

// nextCoverage returns the spans of this subnode's interval at which the
// node has at least one onward successor.
func (s Subnode) nextCoverage() []interval.Span {
	length := s.node.Length()
	var spans []interval.Span
	for _, nb := range s.node.next {
		iv := interval.Intersect(nb.start-length, nb.end-length, s.start, s.end)
		if !iv.Empty() {
			spans = append(spans, iv)
		}
	}
	return spans
}

// prevCoverage returns the spans of this subnode's interval at which the
// node has at least one predecessor.
func (s Subnode) prevCoverage() []interval.Span {
	var spans []interval.Span
	for _, nb := range s.node.prev {
		length := nb.Length()
		iv := interval.Intersect(nb.start+length, nb.end+length, s.start, s.end)
		if !iv.Empty() {
			spans = append(spans, iv)
		}
	}
	return spans
}
