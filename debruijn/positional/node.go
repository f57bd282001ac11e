package positional

import (
	"fmt"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sv/debruijn"
	"github.com/grailbio/sv/interval"
)

// PathNode is a maximal unbranched chain of kmers observed over an interval
// of reference start positions. The chain spells length+k-1 bases; the i'th
// kmer of a node starting at position p sits at position p+i. All positions
// in [firstStart, firstEnd] carry the same per-offset weights.
//
// A PathNode is owned by exactly one of the collapser's two buffers until it
// is emitted. Emitted nodes are never mutated again, although a neighbour
// still in the buffers may be, changing the emitted node's edge lists.
type PathNode struct {
	kmers    []debruijn.Kmer
	start    int // start position of the first kmer, inclusive
	end      int // end position of the first kmer, inclusive
	weights  []int // per kmer offset
	ref      bool
	evidence *EvidenceSet

	prev []*PathNode
	next []*PathNode
}

// NewPathNode creates a path node from a kmer chain, the positional interval
// of its first kmer, and per-offset weights. The argument slices are copied.
func NewPathNode(kmers []debruijn.Kmer, firstStart, firstEnd int, weights []int, reference bool) *PathNode {
	if len(kmers) == 0 {
		log.Panicf("path node must contain at least one kmer")
	}
	if firstStart > firstEnd {
		log.Panicf("inverted interval [%d,%d]", firstStart, firstEnd)
	}
	if len(weights) != len(kmers) {
		log.Panicf("got %d weights for %d kmers", len(weights), len(kmers))
	}
	return &PathNode{
		kmers:   append([]debruijn.Kmer(nil), kmers...),
		start:   firstStart,
		end:     firstEnd,
		weights: append([]int(nil), weights...),
		ref:     reference,
	}
}

// FirstStart returns the lowest position of the first kmer.
func (n *PathNode) FirstStart() int { return n.start }

// FirstEnd returns the highest position of the first kmer.
func (n *PathNode) FirstEnd() int { return n.end }

// LastStart returns the lowest position of the last kmer.
func (n *PathNode) LastStart() int { return n.start + len(n.kmers) - 1 }

// LastEnd returns the highest position of the last kmer.
func (n *PathNode) LastEnd() int { return n.end + len(n.kmers) - 1 }

// Length returns the number of kmers in the chain.
func (n *PathNode) Length() int { return len(n.kmers) }

// Width returns the number of positions in the node's interval.
func (n *PathNode) Width() int { return n.end - n.start + 1 }

// FirstKmer returns the first kmer of the chain.
func (n *PathNode) FirstKmer() debruijn.Kmer { return n.kmers[0] }

// LastKmer returns the last kmer of the chain.
func (n *PathNode) LastKmer() debruijn.Kmer { return n.kmers[len(n.kmers)-1] }

// Kmers returns the kmer chain. The caller must not modify the result.
func (n *PathNode) Kmers() []debruijn.Kmer { return n.kmers }

// WeightAt returns the weight of the kmer at the given chain offset.
func (n *PathNode) WeightAt(i int) int { return n.weights[i] }

// Weight returns the total weight over all chain offsets.
func (n *PathNode) Weight() int {
	w := 0
	for _, x := range n.weights {
		w += x
	}
	return w
}

// Reference reports whether any evidence placing this node came from the
// reference allele.
func (n *PathNode) Reference() bool { return n.ref }

// Evidence returns the evidence set supporting this node, or nil.
func (n *PathNode) Evidence() *EvidenceSet { return n.evidence }

// SetEvidence attaches an evidence set to the node.
func (n *PathNode) SetEvidence(s *EvidenceSet) { n.evidence = s }

// Next returns the successor edge list. The caller must not modify the
// result.
func (n *PathNode) Next() []*PathNode { return n.next }

// Prev returns the predecessor edge list. The caller must not modify the
// result.
func (n *PathNode) Prev() []*PathNode { return n.prev }

// Valid reports whether the node is still part of the graph. A node merged
// into another node becomes invalid.
func (n *PathNode) Valid() bool { return n.kmers != nil }

func (n *PathNode) String() string {
	if !n.Valid() {
		return "<merged>"
	}
	return fmt.Sprintf("[%d,%d] len=%d kmer=%#x w=%d", n.start, n.end, len(n.kmers), uint64(n.kmers[0]), n.Weight())
}

// AddEdge records that the chain of "from" is continued by the chain of
// "to": there is at least one position p at which from's last kmer at p
// immediately precedes to's first kmer at p+1. Adding an existing edge is a
// no-op.
func AddEdge(from, to *PathNode) {
	if !interval.Overlaps(from.LastStart()+1, from.LastEnd()+1, to.start, to.end) {
		log.Panicf("no positional overlap for edge %v -> %v", from, to)
	}
	addEdge(from, to)
}

func addEdge(from, to *PathNode) {
	from.next = appendNode(from.next, to)
	to.prev = appendNode(to.prev, from)
}

func appendNode(list []*PathNode, n *PathNode) []*PathNode {
	for _, x := range list {
		if x == n {
			return list
		}
	}
	return append(list, n)
}

func removeNode(list []*PathNode, n *PathNode) []*PathNode {
	for i, x := range list {
		if x == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func containsNode(list []*PathNode, n *PathNode) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

// SplitAtLength partitions the node into a prefix of the given length and a
// suffix holding the remainder. The receiver becomes the suffix; the new
// prefix node is returned. The prefix inherits the predecessors, the suffix
// keeps the successors, and a prefix->suffix edge is added.
func (n *PathNode) SplitAtLength(length int) *PathNode {
	if length <= 0 || length >= len(n.kmers) {
		log.Panicf("splitAtLength(%d) on node of length %d", length, len(n.kmers))
	}
	pre := &PathNode{
		kmers:    append([]debruijn.Kmer(nil), n.kmers[:length]...),
		start:    n.start,
		end:      n.end,
		weights:  append([]int(nil), n.weights[:length]...),
		ref:      n.ref,
		evidence: n.evidence.clone(),
	}
	n.kmers = append([]debruijn.Kmer(nil), n.kmers[length:]...)
	n.weights = append([]int(nil), n.weights[length:]...)
	n.start += length
	n.end += length

	pre.prev = n.prev
	n.prev = nil
	for _, p := range pre.prev {
		// A self edge (n preceding itself at a positional offset) turns
		// into the wrap-around edge suffix->prefix, which the generic
		// rewiring below produces on its own.
		p.next = removeNode(p.next, n)
		p.next = appendNode(p.next, pre)
	}
	addEdge(pre, n)
	return pre
}

// SplitAtStartPosition partitions the node's interval [a,b] at pos into a
// left node over [a,pos-1] and the receiver over [pos,b], both spelling the
// same chain. Edges are rebuilt by intersecting each neighbour's interval
// with the two new intervals; an edge survives only where the post-split
// intervals still overlap. The left node is returned.
func (n *PathNode) SplitAtStartPosition(pos int) *PathNode {
	if pos <= n.start || pos > n.end {
		log.Panicf("splitAtStartPosition(%d) outside (%d,%d]", pos, n.start, n.end)
	}
	left := &PathNode{
		kmers:    n.kmers,
		start:    n.start,
		end:      pos - 1,
		weights:  append([]int(nil), n.weights...),
		ref:      n.ref,
		evidence: n.evidence.clone(),
	}
	n.start = pos
	length := len(n.kmers)

	selfEdge := containsNode(n.next, n)
	if selfEdge {
		n.next = removeNode(n.next, n)
		n.prev = removeNode(n.prev, n)
	}

	oldPrev := n.prev
	n.prev = nil
	for _, p := range oldPrev {
		p.next = removeNode(p.next, n)
		if interval.Overlaps(p.LastStart()+1, p.LastEnd()+1, left.start, left.end) {
			addEdge(p, left)
		}
		if interval.Overlaps(p.LastStart()+1, p.LastEnd()+1, n.start, n.end) {
			addEdge(p, n)
		}
	}
	oldNext := n.next
	n.next = nil
	for _, nx := range oldNext {
		nx.prev = removeNode(nx.prev, n)
		if interval.Overlaps(left.start+length, left.end+length, nx.start, nx.end) {
			addEdge(left, nx)
		}
		if interval.Overlaps(n.start+length, n.end+length, nx.start, nx.end) {
			addEdge(n, nx)
		}
	}
	if selfEdge {
		// A self edge expands to every pair of halves whose intervals still
		// line up.
		for _, from := range []*PathNode{left, n} {
			for _, to := range []*PathNode{left, n} {
				if interval.Overlaps(from.LastStart()+1, from.LastEnd()+1, to.start, to.end) {
					addEdge(from, to)
				}
			}
		}
	}
	return left
}

// Merge folds other into the receiver: weights are summed per offset, the
// reference flag and evidence sets are unioned, and other's edges are
// transferred. The two nodes must occupy the same positional interval and
// have the same length; the receiver's kmer chain is kept, which is what
// repairs a sequencing error when a lighter branch is folded into a heavier
// one. Other is detached from the graph and invalidated.
func (n *PathNode) Merge(other *PathNode) {
	if other.start != n.start || other.end != n.end || len(other.kmers) != len(n.kmers) {
		log.Panicf("merge of mismatched nodes %v and %v", n, other)
	}
	for i := range n.weights {
		n.weights[i] += other.weights[i]
	}
	n.ref = n.ref || other.ref
	n.evidence = n.evidence.union(other.evidence)

	for _, p := range append([]*PathNode(nil), other.prev...) {
		p.next = removeNode(p.next, other)
		if p == other {
			// Self edge: the merged node inherits it.
			addEdge(n, n)
			continue
		}
		if p != n {
			addEdge(p, n)
		}
	}
	for _, nx := range append([]*PathNode(nil), other.next...) {
		nx.prev = removeNode(nx.prev, other)
		if nx == other || nx == n {
			continue
		}
		addEdge(n, nx)
	}
	other.prev = nil
	other.next = nil
	other.kmers = nil
	other.weights = nil
}
