package positional

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/log"
	"github.com/grailbio/sv/debruijn"
)

// The collapser keeps its live nodes in two ordered buffers: unprocessed
// nodes sorted by where their chain ends, processed nodes sorted by where it
// starts. Both orders are total because the (kmer, position) pair at either
// end of a chain is unique in the live graph.

func kmerCompare(a, b debruijn.Kmer) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type nodeKey interface {
	llrb.Comparable
	pathNode() *PathNode
}

type byFirstStart struct{ *PathNode }

func (a byFirstStart) pathNode() *PathNode { return a.PathNode }

// Compare orders by (firstStart, firstEnd, firstKmer) for use in llrb.
func (a byFirstStart) Compare(c llrb.Comparable) int {
	b := c.(byFirstStart)
	if d := a.start - b.start; d != 0 {
		return d
	}
	if d := a.end - b.end; d != 0 {
		return d
	}
	return kmerCompare(a.FirstKmer(), b.FirstKmer())
}

type byLastEnd struct{ *PathNode }

func (a byLastEnd) pathNode() *PathNode { return a.PathNode }

// Compare orders by (lastEnd, lastStart, lastKmer) for use in llrb.
func (a byLastEnd) Compare(c llrb.Comparable) int {
	b := c.(byLastEnd)
	if d := a.LastEnd() - b.LastEnd(); d != 0 {
		return d
	}
	if d := a.LastStart() - b.LastStart(); d != 0 {
		return d
	}
	return kmerCompare(a.LastKmer(), b.LastKmer())
}

// nodeQueue is an ordered buffer of path nodes backed by a left-leaning
// red-black tree. A node whose sort key is about to change must be deleted
// before the mutation and re-inserted afterwards.
type nodeQueue struct {
	tree llrb.Tree
	key  func(*PathNode) nodeKey
}

func newQueueByFirstStart() *nodeQueue {
	return &nodeQueue{key: func(n *PathNode) nodeKey { return byFirstStart{n} }}
}

func newQueueByLastEnd() *nodeQueue {
	return &nodeQueue{key: func(n *PathNode) nodeKey { return byLastEnd{n} }}
}

func (q *nodeQueue) len() int { return q.tree.Len() }

func (q *nodeQueue) insert(n *PathNode) {
	if q.contains(n) {
		log.Panicf("node %v already buffered", n)
	}
	q.tree.Insert(q.key(n))
}

func (q *nodeQueue) delete(n *PathNode) {
	q.tree.Delete(q.key(n))
}

// contains reports whether this exact node is in the buffer.
func (q *nodeQueue) contains(n *PathNode) bool {
	got := q.tree.Get(q.key(n))
	return got != nil && got.(nodeKey).pathNode() == n
}

func (q *nodeQueue) min() *PathNode {
	got := q.tree.Min()
	if got == nil {
		return nil
	}
	return got.(nodeKey).pathNode()
}

func (q *nodeQueue) popMin() *PathNode {
	n := q.min()
	if n != nil {
		q.tree.DeleteMin()
	}
	return n
}

// do calls fn on every buffered node in key order until fn returns true.
func (q *nodeQueue) do(fn func(*PathNode) bool) {
	q.tree.Do(func(c llrb.Comparable) bool {
		return fn(c.(nodeKey).pathNode())
	})
}
