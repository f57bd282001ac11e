package positional

import (
	"testing"

	"github.com/grailbio/sv/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFork wires R -> {A, B}, A -> C, B -> C and returns the nodes.
func buildFork(t *testing.T) (r, a, b, c *PathNode) {
	r = seqNode(t, "AAAA", 1, 10, 1)
	a = seqNode(t, "AAAT", 2, 11, 2)
	b = seqNode(t, "AAAG", 2, 11, 1)
	c = seqNode(t, "AATA", 3, 12, 1)
	AddEdge(r, a)
	AddEdge(r, b)
	AddEdge(a, c)
	AddEdge(b, c)
	return r, a, b, c
}

func TestCursorForward(t *testing.T) {
	_, a, _, c := buildFork(t)
	start := NewSubnode(a)
	cur := newPathCursor(start, true, 5)

	assert.Equal(t, 1, cur.pathLength())
	assert.Equal(t, 2, cur.pathWeight())
	assert.Equal(t, []*PathNode{a}, cur.currentPath())
	assert.Equal(t, interval.Span{Start: 2, End: 11}, cur.anchor())

	require.True(t, cur.dfsNextChild())
	assert.Equal(t, []*PathNode{a, c}, cur.currentPath())
	assert.Equal(t, 2, cur.pathLength())
	assert.Equal(t, 3, cur.pathWeight())
	// The anchor still describes the path's first kmer interval.
	assert.Equal(t, interval.Span{Start: 2, End: 11}, cur.anchor())
	assert.Equal(t, seqKmers(t, "AAATA"), cur.kmerPath())

	// c has no successors.
	assert.False(t, cur.dfsNextChild())
	cur.dfsPop()
	assert.Equal(t, []*PathNode{a}, cur.currentPath())
	// Child enumeration at the tip is exhausted until reset.
	assert.False(t, cur.dfsNextChild())
	cur.resetChildTraversal()
	assert.True(t, cur.dfsNextChild())
}

func TestCursorReverse(t *testing.T) {
	_, a, _, c := buildFork(t)
	// Walk backwards from c.
	cur := newPathCursor(NewSubnode(c), false, 5)
	// Reverse anchor is the position one past the path's right end.
	assert.Equal(t, interval.Span{Start: 4, End: 13}, cur.anchor())

	// Children enumerate in sorted order: AAAG before AAAT.
	require.True(t, cur.dfsNextChild())
	assert.NotEqual(t, a, cur.headNode())
	cur.dfsPop()
	require.True(t, cur.dfsNextChild())
	require.Equal(t, a, cur.headNode())

	// Genomic order flattening reverses the traversal order.
	assert.Equal(t, seqKmers(t, "AAATA"), cur.kmerPath())
	assert.Equal(t, interval.Span{Start: 4, End: 13}, cur.anchor())
}

func TestCursorLengthBound(t *testing.T) {
	_, a, _, _ := buildFork(t)
	cur := newPathCursor(NewSubnode(a), true, 1)
	// Extending to c would exceed the bound.
	assert.False(t, cur.dfsNextChild())
	assert.Equal(t, 1, cur.pathLength())
}

func TestCursorSubnodes(t *testing.T) {
	_, a, _, c := buildFork(t)
	cur := newPathCursor(NewSubnode(a), true, 5)
	require.True(t, cur.dfsNextChild())

	subs := cur.subnodes(interval.Span{Start: 4, End: 6})
	require.Len(t, subs, 2)
	assert.Equal(t, a, subs[0].Node())
	assert.Equal(t, 4, subs[0].FirstStart())
	assert.Equal(t, 6, subs[0].FirstEnd())
	assert.Equal(t, c, subs[1].Node())
	assert.Equal(t, 5, subs[1].FirstStart())
	assert.Equal(t, 7, subs[1].FirstEnd())

	// Reverse cursors list subnodes in genomic order too.
	rcur := newPathCursor(NewSubnode(c), false, 5)
	require.True(t, rcur.dfsNextChild()) // AAAG child first
	rcur.dfsPop()
	require.True(t, rcur.dfsNextChild())
	require.Equal(t, a, rcur.headNode())
	subs = rcur.subnodes(interval.Span{Start: 5, End: 7})
	require.Len(t, subs, 2)
	assert.Equal(t, a, subs[0].Node())
	assert.Equal(t, 3, subs[0].FirstStart())
	assert.Equal(t, 5, subs[0].FirstEnd())
	assert.Equal(t, c, subs[1].Node())
	assert.Equal(t, 4, subs[1].FirstStart())
	assert.Equal(t, 6, subs[1].FirstEnd())
}

func TestTerminalAnchor(t *testing.T) {
	r := seqNode(t, "CCCC", 1, 10, 1)
	leaf := seqNode(t, "CCCA", 2, 11, 1)
	main := seqNode(t, "CCCG", 2, 11, 4)
	next := seqNode(t, "CCGG", 3, 12, 1)
	AddEdge(r, leaf)
	AddEdge(r, main)
	AddEdge(main, next)

	// The leaf has no onward edges anywhere: the whole anchor is terminal.
	lcur := newPathCursor(NewSubnode(leaf), true, 5)
	term, ok := lcur.terminalAnchor(interval.Span{Start: 2, End: 11})
	require.True(t, ok)
	assert.Equal(t, interval.Span{Start: 2, End: 11}, term)

	// The main path is fully covered by its successor: no terminal anchor.
	mcur := newPathCursor(NewSubnode(main), true, 5)
	_, ok = mcur.terminalAnchor(interval.Span{Start: 2, End: 11})
	assert.False(t, ok)
}

func TestTerminalAnchorPartialCover(t *testing.T) {
	n := seqNode(t, "AAAT", 2, 11, 1)
	succ := seqNode(t, "AATA", 3, 6, 1) // covers starts [2,5] only
	AddEdge(n, succ)

	cur := newPathCursor(NewSubnode(n), true, 5)
	term, ok := cur.terminalAnchor(interval.Span{Start: 2, End: 11})
	require.True(t, ok)
	assert.Equal(t, interval.Span{Start: 6, End: 11}, term)

	// Narrowing the anchor to the covered part hides the terminal range.
	_, ok = cur.terminalAnchor(interval.Span{Start: 2, End: 5})
	assert.False(t, ok)
}
