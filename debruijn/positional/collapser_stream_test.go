package positional

import (
	"testing"

	"github.com/grailbio/sv/debruijn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource tracks how far upstream has been consumed.
type countingSource struct {
	SliceSource
	consumed int
}

func (s *countingSource) Scan() bool {
	if s.SliceSource.Scan() {
		s.consumed++
		return true
	}
	return false
}

// The collapser emits settled nodes without waiting for upstream to finish.
func TestStreamingEmission(t *testing.T) {
	var nodes []*PathNode
	for i := 0; i < 30; i++ {
		nodes = append(nodes, seqNode(t, "ACGT", i, i, 1))
	}
	src := &countingSource{SliceSource: SliceSource{nodes: nodes}}
	opts := Opts{K: testK, MaxPathCollapseLength: 1, MaxBasesMismatch: 0}
	c := NewCollapser(src, opts)

	require.True(t, c.Scan())
	assert.Equal(t, nodes[0], c.Node())
	assert.True(t, src.consumed < len(nodes), "first emission should not require draining upstream")
	// Mid-stream, the live graph still satisfies the uniqueness and buffer
	// disjointness invariants.
	c.sanityCheck()

	out := []*PathNode{c.Node()}
	for c.Scan() {
		out = append(out, c.Node())
	}
	require.NoError(t, c.Err())
	assert.Equal(t, nodes, out)
}

// Feeding the output of a collapse back through a collapser with a zero
// mismatch budget reproduces it exactly.
func TestIdempotence(t *testing.T) {
	nodes, _, _, _, _ := buildBubble(t)
	out, _ := collapseAll(t, nodes, testOpts())

	opts := testOpts()
	opts.MaxBasesMismatch = 0
	again, c := collapseAll(t, out, opts)

	assert.Equal(t, out, again)
	assert.Equal(t, 0, c.Stats().BranchesCollapsed+c.Stats().LeavesCollapsed)
	for _, n := range again {
		assert.True(t, n.Valid())
	}
}

func TestEmptyInput(t *testing.T) {
	c := NewCollapser(NewSliceSource(nil), testOpts())
	assert.False(t, c.Scan())
	assert.NoError(t, c.Err())
}

func TestMalformedInputOrder(t *testing.T) {
	a := seqNode(t, "AAAT", 5, 5, 1)
	b := seqNode(t, "CCCT", 3, 3, 1)
	c := NewCollapser(NewSliceSource([]*PathNode{a, b}), testOpts())
	for c.Scan() {
	}
	require.Error(t, c.Err())
	assert.Contains(t, c.Err().Error(), "out of order")
}

func TestMalformedInputChain(t *testing.T) {
	// AAAA cannot be followed by TTTT in a single unbranched chain.
	k1, err := debruijn.Pack("AAAA")
	require.NoError(t, err)
	k2, err := debruijn.Pack("TTTT")
	require.NoError(t, err)
	bad := NewPathNode([]debruijn.Kmer{k1, k2}, 1, 1, []int{1, 1}, false)
	c := NewCollapser(NewSliceSource([]*PathNode{bad}), testOpts())
	for c.Scan() {
	}
	require.Error(t, c.Err())
	assert.Contains(t, c.Err().Error(), "kmer chain")
}

func TestMalformedInputEdges(t *testing.T) {
	a := seqNode(t, "AAAT", 2, 11, 1)
	b := seqNode(t, "AATG", 3, 12, 1)
	// A one-way edge violates the bidirectional edge invariant.
	a.next = append(a.next, b)
	c := NewCollapser(NewSliceSource([]*PathNode{a, b}), testOpts())
	for c.Scan() {
	}
	require.Error(t, c.Err())
	assert.Contains(t, c.Err().Error(), "back edge")
}

// A long random-free walk through the driver's horizons: chains of bubbles
// far enough apart that they never interact, emitted strictly in order with
// total mass conserved.
func TestManyBubblesConserveMass(t *testing.T) {
	var nodes []*PathNode
	var base int
	for rep := 0; rep < 8; rep++ {
		root := seqNode(t, "AAAA", base+1, base+10, 1)
		heavy := seqNode(t, "AAAT", base+2, base+11, 2)
		light := seqNode(t, "AAAG", base+2, base+11, 1)
		child := seqNode(t, "AATA", base+3, base+12, 1)
		AddEdge(root, heavy)
		AddEdge(root, light)
		AddEdge(heavy, child)
		AddEdge(light, child)
		nodes = append(nodes, root, heavy, light, child)
		base += 100
	}
	massIn := totalMass(nodes)

	out, c := collapseAll(t, nodes, testOpts())

	require.Len(t, out, 8*3)
	assert.Equal(t, 8, c.Stats().BranchesCollapsed)
	assert.Equal(t, massIn, totalMass(out))
	assertOrdered(t, out)
	assertClosed(t, out)
}
