package positional

import (
	"testing"

	"github.com/grailbio/sv/debruijn"
	"github.com/stretchr/testify/require"
)

// All scenario tests use 4-mers so sequences stay readable.
const testK = 4

// seqKmers packs every 4-base window of seq into a kmer chain.
func seqKmers(t testing.TB, seq string) []debruijn.Kmer {
	var out []debruijn.Kmer
	for i := 0; i+testK <= len(seq); i++ {
		km, err := debruijn.Pack(seq[i : i+testK])
		require.NoError(t, err)
		out = append(out, km)
	}
	require.True(t, debruijn.ChainValid(testK, out))
	return out
}

// seqNode builds a path node spelling seq with a uniform per-offset weight.
func seqNode(t testing.TB, seq string, start, end, weight int) *PathNode {
	kmers := seqKmers(t, seq)
	weights := make([]int, len(kmers))
	for i := range weights {
		weights[i] = weight
	}
	return NewPathNode(kmers, start, end, weights, false)
}

// collapseAll runs a full collapse over the nodes and returns the emitted
// sequence.
func collapseAll(t testing.TB, nodes []*PathNode, opts Opts) ([]*PathNode, *Collapser) {
	c := NewCollapser(NewSliceSource(nodes), opts)
	var out []*PathNode
	for c.Scan() {
		out = append(out, c.Node())
	}
	require.NoError(t, c.Err())
	return out, c
}

// totalMass sums weight*width over all nodes: the quantity conserved by
// splits and merges.
func totalMass(nodes []*PathNode) int {
	mass := 0
	for _, n := range nodes {
		mass += n.Weight() * n.Width()
	}
	return mass
}

func testOpts() Opts {
	return Opts{
		K:                     testK,
		MaxPathCollapseLength: 5,
		MaxBasesMismatch:      1,
		BubblesAndLeavesOnly:  false,
	}
}
