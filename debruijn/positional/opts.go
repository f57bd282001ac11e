package positional

// Opts configures a Collapser.
type Opts struct {
	// K is the kmer size, in bases. Must match the kmer size used to build
	// the input path nodes.
	K int
	// MaxPathCollapseLength bounds the length, in kmers, of either candidate
	// path considered for a collapse.
	MaxPathCollapseLength int
	// MaxBasesMismatch is the largest number of base differences tolerated
	// between two candidate paths that are still considered the same
	// underlying sequence.
	MaxBasesMismatch int
	// BubblesAndLeavesOnly restricts collapses to simple bubble and leaf
	// topologies. When false, any two similar paths may be collapsed.
	BubblesAndLeavesOnly bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	K:                     25,
	MaxPathCollapseLength: 40,
	MaxBasesMismatch:      2,
	BubblesAndLeavesOnly:  true,
}
