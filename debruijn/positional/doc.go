// Package positional implements the streaming path-collapse engine of a
// positional de Bruijn graph assembler.
//
// The graph's nodes are path nodes: maximal unbranched kmer chains that also
// carry the interval of reference start positions at which the chain was
// observed. The Collapser consumes path nodes in ascending order of their
// first kmer's start position and emits an equivalent simplified graph in
// the same order, merging paths that differ by a small number of bases
// (sequencing error repair) and folding leaf branches into their sibling
// main paths.
//
// The input stream interleaves nodes by position, but a collapse can only be
// applied once the full neighbourhood of a candidate is known. The engine
// therefore holds nodes in two ordered buffers, one keyed by where a chain
// ends (candidates waiting for their neighbourhood to settle) and one keyed
// by where it starts (nodes awaiting emission), and advances a pair of
// horizons derived from the upstream read position to decide when a node is
// safe to collapse around and when it is safe to emit.
package positional
