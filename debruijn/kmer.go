package debruijn

import (
	"math/bits"

	"github.com/pkg/errors"
)

const invalidBaseBits = uint8(255)

var (
	asciiToBaseMap [256]uint8
	baseToASCII    = [4]byte{'A', 'C', 'G', 'T'}
)

func init() {
	for i := range asciiToBaseMap {
		asciiToBaseMap[i] = invalidBaseBits
	}
	asciiToBaseMap['A'] = 0
	asciiToBaseMap['a'] = 0
	asciiToBaseMap['C'] = 1
	asciiToBaseMap['c'] = 1
	asciiToBaseMap['G'] = 2
	asciiToBaseMap['g'] = 2
	asciiToBaseMap['T'] = 3
	asciiToBaseMap['t'] = 3
}

// Kmer is a compact encoding of a sequence of ACGT, up to 32 bases.  Bases
// are packed two bits each, with the last base of the sequence in the low
// bits.
type Kmer uint64

// Pack encodes a DNA string as a Kmer. It fails on ambiguous bases (N) and
// on sequences longer than 32 bases.
func Pack(seq string) (Kmer, error) {
	if len(seq) > 32 {
		return 0, errors.Errorf("kmer too long: %d bases", len(seq))
	}
	var k Kmer
	for _, ch := range []byte(seq) {
		b := asciiToBaseMap[ch]
		if b == invalidBaseBits {
			return 0, errors.Errorf("invalid base %q in kmer %q", ch, seq)
		}
		k = (k << 2) | Kmer(b)
	}
	return k, nil
}

// String decodes the low k bases of km back to ASCII.
func (km Kmer) String(k int) string {
	buf := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		buf[i] = baseToASCII[km&3]
		km >>= 2
	}
	return string(buf)
}

// LastBase returns the 2-bit code of the final base of km.
func LastBase(km Kmer) uint8 { return uint8(km & 3) }

// FirstBase returns the 2-bit code of the leading base of a k-base kmer.
func FirstBase(k int, km Kmer) uint8 {
	return uint8((km >> uint(2*(k-1))) & 3)
}

// Next returns the kmer obtained by shifting km left one base and appending
// base, keeping only the low k bases.
func Next(k int, km Kmer, base uint8) Kmer {
	mask := ^(^Kmer(0) << uint(2*k))
	return ((km << 2) | Kmer(base&3)) & mask
}

// ChainValid reports whether consecutive kmers in the chain overlap by k-1
// bases, i.e. each kmer is a one-base advance of its predecessor.
func ChainValid(k int, kmers []Kmer) bool {
	for i := 1; i < len(kmers); i++ {
		if Next(k, kmers[i-1], LastBase(kmers[i])) != kmers[i] {
			return false
		}
	}
	return true
}

// KmerDiff counts the bases at which two k-base kmers differ.
func KmerDiff(k int, a, b Kmer) int {
	x := uint64(a ^ b)
	// Fold each 2-bit base group down to a single bit marking "differs".
	x = (x | (x >> 1)) & 0x5555555555555555
	mask := ^(^uint64(0) << uint(2*k)) & 0x5555555555555555
	return bits.OnesCount64(x & mask)
}

// BasesDifferent counts the positions at which the base sequences spelled by
// the two kmer chains differ, aligned left to right.  The comparison covers
// min(len(a), len(b)) + k - 1 bases: the first kmer pair is compared in
// full, and each subsequent pair contributes only its newly added last base.
func BasesDifferent(k int, a, b []Kmer) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	diff := KmerDiff(k, a[0], b[0])
	for i := 1; i < n; i++ {
		if LastBase(a[i]) != LastBase(b[i]) {
			diff++
		}
	}
	return diff
}

// ReverseBasesDifferent is BasesDifferent with the chains aligned right to
// left: the trailing min(len(a), len(b)) kmers of each chain are compared.
// Both alignments compare each base of the shared window exactly once, so
// skipping the leading kmers of the longer chain and comparing forward
// yields the same count as the right-to-left walk.
func ReverseBasesDifferent(k int, a, b []Kmer) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return BasesDifferent(k, a[len(a)-n:], b[len(b)-n:])
}
