package positional

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/sv/debruijn"
	"github.com/grailbio/sv/interval"
)

// pathCursor is a bounded depth-first walk over the paths reachable from a
// starting subnode. Forward cursors follow successor edges; reverse cursors
// follow predecessor edges. The cursor never extends the stack so that the
// total path length exceeds maxLen kmers.
//
// Positions along the walk are compared through the path's anchor: the
// implied interval of the position immediately adjacent to the walk's origin
// (the first kmer of the path for a forward walk, the position one past the
// path's right end for a reverse walk). Two walks rooted at neighbours of
// the same node have comparable anchors regardless of how the walks differ
// internally.
type pathCursor struct {
	forward bool
	maxLen  int
	frames  []pathFrame
}

type pathFrame struct {
	sub         Subnode
	children    []Subnode
	haveKids    bool
	childIdx    int
	pathLength  int // cumulative, including this frame
	pathWeight  int // cumulative, including this frame
}

func newPathCursor(start Subnode, forward bool, maxLen int) *pathCursor {
	c := &pathCursor{forward: forward, maxLen: maxLen}
	c.frames = append(c.frames, pathFrame{
		sub:        start,
		pathLength: start.Length(),
		pathWeight: start.node.Weight(),
	})
	return c
}

func (c *pathCursor) head() *pathFrame { return &c.frames[len(c.frames)-1] }

// headNode returns the underlying path node at the tip of the stack.
func (c *pathCursor) headNode() *PathNode { return c.head().sub.node }

// pathLength returns the total number of kmers along the stack.
func (c *pathCursor) pathLength() int { return c.head().pathLength }

// pathWeight returns the total weight along the stack.
func (c *pathCursor) pathWeight() int { return c.head().pathWeight }

// currentPath returns the underlying nodes along the stack, in traversal
// order.
func (c *pathCursor) currentPath() []*PathNode {
	nodes := make([]*PathNode, len(c.frames))
	for i := range c.frames {
		nodes[i] = c.frames[i].sub.node
	}
	return nodes
}

// kmerPath flattens the stack's kmer chains in genomic (left to right)
// order. For a reverse cursor the traversal order is genomically right to
// left, so the frame order is reversed.
func (c *pathCursor) kmerPath() []debruijn.Kmer {
	var kmers []debruijn.Kmer
	if c.forward {
		for i := range c.frames {
			kmers = append(kmers, c.frames[i].sub.node.kmers...)
		}
	} else {
		for i := len(c.frames) - 1; i >= 0; i-- {
			kmers = append(kmers, c.frames[i].sub.node.kmers...)
		}
	}
	return kmers
}

// dfsNextChild pushes the next unvisited child of the tip onto the stack,
// skipping children that would exceed the cursor's length bound. Returns
// false when no further child fits.
func (c *pathCursor) dfsNextChild() bool {
	f := c.head()
	if !f.haveKids {
		if c.forward {
			f.children = f.sub.Next()
		} else {
			f.children = f.sub.Prev()
		}
		f.haveKids = true
	}
	for f.childIdx < len(f.children) {
		ch := f.children[f.childIdx]
		f.childIdx++
		if f.pathLength+ch.Length() > c.maxLen {
			continue
		}
		c.frames = append(c.frames, pathFrame{
			sub:        ch,
			pathLength: f.pathLength + ch.Length(),
			pathWeight: f.pathWeight + ch.node.Weight(),
		})
		return true
	}
	return false
}

// dfsPop removes the tip of the stack and returns it so a failed collapse
// attempt can restore it.
func (c *pathCursor) dfsPop() pathFrame {
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return f
}

// dfsPush restores a frame previously removed with dfsPop.
func (c *pathCursor) dfsPush(f pathFrame) {
	c.frames = append(c.frames, f)
}

// resetChildTraversal restarts child enumeration at the tip.
func (c *pathCursor) resetChildTraversal() {
	f := c.head()
	f.childIdx = 0
}

// anchor returns the implied origin-adjacent interval of the current stack:
// the interval of the path's first kmer for a forward cursor, or of the
// position immediately after the path for a reverse cursor.
func (c *pathCursor) anchor() interval.Span {
	h := c.head()
	sp := interval.Span{Start: h.sub.start, End: h.sub.end}
	if c.forward {
		return sp.Shift(-(h.pathLength - h.sub.Length()))
	}
	return sp.Shift(h.pathLength)
}

// subnodes materialises the current stack as a genomic-order subnode list
// valid exactly over the given anchor interval. The anchor must be a
// sub-interval of the cursor's own anchor.
func (c *pathCursor) subnodes(anchor interval.Span) []Subnode {
	if anchor.Empty() {
		log.Panicf("empty anchor %+v", anchor)
	}
	out := make([]Subnode, 0, len(c.frames))
	if c.forward {
		off := 0
		for i := range c.frames {
			n := c.frames[i].sub.node
			out = append(out, frameSubnode(n, anchor.Shift(off)))
			off += n.Length()
		}
	} else {
		off := -c.pathLength()
		for i := len(c.frames) - 1; i >= 0; i-- {
			n := c.frames[i].sub.node
			out = append(out, frameSubnode(n, anchor.Shift(off)))
			off += n.Length()
		}
	}
	return out
}

func frameSubnode(n *PathNode, iv interval.Span) Subnode {
	if iv.Start < n.start || iv.End > n.end {
		log.Panicf("restricted interval %+v escapes node %v", iv, n)
	}
	return Subnode{node: n, start: iv.Start, end: iv.End}
}

// terminalAnchor narrows the given anchor to the lowest maximal sub-anchor
// at which the tip subnode has no onward edge in the traversal direction.
// Returns false if every position of the anchor has an onward edge.
func (c *pathCursor) terminalAnchor(anchor interval.Span) (interval.Span, bool) {
	h := c.head()
	// Project the anchor onto the tip's own coordinates.
	var headIv interval.Span
	if c.forward {
		headIv = anchor.Shift(h.pathLength - h.sub.Length())
	} else {
		headIv = anchor.Shift(-h.pathLength)
	}
	var cover []interval.Span
	if c.forward {
		cover = Subnode{node: h.sub.node, start: headIv.Start, end: headIv.End}.nextCoverage()
	} else {
		cover = Subnode{node: h.sub.node, start: headIv.Start, end: headIv.End}.prevCoverage()
	}
	gap, ok := interval.FirstGap(headIv.Start, headIv.End, cover)
	if !ok {
		return interval.Span{}, false
	}
	// Translate back to anchor coordinates.
	if c.forward {
		return gap.Shift(-(h.pathLength - h.sub.Length())), true
	}
	return gap.Shift(h.pathLength), true
}
