package positional

import (
	"math"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/sv/debruijn"
	"github.com/grailbio/sv/interval"
	"github.com/pkg/errors"
)

// Source supplies path nodes in ascending order of first-kmer start
// position. Every node must carry fully defined edges to every node already
// supplied; nodes not yet supplied may later add edges to nodes that were.
type Source interface {
	// Scan advances to the next node, returning false at end of input.
	Scan() bool
	// Node returns the node Scan advanced to.
	Node() *PathNode
}

// SliceSource is a Source backed by a slice.
type SliceSource struct {
	nodes []*PathNode
	i     int
}

// NewSliceSource returns a Source yielding the given nodes in order.
func NewSliceSource(nodes []*PathNode) *SliceSource {
	return &SliceSource{nodes: nodes}
}

// Scan implements Source.
func (s *SliceSource) Scan() bool {
	if s.i >= len(s.nodes) {
		return false
	}
	s.i++
	return true
}

// Node implements Source.
func (s *SliceSource) Node() *PathNode { return s.nodes[s.i-1] }

// peeker adds one-node lookahead on top of a Source.
type peeker struct {
	src     Source
	head    *PathNode
	started bool
}

func (p *peeker) fill() {
	if !p.started {
		p.started = true
		if p.src.Scan() {
			p.head = p.src.Node()
		}
	}
}

func (p *peeker) peek() *PathNode {
	p.fill()
	return p.head
}

func (p *peeker) next() *PathNode {
	p.fill()
	n := p.head
	if n != nil {
		if p.src.Scan() {
			p.head = p.src.Node()
		} else {
			p.head = nil
		}
	}
	return n
}

// Positions below these sentinels never occur in real coordinates; they
// bracket the driver's notion of "nothing read yet" and "input exhausted".
const (
	minInputPosition = math.MinInt32
	maxInputPosition = math.MaxInt32
)

// debugSanityCheck turns on full-buffer invariant verification after every
// emitted node. Far too slow for production use.
const debugSanityCheck = false

// Collapser simplifies a positional de Bruijn graph streamed in ascending
// order of first-kmer start position, merging paths that differ by at most
// a small number of bases and folding leaf branches into their sibling main
// paths. Output nodes are emitted in the same order and are never mutated
// after emission, although a later collapse may still rewrite an emitted
// node's edge lists.
//
// A node can only be used as the centre of a collapse once every path of at
// most MaxPathCollapseLength+1 kmers around it is fully loaded, and can only
// be emitted once no future collapse can restructure it. The driver tracks
// both horizons as fixed offsets behind the upstream read position.
type Collapser struct {
	src *peeker

	k                    int
	maxCollapseLength    int
	maxBasesMismatch     int
	bubblesAndLeavesOnly bool
	processOffset        int

	processed   *nodeQueue // ordered by (firstStart, firstEnd, firstKmer)
	unprocessed *nodeQueue // ordered by (lastEnd, lastStart, lastKmer)

	inputPosition int
	lastLoaded    int
	maxNodeWidth  int
	maxNodeLength int

	cur   *PathNode
	err   error
	stats Stats
}

// NewCollapser creates a Collapser reading from src.
func NewCollapser(src Source, opts Opts) *Collapser {
	if opts.K <= 0 || opts.K > 32 {
		log.Panicf("kmer size %d out of range", opts.K)
	}
	if opts.MaxPathCollapseLength < 1 {
		log.Panicf("max path collapse length %d out of range", opts.MaxPathCollapseLength)
	}
	if opts.MaxBasesMismatch < 0 {
		log.Panicf("max bases mismatch %d out of range", opts.MaxBasesMismatch)
	}
	return &Collapser{
		src:                  &peeker{src: src},
		k:                    opts.K,
		maxCollapseLength:    opts.MaxPathCollapseLength,
		maxBasesMismatch:     opts.MaxBasesMismatch,
		bubblesAndLeavesOnly: opts.BubblesAndLeavesOnly,
		processOffset:        opts.MaxPathCollapseLength + 1,
		processed:            newQueueByFirstStart(),
		unprocessed:          newQueueByLastEnd(),
		inputPosition:        minInputPosition,
		lastLoaded:           minInputPosition,
	}
}

// Scan advances to the next output node, returning false at end of output
// or on error.
func (c *Collapser) Scan() bool {
	if c.err != nil {
		return false
	}
	c.ensureBuffer()
	if c.err != nil || c.processed.len() == 0 {
		return false
	}
	c.cur = c.processed.popMin()
	c.stats.NodesOut++
	if debugSanityCheck {
		c.sanityCheck()
	}
	return true
}

// Node returns the node Scan advanced to.
func (c *Collapser) Node() *PathNode { return c.cur }

// Err returns the first error encountered, if any.
func (c *Collapser) Err() error { return c.err }

// Stats returns the counters accumulated so far.
func (c *Collapser) Stats() Stats { return c.stats }

// emitOffset is how far the upstream read position must be past a processed
// node's firstStart before no future collapse can restructure it. A
// collapse centred at the process horizon can reach maxCollapseLength kmers
// in either direction and splitting can ripple across a node's full length
// and width, so the emit horizon trails the process horizon by
// maxCollapseLength plus twice the largest node length and twice the largest
// node width seen so far, plus two.
func (c *Collapser) emitOffset() int {
	unchanged := c.processOffset + c.maxNodeLength + c.maxNodeWidth + c.maxCollapseLength + 1
	return unchanged + c.maxNodeLength + c.maxNodeWidth + 1
}

func (c *Collapser) ensureBuffer() {
	for c.inputPosition < maxInputPosition &&
		(c.processed.len() == 0 || c.processed.min().FirstStart() > c.inputPosition-c.emitOffset()) {
		if n := c.src.peek(); n != nil {
			c.inputPosition = n.FirstStart()
		} else {
			c.inputPosition = maxInputPosition
		}
		if !c.loadGraphNodes() {
			return
		}
		for c.collapseStep() > 0 {
		}
	}
}

// loadGraphNodes drains every upstream node with firstStart at or before
// the current input position into the unprocessed buffer.
func (c *Collapser) loadGraphNodes() bool {
	for {
		n := c.src.peek()
		if n == nil || n.FirstStart() > c.inputPosition {
			return true
		}
		c.src.next()
		if err := c.validateInput(n); err != nil {
			c.err = err
			return false
		}
		c.lastLoaded = n.FirstStart()
		if n.Width() > c.maxNodeWidth {
			c.maxNodeWidth = n.Width()
		}
		if n.Length() > c.maxNodeLength {
			c.maxNodeLength = n.Length()
		}
		c.unprocessed.insert(n)
		c.stats.NodesIn++
	}
}

func (c *Collapser) validateInput(n *PathNode) error {
	if !n.Valid() {
		return errors.Errorf("input node has been invalidated")
	}
	if n.FirstStart() < c.lastLoaded {
		return errors.Errorf("input node %v out of order: previous firstStart %d", n, c.lastLoaded)
	}
	if !debruijn.ChainValid(c.k, n.kmers) {
		return errors.Errorf("input node %v has an inconsistent kmer chain", n)
	}
	for _, nb := range n.next {
		if !containsNode(nb.prev, n) {
			return errors.Errorf("successor edge of %v missing its back edge", n)
		}
	}
	for _, nb := range n.prev {
		if !containsNode(nb.next, n) {
			return errors.Errorf("predecessor edge of %v missing its back edge", n)
		}
	}
	return nil
}

// collapseStep moves every node whose neighbourhood is fully loaded into
// the processed buffer, attempting a collapse around each. Returns the
// number of successful collapses.
func (c *Collapser) collapseStep() int {
	count := 0
	for c.unprocessed.len() > 0 && c.unprocessed.min().LastEnd() < c.inputPosition-c.processOffset {
		n := c.unprocessed.popMin()
		c.processed.insert(n)
		if c.collapseAround(n) {
			count++
		}
	}
	return count
}

// collapseAround attempts to collapse a pair of paths branching off the
// given node: forward over successor pairs, then in reverse over
// predecessor pairs.
func (c *Collapser) collapseAround(node *PathNode) bool {
	root := NewSubnode(node)
	next := root.Next()
	for i := 0; i < len(next); i++ {
		for j := i + 1; j < len(next); j++ {
			if c.collapseSimilarPath(node, next[i], next[j], true, true, true) {
				return true
			}
		}
	}
	prev := root.Prev()
	for i := 0; i < len(prev); i++ {
		for j := i + 1; j < len(prev); j++ {
			if c.collapseSimilarPath(node, prev[i], prev[j], true, false, false) {
				return true
			}
		}
	}
	return false
}

func (c *Collapser) collapseSimilarPath(root *PathNode, startA, startB Subnode, findLeaf, findCommonChild, forward bool) bool {
	pathA := newPathCursor(startA, forward, c.maxCollapseLength)
	pathB := newPathCursor(startB, forward, c.maxCollapseLength)
	if pathA.pathLength() > c.maxCollapseLength || pathB.pathLength() > c.maxCollapseLength {
		return false
	}
	return c.collapsePaths(root, pathA, pathB, findLeaf, findCommonChild, forward)
}

// collapsePaths simultaneously walks both path trees, comparing every pair
// of partial paths until one pair collapses. The shorter path is extended
// first so the two stay within one node of each other in length. Both
// cursors are restored to their pre-call stacks when no collapse is found.
func (c *Collapser) collapsePaths(root *PathNode, pathA, pathB *pathCursor, findLeaf, findCommonChild, forward bool) bool {
	// Paths that share no anchor interval can never be merged.
	if interval.Intersect(pathA.anchor().Start, pathA.anchor().End, pathB.anchor().Start, pathB.anchor().End).Empty() {
		return false
	}
	if !c.similarPartialPaths(pathA, pathB, forward) {
		return false
	}
	if c.tryCollapse(root, pathA, pathB, findLeaf, findCommonChild, forward) {
		return true
	}
	if pathA.pathLength() <= pathB.pathLength() {
		for pathA.dfsNextChild() {
			pathB.resetChildTraversal()
			if c.collapsePaths(root, pathA, pathB, findLeaf, findCommonChild, forward) {
				return true
			}
			pathA.dfsPop()
		}
	} else {
		for pathB.dfsNextChild() {
			pathA.resetChildTraversal()
			if c.collapsePaths(root, pathA, pathB, findLeaf, findCommonChild, forward) {
				return true
			}
			pathB.dfsPop()
		}
	}
	return false
}

func (c *Collapser) similarPartialPaths(pathA, pathB *pathCursor, forward bool) bool {
	var diff int
	if forward {
		diff = debruijn.BasesDifferent(c.k, pathA.kmerPath(), pathB.kmerPath())
	} else {
		diff = debruijn.ReverseBasesDifferent(c.k, pathA.kmerPath(), pathB.kmerPath())
	}
	return diff <= c.maxBasesMismatch
}

// repeatedNodeCount returns how many times any underlying node appears more
// than once across the root and the given cursors' stacks. Collapsing a
// repeated node cannot be expressed as a single set of split boundaries, so
// candidates containing repeats are rejected.
func repeatedNodeCount(root *PathNode, cursors ...*pathCursor) int {
	seen := map[*PathNode]struct{}{root: {}}
	count := 1
	for _, cur := range cursors {
		for i := range cur.frames {
			seen[cur.frames[i].sub.node] = struct{}{}
			count++
		}
	}
	return count - len(seen)
}

func (c *Collapser) tryCollapse(root *PathNode, pathA, pathB *pathCursor, findLeaf, findCommonChild, forward bool) bool {
	if findCommonChild &&
		pathA.headNode() == pathB.headNode() &&
		pathA.pathLength() == pathB.pathLength() &&
		repeatedNodeCount(root, pathA, pathB) == 1 {
		// Drop the shared tip; the remaining bodies are the two parallel
		// arms of the bubble.
		tipA := pathA.dfsPop()
		tipB := pathB.dfsPop()
		anchorA := pathA.anchor()
		anchorB := pathB.anchor()
		common := interval.Intersect(anchorA.Start, anchorA.End, anchorB.Start, anchorB.End)
		merged := false
		if !common.Empty() {
			bodyA := pathA.subnodes(common)
			bodyB := pathB.subnodes(common)
			if pathA.pathWeight() < pathB.pathWeight() {
				if !c.bubblesAndLeavesOnly || isBubblePath(bodyA) {
					c.mergePaths(bodyA, bodyB, 0, 0)
					merged = true
				}
			} else {
				if !c.bubblesAndLeavesOnly || isBubblePath(bodyB) {
					c.mergePaths(bodyB, bodyA, 0, 0)
					merged = true
				}
			}
		}
		if merged {
			c.stats.BranchesCollapsed++
			return true
		}
		pathA.dfsPush(tipA)
		pathB.dfsPush(tipB)
	}
	if findLeaf {
		if c.tryLeafCollapse(root, pathA, pathB, forward) {
			return true
		}
		if c.tryLeafCollapse(root, pathB, pathA, forward) {
			return true
		}
	}
	return false
}

// isBubblePath reports whether every subnode of the path except the last
// has exactly one predecessor and one successor.
func isBubblePath(path []Subnode) bool {
	for i := 0; i < len(path)-1; i++ {
		sn := path[i]
		if len(sn.Next()) != 1 {
			return false
		}
		if len(sn.Prev()) != 1 {
			return false
		}
	}
	return true
}

func (c *Collapser) tryLeafCollapse(root *PathNode, leaf, path *pathCursor, forward bool) bool {
	// The leaf is folded into the main path, so it cannot be longer or
	// heavier than the path.
	if leaf.pathLength() > path.pathLength() {
		return false
	}
	if leaf.pathWeight() > path.pathWeight() {
		return false
	}
	la := leaf.anchor()
	pa := path.anchor()
	common := interval.Intersect(la.Start, la.End, pa.Start, pa.End)
	if common.Empty() {
		return false
	}
	term, ok := leaf.terminalAnchor(common)
	if !ok {
		return false
	}
	if repeatedNodeCount(root, leaf, path) > 0 {
		return false
	}
	leafSkip := 0
	pathSkip := 0
	if !forward {
		// Reverse paths are anchored at their right ends; trim the main
		// path's extra leading kmers so the two left edges line up.
		pathSkip = path.pathLength() - leaf.pathLength()
	}
	c.mergePaths(leaf.subnodes(term), path.subnodes(term), leafSkip, pathSkip)
	c.stats.LeavesCollapsed++
	return true
}

// mergePaths folds the source path into the target path, dropping the given
// number of leading kmers from each side first.
func (c *Collapser) mergePaths(sourcePath, targetPath []Subnode, sourceSkipKmers, targetSkipKmers int) {
	sourcePath = c.trimStartKmers(sourcePath, sourceSkipKmers)
	targetPath = c.trimStartKmers(targetPath, targetSkipKmers)
	c.mergeAligned(sourcePath, targetPath)
}

// trimStartKmers drops the leading kmerCount kmers from the path, length
// splitting the node under the cut when it falls mid-node. Zero is a no-op.
func (c *Collapser) trimStartKmers(path []Subnode, kmerCount int) []Subnode {
	if kmerCount < 0 {
		log.Panicf("negative trim %d", kmerCount)
	}
	if kmerCount == 0 {
		return path
	}
	path = c.lengthSplitSubnodes(path, kmerCount)
	for kmerCount > 0 {
		kmerCount -= path[0].Length()
		path = path[1:]
	}
	if kmerCount != 0 {
		log.Panicf("trim boundary not aligned, %d kmers over", -kmerCount)
	}
	return path
}

// lengthSplitSubnodes ensures the path has a node boundary exactly
// splitAfter kmers in, splitting the underlying node if needed.
func (c *Collapser) lengthSplitSubnodes(path []Subnode, splitAfter int) []Subnode {
	length := 0
	for i := 0; i < len(path); i++ {
		n := path[i]
		switch {
		case length+n.Length() == splitAfter:
			return path
		case length+n.Length() < splitAfter:
			length += n.Length()
		default:
			splitLength := splitAfter - length
			split := c.lengthSplitNode(n.node, splitLength)
			out := make([]Subnode, 0, len(path)+1)
			out = append(out, path[:i]...)
			out = append(out, Subnode{node: split, start: n.start, end: n.end})
			out = append(out, Subnode{node: n.node, start: n.start + splitLength, end: n.end + splitLength})
			out = append(out, path[i+1:]...)
			return out
		}
	}
	log.Panicf("split boundary %d beyond path end %d", splitAfter, length)
	return nil
}

func (c *Collapser) mergeAligned(sourcePath, targetPath []Subnode) {
	if len(sourcePath) == 0 || len(targetPath) == 0 {
		log.Panicf("empty merge path")
	}
	if sourcePath[0].Width() != targetPath[0].Width() || sourcePath[0].start != targetPath[0].start {
		log.Panicf("misaligned merge paths %v and %v", sourcePath[0], targetPath[0])
	}
	source := c.positionSplitAll(sourcePath)
	target := c.positionSplitAll(targetPath)

	// Collect every node boundary on either path, then split both paths on
	// the union so they align node for node.
	var bounds []int
	for _, n := range source {
		bounds = append(bounds, n.FirstStart(), n.FirstStart()+n.Length())
	}
	for _, n := range target {
		bounds = append(bounds, n.FirstStart(), n.FirstStart()+n.Length())
	}
	sort.Ints(bounds)
	bounds = dedupInts(bounds)
	source = c.lengthSplitAll(bounds, source)
	target = c.lengthSplitAll(bounds, target)

	n := len(source)
	if len(target) < n {
		n = len(target)
	}
	for i := 0; i < n; i++ {
		c.mergeNode(source[i], target[i])
	}
}

func dedupInts(xs []int) []int {
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != xs[i-1] {
			out = append(out, x)
		}
	}
	return out
}

// positionSplitAll splits each subnode's underlying node so that exactly
// the subnode's interval becomes a distinct path node.
func (c *Collapser) positionSplitAll(path []Subnode) []*PathNode {
	nodes := make([]*PathNode, 0, len(path))
	for _, sn := range path {
		nodes = append(nodes, c.positionSplit(sn))
	}
	return nodes
}

func (c *Collapser) positionSplit(sn Subnode) *PathNode {
	n := sn.node
	if sn.start != n.FirstStart() {
		q := c.queueFor(n)
		q.delete(n)
		pre := n.SplitAtStartPosition(sn.start)
		q.insert(n)
		q.insert(pre)
		c.stats.NodesSplit++
	}
	if sn.end != n.FirstEnd() {
		q := c.queueFor(n)
		q.delete(n)
		mid := n.SplitAtStartPosition(sn.end + 1)
		q.insert(n)
		q.insert(mid)
		c.stats.NodesSplit++
		n = mid
	}
	if n.FirstStart() != sn.start || n.FirstEnd() != sn.end {
		log.Panicf("position split failed: %v does not cover [%d,%d]", n, sn.start, sn.end)
	}
	return n
}

// lengthSplitAll splits every node at each boundary position falling
// strictly inside it, returning the path with splits applied in order.
func (c *Collapser) lengthSplitAll(bounds []int, path []*PathNode) []*PathNode {
	result := make([]*PathNode, 0, len(path))
	for _, n := range path {
		for _, b := range bounds {
			if b <= n.FirstStart() || b >= n.FirstStart()+n.Length() {
				continue
			}
			split := c.lengthSplitNode(n, b-n.FirstStart())
			result = append(result, split)
		}
		result = append(result, n)
	}
	return result
}

func (c *Collapser) lengthSplitNode(n *PathNode, length int) *PathNode {
	q := c.queueFor(n)
	q.delete(n)
	split := n.SplitAtLength(length)
	q.insert(split)
	q.insert(n)
	c.stats.NodesSplit++
	return split
}

func (c *Collapser) mergeNode(source, target *PathNode) {
	if source.LastStart() != target.LastStart() ||
		source.LastEnd() != target.LastEnd() ||
		source.Length() != target.Length() {
		log.Panicf("cannot merge misaligned nodes %v and %v", source, target)
	}
	c.stats.WeightFolded += source.Weight()
	c.queueFor(source).delete(source)
	target.Merge(source)
}

// queueFor returns the buffer currently holding n.
func (c *Collapser) queueFor(n *PathNode) *nodeQueue {
	if c.processed.contains(n) {
		return c.processed
	}
	if c.unprocessed.contains(n) {
		return c.unprocessed
	}
	log.Panicf("node %v is in neither buffer", n)
	return nil
}

// sanityCheck verifies that the two buffers are disjoint and that
// (firstKmer, firstStart) is unique across the live graph.
func (c *Collapser) sanityCheck() {
	type key struct {
		kmer  debruijn.Kmer
		start int
	}
	seen := map[key]*PathNode{}
	check := func(n *PathNode) bool {
		if !n.Valid() {
			log.Panicf("invalidated node %v still buffered", n)
		}
		k := key{n.FirstKmer(), n.FirstStart()}
		if other, ok := seen[k]; ok {
			log.Panicf("duplicate (kmer, firstStart): %v and %v", n, other)
		}
		seen[k] = n
		return false
	}
	c.processed.do(check)
	c.unprocessed.do(func(n *PathNode) bool {
		if c.processed.contains(n) {
			log.Panicf("node %v in both buffers", n)
		}
		return check(n)
	})
}
