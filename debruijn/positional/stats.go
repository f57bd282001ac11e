package positional

// Stats represents high-level counters for one run of a Collapser.
type Stats struct {
	// NodesIn is the # of path nodes consumed from the upstream source.
	NodesIn int
	// NodesOut is the # of path nodes emitted downstream.
	NodesOut int
	// BranchesCollapsed is the # of bubble (common child) collapses applied.
	BranchesCollapsed int
	// LeavesCollapsed is the # of leaf collapses applied.
	LeavesCollapsed int
	// NodesSplit counts length and position splits performed during merges.
	NodesSplit int
	// WeightFolded is the total weight moved from collapsed source nodes
	// into their targets.
	WeightFolded int
}

// Merge adds the field values of the two Stats objects and creates new
// Stats. Useful when aggregating over per-chromosome collapser instances.
func (s Stats) Merge(o Stats) Stats {
	s.NodesIn += o.NodesIn
	s.NodesOut += o.NodesOut
	s.BranchesCollapsed += o.BranchesCollapsed
	s.LeavesCollapsed += o.LeavesCollapsed
	s.NodesSplit += o.NodesSplit
	s.WeightFolded += o.WeightFolded
	return s
}
