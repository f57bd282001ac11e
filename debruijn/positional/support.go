package positional

import (
	farm "github.com/dgryski/go-farm"
)

// EvidenceSet records which read evidence supports a path node. IDs are
// stored as 64-bit farm hashes to keep per-node memory flat regardless of
// read name length.
type EvidenceSet struct {
	ids map[uint64]struct{}
}

// NewEvidenceSet creates a set holding the given evidence IDs.
func NewEvidenceSet(ids ...string) *EvidenceSet {
	s := &EvidenceSet{ids: make(map[uint64]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add records one evidence ID.
func (s *EvidenceSet) Add(id string) {
	s.ids[farm.Hash64([]byte(id))] = struct{}{}
}

// Contains reports whether the ID has been recorded. A nil set contains
// nothing.
func (s *EvidenceSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[farm.Hash64([]byte(id))]
	return ok
}

// Len returns the number of distinct evidence IDs recorded.
func (s *EvidenceSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// clone returns an independent copy. Splitting a node leaves both halves
// supported by the same reads, so each half gets its own copy.
func (s *EvidenceSet) clone() *EvidenceSet {
	if s == nil {
		return nil
	}
	c := &EvidenceSet{ids: make(map[uint64]struct{}, len(s.ids))}
	for h := range s.ids {
		c.ids[h] = struct{}{}
	}
	return c
}

// union folds o into s and returns the receiver, allocating one if needed.
func (s *EvidenceSet) union(o *EvidenceSet) *EvidenceSet {
	if o == nil || len(o.ids) == 0 {
		return s
	}
	if s == nil {
		return o.clone()
	}
	for h := range o.ids {
		s.ids[h] = struct{}{}
	}
	return s
}
