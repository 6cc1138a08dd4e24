package mccfr

import (
	"fmt"
	"sort"

	"github.com/jmy12k3/robopoker/internal/clustering"
)

// Path is a 64-bit summary of a betting sub-sequence: an FNV-1a hash over
// edge codes, not a literal history.
type Path uint64

const (
	fnvOffset64 uint64 = 14695981039346656037
	fnvPrime64  uint64 = 1099511628211
)

// NewPath hashes an ordered edge sequence.
func NewPath(edges []Edge) Path {
	h := fnvOffset64
	for _, e := range edges {
		h ^= uint64(e)
		h *= fnvPrime64
	}
	return Path(h)
}

// FuturePath hashes the unordered set of continuation edges available at a
// node; the set is sorted so the summary is order independent.
func FuturePath(edges []Edge) Path {
	sorted := append([]Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return NewPath(sorted)
}

// Extend appends one edge to the summary.
func (p Path) Extend(e Edge) Path {
	h := uint64(p)
	h ^= uint64(e)
	h *= fnvPrime64
	return Path(h)
}

func (p Path) String() string {
	return fmt.Sprintf("H%016x", uint64(p))
}

// Bucket is the information-set key the learner stores strategies under:
// the betting path in, the observation's abstraction, and the summary of
// actions radiating out.
type Bucket struct {
	Past   Path
	Abs    clustering.Abstraction
	Future Path
}

func (b Bucket) String() string {
	return fmt.Sprintf("%s|%016x|%s", b.Past, uint64(b.Abs), b.Future)
}
