// Package facematch resolves a probe embedding against enrolled students.
package facematch

import (
	"log"
	"math"

	"schoolattend/internal/embedding"
)

// DefaultThreshold is the empirically chosen Euclidean distance cutoff for
// Facenet embeddings. A candidate qualifies only strictly below it.
const DefaultThreshold = 3.9

// Candidate is one enrolled embedding as read from storage. Payload stays in
// its stored form so a corrupt record can be skipped during the scan instead
// of failing the whole lookup upstream.
type Candidate struct {
	StudentID int64
	Payload   string
}

// Result describes the winning candidate of a scan.
type Result struct {
	StudentID int64
	Distance  float64
}

// Matcher performs linear-scan nearest-neighbor matching. It holds only
// immutable configuration and is safe for concurrent use.
type Matcher struct {
	threshold float64
	dim       int
}

// New creates a matcher. threshold <= 0 falls back to DefaultThreshold;
// dim <= 0 disables the dimension check against stored payloads.
func New(threshold float64, dim int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold, dim: dim}
}

// Match scans candidates for the closest embedding to probe under the
// threshold. Returns false when candidates is empty or none qualifies;
// that is a normal "not recognized" outcome, not an error. Undecodable or
// wrong-dimension candidates are skipped with a warning so one corrupted
// enrollment cannot deny service to everyone else. Ties keep the first
// candidate encountered at the minimum distance.
func (m *Matcher) Match(probe []float64, candidates []Candidate) (Result, bool) {
	best := Result{StudentID: -1, Distance: math.Inf(1)}
	for _, c := range candidates {
		vec, err := embedding.Decode(c.Payload, m.dim)
		if err != nil {
			log.Printf("facematch: skipping student %d: %v", c.StudentID, err)
			continue
		}
		if len(vec) != len(probe) {
			log.Printf("facematch: skipping student %d: vector length %d, probe %d", c.StudentID, len(vec), len(probe))
			continue
		}
		d := euclidean(probe, vec)
		if d < m.threshold && d < best.Distance {
			best = Result{StudentID: c.StudentID, Distance: d}
		}
	}
	if best.StudentID < 0 {
		return Result{}, false
	}
	return best, true
}

// euclidean computes the Euclidean distance between two equal-length vectors.
func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
