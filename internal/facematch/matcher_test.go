package facematch

import (
	"math"
	"testing"

	"schoolattend/internal/embedding"
)

func encodeVec(t *testing.T, vec []float64) string {
	t.Helper()
	payload, err := embedding.Encode(vec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return payload
}

func TestEuclidean(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"unit apart", []float64{0, 0, 0}, []float64{1, 0, 0}, 1},
		{"pythagorean", []float64{0, 0}, []float64{3, 4}, 5},
		{"negative components", []float64{-1, -1}, []float64{1, 1}, 2 * math.Sqrt2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := euclidean(tc.a, tc.b)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("euclidean(%v, %v) = %v; want %v", tc.a, tc.b, got, tc.expected)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	probe := []float64{0, 0, 0, 0}
	// Distances from the probe: 1.2, 5.0 and 4.5.
	near := encodeVec(t, []float64{1.2, 0, 0, 0})
	far := encodeVec(t, []float64{5, 0, 0, 0})
	outside := encodeVec(t, []float64{4.5, 0, 0, 0})

	tests := []struct {
		name       string
		candidates []Candidate
		wantOK     bool
		wantID     int64
	}{
		{"empty candidates", nil, false, 0},
		{
			"best under threshold wins",
			[]Candidate{{StudentID: 1, Payload: near}, {StudentID: 2, Payload: far}},
			true, 1,
		},
		{
			"only candidate above threshold",
			[]Candidate{{StudentID: 1, Payload: outside}},
			false, 0,
		},
		{
			"order does not change the winner",
			[]Candidate{{StudentID: 2, Payload: far}, {StudentID: 1, Payload: near}},
			true, 1,
		},
	}

	m := New(3.9, 4)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, ok := m.Match(probe, tc.candidates)
			if ok != tc.wantOK {
				t.Fatalf("Match ok = %v; want %v", ok, tc.wantOK)
			}
			if ok && res.StudentID != tc.wantID {
				t.Errorf("Match student = %d; want %d", res.StudentID, tc.wantID)
			}
		})
	}
}

func TestMatchThresholdIsStrict(t *testing.T) {
	m := New(2.0, 2)
	exact := encodeVec(t, []float64{2, 0}) // distance exactly 2.0
	if _, ok := m.Match([]float64{0, 0}, []Candidate{{StudentID: 1, Payload: exact}}); ok {
		t.Error("candidate at exactly the threshold must not qualify")
	}
}

func TestMatchTieKeepsFirst(t *testing.T) {
	m := New(3.9, 2)
	left := encodeVec(t, []float64{1, 0})
	right := encodeVec(t, []float64{-1, 0}) // same distance from origin
	res, ok := m.Match([]float64{0, 0}, []Candidate{
		{StudentID: 7, Payload: left},
		{StudentID: 8, Payload: right},
	})
	if !ok || res.StudentID != 7 {
		t.Errorf("tie should keep the first candidate, got %+v ok=%v", res, ok)
	}
}

func TestMatchSkipsCorruptCandidates(t *testing.T) {
	m := New(3.9, 4)
	probe := []float64{0, 0, 0, 0}
	good := encodeVec(t, []float64{1, 0, 0, 0})

	candidates := []Candidate{
		{StudentID: 1, Payload: "not json at all"},
		{StudentID: 2, Payload: encodeVec(t, []float64{1, 0})}, // wrong dimension
		{StudentID: 3, Payload: good},
	}
	res, ok := m.Match(probe, candidates)
	if !ok || res.StudentID != 3 {
		t.Errorf("corrupt candidates should be skipped, got %+v ok=%v", res, ok)
	}
}

func TestNewDefaultThreshold(t *testing.T) {
	m := New(0, 0)
	if m.threshold != DefaultThreshold {
		t.Errorf("threshold = %v; want %v", m.threshold, DefaultThreshold)
	}
}
