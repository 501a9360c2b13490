// Package metrics exposes prometheus instruments for the face pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecognitionTotal counts face-attendance requests by outcome
	// (matched, no_match, no_face, upstream_error).
	RecognitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolattend_recognition_total",
		Help: "Face attendance requests by outcome.",
	}, []string{"outcome"})

	// MatchDuration observes the duration of the candidate scan.
	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "schoolattend_match_duration_seconds",
		Help:    "Duration of embedding match scans.",
		Buckets: prometheus.DefBuckets,
	})

	// MatchCandidates observes candidate set sizes per scan.
	MatchCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "schoolattend_match_candidates",
		Help:    "Number of enrolled candidates per match scan.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	// EnrollTotal counts enrollment jobs by outcome (ok, no_face, error).
	EnrollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolattend_enroll_total",
		Help: "Enrollment pipeline runs by outcome.",
	}, []string{"outcome"})
)
