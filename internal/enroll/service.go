// Package enroll computes and stores a student's facial embedding.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"schoolattend/internal/embedding"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/roster"
)

// ErrUpstream marks image-fetch or embedding-model failures. Enrollment
// errors never roll back the student row; the caller logs and reports.
var ErrUpstream = errors.New("enroll: face service failure")

// Embedder is the face-service surface the pipeline needs.
type Embedder interface {
	EmbedURL(ctx context.Context, imageURL string) (*faceclient.EmbedResult, error)
}

// Store persists enrolled embeddings.
type Store interface {
	ReplaceEmbedding(ctx context.Context, studentID int64, payload string) (roster.FaceEmbedding, error)
}

// Service runs the enrollment pipeline: fetch/detect/embed via the face
// service, then replace the student's stored embedding.
type Service struct {
	face    Embedder
	store   Store
	dim     int
	timeout time.Duration

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService creates a service. timeout bounds the face-service call so a
// hung fetch cannot pin a worker.
func NewService(face Embedder, store Store, dim int, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{
		face:    face,
		store:   store,
		dim:     dim,
		timeout: timeout,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Enroll computes the embedding for the student's image and stores it,
// replacing any prior embedding. Concurrent enrollments of the same student
// serialize on a per-student lock so the replace sequence stays atomic.
// A "no face" outcome surfaces as faceclient.ErrNoFace and writes nothing.
func (s *Service) Enroll(ctx context.Context, studentID int64, imageURL string) (roster.FaceEmbedding, error) {
	if imageURL == "" {
		return roster.FaceEmbedding{}, fmt.Errorf("student %d: image url required", studentID)
	}

	lock := s.studentLock(studentID)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.face.EmbedURL(ctx, imageURL)
	if err != nil {
		if errors.Is(err, faceclient.ErrNoFace) {
			return roster.FaceEmbedding{}, fmt.Errorf("student %d: %w", studentID, err)
		}
		return roster.FaceEmbedding{}, fmt.Errorf("%w: student %d: %v", ErrUpstream, studentID, err)
	}
	if s.dim > 0 && len(res.Embedding) != s.dim {
		return roster.FaceEmbedding{}, fmt.Errorf("%w: student %d: embedding dim %d, want %d",
			ErrUpstream, studentID, len(res.Embedding), s.dim)
	}

	payload, err := embedding.Encode(res.Embedding)
	if err != nil {
		return roster.FaceEmbedding{}, fmt.Errorf("%w: student %d: %v", ErrUpstream, studentID, err)
	}

	return s.store.ReplaceEmbedding(ctx, studentID, payload)
}

// NeedsEnrollment reports whether a student update should trigger
// re-enrollment: only when an image is present and its URL actually changed.
func NeedsEnrollment(oldURL, newURL *string) bool {
	if newURL == nil || *newURL == "" {
		return false
	}
	if oldURL == nil {
		return true
	}
	return *oldURL != *newURL
}

func (s *Service) studentLock(studentID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[studentID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[studentID] = lock
	}
	return lock
}
