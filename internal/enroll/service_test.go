package enroll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"schoolattend/internal/embedding"
	"schoolattend/internal/faceclient"
	"schoolattend/internal/roster"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	results map[string][]float64 // imageURL -> vector
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedURL(_ context.Context, imageURL string) (*faceclient.EmbedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vec, ok := f.results[imageURL]
	if !ok {
		return nil, faceclient.ErrNoFace
	}
	return &faceclient.EmbedResult{Embedding: vec, Score: 0.9, FacesDetected: 1}, nil
}

type fakeEmbeddingStore struct {
	mu       sync.Mutex
	payloads map[int64]string // one current payload per student
	writes   int
	inflight int
	raced    bool
}

func newFakeEmbeddingStore() *fakeEmbeddingStore {
	return &fakeEmbeddingStore{payloads: make(map[int64]string)}
}

func (f *fakeEmbeddingStore) ReplaceEmbedding(_ context.Context, studentID int64, payload string) (roster.FaceEmbedding, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > 1 {
		f.raced = true
	}
	f.mu.Unlock()

	// Widen the window so an unserialized concurrent replace would be seen.
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	f.writes++
	f.payloads[studentID] = payload
	return roster.FaceEmbedding{ID: int64(f.writes), StudentID: studentID, Payload: payload}, nil
}

func (f *fakeEmbeddingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func TestEnrollReplacesPriorEmbedding(t *testing.T) {
	face := &fakeEmbedder{results: map[string][]float64{
		"https://cdn/img1.jpg": {1, 2, 3},
		"https://cdn/img2.jpg": {4, 5, 6},
	}}
	store := newFakeEmbeddingStore()
	svc := NewService(face, store, 3, time.Second)
	ctx := context.Background()

	if _, err := svc.Enroll(ctx, 7, "https://cdn/img1.jpg"); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}
	if _, err := svc.Enroll(ctx, 7, "https://cdn/img2.jpg"); err != nil {
		t.Fatalf("second Enroll failed: %v", err)
	}

	if store.count() != 1 {
		t.Errorf("student has %d embeddings; want exactly 1", store.count())
	}
	vec, err := embedding.Decode(store.payloads[7], 3)
	if err != nil {
		t.Fatalf("stored payload undecodable: %v", err)
	}
	if vec[0] != 4 || vec[1] != 5 || vec[2] != 6 {
		t.Errorf("stored vector = %v; want the second one", vec)
	}
}

func TestEnrollNoFaceWritesNothing(t *testing.T) {
	face := &fakeEmbedder{results: map[string][]float64{}}
	store := newFakeEmbeddingStore()
	svc := NewService(face, store, 3, time.Second)

	_, err := svc.Enroll(context.Background(), 7, "https://cdn/blank-wall.jpg")
	if !errors.Is(err, faceclient.ErrNoFace) {
		t.Fatalf("error = %v; want ErrNoFace", err)
	}
	if store.writes != 0 {
		t.Errorf("writes = %d; want 0", store.writes)
	}
}

func TestEnrollUpstreamFailure(t *testing.T) {
	face := &fakeEmbedder{err: errors.New("connection refused")}
	store := newFakeEmbeddingStore()
	svc := NewService(face, store, 3, time.Second)

	_, err := svc.Enroll(context.Background(), 7, "https://cdn/img1.jpg")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("error = %v; want ErrUpstream", err)
	}
	if store.writes != 0 {
		t.Errorf("writes = %d; want 0", store.writes)
	}
}

func TestEnrollRejectsWrongDimension(t *testing.T) {
	face := &fakeEmbedder{results: map[string][]float64{"u": {1, 2}}}
	store := newFakeEmbeddingStore()
	svc := NewService(face, store, 128, time.Second)

	if _, err := svc.Enroll(context.Background(), 7, "u"); !errors.Is(err, ErrUpstream) {
		t.Errorf("error = %v; want ErrUpstream", err)
	}
	if store.writes != 0 {
		t.Errorf("writes = %d; want 0", store.writes)
	}
}

func TestEnrollEmptyURL(t *testing.T) {
	svc := NewService(&fakeEmbedder{}, newFakeEmbeddingStore(), 3, time.Second)
	if _, err := svc.Enroll(context.Background(), 7, ""); err == nil {
		t.Error("expected an error for empty image url")
	}
}

func TestEnrollSameStudentSerializes(t *testing.T) {
	face := &fakeEmbedder{results: map[string][]float64{"u": {1, 2, 3}}}
	store := newFakeEmbeddingStore()
	svc := NewService(face, store, 3, time.Second)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Enroll(ctx, 7, "u"); err != nil {
				t.Errorf("concurrent Enroll failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.raced {
		t.Error("replace sequences for the same student overlapped")
	}
	if store.count() != 1 {
		t.Errorf("student has %d embeddings; want 1", store.count())
	}
}

func TestNeedsEnrollment(t *testing.T) {
	url1 := "https://cdn/a.jpg"
	url2 := "https://cdn/b.jpg"
	empty := ""

	tests := []struct {
		name     string
		oldURL   *string
		newURL   *string
		expected bool
	}{
		{"no image", nil, nil, false},
		{"empty image", nil, &empty, false},
		{"new image on create", nil, &url1, true},
		{"image unchanged", &url1, &url1, false},
		{"image changed", &url1, &url2, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NeedsEnrollment(tc.oldURL, tc.newURL); got != tc.expected {
				t.Errorf("NeedsEnrollment = %v; want %v", got, tc.expected)
			}
		})
	}
}
