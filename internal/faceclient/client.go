// Package faceclient calls the face detection/embedding microservice.
//
// The service owns the heavy lifting: decode the image, detect the most
// prominent face, crop, resize to the model input and compute the Facenet
// embedding. This client only moves bytes and maps failures.
package faceclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoFace is returned when the service found no face in the image.
// It is an expected, user-facing outcome, not a transport failure.
var ErrNoFace = errors.New("no face detected in image")

// EmbedResult contains the embedding and detection metadata.
type EmbedResult struct {
	Embedding     []float64
	Score         float64
	FacesDetected int
}

// Client calls the face recognition microservice.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. timeout bounds every call so a hung embedding
// service cannot pin a worker indefinitely.
func New(baseURL string, timeout time.Duration, skip bool) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// EmbedURL requests an embedding for an image the service fetches by URL.
// Used by the enrollment pipeline.
func (c *Client) EmbedURL(ctx context.Context, imageURL string) (*EmbedResult, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("image url required")
	}
	return c.embed(ctx, map[string]string{"image_url": imageURL})
}

// EmbedImage requests an embedding for raw base64 image data.
// Used by the attendance flow, which receives the capture inline.
func (c *Client) EmbedImage(ctx context.Context, imageBase64 string) (*EmbedResult, error) {
	if imageBase64 == "" {
		return nil, fmt.Errorf("image data required")
	}
	return c.embed(ctx, map[string]string{"image_base64": imageBase64})
}

func (c *Client) embed(ctx context.Context, payload map[string]string) (*EmbedResult, error) {
	if c.Skip {
		return mockResult(), nil
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Embedding     []float64 `json:"embedding"`
		Score         float64   `json:"score"`
		FacesDetected int       `json:"faces_detected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.FacesDetected == 0 || len(out.Embedding) == 0 {
		return nil, ErrNoFace
	}

	return &EmbedResult{
		Embedding:     out.Embedding,
		Score:         out.Score,
		FacesDetected: out.FacesDetected,
	}, nil
}

// Health checks if the face service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("face service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("face service unhealthy: %s", resp.Status)
	}

	return nil
}

// mockResult returns a deterministic embedding for FACE_SKIP dev mode.
func mockResult() *EmbedResult {
	vec := make([]float64, 128)
	for i := range vec {
		vec[i] = float64(i%7) / 10
	}
	return &EmbedResult{Embedding: vec, Score: 0.95, FacesDetected: 1}
}
