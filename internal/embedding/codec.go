// Package embedding defines the storage format for facial feature vectors.
//
// Stored embeddings are a versioned JSON document so they can be parsed
// safely and migrated later:
//
//	{"v":1,"dim":128,"data":[0.12,-0.3,...]}
package embedding

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Version is the current payload format version.
const Version = 1

var (
	// ErrMalformed means the payload is not a valid embedding document.
	ErrMalformed = errors.New("embedding: malformed payload")
	// ErrDimension means the vector length disagrees with the expected dimension.
	ErrDimension = errors.New("embedding: dimension mismatch")
)

type payload struct {
	V    int       `json:"v"`
	Dim  int       `json:"dim"`
	Data []float64 `json:"data"`
}

// Encode serializes a vector into the tagged JSON format.
func Encode(vec []float64) (string, error) {
	if len(vec) == 0 {
		return "", fmt.Errorf("%w: empty vector", ErrMalformed)
	}
	raw, err := json.Marshal(payload{V: Version, Dim: len(vec), Data: vec})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a stored payload and validates it against wantDim.
// wantDim <= 0 skips the dimension check.
func Decode(raw string, wantDim int) ([]float64, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.V != Version {
		return nil, fmt.Errorf("%w: unknown version %d", ErrMalformed, p.V)
	}
	if len(p.Data) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrMalformed)
	}
	if p.Dim != 0 && p.Dim != len(p.Data) {
		return nil, fmt.Errorf("%w: declared dim %d, got %d values", ErrDimension, p.Dim, len(p.Data))
	}
	if wantDim > 0 && len(p.Data) != wantDim {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDimension, wantDim, len(p.Data))
	}
	return p.Data, nil
}
