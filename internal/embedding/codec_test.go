package embedding

import (
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	vec := []float64{0.25, -1.5, 3, 0}
	payload, err := Encode(vec)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(payload, 4)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != len(vec) {
		t.Fatalf("decoded length %d; want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("value %d = %v; want %v", i, got[i], vec[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Encode(nil) error = %v; want ErrMalformed", err)
	}
}

func TestDecodeRejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantDim int
		wantErr error
	}{
		{"not json", "embedding:[1,2,3]", 0, ErrMalformed},
		{"python repr, not json", "[1.0, 2.0, 3.0][0]", 0, ErrMalformed},
		{"unknown version", `{"v":9,"dim":2,"data":[1,2]}`, 0, ErrMalformed},
		{"missing data", `{"v":1,"dim":2}`, 0, ErrMalformed},
		{"declared dim disagrees", `{"v":1,"dim":3,"data":[1,2]}`, 0, ErrDimension},
		{"caller dim disagrees", `{"v":1,"dim":2,"data":[1,2]}`, 128, ErrDimension},
		{"non-numeric values", `{"v":1,"dim":2,"data":["a","b"]}`, 0, ErrMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.raw, tc.wantDim); !errors.Is(err, tc.wantErr) {
				t.Errorf("Decode(%q) error = %v; want %v", tc.raw, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeSkipsDimCheckWhenUnset(t *testing.T) {
	got, err := Decode(`{"v":1,"dim":3,"data":[1,2,3]}`, 0)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("length = %d; want 3", len(got))
	}
}
