package distance

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyVector is returned when an input vector has no components.
	ErrEmptyVector = errors.New("vectors cannot be empty")

	// ErrZeroMagnitude is returned when cosine similarity is requested for a
	// zero-magnitude vector, for which the angle is undefined.
	ErrZeroMagnitude = errors.New("cosine similarity undefined for zero magnitude vector")

	// ErrZeroNormalize is returned when normalization of a zero vector is requested.
	ErrZeroNormalize = errors.New("cannot normalize zero vector")
)

// MismatchError indicates two vectors of different lengths were compared.
type MismatchError struct {
	LenA int
	LenB int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d != %d", e.LenA, e.LenB)
}

// checkPair validates the shared preconditions for pairwise operations.
func checkPair(a, b []float32) error {
	if len(a) == 0 || len(b) == 0 {
		return ErrEmptyVector
	}
	if len(a) != len(b) {
		return &MismatchError{LenA: len(a), LenB: len(b)}
	}
	return nil
}

// Dot calculates the dot product of two vectors.
// Accumulation happens in float64 for deterministic, precise results.
func Dot(a, b []float32) (float32, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum), nil
}

// Euclidean calculates the L2 (Euclidean) distance between two vectors.
func Euclidean(a, b []float32) (float32, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum)), nil
}

// Magnitude calculates the L2 norm of a vector.
func Magnitude(v []float32) (float32, error) {
	if len(v) == 0 {
		return 0, ErrEmptyVector
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum)), nil
}

// Normalize returns a unit-length copy of v.
// The input is never modified.
func Normalize(v []float32) ([]float32, error) {
	mag, err := Magnitude(v)
	if err != nil {
		return nil, err
	}
	if mag == 0 {
		return nil, ErrZeroNormalize
	}
	out := make([]float32, len(v))
	inv := 1 / float64(mag)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, nil
}

// Cosine calculates the raw cosine similarity of two vectors, in [-1, 1].
// Both vectors must be non-empty, of equal length, and of nonzero magnitude.
func Cosine(a, b []float32) (float32, error) {
	if err := checkPair(a, b); err != nil {
		return 0, err
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroMagnitude
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against floating-point drift outside the mathematical range.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return float32(cos), nil
}

// Score calculates the normalized similarity score of two vectors, in [0, 1].
//
// This is the contract exposed by search APIs: raw cosine remapped via
// (cos+1)/2 and clamped. Identical directions score 1, orthogonal 0.5,
// opposite 0.
func Score(a, b []float32) (float32, error) {
	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	s := (cos + 1) / 2
	if s > 1 {
		s = 1
	} else if s < 0 {
		s = 0
	}
	return s, nil
}
