package edm

import (
	"math"

	"github.com/flywave/go3d/vec3"
)

const DefaultTangentEpsilon float32 = 1e-12

// TangentComputer estimates a per-vertex tangent from a single UV sample and
// the vertex position. The sample is read as a parametric delta from the UV
// origin and the position as the matching spatial delta; the result is the U
// column of the minimum-norm Jacobian mapping one onto the other:
//
//	T = P * u / (u*u + v*v)
//
// No neighbouring vertices are consulted, so this is a heuristic rather than
// the face-averaged tangent space most engines build. The result is not
// normalized.
type TangentComputer struct {
	// Fallback is returned when the UV delta is degenerate or the result is
	// not finite.
	Fallback vec3.T
	// Epsilon is the largest squared UV length treated as degenerate.
	Epsilon float32
}

func NewTangentComputer() *TangentComputer {
	return &TangentComputer{Epsilon: DefaultTangentEpsilon}
}

// ComputeTangent ignores the third UV component.
func (tc *TangentComputer) ComputeTangent(uv, pos vec3.T) vec3.T {
	t, _ := tc.compute(uv, pos)
	return t
}

func (tc *TangentComputer) compute(uv, pos vec3.T) (vec3.T, bool) {
	u, v := uv[0], uv[1]
	d := u*u + v*v
	if !(d > tc.Epsilon) || isInf32(d) {
		return tc.Fallback, false
	}
	s := u / d
	t := vec3.T{pos[0] * s, pos[1] * s, pos[2] * s}
	for _, c := range t {
		if math.IsNaN(float64(c)) || isInf32(c) {
			return tc.Fallback, false
		}
	}
	return t, true
}

// ComputeTangents fills one tangent per vertex and returns how many of them
// fell back.
func (tc *TangentComputer) ComputeTangents(uvs, positions []vec3.T) ([]vec3.T, int, error) {
	if len(uvs) != len(positions) {
		return nil, 0, ErrSizeMismatch
	}
	tangents := make([]vec3.T, len(positions))
	degenerate := 0
	for i := range positions {
		var ok bool
		tangents[i], ok = tc.compute(uvs[i], positions[i])
		if !ok {
			degenerate++
		}
	}
	return tangents, degenerate, nil
}

func isInf32(f float32) bool {
	return math.IsInf(float64(f), 0)
}
