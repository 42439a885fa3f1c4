// SPDX-License-Identifier: EPL-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidRange = errors.New("distance model requires min < max")
	ErrUnknownKind  = errors.New("unknown distance model kind")
)

// Vec3 is a position in world units.
type Vec3 [3]float32

// Distance returns the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float32 {
	dx := float64(v[0] - o[0])
	dy := float64(v[1] - o[1])
	dz := float64(v[2] - o[2])
	return float32(math.Sqrt(dx*dx + dy*dy + dz*dz))
}

// Kind selects the attenuation curve between Min and Max.
type Kind uint8

const (
	Linear Kind = iota
	Pow2
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Pow2:
		return "pow2"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind accepts "linear" and "pow2", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "linear":
		return Linear, nil
	case "pow2":
		return Pow2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Model is full volume up to Min, silent past Max, and follows Kind in
// between.
type Model struct {
	Kind Kind
	Min  float32
	Max  float32
}

// New validates the range and builds a model.
func New(kind Kind, minDist, maxDist float32) (Model, error) {
	m := Model{Kind: kind, Min: minDist, Max: maxDist}
	if err := m.Validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func NewLinear(minDist, maxDist float32) (Model, error) { return New(Linear, minDist, maxDist) }
func NewPow2(minDist, maxDist float32) (Model, error)   { return New(Pow2, minDist, maxDist) }

func (m Model) Validate() error {
	if m.Kind != Linear && m.Kind != Pow2 {
		return fmt.Errorf("%w: %s", ErrUnknownKind, m.Kind)
	}
	if !(m.Min < m.Max) {
		return fmt.Errorf("%w: got %v, %v", ErrInvalidRange, m.Min, m.Max)
	}
	return nil
}

func (m Model) String() string {
	return fmt.Sprintf("%s(%v, %v)", m.Kind, m.Min, m.Max)
}

// Attenuation returns the gain in [0, 1] for a source heard from listener.
func (m Model) Attenuation(source, listener Vec3) float32 {
	return m.AtDistance(source.Distance(listener))
}

// AtDistance is Attenuation for a precomputed distance.
func (m Model) AtDistance(d float32) float32 {
	switch {
	case d <= m.Min:
		return 1
	case d > m.Max:
		return 0
	}

	g := 1 - (d-m.Min)/(m.Max-m.Min)
	if m.Kind == Pow2 {
		g *= g
	}
	return g
}

// Sum adds the attenuation of every source. The total is not clamped, so
// several nearby sources add up past 1.
func (m Model) Sum(sources []Vec3, listener Vec3) float32 {
	var total float32
	for _, s := range sources {
		total += m.Attenuation(s, listener)
	}
	return total
}
