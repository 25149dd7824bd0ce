// Package model composes profiles into mass and light models and
// manages the flat parameter vector they are evaluated against. The
// vector is partitioned by a fixed schema into one named block per
// profile instance; the schema is immutable once fitting begins.
package model

import (
	"fmt"
	"math"
)

// uniformPriorPenalty is the fixed penalty added to the objective for
// every parameter outside its uniform prior bounds.
const uniformPriorPenalty = 1e10

// PriorType selects the prior attached to a single parameter.
type PriorType int

const (
	// PriorNone leaves the parameter unconstrained.
	PriorNone PriorType = iota
	// PriorUniform penalizes values outside [Lower, Upper] with a fixed
	// large penalty.
	PriorUniform
	// PriorGaussian adds the quadratic penalty ((x - Mean) / Width)^2.
	PriorGaussian
)

// Prior describes the prior of one parameter.
type Prior struct {
	Type         PriorType
	Lower, Upper float64
	Mean, Width  float64
}

// Block is one named slice of the parameter vector, belonging to a
// single profile instance.
type Block struct {
	// Name identifies the owning profile instance, e.g. "lens.0.EPL".
	Name string

	// Tag is the profile-type tag of the owner.
	Tag string

	// Offset and Size locate the block inside the flat vector.
	Offset, Size int

	// ParamNames lists the scalar parameter names. Pixelated blocks
	// carry the single logical name "pixels" with Size = nx*ny.
	ParamNames []string
}

// Schema is the fixed partition of a parameter vector into blocks, plus
// optional per-parameter priors. Reordering or resizing the model
// composition requires building a new Schema.
type Schema struct {
	blocks []Block
	priors []Prior
	total  int
}

// NewSchema assembles a schema from blocks in order, assigning offsets.
func NewSchema(blocks ...Block) *Schema {
	s := &Schema{blocks: make([]Block, len(blocks))}
	off := 0
	for i, b := range blocks {
		b.Offset = off
		off += b.Size
		s.blocks[i] = b
	}
	s.total = off
	s.priors = make([]Prior, off)
	return s
}

// Total returns the full parameter-vector length.
func (s *Schema) Total() int { return s.total }

// Blocks returns the block layout.
func (s *Schema) Blocks() []Block { return s.blocks }

// Validate checks a parameter vector against the schema length. A
// mismatch is a configuration error and is fatal at this layer.
func (s *Schema) Validate(params []float64) error {
	if len(params) != s.total {
		return fmt.Errorf("model: parameter vector length %d does not match schema length %d", len(params), s.total)
	}
	return nil
}

// Slice returns the view of params belonging to block i.
func (s *Schema) Slice(params []float64, i int) []float64 {
	b := s.blocks[i]
	return params[b.Offset : b.Offset+b.Size]
}

// ParamName returns a human-readable name for parameter index i.
func (s *Schema) ParamName(i int) string {
	for _, b := range s.blocks {
		if i < b.Offset || i >= b.Offset+b.Size {
			continue
		}
		j := i - b.Offset
		if len(b.ParamNames) == b.Size {
			return b.Name + "." + b.ParamNames[j]
		}
		return fmt.Sprintf("%s.pixels[%d]", b.Name, j)
	}
	return fmt.Sprintf("param[%d]", i)
}

// SetPrior attaches a prior to parameter index i.
func (s *Schema) SetPrior(i int, p Prior) error {
	if i < 0 || i >= s.total {
		return fmt.Errorf("model: prior index %d out of range [0, %d)", i, s.total)
	}
	s.priors[i] = p
	return nil
}

// SetBlockPrior attaches the same prior to every parameter of block i,
// which is how pixelated blocks are bounded.
func (s *Schema) SetBlockPrior(i int, p Prior) error {
	if i < 0 || i >= len(s.blocks) {
		return fmt.Errorf("model: block index %d out of range [0, %d)", i, len(s.blocks))
	}
	b := s.blocks[i]
	for j := b.Offset; j < b.Offset+b.Size; j++ {
		s.priors[j] = p
	}
	return nil
}

// PriorPenalty returns the total prior penalty to add to the objective:
// quadratic terms for Gaussian priors and a fixed large penalty per
// uniform-bound violation. Non-finite parameter values propagate.
func (s *Schema) PriorPenalty(params []float64) float64 {
	penalty := 0.0
	for i, p := range s.priors {
		x := params[i]
		switch p.Type {
		case PriorGaussian:
			d := (x - p.Mean) / p.Width
			penalty += d * d
		case PriorUniform:
			if x < p.Lower || x > p.Upper {
				penalty += uniformPriorPenalty
			}
			if math.IsNaN(x) {
				penalty += math.NaN()
			}
		}
	}
	return penalty
}
