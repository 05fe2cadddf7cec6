package membrane

import (
	"fmt"
	"math"

	"github.com/san-kum/cellsim/internal/dynamo"
	"github.com/san-kum/cellsim/internal/geom"
)

const (
	DefaultRadius           = 1.0
	DefaultStiffness        = 8.0
	DefaultDampRatio        = 1.0
	DefaultAngularStiffness = 1.0
	DefaultMaxBendAngle     = math.Pi / 12.0

	// VolumeCorrection over-weights the summed cap volumes. Empirical tuning
	// parameter, not a physical constant.
	VolumeCorrection = 1.3
)

// Params holds the physical envelope of a cell.
type Params struct {
	Radius             float64 `yaml:"radius"`
	Stiffness          float64 `yaml:"stiffness"`
	DampRatio          float64 `yaml:"damp_ratio"`
	AngularStiffness   float64 `yaml:"angular_stiffness"`
	MaxBendAngle       float64 `yaml:"max_bend_angle"`
	VolumeConservation bool    `yaml:"volume_conservation"`
}

func DefaultParams() Params {
	return Params{
		Radius:             DefaultRadius,
		Stiffness:          DefaultStiffness,
		DampRatio:          DefaultDampRatio,
		AngularStiffness:   DefaultAngularStiffness,
		MaxBendAngle:       DefaultMaxBendAngle,
		VolumeConservation: true,
	}
}

func (p Params) Validate() error {
	if p.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %f: %w", p.Radius, dynamo.ErrParameterBounds)
	}
	if p.Stiffness < 0 || p.DampRatio < 0 || p.AngularStiffness < 0 {
		return fmt.Errorf("stiffness and damping must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	if p.MaxBendAngle < 0 || p.MaxBendAngle > math.Pi {
		return fmt.Errorf("max bend angle must be in [0, pi], got %f: %w", p.MaxBendAngle, dynamo.ErrParameterBounds)
	}
	return nil
}

// LengthPolicy turns a contact distance and an adhesion coefficient into a
// connection rest length.
type LengthPolicy struct {
	// Threshold is the adhesion at or below which the plain length is used.
	Threshold float64 `yaml:"threshold"`
	// TightRatio scales the length for fully adhering pairs (adhesion 1).
	TightRatio float64 `yaml:"tight_ratio"`
	// LooseRatio scales the length for barely adhering pairs (adhesion 0).
	LooseRatio float64 `yaml:"loose_ratio"`
}

func DefaultLengthPolicy() LengthPolicy {
	return LengthPolicy{Threshold: 0.1, TightRatio: 0.5, LooseRatio: 0.9}
}

// Length returns the rest length for a contact of natural length l.
func (p LengthPolicy) Length(l, adhesion float64) float64 {
	if adhesion > p.Threshold {
		return geom.Mix(p.LooseRatio*l, p.TightRatio*l, adhesion)
	}
	return l
}

func (p LengthPolicy) Validate() error {
	if p.TightRatio <= 0 || p.LooseRatio <= 0 {
		return fmt.Errorf("length ratios must be positive: %w", dynamo.ErrParameterBounds)
	}
	if p.TightRatio > p.LooseRatio {
		return fmt.Errorf("tight ratio %f exceeds loose ratio %f: %w", p.TightRatio, p.LooseRatio, dynamo.ErrParameterBounds)
	}
	return nil
}
