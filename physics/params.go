package physics

import (
	"fmt"
	"math"
)

// Params holds the constants of the physics model.
type Params struct {
	Gravity        float64 `ini:"gravity"`         // m/s^2, applied as mass * g downwards
	Drag           float64 `ini:"drag"`            // Velocity multiplier per step, < 1
	GroundY        float64 `ini:"ground_y"`        // Height of the ground plane
	GroundFriction float64 `ini:"ground_friction"` // Horizontal velocity multiplier on contact
	Restitution    float64 `ini:"restitution"`     // Bounce factor for downward velocity on contact

	StrengthScale       float64 `ini:"strength_scale"`        // Blueprint strength -> joint strength
	ContractionDivisor  float64 `ini:"contraction_divisor"`   // Target length moves strength/divisor per actuation
	RigidSpringConstant float64 `ini:"rigid_spring_constant"` // Lower bound on the spring constant of rigid joints
	RigidStiffnessRatio float64 `ini:"rigid_stiffness_ratio"` // Rigid joints are this many times stiffer than the strongest muscle
	MuscleForceScale    float64 `ini:"muscle_force_scale"`    // Multiplier on every joint force

	MaxSubstep float64 `ini:"max_substep"` // Longest integration step in seconds; stiff heavy bodies use shorter ones
}

// DefaultParams returns the canonical physics constants.
func DefaultParams() *Params {
	return &Params{
		Gravity:             9.81,
		Drag:                0.99,
		GroundY:             2,
		GroundFriction:      0.3,
		Restitution:         0.2,
		StrengthScale:       10,
		ContractionDivisor:  25,
		RigidSpringConstant: 2000,
		RigidStiffnessRatio: 10,
		MuscleForceScale:    1.25,
		MaxSubstep:          0.005,
	}
}

// Validate checks parameter ranges.
func (p *Params) Validate() error {
	if p.Gravity < 0 {
		return fmt.Errorf("config error: gravity cannot be negative")
	}
	if p.Drag <= 0 || p.Drag > 1 {
		return fmt.Errorf("config error: drag must be in (0, 1]")
	}
	if p.GroundFriction < 0 || p.GroundFriction > 1 {
		return fmt.Errorf("config error: ground_friction must be between 0 and 1")
	}
	if p.Restitution < 0 || p.Restitution > 1 {
		return fmt.Errorf("config error: restitution must be between 0 and 1")
	}
	if p.StrengthScale <= 0 {
		return fmt.Errorf("config error: strength_scale must be positive")
	}
	if p.ContractionDivisor <= 0 {
		return fmt.Errorf("config error: contraction_divisor must be positive")
	}
	if p.RigidSpringConstant <= 0 {
		return fmt.Errorf("config error: rigid_spring_constant must be positive")
	}
	if p.RigidStiffnessRatio < 10 {
		return fmt.Errorf("config error: rigid_stiffness_ratio must be at least 10")
	}
	if p.MaxSubstep <= 0 {
		return fmt.Errorf("config error: max_substep must be positive")
	}
	return nil
}

// MuscleSpringConstant returns the Hooke's law constant of a muscle with the
// given blueprint strength.
func (p *Params) MuscleSpringConstant(strength float64) float64 {
	return strength * p.StrengthScale * p.Gravity
}

// RigidStiffness returns the spring constant of rigid joints:
// RigidStiffnessRatio times the strongest muscle a blueprint may declare,
// and never below RigidSpringConstant.
func (p *Params) RigidStiffness() float64 {
	return math.Max(p.RigidSpringConstant, p.RigidStiffnessRatio*p.MuscleSpringConstant(MaxJointStrength))
}
