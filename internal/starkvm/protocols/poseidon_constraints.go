package protocols

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
)

// PoseidonConstraints implements compact constraints for Poseidon in STARKs/SNARKs
// Based on the paper's Section D: "Compact Constraints for STARKs and SNARKs"
type PoseidonConstraints struct {
	field *core.Field
	// Poseidon parameters
	roundsFull    int
	roundsPartial int
	width         int
	sboxPower     int
	// Constraint generation parameters
	constraintDegree int
}

// PoseidonConstraint represents a single constraint for Poseidon
type PoseidonConstraint struct {
	// Variables involved in the constraint
	Variables []string
	// Constraint polynomial coefficients
	Coefficients []*core.FieldElement
	// Constraint degree
	Degree int
	// Constraint type
	Type string // "sbox", "mds", "ark"
}

// NewPoseidonConstraints creates a new Poseidon constraints generator
func NewPoseidonConstraints(field *core.Field, roundsFull, roundsPartial, width, sboxPower int) *PoseidonConstraints {
	return &PoseidonConstraints{
		field:            field,
		roundsFull:       roundsFull,
		roundsPartial:    roundsPartial,
		width:            width,
		sboxPower:        sboxPower,
		constraintDegree: sboxPower, // S-box degree
	}
}

// GenerateConstraints generates compact constraints for Poseidon
func (pc *PoseidonConstraints) GenerateConstraints() ([]*PoseidonConstraint, error) {
	var constraints []*PoseidonConstraint

	// Generate constraints for full rounds
	fullConstraints, err := pc.generateFullRoundConstraints()
	if err != nil {
		return nil, fmt.Errorf("failed to generate full round constraints: %w", err)
	}
	constraints = append(constraints, fullConstraints...)

	// Generate constraints for partial rounds
	partialConstraints, err := pc.generatePartialRoundConstraints()
	if err != nil {
		return nil, fmt.Errorf("failed to generate partial round constraints: %w", err)
	}
	constraints = append(constraints, partialConstraints...)

	// Generate bridging constraints
	bridgingConstraints, err := pc.generateBridgingConstraints()
	if err != nil {
		return nil, fmt.Errorf("failed to generate bridging constraints: %w", err)
	}
	constraints = append(constraints, bridgingConstraints...)

	return constraints, nil
}

// generateFullRoundConstraints generates constraints for full rounds
func (pc *PoseidonConstraints) generateFullRoundConstraints() ([]*PoseidonConstraint, error) {
	var constraints []*PoseidonConstraint

	// Generate constraints for each full round
	for round := 0; round < pc.roundsFull; round++ {
		// S-box constraints for all elements
		for i := 0; i < pc.width; i++ {
			sboxConstraint, err := pc.generateSboxConstraint(round, i)
			if err != nil {
				return nil, fmt.Errorf("failed to generate S-box constraint for round %d, element %d: %w", round, i, err)
			}
			constraints = append(constraints, sboxConstraint)
		}

		// MDS matrix constraints
		mdsConstraints, err := pc.generateMDSConstraints(round)
		if err != nil {
			return nil, fmt.Errorf("failed to generate MDS constraints for round %d: %w", round, err)
		}
		constraints = append(constraints, mdsConstraints...)
	}

	return constraints, nil
}

// generatePartialRoundConstraints generates constraints for partial rounds
func (pc *PoseidonConstraints) generatePartialRoundConstraints() ([]*PoseidonConstraint, error) {
	var constraints []*PoseidonConstraint

	// Generate constraints for each partial round
	for round := 0; round < pc.roundsPartial; round++ {
		// S-box constraint only for first element
		sboxConstraint, err := pc.generateSboxConstraint(round, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to generate S-box constraint for partial round %d: %w", round, err)
		}
		constraints = append(constraints, sboxConstraint)

		// MDS matrix constraints
		mdsConstraints, err := pc.generateMDSConstraints(round)
		if err != nil {
			return nil, fmt.Errorf("failed to generate MDS constraints for partial round %d: %w", round, err)
		}
		constraints = append(constraints, mdsConstraints...)
	}

	return constraints, nil
}

// generateBridgingConstraints generates constraints that bridge different round types
func (pc *PoseidonConstraints) generateBridgingConstraints() ([]*PoseidonConstraint, error) {
	var constraints []*PoseidonConstraint

	// Bridge between full rounds and partial rounds
	// This ensures consistency between different round types
	bridgeConstraint := &PoseidonConstraint{
		Variables:    []string{"A_RF/2", "A_RF/2+1", "B_RF/2", "B_RF/2+1"},
		Coefficients: []*core.FieldElement{pc.field.One(), pc.field.NewElementFromInt64(-1)},
		Degree:       1,
		Type:         "bridge",
	}
	constraints = append(constraints, bridgeConstraint)

	return constraints, nil
}

// generateSboxConstraint generates a constraint for S-box transformation
func (pc *PoseidonConstraints) generateSboxConstraint(round, element int) (*PoseidonConstraint, error) {
	// S-box constraint: S(A^r_i) = B^r_i
	// This is a degree-d constraint where d is the S-box power

	variables := []string{
		fmt.Sprintf("A_%d_%d", round, element),
		fmt.Sprintf("B_%d_%d", round, element),
	}

	// Create constraint polynomial: B^r_i - (A^r_i)^α = 0
	coefficients := make([]*core.FieldElement, pc.sboxPower+1)

	// Coefficient for B^r_i (degree 0)
	coefficients[0] = pc.field.NewElementFromInt64(1)

	// Coefficient for (A^r_i)^α (degree α)
	coefficients[pc.sboxPower] = pc.field.NewElementFromInt64(-1)

	// Zero coefficients for intermediate degrees
	for i := 1; i < pc.sboxPower; i++ {
		coefficients[i] = pc.field.Zero()
	}

	return &PoseidonConstraint{
		Variables:    variables,
		Coefficients: coefficients,
		Degree:       pc.sboxPower,
		Type:         "sbox",
	}, nil
}

// generateMDSConstraints generates constraints for MDS matrix multiplication
func (pc *PoseidonConstraints) generateMDSConstraints(round int) ([]*PoseidonConstraint, error) {
	var constraints []*PoseidonConstraint

	// MDS matrix constraints: M × B^r = A^{r+1}
	// These are linear constraints

	for i := 0; i < pc.width; i++ {
		variables := make([]string, 2*pc.width)
		coefficients := make([]*core.FieldElement, 2*pc.width)

		// Variables for B^r (inputs to MDS)
		for j := 0; j < pc.width; j++ {
			variables[j] = fmt.Sprintf("B_%d_%d", round, j)
			// MDS matrix coefficients would be set here
			coefficients[j] = pc.field.NewElementFromInt64(1) // Simplified
		}

		// Variables for A^{r+1} (outputs from MDS)
		for j := 0; j < pc.width; j++ {
			variables[pc.width+j] = fmt.Sprintf("A_%d_%d", round+1, j)
			if j == i {
				coefficients[pc.width+j] = pc.field.NewElementFromInt64(-1)
			} else {
				coefficients[pc.width+j] = pc.field.Zero()
			}
		}

		constraint := &PoseidonConstraint{
			Variables:    variables,
			Coefficients: coefficients,
			Degree:       1, // Linear constraint
			Type:         "mds",
		}
		constraints = append(constraints, constraint)
	}

	return constraints, nil
}

// GenerateCompactConstraints generates the most compact constraint representation
// Based on the paper's approach for minimizing constraint count
func (pc *PoseidonConstraints) GenerateCompactConstraints() ([]*PoseidonConstraint, error) {
	// The paper shows how to generate t*RF + RP - t constraints of degree d
	// where d is the S-box degree

	totalConstraints := pc.width*pc.roundsFull + pc.roundsPartial - pc.width
	constraints := make([]*PoseidonConstraint, totalConstraints)

	constraintIndex := 0

	// Generate constraints for first group of full rounds
	for round := 0; round < pc.roundsFull/2-1; round++ {
		for i := 0; i < pc.width; i++ {
			constraint, err := pc.generateCompactConstraint(round, i)
			if err != nil {
				return nil, fmt.Errorf("failed to generate compact constraint: %w", err)
			}
			constraints[constraintIndex] = constraint
			constraintIndex++
		}
	}

	// Generate bridging constraints
	for i := 0; i < pc.width; i++ {
		constraint, err := pc.generateBridgingConstraint(i)
		if err != nil {
			return nil, fmt.Errorf("failed to generate bridging constraint: %w", err)
		}
		constraints[constraintIndex] = constraint
		constraintIndex++
	}

	// Generate constraints for partial rounds
	for round := 0; round < pc.roundsPartial-pc.width; round++ {
		constraint, err := pc.generatePartialConstraint(round)
		if err != nil {
			return nil, fmt.Errorf("failed to generate partial constraint: %w", err)
		}
		constraints[constraintIndex] = constraint
		constraintIndex++
	}

	// Generate constraints for last group of full rounds
	for round := 0; round < pc.roundsFull/2-1; round++ {
		for i := 0; i < pc.width; i++ {
			constraint, err := pc.generateCompactConstraint(pc.roundsFull/2+round, i)
			if err != nil {
				return nil, fmt.Errorf("failed to generate compact constraint: %w", err)
			}
			constraints[constraintIndex] = constraint
			constraintIndex++
		}
	}

	return constraints, nil
}

// generateCompactConstraint generates a compact constraint
func (pc *PoseidonConstraints) generateCompactConstraint(round, element int) (*PoseidonConstraint, error) {
	// This implements the compact constraint generation from the paper
	// The exact implementation depends on the specific constraint structure

	variables := []string{
		fmt.Sprintf("A_%d_%d", round, element),
		fmt.Sprintf("A_%d_%d", round+1, element),
	}

	coefficients := []*core.FieldElement{
		pc.field.NewElementFromInt64(1),
		pc.field.NewElementFromInt64(-1),
	}

	return &PoseidonConstraint{
		Variables:    variables,
		Coefficients: coefficients,
		Degree:       pc.sboxPower,
		Type:         "compact",
	}, nil
}

// generateBridgingConstraint generates a bridging constraint
func (pc *PoseidonConstraints) generateBridgingConstraint(element int) (*PoseidonConstraint, error) {
	// Bridge between full rounds and partial rounds
	variables := []string{
		fmt.Sprintf("A_%d_%d", pc.roundsFull/2, element),
		fmt.Sprintf("A_%d_%d", pc.roundsFull/2+1, element),
	}

	coefficients := []*core.FieldElement{
		pc.field.NewElementFromInt64(1),
		pc.field.NewElementFromInt64(-1),
	}

	return &PoseidonConstraint{
		Variables:    variables,
		Coefficients: coefficients,
		Degree:       pc.sboxPower,
		Type:         "bridge",
	}, nil
}

// generatePartialConstraint generates a constraint for partial rounds
func (pc *PoseidonConstraints) generatePartialConstraint(round int) (*PoseidonConstraint, error) {
	// Partial round constraint (only first element has S-box)
	variables := []string{
		fmt.Sprintf("A_%d_0", round),
		fmt.Sprintf("A_%d_0", round+1),
	}

	coefficients := []*core.FieldElement{
		pc.field.NewElementFromInt64(1),
		pc.field.NewElementFromInt64(-1),
	}

	return &PoseidonConstraint{
		Variables:    variables,
		Coefficients: coefficients,
		Degree:       pc.sboxPower,
		Type:         "partial",
	}, nil
}

// CreatePoseidonAIR creates an AIR for Poseidon hash verification
func CreatePoseidonAIR(field *core.Field, params *core.PoseidonParameters) (*AIR, error) {
	// Create AIR for Poseidon hash verification
	width := params.Width
	traceLength := params.RoundsFull + params.RoundsPartial + 1 // +1 for initial state

	// Create AIR
	air := NewAIR(field, traceLength, width, field.NewElementFromInt64(1))

	// Add Poseidon constraints
	poseidonConstraints := NewPoseidonConstraints(field, params.RoundsFull, params.RoundsPartial, params.Width, params.SboxPower)

	// Generate compact constraints
	constraints, err := poseidonConstraints.GenerateCompactConstraints()
	if err != nil {
		return nil, fmt.Errorf("failed to generate Poseidon constraints: %w", err)
	}

	// Add constraints to AIR
	for _, constraint := range constraints {
		if constraint == nil {
			continue // Skip nil constraints
		}
		// Convert Poseidon constraint to AIR constraint
		airConstraint := &AIRConstraint{
			Degree: constraint.Degree,
			// Additional fields would be set based on constraint structure
		}
		// Add constraint to AIR
		// Note: This would require extending the AIR struct to include constraints
		// For now, we validate the constraint structure
		if airConstraint.Degree < 0 {
			return nil, fmt.Errorf("invalid constraint degree: %d", airConstraint.Degree)
		}
		if airConstraint.Polynomial == nil {
			return nil, fmt.Errorf("constraint polynomial is nil")
		}
	}

	return air, nil
}
