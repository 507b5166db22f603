package airstarkvm

import (
	"fmt"
	"math/big"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/protocols"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/utils"
)

// STARK represents a zkSTARKs proof system
type STARK struct {
	config *utils.Config
	field  *core.Field
}

// NewSTARK creates a new zkSTARKs instance with the given configuration
func NewSTARK(config *utils.Config) (*STARK, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	field, err := core.NewField(config.FieldModulus)
	if err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	return &STARK{
		config: config,
		field:  field,
	}, nil
}

// NewR1CSSTARK creates a new STARK instance for R1CS computations
func NewR1CSSTARK(config *utils.Config, r1cs *R1CS) (*STARK, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	field, err := core.NewField(config.FieldModulus)
	if err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	// The r1cs argument is not stored in the instance
	stark := &STARK{
		config: config,
		field:  field,
	}

	return stark, nil
}

// Field returns the field used by the STARK instance
func (s *STARK) Field() *core.Field {
	return s.field
}

// Proof represents a zkSTARKs proof
type Proof struct {
	// Public inputs
	PublicInputs []*core.FieldElement

	// Commitment to the trace polynomial
	TraceCommitment []byte

	// FRI proof
	FRIDomains     [][]*core.FieldElement
	FRIPolynomials []*core.Polynomial
	FRILayers      [][]*core.FieldElement
	FRIRoots       [][]byte

	// Query proofs
	QueryProofs []QueryProof

	// Final proof
	FinalProof string
}

// QueryProof represents a proof for a single query
type QueryProof struct {
	LayerIndex int
	QueryIndex int
	QueryPoint *core.FieldElement
	QueryValue *core.FieldElement
	Proof      []*core.ProofNode
}

// MerkleProof represents a Merkle tree proof
type MerkleProof struct {
	Leaf  []byte
	Proof []ProofNode
}

// Prover represents a prover for a specific computation
type Prover struct {
	stark *STARK
	trace []*core.FieldElement
}

// NewProver creates a new prover for the given computation trace
func (s *STARK) NewProver(trace []*core.FieldElement) (*Prover, error) {
	if len(trace) != s.config.TraceLength {
		return nil, fmt.Errorf("trace length %d does not match expected length %d",
			len(trace), s.config.TraceLength)
	}

	// Validate all trace elements are from the correct field
	for i, elem := range trace {
		if !elem.Field().Equals(s.field) {
			return nil, fmt.Errorf("trace element %d is from wrong field", i)
		}
	}

	return &Prover{
		stark: s,
		trace: trace,
	}, nil
}

// GenerateProof generates a zkSTARKs proof for the computation
func (p *Prover) GenerateProof() (*Proof, error) {
	// Generate domain parameters
	domainParams, err := p.generateDomainParameters()
	if err != nil {
		return nil, fmt.Errorf("failed to generate domain parameters: %w", err)
	}

	// Generate constraints
	constraints, err := p.generateConstraints(domainParams.Polynomial, domainParams.GeneratorG)
	if err != nil {
		return nil, fmt.Errorf("failed to generate constraints: %w", err)
	}

	// Generate composition polynomial
	compositionPoly, err := p.generateCompositionPolynomial(constraints, domainParams.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate composition polynomial: %w", err)
	}

	// Generate FRI commitment
	friCommitment, err := p.generateFRICommitment(compositionPoly, domainParams)
	if err != nil {
		return nil, fmt.Errorf("failed to generate FRI commitment: %w", err)
	}

	// Generate query proofs
	queryProofs, err := p.generateQueryProofs(domainParams, friCommitment)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query proofs: %w", err)
	}

	return &Proof{
		PublicInputs:    p.extractPublicInputs(),
		TraceCommitment: domainParams.TraceCommitment,
		FRIDomains:      friCommitment.Domains,
		FRIPolynomials:  friCommitment.Polynomials,
		FRILayers:       friCommitment.Layers,
		FRIRoots:        friCommitment.Roots,
		QueryProofs:     queryProofs,
		FinalProof:      domainParams.Channel.String(),
	}, nil
}

// DomainParameters represents the domain parameters for proof generation
type DomainParameters struct {
	Trace            []*core.FieldElement
	GeneratorG       *core.FieldElement
	SubgroupG        []*core.FieldElement
	GeneratorH       *core.FieldElement
	SubgroupH        []*core.FieldElement
	EvaluationDomain []*core.FieldElement
	Polynomial       *core.Polynomial
	Evaluations      []*core.FieldElement
	TraceCommitment  []byte
	Channel          *Channel
}

// FRICommitment represents the FRI commitment data
type FRICommitment struct {
	Domains     [][]*core.FieldElement
	Polynomials []*core.Polynomial
	Layers      [][]*core.FieldElement
	Roots       [][]byte
}

// generateDomainParameters generates the domain parameters for the proof
func (p *Prover) generateDomainParameters() (*DomainParameters, error) {
	// Generate subgroup G (size = trace length + 1)
	generatorG := p.stark.field.NewElementFromInt64(5)
	generatorG = generatorG.Exp(big.NewInt(3145728)) // g^(3*2^30 / 1024)

	subgroupG := make([]*core.FieldElement, p.stark.config.TraceLength+1)
	for i := 0; i < len(subgroupG); i++ {
		subgroupG[i] = generatorG.Exp(big.NewInt(int64(i)))
	}

	// Generate evaluation domain H (size = evaluation domain size)
	generatorH := p.stark.field.NewElementFromInt64(5)
	generatorH = generatorH.Exp(big.NewInt(393216)) // g^(3*2^30 / 8192)

	subgroupH := make([]*core.FieldElement, p.stark.config.EvaluationDomain)
	for i := 0; i < len(subgroupH); i++ {
		subgroupH[i] = generatorH.Exp(big.NewInt(int64(i)))
	}

	// Generate evaluation domain (coset)
	evaluationDomain := make([]*core.FieldElement, p.stark.config.EvaluationDomain)
	cosetGenerator := p.stark.field.NewElementFromInt64(5)
	for i := 0; i < len(evaluationDomain); i++ {
		evaluationDomain[i] = cosetGenerator.Mul(subgroupH[i])
	}

	// Interpolate polynomial from trace
	points := make([]Point, len(p.trace))
	for i, elem := range p.trace {
		points[i] = *NewPoint(subgroupG[i], elem)
	}

	polynomial, err := LagrangeInterpolation(points, p.stark.field)
	if err != nil {
		return nil, fmt.Errorf("failed to interpolate polynomial: %w", err)
	}

	// Evaluate polynomial on evaluation domain
	evaluations := make([]*core.FieldElement, len(evaluationDomain))
	for i, point := range evaluationDomain {
		evaluations[i] = polynomial.Eval(point)
	}

	// Create Merkle commitment
	evaluationBytes := make([][]byte, len(evaluations))
	for i, eval := range evaluations {
		evaluationBytes[i] = eval.Bytes()
	}

	tree, err := core.NewMerkleTree(evaluationBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create Merkle tree: %w", err)
	}

	// Initialize Fiat-Shamir channel
	channel := utils.NewChannel(p.stark.config.HashFunction)
	channel.Send(tree.Root())

	return &DomainParameters{
		Trace:            p.trace,
		GeneratorG:       generatorG,
		SubgroupG:        subgroupG,
		GeneratorH:       generatorH,
		SubgroupH:        subgroupH,
		EvaluationDomain: evaluationDomain,
		Polynomial:       polynomial,
		Evaluations:      evaluations,
		TraceCommitment:  tree.Root(),
		Channel:          channel,
	}, nil
}

// generateConstraints generates the polynomial constraints for the Fibonacci sequence
// The Fibonacci sequence: a_{n+2} = a_{n+1}^2 + a_n^2 with a_0 = 1, a_1 = 3141592
func (p *Prover) generateConstraints(poly *core.Polynomial, generatorG *core.FieldElement) ([]*core.Polynomial, error) {
	var constraints []*core.Polynomial

	// Constraint 1: Boundary condition f(1) = 1 (a_0 = 1)
	constraint1, err := p.generateBoundaryConstraint(poly, generatorG, 0, p.stark.field.NewElementFromInt64(1))
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, constraint1)

	// Constraint 2: Boundary condition f(g) = 3141592 (a_1 = 3141592)
	constraint2, err := p.generateBoundaryConstraint(poly, generatorG, 1, p.stark.field.NewElementFromInt64(3141592))
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, constraint2)

	// Constraint 3: Transition constraint f(g^2 * x) = f(g * x)^2 + f(x)^2
	// This ensures the Fibonacci relation holds: a_{n+2} = a_{n+1}^2 + a_n^2
	constraint3, err := p.generateFibonacciTransitionConstraint(poly, generatorG)
	if err != nil {
		return nil, err
	}
	constraints = append(constraints, constraint3)

	return constraints, nil
}

// generateBoundaryConstraint returns the polynomial x - g^i for the boundary
// condition f(g^i) = v. poly and value are not used, so the returned
// polynomial does not enforce f(g^i) = v.
func (p *Prover) generateBoundaryConstraint(poly *core.Polynomial, generatorG *core.FieldElement, index int, value *core.FieldElement) (*core.Polynomial, error) {
	// Calculate g^i where g is the generator
	point := generatorG.Exp(big.NewInt(int64(index)))

	// For now, create a simple constraint that represents the boundary condition
	// In a full implementation, this would be the proper polynomial division
	// But to avoid division issues, we'll create a constraint that's satisfied when f(g^i) = v

	// Create a simple constraint polynomial: x - g^i
	// This represents the constraint that the polynomial should be evaluated at g^i
	negPoint := point.Neg()
	constraint, err := core.NewPolynomial([]*core.FieldElement{negPoint, p.stark.field.One()})
	if err != nil {
		return nil, err
	}

	return constraint, nil
}

// generateFibonacciTransitionConstraint generates the Fibonacci transition constraint
// The constraint is: f(g^2 * x) - f(g * x)^2 - f(x)^2 = 0
// This ensures a_{n+2} = a_{n+1}^2 + a_n^2
func (p *Prover) generateFibonacciTransitionConstraint(poly *core.Polynomial, generatorG *core.FieldElement) (*core.Polynomial, error) {
	// Create f(g^2 * x) by substituting g^2 for x in the polynomial
	g2 := generatorG.Mul(generatorG) // g^2
	polyG2X, err := p.substitutePolynomial(poly, g2)
	if err != nil {
		return nil, err
	}

	// Create f(g * x) by substituting g for x in the polynomial
	polyGX, err := p.substitutePolynomial(poly, generatorG)
	if err != nil {
		return nil, err
	}

	// Create f(x)^2 by squaring the polynomial
	polyX2, err := poly.Mul(poly)
	if err != nil {
		return nil, err
	}

	// Create f(g * x)^2 by squaring f(g * x)
	polyGX2, err := polyGX.Mul(polyGX)
	if err != nil {
		return nil, err
	}

	// Create the constraint: f(g^2 * x) - f(g * x)^2 - f(x)^2
	// First: f(g^2 * x) - f(g * x)^2
	term1, err := polyG2X.Sub(polyGX2)
	if err != nil {
		return nil, err
	}

	// Then: (f(g^2 * x) - f(g * x)^2) - f(x)^2
	constraint, err := term1.Sub(polyX2)
	if err != nil {
		return nil, err
	}

	return constraint, nil
}

// substitutePolynomial substitutes c*x for x in a polynomial
// If f(x) = a_0 + a_1*x + a_2*x^2 + ..., then f(c*x) = a_0 + a_1*c*x + a_2*c^2*x^2 + ...
func (p *Prover) substitutePolynomial(poly *core.Polynomial, c *core.FieldElement) (*core.Polynomial, error) {
	if poly.Degree() < 0 {
		return nil, fmt.Errorf("cannot substitute in empty polynomial")
	}

	// Scale each coefficient a_i by c^i
	coefficients := make([]*core.FieldElement, poly.Degree()+1)
	power := p.stark.field.One() // c^0 = 1

	for i := 0; i <= poly.Degree(); i++ {
		coefficients[i] = poly.Coefficient(i).Mul(power)
		power = power.Mul(c) // c^(i+1)
	}

	return core.NewPolynomial(coefficients)
}

// generateCompositionPolynomial generates the composition polynomial
func (p *Prover) generateCompositionPolynomial(constraints []*core.Polynomial, channel *Channel) (*core.Polynomial, error) {
	compositionPoly, err := core.NewPolynomial([]*core.FieldElement{p.stark.field.Zero()})
	if err != nil {
		return nil, err
	}

	for _, constraint := range constraints {
		random := channel.ReceiveRandomFieldElement(p.stark.field)
		scaledConstraint, err := constraint.MulScalar(random)
		if err != nil {
			return nil, err
		}

		compositionPoly, err = compositionPoly.Add(scaledConstraint)
		if err != nil {
			return nil, err
		}
	}

	return compositionPoly, nil
}

// generateFRICommitment generates the FRI commitment using the TR17-134 FRI protocol
func (p *Prover) generateFRICommitment(compositionPoly *core.Polynomial, domainParams *DomainParameters) (*FRICommitment, error) {
	// Create FRI protocol instance according to TR17-134 specifications
	// Rate ρ = 2^(-R), R ≥ 2 (e.g., ρ = 1/8 for R = 3)
	rate, err := p.stark.field.NewElementFromInt64(1).Div(p.stark.field.NewElementFromInt64(8))
	if err != nil {
		return nil, fmt.Errorf("failed to compute rate: %w", err)
	}

	// Create generator ω for cyclic group ⟨ω⟩
	// For simplicity, we'll use a primitive root
	omega := p.stark.field.NewElementFromInt64(2) // This should be a proper primitive root

	fri := protocols.NewFRIProtocol(p.stark.field, rate, omega)

	// Evaluate composition polynomial over the domain
	evaluations, err := fri.EvaluatePolynomialOverDomain(compositionPoly, domainParams.EvaluationDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate composition polynomial: %w", err)
	}

	// Generate FRI proof
	friProof, err := fri.Prove(evaluations, domainParams.EvaluationDomain, domainParams.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to generate FRI proof: %w", err)
	}

	// Convert FRI proof to commitment format
	domains := make([][]*core.FieldElement, len(friProof.Layers))
	polynomials := make([]*core.Polynomial, len(friProof.Layers))
	layers := make([][]*core.FieldElement, len(friProof.Layers))
	roots := make([][]byte, len(friProof.Layers))

	for i, layer := range friProof.Layers {
		// Convert domain from field.Element to *core.FieldElement
		domainCore := make([]*core.FieldElement, len(layer.Domain))
		for j, elem := range layer.Domain {
			bigVal := new(big.Int).SetUint64(elem.Value())
			domainCore[j] = p.stark.field.NewElement(bigVal)
		}
		domains[i] = domainCore

		// Convert function to polynomial for compatibility
		functionCore := make([]*core.FieldElement, len(layer.Function))
		for j, elem := range layer.Function {
			bigVal := new(big.Int).SetUint64(elem.Value())
			functionCore[j] = p.stark.field.NewElement(bigVal)
		}
		poly, err := core.NewPolynomial(functionCore)
		if err != nil {
			return nil, fmt.Errorf("failed to create polynomial from function: %w", err)
		}
		polynomials[i] = poly
		layers[i] = functionCore
		roots[i] = layer.MerkleRoot
	}

	return &FRICommitment{
		Domains:     domains,
		Polynomials: polynomials,
		Layers:      layers,
		Roots:       roots,
	}, nil
}

// generateAIRProof generates an AIR proof using the complete ZK-STARK protocol
// generateAIRProof generates an AIR proof (reserved for future use)
// nolint:unused
func (p *Prover) generateAIRProof(trace [][]*core.FieldElement, inputs, outputs []*core.FieldElement, domainParams *DomainParameters) (*ALIProof, error) {
	// Create AIR instance
	rate, err := p.stark.field.NewElementFromInt64(1).Div(p.stark.field.NewElementFromInt64(8))
	if err != nil {
		return nil, fmt.Errorf("failed to compute rate: %w", err)
	}

	air := protocols.NewAIR(p.stark.field, len(trace), len(trace[0]), rate)

	// Set trace and domain
	err = air.SetTrace(trace)
	if err != nil {
		return nil, fmt.Errorf("failed to set trace: %w", err)
	}

	err = air.SetDomain(domainParams.EvaluationDomain)
	if err != nil {
		return nil, fmt.Errorf("failed to set domain: %w", err)
	}

	// Create LDE domain for zero-knowledge
	err = air.CreateLDEDomain(4) // m = 4 for zero-knowledge
	if err != nil {
		return nil, fmt.Errorf("failed to create LDE domain: %w", err)
	}

	// Arithmetize trace into polynomials
	airTrace, err := air.ArithmetizeTrace()
	if err != nil {
		return nil, fmt.Errorf("failed to arithmetize trace: %w", err)
	}

	// Create constraints
	transitionConstraints, err := air.CreateTransitionConstraints()
	if err != nil {
		return nil, fmt.Errorf("failed to create transition constraints: %w", err)
	}

	boundaryConstraints, err := air.CreateBoundaryConstraints(inputs, outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to create boundary constraints: %w", err)
	}

	// Combine all constraints
	var allConstraints []AIRConstraint
	allConstraints = append(allConstraints, transitionConstraints...)
	allConstraints = append(allConstraints, boundaryConstraints...)

	// Create ALI instance
	ali := protocols.NewALI(p.stark.field, air, airTrace, allConstraints)

	// Generate random challenges for ALI
	challenges := make([]*core.FieldElement, air.GetStateWidth())
	for i := 0; i < air.GetStateWidth(); i++ {
		challenges[i] = domainParams.Channel.ReceiveRandomFieldElement(p.stark.field)
	}

	// Generate domain shift γ = ω
	gamma := p.stark.field.NewElementFromInt64(2)

	// Generate query points
	queryPoints := make([]*core.FieldElement, 3) // 3 random queries
	for i := 0; i < 3; i++ {
		queryPoints[i] = domainParams.Channel.ReceiveRandomFieldElement(p.stark.field)
	}

	// Generate ALI proof
	aliProof, err := ali.GenerateProof(challenges, gamma, queryPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ALI proof: %w", err)
	}

	return aliProof, nil
}

// generateQueryProofs generates the query proofs
func (p *Prover) generateQueryProofs(domainParams *DomainParameters, friCommitment *FRICommitment) ([]QueryProof, error) {
	// Query proofs carry no Merkle authentication path: every Proof is empty
	var queryProofs []QueryProof

	// Generate queries for each FRI layer
	for layerIdx, layer := range friCommitment.Layers {
		// Generate random query points for this layer
		numQueries := 2 // Standard FRI uses 2 queries per layer
		for q := 0; q < numQueries; q++ {
			// Generate random query point
			queryPoint := domainParams.Channel.ReceiveRandomFieldElement(p.stark.field)

			// Find the index of the query point in the layer
			queryIndex := -1
			for i, point := range layer {
				if point.Equal(queryPoint) {
					queryIndex = i
					break
				}
			}

			if queryIndex == -1 {
				// If point not in domain, interpolate the value
				// For now, use a simplified approach - in practice would need proper interpolation
				queryValue := p.stark.field.Zero()
				queryProof := QueryProof{
					LayerIndex: layerIdx,
					QueryIndex: -1, // Indicates external point
					QueryPoint: queryPoint,
					QueryValue: queryValue,
					Proof:      []*core.ProofNode{}, // Empty proof for external points
				}
				queryProofs = append(queryProofs, queryProof)
			} else {
				// For points in domain, create a simple proof structure
				// In practice, this would use the actual Merkle tree from the layer
				queryProof := QueryProof{
					LayerIndex: layerIdx,
					QueryIndex: queryIndex,
					QueryPoint: queryPoint,
					QueryValue: layer[queryIndex],
					Proof:      []*core.ProofNode{}, // Simplified - would use actual Merkle proof
				}

				queryProofs = append(queryProofs, queryProof)
			}
		}
	}

	return queryProofs, nil
}

// extractPublicInputs extracts the public inputs from the trace
func (p *Prover) extractPublicInputs() []*core.FieldElement {
	// For the Fibonacci example, the public input is the final value
	return []*core.FieldElement{p.trace[len(p.trace)-1]}
}

// Verifier represents a verifier for zkSTARKs proofs
type Verifier struct {
	stark *STARK
}

// NewVerifier creates a new verifier
func (s *STARK) NewVerifier() *Verifier {
	return &Verifier{stark: s}
}

// VerifyProof verifies a zkSTARKs proof
func (v *Verifier) VerifyProof(proof *Proof) error {
	// Structural verification only: commitments present, layer sizes
	// consistent and halving, final layer of size 1
	if proof == nil {
		return fmt.Errorf("proof is nil")
	}

	// Check trace commitment
	if len(proof.TraceCommitment) == 0 {
		return fmt.Errorf("trace commitment is empty")
	}

	// Check FRI layers
	if len(proof.FRILayers) == 0 {
		return fmt.Errorf("FRI layers are empty")
	}

	// Check FRI roots
	if len(proof.FRIRoots) == 0 {
		return fmt.Errorf("FRI roots are empty")
	}

	// Verify FRI proof structure
	if len(proof.FRIDomains) != len(proof.FRILayers) {
		return fmt.Errorf("FRI domains and layers count mismatch")
	}

	if len(proof.FRIPolynomials) != len(proof.FRILayers) {
		return fmt.Errorf("FRI polynomials and layers count mismatch")
	}

	// Verify each FRI layer
	for i := 0; i < len(proof.FRILayers); i++ {
		if len(proof.FRIDomains[i]) != len(proof.FRILayers[i]) {
			return fmt.Errorf("FRI domain and layer size mismatch at layer %d", i)
		}
	}

	// Verify domain size reduction (each layer should be half the size of the previous)
	for i := 1; i < len(proof.FRIDomains); i++ {
		if len(proof.FRIDomains[i]) != len(proof.FRIDomains[i-1])/2 {
			return fmt.Errorf("FRI domain size reduction incorrect at layer %d", i)
		}
	}

	// Verify final layer has size 1
	finalLayer := len(proof.FRIDomains) - 1
	if len(proof.FRIDomains[finalLayer]) != 1 {
		return fmt.Errorf("final FRI domain should have size 1, got %d", len(proof.FRIDomains[finalLayer]))
	}

	// Not verified here:
	// 1. The trace commitment against the actual trace
	// 2. The Merkle proofs for each FRI layer
	// 3. The query proofs
	// 4. The final proof transcript
	// 5. The polynomial constraints

	return nil
}
