// Package vm implements cross-table arguments for multi-table architecture
// These arguments link different tables together to prove consistency
package vm

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
)

// CrossTableArgumentType defines the type of cross-table argument
type CrossTableArgumentType int

const (
	// PermutationArgumentType proves two tables contain the same multiset of rows
	// Uses running product: RP[i] = RP[i-1] * (challenge - compressed_row[i])
	PermutationArgumentType CrossTableArgumentType = iota

	// EvaluationArgumentType proves correct evaluation of a polynomial at a point
	// Uses running sum: RE[i] = RE[i-1] * challenge + symbol[i]
	EvaluationArgumentType

	// LookupArgumentType proves values exist in a lookup table
	// Uses log-derivative: LD[i] = LD[i-1] + 1/(challenge - value[i])
	LookupArgumentType

	// ContiguityArgumentType proves memory regions are contiguous
	// Uses Bezout relation with running products and formal derivatives
	ContiguityArgumentType
)

// CrossTableArgument represents a cross-table argument between two tables
type CrossTableArgument struct {
	Type        CrossTableArgumentType
	SourceTable TableID
	TargetTable TableID
	Challenge   *core.FieldElement // Fiat-Shamir challenge
}

// PermutationArgumentComputer computes permutation arguments
type PermutationArgumentComputer struct {
	field *core.Field
}

// NewPermutationArgumentComputer creates a new permutation argument computer
func NewPermutationArgumentComputer(field *core.Field) *PermutationArgumentComputer {
	return &PermutationArgumentComputer{field: field}
}

// DefaultInitial returns the default initial value for permutation arguments
func (pac *PermutationArgumentComputer) DefaultInitial() *core.FieldElement {
	return pac.field.One()
}

// ComputeTerminal computes the terminal value of a permutation argument
// Formula: initial · Π_i (challenge - symbols[i])
// This evaluates the zerofier polynomial at the challenge point
func (pac *PermutationArgumentComputer) ComputeTerminal(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) *core.FieldElement {
	result := initial
	for _, symbol := range symbols {
		// result *= (challenge - symbol)
		factor := challenge.Sub(symbol)
		result = result.Mul(factor)
	}
	return result
}

// ComputeRunningProduct computes the running product for a table
// Returns: [RP[0], RP[1], ..., RP[n-1]] where RP[i] = RP[i-1] * (challenge - symbols[i])
func (pac *PermutationArgumentComputer) ComputeRunningProduct(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) ([]*core.FieldElement, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}

	runningProduct := make([]*core.FieldElement, len(symbols))
	runningProduct[0] = initial

	for i := 0; i < len(symbols); i++ {
		if i > 0 {
			runningProduct[i] = runningProduct[i-1]
		}

		// Multiply by (challenge - symbols[i])
		factor := challenge.Sub(symbols[i])
		runningProduct[i] = runningProduct[i].Mul(factor)
	}

	return runningProduct, nil
}

// EvaluationArgumentComputer computes evaluation arguments
type EvaluationArgumentComputer struct {
	field *core.Field
}

// NewEvaluationArgumentComputer creates a new evaluation argument computer
func NewEvaluationArgumentComputer(field *core.Field) *EvaluationArgumentComputer {
	return &EvaluationArgumentComputer{field: field}
}

// DefaultInitial returns the default initial value for evaluation arguments
func (eac *EvaluationArgumentComputer) DefaultInitial() *core.FieldElement {
	return eac.field.One()
}

// ComputeTerminal computes the terminal value of an evaluation argument
// Formula: initial·x^n + Σ_{i=0}^{n-1} symbols[n-1-i]·x^i
// This evaluates a polynomial at the challenge point
func (eac *EvaluationArgumentComputer) ComputeTerminal(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) *core.FieldElement {
	result := initial
	for _, symbol := range symbols {
		// result = challenge * result + symbol
		result = challenge.Mul(result).Add(symbol)
	}
	return result
}

// ComputeRunningEvaluation computes the running evaluation for a table
// Returns: [RE[0], RE[1], ..., RE[n-1]] where RE[i] = challenge * RE[i-1] + symbols[i]
func (eac *EvaluationArgumentComputer) ComputeRunningEvaluation(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) ([]*core.FieldElement, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}

	runningEval := make([]*core.FieldElement, len(symbols))
	runningEval[0] = initial

	for i := 0; i < len(symbols); i++ {
		if i > 0 {
			runningEval[i] = runningEval[i-1]
		}

		// RE[i] = challenge * RE[i-1] + symbols[i]
		runningEval[i] = challenge.Mul(runningEval[i]).Add(symbols[i])
	}

	return runningEval, nil
}

// LookupArgumentComputer computes lookup arguments
type LookupArgumentComputer struct {
	field *core.Field
}

// NewLookupArgumentComputer creates a new lookup argument computer
func NewLookupArgumentComputer(field *core.Field) *LookupArgumentComputer {
	return &LookupArgumentComputer{field: field}
}

// DefaultInitial returns the default initial value for lookup arguments
func (lac *LookupArgumentComputer) DefaultInitial() *core.FieldElement {
	return lac.field.Zero()
}

// ComputeTerminal computes the terminal value of a lookup argument
// Formula: initial + Σ_i 1/(challenge - symbols[i])
// This is the log-derivative accumulation
func (lac *LookupArgumentComputer) ComputeTerminal(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) (*core.FieldElement, error) {
	result := initial
	for _, symbol := range symbols {
		// result += 1/(challenge - symbol)
		denominator := challenge.Sub(symbol)
		if denominator.IsZero() {
			return nil, fmt.Errorf("cannot compute lookup: challenge equals symbol")
		}
		inverse, err := denominator.Inv()
		if err != nil {
			return nil, fmt.Errorf("failed to compute inverse: %w", err)
		}
		result = result.Add(inverse)
	}
	return result, nil
}

// ComputeLogDerivative computes the log-derivative for a table
// Returns: [LD[0], LD[1], ..., LD[n-1]] where LD[i] = LD[i-1] + 1/(challenge - symbols[i])
func (lac *LookupArgumentComputer) ComputeLogDerivative(
	symbols []*core.FieldElement,
	initial *core.FieldElement,
	challenge *core.FieldElement,
) ([]*core.FieldElement, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbols cannot be empty")
	}

	logDeriv := make([]*core.FieldElement, len(symbols))
	logDeriv[0] = initial

	for i := 0; i < len(symbols); i++ {
		if i > 0 {
			logDeriv[i] = logDeriv[i-1]
		}

		// LD[i] = LD[i-1] + 1/(challenge - symbols[i])
		denominator := challenge.Sub(symbols[i])
		if denominator.IsZero() {
			return nil, fmt.Errorf("cannot compute log derivative at index %d: challenge equals symbol", i)
		}
		inverse, err := denominator.Inv()
		if err != nil {
			return nil, fmt.Errorf("failed to compute inverse at index %d: %w", i, err)
		}
		logDeriv[i] = logDeriv[i].Add(inverse)
	}

	return logDeriv, nil
}

// GrandCrossTableArgument manages all cross-table arguments
type GrandCrossTableArgument struct {
	field      *core.Field
	permArgs   *PermutationArgumentComputer
	evalArgs   *EvaluationArgumentComputer
	lookupArgs *LookupArgumentComputer
}

// NewGrandCrossTableArgument creates a new grand cross-table argument manager
func NewGrandCrossTableArgument(field *core.Field) *GrandCrossTableArgument {
	return &GrandCrossTableArgument{
		field:      field,
		permArgs:   NewPermutationArgumentComputer(field),
		evalArgs:   NewEvaluationArgumentComputer(field),
		lookupArgs: NewLookupArgumentComputer(field),
	}
}

// VerifyTerminalConstraints checks that every table is present and that each
// permutation and lookup pair has auxiliary columns and a non-zero height.
// Terminal values are not compared, and evaluation arguments are not checked.
// This is called at the end of proof verification to ensure all tables are consistent
func (gcta *GrandCrossTableArgument) VerifyTerminalConstraints(
	aet *AlgebraicExecutionTrace,
	challenges map[string]*core.FieldElement,
) error {
	// Get terminal row from each table
	processor, err := aet.GetTable(ProcessorTable)
	if err != nil {
		return fmt.Errorf("failed to get processor table: %w", err)
	}
	opStack, err := aet.GetTable(OperationalStackTable)
	if err != nil {
		return fmt.Errorf("failed to get opstack table: %w", err)
	}
	ram, err := aet.GetTable(RAMTable)
	if err != nil {
		return fmt.Errorf("failed to get ram table: %w", err)
	}
	jumpStack, err := aet.GetTable(JumpStackTable)
	if err != nil {
		return fmt.Errorf("failed to get jumpstack table: %w", err)
	}
	program, err := aet.GetTable(ProgramTable)
	if err != nil {
		return fmt.Errorf("failed to get program table: %w", err)
	}
	hash, err := aet.GetTable(HashTable)
	if err != nil {
		return fmt.Errorf("failed to get hash table: %w", err)
	}
	u32, err := aet.GetTable(U32Table)
	if err != nil {
		return fmt.Errorf("failed to get u32 table: %w", err)
	}
	cascade, err := aet.GetTable(CascadeTable)
	if err != nil {
		return fmt.Errorf("failed to get cascade table: %w", err)
	}
	lookup, err := aet.GetTable(LookupTable)
	if err != nil {
		return fmt.Errorf("failed to get lookup table: %w", err)
	}

	if processor == nil || opStack == nil || ram == nil || jumpStack == nil ||
		program == nil || hash == nil || u32 == nil || cascade == nil || lookup == nil {
		return fmt.Errorf("missing table in AET")
	}

	// Verify permutation arguments
	// 1. Processor ↔ OpStack
	if err := gcta.verifyPermutationMatch(
		processor, ProcessorTable, "opstack_perm",
		opStack, OperationalStackTable, "perm",
	); err != nil {
		return fmt.Errorf("processor-opstack permutation failed: %w", err)
	}

	// 2. Processor ↔ RAM
	if err := gcta.verifyPermutationMatch(
		processor, ProcessorTable, "ram_perm",
		ram, RAMTable, "perm",
	); err != nil {
		return fmt.Errorf("processor-ram permutation failed: %w", err)
	}

	// 3. Processor ↔ JumpStack
	if err := gcta.verifyPermutationMatch(
		processor, ProcessorTable, "jumpstack_perm",
		jumpStack, JumpStackTable, "perm",
	); err != nil {
		return fmt.Errorf("processor-jumpstack permutation failed: %w", err)
	}

	// Verify evaluation arguments
	// 4. Input → Processor
	if err := gcta.verifyEvaluationMatch(
		"input_terminal", challenges,
		processor, ProcessorTable, "input_eval",
	); err != nil {
		return fmt.Errorf("input-processor evaluation failed: %w", err)
	}

	// 5. Processor → Output
	if err := gcta.verifyEvaluationMatch(
		processor, ProcessorTable, "output_eval",
		"output_terminal", challenges,
	); err != nil {
		return fmt.Errorf("processor-output evaluation failed: %w", err)
	}

	// Verify lookup arguments
	// 6. Processor ↔ Program (instruction lookup)
	if err := gcta.verifyLookupMatch(
		processor, ProcessorTable, "instruction_lookup",
		program, ProgramTable, "instruction_lookup_server",
	); err != nil {
		return fmt.Errorf("instruction lookup failed: %w", err)
	}

	// 7. Processor ↔ U32 (32-bit operations)
	if err := gcta.verifyLookupMatch(
		processor, ProcessorTable, "u32_lookup",
		u32, U32Table, "lookup_server",
	); err != nil {
		return fmt.Errorf("u32 lookup failed: %w", err)
	}

	// 8. Hash → Cascade (hash state lookups)
	if err := gcta.verifyLookupMatch(
		cascade, CascadeTable, "hash_server",
		hash, HashTable, "cascade_client",
	); err != nil {
		return fmt.Errorf("hash-cascade lookup failed: %w", err)
	}

	// 9. Cascade ↔ Lookup
	if err := gcta.verifyLookupMatch(
		cascade, CascadeTable, "lookup_client",
		lookup, LookupTable, "cascade_server",
	); err != nil {
		return fmt.Errorf("cascade-lookup failed: %w", err)
	}

	// All structural checks passed
	return nil
}

// verifyPermutationMatch checks that both tables have auxiliary columns and
// rows; the permutation arguments' terminal values are not compared
func (gcta *GrandCrossTableArgument) verifyPermutationMatch(
	table1 ExecutionTable, id1 TableID, col1 string,
	table2 ExecutionTable, id2 TableID, col2 string,
) error {
	// Get terminal values from auxiliary columns
	aux1 := table1.GetAuxiliaryColumns()
	aux2 := table2.GetAuxiliaryColumns()

	if len(aux1) == 0 || len(aux2) == 0 {
		return fmt.Errorf("missing auxiliary columns")
	}

	// For production: extract correct column by name
	// For now, verify structure exists
	if table1.GetHeight() == 0 || table2.GetHeight() == 0 {
		return fmt.Errorf("empty tables")
	}

	return nil
}

// verifyEvaluationMatch performs no check and always returns nil
func (gcta *GrandCrossTableArgument) verifyEvaluationMatch(
	source interface{}, args ...interface{},
) error {
	// Verify evaluation arguments match between tables or challenges
	// Implementation would extract terminal values and compare
	return nil
}

// verifyLookupMatch checks that both tables have auxiliary columns and rows;
// the lookup arguments' terminal values are not compared
func (gcta *GrandCrossTableArgument) verifyLookupMatch(
	table1 ExecutionTable, id1 TableID, col1 string,
	table2 ExecutionTable, id2 TableID, col2 string,
) error {
	// Get terminal values from auxiliary columns
	aux1 := table1.GetAuxiliaryColumns()
	aux2 := table2.GetAuxiliaryColumns()

	if len(aux1) == 0 || len(aux2) == 0 {
		return fmt.Errorf("missing auxiliary columns")
	}

	// For production: extract correct column by name
	// For now, verify structure exists
	if table1.GetHeight() == 0 || table2.GetHeight() == 0 {
		return fmt.Errorf("empty tables")
	}

	return nil
}

// CompressRow compresses a row into a single field element using challenges
// Formula: Σ challenge_i * column_i
func CompressRow(
	row []*core.FieldElement,
	challenges []*core.FieldElement,
) (*core.FieldElement, error) {
	if len(row) != len(challenges) {
		return nil, fmt.Errorf("row length %d does not match challenges length %d", len(row), len(challenges))
	}

	result := row[0].Field().Zero()
	for i := 0; i < len(row); i++ {
		// result += challenges[i] * row[i]
		term := challenges[i].Mul(row[i])
		result = result.Add(term)
	}

	return result, nil
}
