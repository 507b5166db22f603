// Package vm implements the Program Table
// NOTE: retained verbatim from the teacher repo (satellite-table internal
// constraint sets are a Non-goal here). If this file is touched for any
// reason, adapt it to the 38-instruction ISA and processor table schema
// instead of copying it forward unchanged.
package vm

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/protocols"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ProgramTableImpl implements the Program Table
// This table provides program attestation and proves the executed program is correct
//
// The program table records:
// 1. All instructions in the program (address + instruction pairs)
// 2. Instruction lookup server (for processor to query instructions)
// 3. Program attestation via hash chunks (Poseidon in our case)
//
// Main purpose: Prove program integrity and provide instruction lookups
type ProgramTableImpl struct {
	// Main columns (BField elements)
	address            []field.Element // Instruction address in program memory
	instruction        []field.Element // The instruction at this address
	lookupMultiplicity []field.Element // How many times this instruction is looked up
	indexInChunk       []field.Element // Index within current hash chunk (0 to RATE-1)
	maxMinusIndexInv   []field.Element // Inverse of (MAX_INDEX - indexInChunk), for boundary detection
	isHashInputPadding []field.Element // Boolean: is this row hash input padding?
	isTablePadding     []field.Element // Boolean: is this row table padding?

	// Auxiliary columns (XField elements for cross-table arguments)
	instrLookupLogDeriv []field.Element // Log derivative for instruction lookup (server side)
	prepareChunkRunEval []field.Element // Running evaluation for prepare chunk (program attestation)
	sendChunkRunEval    []field.Element // Running evaluation for send chunk (program attestation)

	height       int
	paddedHeight int

	// Hash chunk rate (for Poseidon, typically 4 or 8 depending on configuration)
	chunkRate int
}

// NewProgramTable creates a new Program Table
func NewProgramTable(chunkRate int) *ProgramTableImpl {
	return &ProgramTableImpl{
		address:             make([]field.Element, 0),
		instruction:         make([]field.Element, 0),
		lookupMultiplicity:  make([]field.Element, 0),
		indexInChunk:        make([]field.Element, 0),
		maxMinusIndexInv:    make([]field.Element, 0),
		isHashInputPadding:  make([]field.Element, 0),
		isTablePadding:      make([]field.Element, 0),
		instrLookupLogDeriv: make([]field.Element, 0),
		prepareChunkRunEval: make([]field.Element, 0),
		sendChunkRunEval:    make([]field.Element, 0),
		height:              0,
		paddedHeight:        0,
		chunkRate:           chunkRate,
	}
}

// GetID returns the table's identifier
func (pt *ProgramTableImpl) GetID() TableID {
	return ProgramTable
}

// GetHeight returns the current height
func (pt *ProgramTableImpl) GetHeight() int {
	return pt.height
}

// GetPaddedHeight returns the padded height
func (pt *ProgramTableImpl) GetPaddedHeight() int {
	return pt.paddedHeight
}

// GetMainColumns returns all main columns
func (pt *ProgramTableImpl) GetMainColumns() [][]field.Element {
	return [][]field.Element{
		pt.address,
		pt.instruction,
		pt.lookupMultiplicity,
		pt.indexInChunk,
		pt.maxMinusIndexInv,
		pt.isHashInputPadding,
		pt.isTablePadding,
	}
}

// GetAuxiliaryColumns returns auxiliary columns
func (pt *ProgramTableImpl) GetAuxiliaryColumns() [][]field.Element {
	return [][]field.Element{
		pt.instrLookupLogDeriv,
		pt.prepareChunkRunEval,
		pt.sendChunkRunEval,
	}
}

// AddRow adds a new row to the program table
func (pt *ProgramTableImpl) AddRow(entry *ProgramEntry) error {
	if entry == nil {
		return fmt.Errorf("program entry cannot be nil")
	}

	// Validation notes:
	// - Address must be monotonically increasing
	// - Instruction must be a valid opcode
	// - Index in chunk must be 0 <= idx < chunkRate
	// - isHashInputPadding and isTablePadding must be boolean (0 or 1)

	// Add main column values
	pt.address = append(pt.address, entry.Address)
	pt.instruction = append(pt.instruction, entry.Instruction)
	pt.lookupMultiplicity = append(pt.lookupMultiplicity, entry.LookupMultiplicity)
	pt.indexInChunk = append(pt.indexInChunk, entry.IndexInChunk)
	pt.maxMinusIndexInv = append(pt.maxMinusIndexInv, entry.MaxMinusIndexInv)
	pt.isHashInputPadding = append(pt.isHashInputPadding, entry.IsHashInputPadding)
	pt.isTablePadding = append(pt.isTablePadding, entry.IsTablePadding)

	// Initialize auxiliary columns (computed during proving)
	pt.instrLookupLogDeriv = append(pt.instrLookupLogDeriv, field.Zero)
	pt.prepareChunkRunEval = append(pt.prepareChunkRunEval, field.Zero)
	pt.sendChunkRunEval = append(pt.sendChunkRunEval, field.Zero)

	pt.height++
	return nil
}

// Pad pads the table to the target height with padding rows
func (pt *ProgramTableImpl) Pad(targetHeight int) error {
	if targetHeight < pt.height {
		return fmt.Errorf("target height %d is less than current height %d", targetHeight, pt.height)
	}

	if pt.height == 0 {
		return fmt.Errorf("cannot pad empty table")
	}

	// Padding rows have isTablePadding = 1
	tablePaddingIndicator := field.One

	// Use last row values for other fields
	lastIdx := pt.height - 1
	paddingRows := targetHeight - pt.height

	for i := 0; i < paddingRows; i++ {
		pt.address = append(pt.address, pt.address[lastIdx])
		pt.instruction = append(pt.instruction, pt.instruction[lastIdx])
		pt.lookupMultiplicity = append(pt.lookupMultiplicity, field.Zero) // No lookups in padding
		pt.indexInChunk = append(pt.indexInChunk, pt.indexInChunk[lastIdx])
		pt.maxMinusIndexInv = append(pt.maxMinusIndexInv, pt.maxMinusIndexInv[lastIdx])
		pt.isHashInputPadding = append(pt.isHashInputPadding, pt.isHashInputPadding[lastIdx])
		pt.isTablePadding = append(pt.isTablePadding, tablePaddingIndicator)
		pt.instrLookupLogDeriv = append(pt.instrLookupLogDeriv, pt.instrLookupLogDeriv[lastIdx])
		pt.prepareChunkRunEval = append(pt.prepareChunkRunEval, pt.prepareChunkRunEval[lastIdx])
		pt.sendChunkRunEval = append(pt.sendChunkRunEval, pt.sendChunkRunEval[lastIdx])
	}

	pt.paddedHeight = targetHeight
	return nil
}

// CreateInitialConstraints generates constraints for the first row
func (pt *ProgramTableImpl) CreateInitialConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Initial constraints for Program Table:
	//
	// 1. First address is zero:
	//    address[0] = 0
	//
	// 2. Index in chunk starts at zero:
	//    indexInChunk[0] = 0
	//
	// 3. Hash input padding indicator starts at zero:
	//    isHashInputPadding[0] = 0
	//
	// 4. Instruction lookup log derivative initialized correctly:
	//    instrLookupLogDeriv[0] = default_initial
	//
	// 5. Prepare chunk running evaluation has absorbed first instruction:
	//    prepareChunkRunEval[0] = default_initial * indeterminate + instruction[0]
	//
	// 6. Send chunk running evaluation starts at default initial:
	//    sendChunkRunEval[0] = default_initial
	//
	// Note: Actual polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges.

	return constraints, nil
}

// CreateConsistencyConstraints generates constraints within each row
func (pt *ProgramTableImpl) CreateConsistencyConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Consistency constraints for Program Table:
	//
	// 1. maxMinusIndexInv is zero or the inverse of (MAX_INDEX - indexInChunk):
	//    (1 - (MAX_INDEX - indexInChunk) * maxMinusIndexInv) * maxMinusIndexInv = 0
	//
	// 2. (MAX_INDEX - indexInChunk) is zero or maxMinusIndexInv is its inverse:
	//    (1 - (MAX_INDEX - indexInChunk) * maxMinusIndexInv) * (MAX_INDEX - indexInChunk) = 0
	//
	// 3. isHashInputPadding is boolean (0 or 1):
	//    isHashInputPadding * (isHashInputPadding - 1) = 0
	//
	// 4. isTablePadding is boolean (0 or 1):
	//    isTablePadding * (isTablePadding - 1) = 0
	//
	// Note: These constraints enforce proper boundary detection and boolean values.
	// Actual polynomial representations computed during proof generation.

	return constraints, nil
}

// CreateTransitionConstraints generates constraints between consecutive rows
func (pt *ProgramTableImpl) CreateTransitionConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Transition constraints for Program Table:
	//
	// 1. Address increases by 0 or 1:
	//    (address' - address) * (address' - address - 1) = 0
	//
	// 2. If not table padding, certain constraints apply:
	//    - Index in chunk increments or resets
	//    - Running evaluations update correctly
	//
	// 3. Instruction lookup log derivative updates correctly:
	//    If lookupMultiplicity > 0:
	//      log_deriv' = log_deriv + lookupMultiplicity/(indeterminate - compressed_row)
	//    where compressed_row encodes (address, instruction)
	//
	// 4. Prepare chunk running evaluation updates:
	//    If not at chunk boundary:
	//      prepareChunkRunEval' = prepareChunkRunEval * indeterminate + instruction'
	//    If at chunk boundary:
	//      prepareChunkRunEval' = default_initial * indeterminate + instruction'
	//
	// 5. Send chunk running evaluation updates:
	//    If at chunk boundary and not padding:
	//      sendChunkRunEval' = sendChunkRunEval * indeterminate + hash_of_chunk
	//    Otherwise:
	//      sendChunkRunEval' = sendChunkRunEval
	//
	// Note: All polynomial representations computed during proof generation
	// with proper Fiat-Shamir challenges and hash computations.
	//
	// Program attestation works by:
	// 1. Preparing chunks of instructions (prepareChunkRunEval)
	// 2. Hashing each chunk (with Poseidon)
	// 3. Sending chunk hashes (sendChunkRunEval)
	// This proves the program is correctly attested and matches public input.

	return constraints, nil
}

// CreateTerminalConstraints generates constraints for the last row
func (pt *ProgramTableImpl) CreateTerminalConstraints() ([]protocols.AIRConstraint, error) {
	constraints := make([]protocols.AIRConstraint, 0)

	// Terminal constraints for Program Table:
	//
	// The final send chunk running evaluation must match the expected program digest.
	// This is verified via evaluation argument with public input.
	//
	// Note: Polynomial representation computed during proof generation.

	return constraints, nil
}

// UpdateInstructionLookupLogDerivative updates the log derivative for instruction lookups
// This implements the server side of the lookup argument with the Processor table
func (pt *ProgramTableImpl) UpdateInstructionLookupLogDerivative(challenges map[string]field.Element) error {
	if pt.height == 0 {
		return fmt.Errorf("cannot update instruction lookup on empty table")
	}

	// Extract challenges
	indeterminate, ok := challenges["instruction_lookup_indeterminate"]
	if !ok {
		return fmt.Errorf("missing instruction_lookup_indeterminate challenge")
	}
	addressWeight, ok := challenges["instruction_address_weight"]
	if !ok {
		return fmt.Errorf("missing instruction_address_weight challenge")
	}
	instrWeight, ok := challenges["instruction_weight"]
	if !ok {
		return fmt.Errorf("missing instruction_weight challenge")
	}

	// Initialize first row
	pt.instrLookupLogDeriv[0] = field.Zero

	// Update subsequent rows
	for i := 1; i < pt.height; i++ {
		// Check if there are lookups for this instruction
		multiplicity := pt.lookupMultiplicity[i-1]

		if !multiplicity.Equal(field.Zero) {
			// Compress row: address_weight * address + instr_weight * instruction
			compressedRow := addressWeight.Mul(pt.address[i-1]).
				Add(instrWeight.Mul(pt.instruction[i-1]))

			// log_deriv[i] = log_deriv[i-1] + multiplicity/(indeterminate - compressed_row)
			denominator := indeterminate.Sub(compressedRow)
			inverse := denominator.Inverse()

			contribution := multiplicity.Mul(inverse)
			pt.instrLookupLogDeriv[i] = pt.instrLookupLogDeriv[i-1].Add(contribution)
		} else {
			// No lookups, carry forward
			pt.instrLookupLogDeriv[i] = pt.instrLookupLogDeriv[i-1]
		}
	}

	return nil
}

// ProgramEntry represents a single entry in the program table
type ProgramEntry struct {
	Address            field.Element // Instruction address
	Instruction        field.Element // The instruction opcode
	LookupMultiplicity field.Element // How many times this is looked up
	IndexInChunk       field.Element // Index within hash chunk
	MaxMinusIndexInv   field.Element // Inverse of (MAX_INDEX - IndexInChunk)
	IsHashInputPadding field.Element // Boolean: hash input padding
	IsTablePadding     field.Element // Boolean: table padding
}

// NewProgramEntry creates a new program entry
func NewProgramEntry(
	address, instruction, lookupMultiplicity, indexInChunk field.Element,
) (*ProgramEntry, error) {
	return &ProgramEntry{
		Address:            address,
		Instruction:        instruction,
		LookupMultiplicity: lookupMultiplicity,
		IndexInChunk:       indexInChunk,
		MaxMinusIndexInv:   field.Zero, // Computed during preprocessing
		IsHashInputPadding: field.Zero, // Typically false unless needed
		IsTablePadding:     field.Zero, // False for actual instructions
	}, nil
}
