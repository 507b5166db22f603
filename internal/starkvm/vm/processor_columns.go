package vm

import "fmt"

// Base column layout. Order is an internal implementation choice (this is a
// from-scratch port, not bit-compatible with any external verifier) but,
// once fixed, must stay stable: every helper in this file indexes into rows
// by position.
const (
	colCLK = iota
	colIP
	colCI
	colNIA
	colPreviousInstruction
	colJSP
	colJSO
	colJSD
	colST0
	colST1
	colST2
	colST3
	colST4
	colST5
	colST6
	colST7
	colST8
	colST9
	colST10
	colST11
	colST12
	colST13
	colST14
	colST15
	colOpStackPointer
	colRAMP
	colRAMV
	colHV0
	colHV1
	colHV2
	colHV3
	colHV4
	colHV5
	colHV6
	colIB0
	colIB1
	colIB2
	colIB3
	colIB4
	colIB5
	colIB6
	colIB7
	colIsPadding
	colClockJumpDifferenceLookupMultiplicity

	baseWidth
)

// Extension column layout: eleven running accumulators, see processor_extend.go.
const (
	extInputTableEvalArg = iota
	extOutputTableEvalArg
	extInstructionLookupClientLogDerivative
	extOpStackTablePermArg
	extRamTablePermArg
	extJumpStackTablePermArg
	extHashInputEvalArg
	extHashDigestEvalArg
	extSpongeEvalArg
	extU32LookupClientLogDerivative
	extClockJumpDifferenceLookupServerLogDerivative

	extWidth
)

// numHelperVariables is the width of the HV0..HV6 scratch group.
const numHelperVariables = 7

// stackDepth is the number of architectural operand-stack registers ST0..ST15.
const stackDepth = 16

// opStackColumnByIndex returns the base-column index of ST_i for i in [0,16).
// Panics out of range: a structural-invariant violation per the error-handling
// policy for index helpers (programmer error, not data error).
func opStackColumnByIndex(i int) int {
	if i < 0 || i >= stackDepth {
		panic(fmt.Sprintf("vm: operand stack index %d out of range", i))
	}
	return colST0 + i
}

// helperVariableColumn returns the base-column index of HV_i for i in [0,7).
func helperVariableColumn(i int) int {
	if i < 0 || i >= numHelperVariables {
		panic(fmt.Sprintf("vm: helper variable index %d out of range", i))
	}
	return colHV0 + i
}

// instructionBitColumn returns the base-column index of IB_i for i in [0,8).
func instructionBitColumn(i int) int {
	if i < 0 || i >= NumInstructionBits {
		panic(fmt.Sprintf("vm: instruction bit index %d out of range", i))
	}
	return colIB0 + i
}
