package vm

import (
	"testing"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/circuit"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
	"github.com/stretchr/testify/require"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// negOneModP and invTwoModP are literal base-field elements (the field's
// modulus is 3221225473): the additive inverse of 1, and the multiplicative
// inverse of 2, both needed as HV/NIA witnesses below.
const (
	negOneModP = 3221225472
	invTwoModP = 1610612737
)

// testChallenges samples every named Fiat-Shamir challenge as a distinct
// small prime lifted into the base field, except CompressedProgramDigest
// (pinned to zero, matching every scenario below where ST11..ST15 never
// carry a program digest preimage). Collapsing every challenge to a base
// value keeps the extension-field arithmetic equivalent to ordinary
// arithmetic mod the base prime, so expected results can be checked by hand.
func testChallenges() circuit.MapChallenges {
	base := core.DefaultPrimeField
	ext := core.NewXField(base)
	x := func(v uint64) *core.XFieldElement { return ext.FromBase(base.NewElementFromUint64(v)) }

	ch := circuit.MapChallenges{
		ChallengeStandardInputIndeterminate:             x(101),
		ChallengeStandardOutputIndeterminate:            x(103),
		ChallengeInstructionLookupIndeterminate:         x(107),
		ChallengeInstructionLookupIPWeight:               x(109),
		ChallengeInstructionLookupCIWeight:               x(113),
		ChallengeInstructionLookupNIAWeight:              x(127),
		ChallengeOpStackIndeterminate:                    x(131),
		ChallengeOpStackClkWeight:                        x(137),
		ChallengeOpStackIB1Weight:                        x(139),
		ChallengeOpStackPointerWeight:                    x(149),
		ChallengeOpStackFirstUnderflowWeight:             x(151),
		ChallengeRamIndeterminate:                        x(157),
		ChallengeRamClkWeight:                            x(163),
		ChallengeRamRampWeight:                           x(167),
		ChallengeRamRamvWeight:                           x(173),
		ChallengeRamPreviousInstructionWeight:            x(179),
		ChallengeJumpStackIndeterminate:                  x(181),
		ChallengeJumpStackClkWeight:                      x(191),
		ChallengeJumpStackCiWeight:                       x(193),
		ChallengeJumpStackJspWeight:                      x(197),
		ChallengeJumpStackJsoWeight:                      x(199),
		ChallengeJumpStackJsdWeight:                      x(211),
		ChallengeHashCIWeight:                            x(223),
		ChallengeHashInputIndeterminate:                  x(227),
		ChallengeHashDigestIndeterminate:                 x(229),
		ChallengeSpongeIndeterminate:                     x(233),
		ChallengeU32Indeterminate:                        x(239),
		ChallengeU32LhsWeight:                            x(241),
		ChallengeU32RhsWeight:                            x(251),
		ChallengeU32CiWeight:                             x(257),
		ChallengeU32ResultWeight:                         x(263),
		ChallengeClockJumpDifferenceLookupIndeterminate:  x(269),
		ChallengeCompressProgramDigestIndeterminate:      x(271),
		ChallengeCompressedProgramDigest:                 ext.Zero(),
	}
	hashStateWeights := [10]uint64{307, 311, 313, 317, 331, 337, 347, 349, 353, 359}
	for i, w := range hashStateWeights {
		ch[HashStateWeight(i)] = x(w)
	}
	return ch
}

// circuitRow reads row idx's full (base, ext) view directly out of the
// table's internal matrices, for EvalSingle.
func circuitRow(pt *ProcessorTableImpl, idx int) circuit.Row {
	return circuit.Row{Base: pt.rows[idx], Ext: pt.extRows[idx]}
}

// circuitRowPair reads the (idx, idx+1) dual-row view, for EvalPair.
func circuitRowPair(pt *ProcessorTableImpl, idx int) circuit.RowPair {
	return circuit.RowPair{
		CurrentBase: pt.rows[idx],
		NextBase:    pt.rows[idx+1],
		CurrentExt:  pt.extRows[idx],
		NextExt:     pt.extRows[idx+1],
	}
}

// requireCircuitsZeroSingle evaluates every circuit in cs against a single
// row (initial/consistency/terminal constraints) and fails the test at the
// first non-zero result, naming which constraint it came from.
func requireCircuitsZeroSingle(t *testing.T, ext *core.XField, cs []*circuit.Circuit, row circuit.Row, ch circuit.Challenges, label string) {
	t.Helper()
	for i, c := range cs {
		v, err := c.EvalSingle(ext, row, ch)
		require.NoErrorf(t, err, "%s constraint %d", label, i)
		require.Truef(t, v.IsZero(), "%s constraint %d evaluated to %v, want 0", label, i, v)
	}
}

// requireCircuitsZeroPair evaluates every circuit in cs against a current/
// next row pair (transition constraints) and fails the test the same way.
func requireCircuitsZeroPair(t *testing.T, ext *core.XField, cs []*circuit.Circuit, pair circuit.RowPair, ch circuit.Challenges, label string) {
	t.Helper()
	for i, c := range cs {
		v, err := c.EvalPair(ext, pair, ch)
		require.NoErrorf(t, err, "%s constraint %d", label, i)
		require.Truef(t, v.IsZero(), "%s constraint %d evaluated to %v, want 0", label, i, v)
	}
}

// TestProcessorBoundaryPushAddAssertHalt builds the trace for
// `push 2 push -1 add assert halt` row by row and checks every initial,
// consistency, transition and terminal constraint the Processor Table
// produces against it, including across the add/assert boundary.
func TestProcessorBoundaryPushAddAssertHalt(t *testing.T) {
	pt := NewProcessorTable()

	rows := []*Row{
		{CLK: 0, IP: 0, CI: uint64(Push), NIA: 2, OpStackPointer: stackDepth},
		{CLK: 1, IP: 2, CI: uint64(Push), NIA: negOneModP, PreviousInstruction: uint64(Push),
			Stack: stackWith(2), OpStackPointer: stackDepth + 1},
		{CLK: 2, IP: 4, CI: uint64(Add), NIA: uint64(Assert), PreviousInstruction: uint64(Push),
			Stack: stackWith(negOneModP, 2), OpStackPointer: stackDepth + 2,
			HV: [numHelperVariables]uint64{invTwoModP}},
		{CLK: 3, IP: 5, CI: uint64(Assert), NIA: uint64(Halt), PreviousInstruction: uint64(Add),
			Stack: stackWith(1), OpStackPointer: stackDepth + 1,
			HV: [numHelperVariables]uint64{1}},
		{CLK: 4, IP: 6, CI: uint64(Halt), NIA: 0, PreviousInstruction: uint64(Assert),
			Stack: stackWith(0), OpStackPointer: stackDepth},
	}
	for _, r := range rows {
		require.NoError(t, pt.AddRow(r))
	}

	ch := testChallenges()
	require.NoError(t, pt.Extend(ch))

	ext := core.NewXField(core.DefaultPrimeField)

	initial, err := pt.InitialCircuits()
	require.NoError(t, err)
	requireCircuitsZeroSingle(t, ext, initial, circuitRow(pt, 0), ch, "initial")

	consistency, err := pt.ConsistencyCircuits()
	require.NoError(t, err)
	for r := range rows {
		requireCircuitsZeroSingle(t, ext, consistency, circuitRow(pt, r), ch, "consistency")
	}

	transition, err := pt.TransitionCircuits()
	require.NoError(t, err)
	for r := 0; r < len(rows)-1; r++ {
		requireCircuitsZeroPair(t, ext, transition, circuitRowPair(pt, r), ch, "transition")
	}

	terminal, err := pt.TerminalCircuits()
	require.NoError(t, err)
	requireCircuitsZeroSingle(t, ext, terminal, circuitRow(pt, len(rows)-1), ch, "terminal")
}

// TestProcessorBoundaryPaddingCreditsClockJumpDifferenceMultiplicity pads a
// 5-row real trace to 8 rows and checks the real row whose CLK equals 1
// picks up the two satellite tables' combined clock-jump-difference lookup
// (2 padding rows * a jump magnitude of 3 clock cycles each = 6).
func TestProcessorBoundaryPaddingCreditsClockJumpDifferenceMultiplicity(t *testing.T) {
	pt := NewProcessorTable()
	rows := []*Row{
		{CLK: 0, IP: 0, CI: uint64(Push), NIA: 2, OpStackPointer: stackDepth},
		{CLK: 1, IP: 2, CI: uint64(Push), NIA: negOneModP, PreviousInstruction: uint64(Push),
			Stack: stackWith(2), OpStackPointer: stackDepth + 1},
		{CLK: 2, IP: 4, CI: uint64(Add), NIA: uint64(Assert), PreviousInstruction: uint64(Push),
			Stack: stackWith(negOneModP, 2), OpStackPointer: stackDepth + 2},
		{CLK: 3, IP: 5, CI: uint64(Assert), NIA: uint64(Halt), PreviousInstruction: uint64(Add),
			Stack: stackWith(1), OpStackPointer: stackDepth + 1},
		{CLK: 4, IP: 6, CI: uint64(Halt), NIA: 0, PreviousInstruction: uint64(Assert),
			Stack: stackWith(0), OpStackPointer: stackDepth},
	}
	for _, r := range rows {
		require.NoError(t, pt.AddRow(r))
	}

	require.NoError(t, pt.Pad(8))
	require.Equal(t, 8, pt.GetPaddedHeight())

	clk := pt.column(colCLK)
	mult := pt.column(colClockJumpDifferenceLookupMultiplicity)
	found := false
	for i := range clk {
		if clk[i].Big().Uint64() == 1 {
			found = true
			require.Equal(t, uint64(6), mult[i].Big().Uint64())
		}
	}
	require.True(t, found, "no row with CLK=1 found after padding")
}

// TestProcessorBoundaryDivModTransition isolates div_mod's transition
// constraint vector against `push 3 push 7 div_mod`: ST0=7 (dividend),
// ST1=3 (divisor), ST0'=1 (remainder), ST1'=2 (quotient), matching
// ST0 - ST1*ST1' - ST0' = 0.
func TestProcessorBoundaryDivModTransition(t *testing.T) {
	pt := NewProcessorTable()
	cur := &Row{CLK: 2, IP: 4, CI: uint64(DivMod), OpStackPointer: stackDepth, Stack: stackWith(7, 3)}
	next := &Row{CLK: 3, IP: 5, OpStackPointer: stackDepth, Stack: stackWith(1, 2)}
	require.NoError(t, pt.AddRow(cur))
	require.NoError(t, pt.AddRow(next))

	b := pt.Builder()
	cs := instructionTransitionCircuits(b, DivMod)
	ext := core.NewXField(core.DefaultPrimeField)
	requireCircuitsZeroPair(t, ext, cs, circuitRowPair(pt, 0), testChallenges(), "div_mod transition")
}

// TestProcessorBoundarySkizAdvancesByOneOnNonzero checks skiz's transition
// vector advances IP by one when ST0 != 0.
func TestProcessorBoundarySkizAdvancesByOneOnNonzero(t *testing.T) {
	invSt0, err := core.DefaultPrimeField.NewElementFromUint64(5).Inv()
	require.NoError(t, err)
	cur := &Row{CLK: 0, IP: 0, CI: uint64(Skiz), OpStackPointer: stackDepth, Stack: stackWith(5),
		HV: [numHelperVariables]uint64{0, invSt0.Big().Uint64()}}
	next := &Row{CLK: 1, IP: 1, OpStackPointer: stackDepth - 1}
	pt := NewProcessorTable()
	require.NoError(t, pt.AddRow(cur))
	require.NoError(t, pt.AddRow(next))

	b := pt.Builder()
	cs := instructionTransitionCircuits(b, Skiz)
	ext := core.NewXField(core.DefaultPrimeField)
	requireCircuitsZeroPair(t, ext, cs, circuitRowPair(pt, 0), testChallenges(), "skiz transition (nonzero)")
}

// TestProcessorBoundarySkizAdvancesByTwoOnZeroWithOneArgNext checks skiz's
// transition vector advances IP by two when ST0 = 0 and the next opcode
// (nia) has no inline argument (hv2 = 0 selects the "+2" branch).
func TestProcessorBoundarySkizAdvancesByTwoOnZeroWithOneArgNext(t *testing.T) {
	nia := uint64(Nop)
	// hv2=0 selects the "+2" branch; the unconditional NIA decomposition
	// nia = hv2 + 2*hv3 + 8*hv4 + 32*hv5 + 128*hv6 then forces
	// hv3 = nia * inverse(2) for nia = Nop's opcode (5).
	cur := &Row{CLK: 0, IP: 0, CI: uint64(Skiz), NIA: nia, OpStackPointer: stackDepth, Stack: stackWith(0),
		HV: [numHelperVariables]uint64{0, 0, 0, 1610612739, 0, 0, 0}}
	next := &Row{CLK: 1, IP: 2, OpStackPointer: stackDepth - 1}
	pt := NewProcessorTable()
	require.NoError(t, pt.AddRow(cur))
	require.NoError(t, pt.AddRow(next))

	b := pt.Builder()
	cs := instructionTransitionCircuits(b, Skiz)
	ext := core.NewXField(core.DefaultPrimeField)
	requireCircuitsZeroPair(t, ext, cs, circuitRowPair(pt, 0), testChallenges(), "skiz transition (zero, 1-arg next)")
}

// TestProcessorBoundarySkizAdvancesByThreeOnZeroWithTwoArgNext checks skiz's
// transition vector advances IP by three when ST0 = 0 and the next opcode
// has an inline argument (hv2 = 1 selects the "+3" branch).
func TestProcessorBoundarySkizAdvancesByThreeOnZeroWithTwoArgNext(t *testing.T) {
	nia := uint64(Push)
	cur := &Row{CLK: 0, IP: 0, CI: uint64(Skiz), NIA: nia, OpStackPointer: stackDepth, Stack: stackWith(0),
		HV: [numHelperVariables]uint64{0, 0, 1, 0, 0, 0, 0}}
	next := &Row{CLK: 1, IP: 3, OpStackPointer: stackDepth - 1}
	pt := NewProcessorTable()
	require.NoError(t, pt.AddRow(cur))
	require.NoError(t, pt.AddRow(next))

	b := pt.Builder()
	cs := instructionTransitionCircuits(b, Skiz)
	ext := core.NewXField(core.DefaultPrimeField)
	requireCircuitsZeroPair(t, ext, cs, circuitRowPair(pt, 0), testChallenges(), "skiz transition (zero, 2-arg next)")
}

// TestProcessorBoundarySplitLowBitsNonzero checks split's transition vector
// on ST0 = 0xFFFF_FFFF: the high word is zero (ST1' = 0), the low word is
// the input itself (ST0' = 0xFFFF_FFFF), and the inverse-or-zero witness
// HV0 satisfies the range constraint via the non-degenerate branch.
func TestProcessorBoundarySplitLowBitsNonzero(t *testing.T) {
	const allOnes = (uint64(1) << 32) - 1
	allOnesField := core.DefaultPrimeField.NewElementFromUint64(allOnes)
	diff := core.DefaultPrimeField.Zero().Sub(allOnesField)
	hv0, err := diff.Inv()
	require.NoError(t, err)

	cur := &Row{CLK: 0, IP: 0, CI: uint64(Split), OpStackPointer: stackDepth, Stack: stackWith(allOnes),
		HV: [numHelperVariables]uint64{hv0.Big().Uint64()}}
	next := &Row{CLK: 1, IP: 1, OpStackPointer: stackDepth + 1, Stack: stackWith(allOnes, 0)}
	pt := NewProcessorTable()
	require.NoError(t, pt.AddRow(cur))
	require.NoError(t, pt.AddRow(next))

	b := pt.Builder()
	cs := instructionTransitionCircuits(b, Split)
	ext := core.NewXField(core.DefaultPrimeField)
	requireCircuitsZeroPair(t, ext, cs, circuitRowPair(pt, 0), testChallenges(), "split transition")
}

// TestProcessorBoundaryDivModRejectsZeroDivisor checks the interpreter
// refuses to produce a trace for div_mod over an empty stack: a zero
// divisor is a hard error, not a silently-produced row.
func TestProcessorBoundaryDivModRejectsZeroDivisor(t *testing.T) {
	stack := make([]field.Element, 16)
	for i := range stack {
		stack[i] = field.Zero
	}
	vm := &VMState{
		Stack:        stack,
		StackPointer: 2,
	}
	err := vm.execDivMod()
	require.Error(t, err)
}

// stackWith builds a full 16-register stack literal with ST0..ST(len(vs)-1)
// set to vs, most-significant-first (vs[0] lands in ST0), and every
// remaining register left at zero.
func stackWith(vs ...uint64) [stackDepth]uint64 {
	var st [stackDepth]uint64
	copy(st[:], vs)
	return st
}
