package vm

import (
	"github.com/arclight-zk/airstark-vm/internal/starkvm/circuit"
)

// helperVariableDual returns the dual-row (current, next) pair of circuit
// references to HV_i, for transition-constraint subroutines that need both.
func helperVariableDual(b *circuit.Builder, i int) (curr, next *circuit.Circuit) {
	col := helperVariableColumn(i)
	return b.Input(circuit.CurrentBaseRow, col), b.Input(circuit.NextBaseRow, col)
}

// helperVariableCurrent returns the circuit reference to HV_i on the current
// row of a transition (dual-row) constraint. Every call site is a transition
// group or per-instruction case evaluated through EvalPair, never a
// single-row Initial/Consistency/Terminal circuit, so this reads through
// CurrentBaseRow rather than BaseRow.
func helperVariableCurrent(b *circuit.Builder, i int) *circuit.Circuit {
	return b.Input(circuit.CurrentBaseRow, helperVariableColumn(i))
}

// indicatorPolynomial returns the i-th 4-bit minterm over HV0..HV3
// (0 <= i < 16): the unique product of HV_k or (1-HV_k) literals that
// evaluates to 1 exactly when (HV0,HV1,HV2,HV3) is the binary expansion of
// i, and to 0 on every other assignment of the four bits.
func indicatorPolynomial(b *circuit.Builder, i int) *circuit.Circuit {
	if i < 0 || i >= 16 {
		panic("vm: indicator polynomial index out of range")
	}
	one := b.One()
	var product *circuit.Circuit
	for bit := 0; bit < 4; bit++ {
		hv := helperVariableCurrent(b, bit)
		var literal *circuit.Circuit
		if (i>>uint(bit))&1 == 1 {
			literal = hv
		} else {
			literal = one.Sub(hv)
		}
		if product == nil {
			product = literal
		} else {
			product = product.Mul(literal)
		}
	}
	return product
}

// opStackColumn returns the single-row circuit reference to ST_i.
func opStackColumn(b *circuit.Builder, i int) *circuit.Circuit {
	return b.Input(circuit.BaseRow, opStackColumnByIndex(i))
}

// opStackColumnDual returns the dual-row (current, next) pair for ST_i.
func opStackColumnDual(b *circuit.Builder, i int) (curr, next *circuit.Circuit) {
	col := opStackColumnByIndex(i)
	return b.Input(circuit.CurrentBaseRow, col), b.Input(circuit.NextBaseRow, col)
}

// opStackColumnCurrent returns the circuit reference to ST_i on the current
// row of a transition (dual-row) constraint. Every per-instruction
// transition case and stack-shape group reads ST_i this way, never through
// the single-row opStackColumn.
func opStackColumnCurrent(b *circuit.Builder, i int) *circuit.Circuit {
	curr, _ := opStackColumnDual(b, i)
	return curr
}

// InitialCircuits builds the row-0 constraint vector: every architectural
// register starts at zero except OpStackPointer (16) and the program-digest
// preimage in ST11..ST15, and every extension accumulator starts at its
// default initial value.
func (pt *ProcessorTableImpl) InitialCircuits() ([]*circuit.Circuit, error) {
	b := pt.Builder()
	zero := b.Zero()
	one := b.One()
	var cs []*circuit.Circuit

	assertZero := func(col int) {
		cs = append(cs, b.Input(circuit.BaseRow, col))
	}

	assertZero(colCLK)
	assertZero(colIP)
	assertZero(colPreviousInstruction)
	assertZero(colJSP)
	assertZero(colJSO)
	assertZero(colJSD)
	assertZero(colRAMP)
	assertZero(colIsPadding)
	assertZero(colClockJumpDifferenceLookupMultiplicity)
	for i := 0; i < 11; i++ {
		assertZero(opStackColumnByIndex(i))
	}

	// OpStackPointer = 16.
	cs = append(cs, b.Input(circuit.BaseRow, colOpStackPointer).Sub(b.BConstantU64(stackDepth)))

	// Program digest: ST11..ST15 compress via repeated Horner with
	// CompressProgramDigestIndeterminate into CompressedProgramDigest.
	indet := b.Challenge(ChallengeCompressProgramDigestIndeterminate)
	digest := b.Challenge(ChallengeCompressedProgramDigest)
	acc := zero
	for i := 11; i <= 15; i++ {
		acc = acc.Mul(indet).Add(opStackColumn(b, i))
	}
	cs = append(cs, acc.Sub(digest))

	// Extension accumulators default to their initial value, except
	// HashInputEvalArg/StandardOutput (selectors on whether row 0 itself
	// triggers them) and the RAM/Jump-Stack permutation arguments (one
	// factor applied once).
	assertExtDefault := func(col int, deflt *circuit.Circuit) {
		cs = append(cs, b.Input(circuit.ExtRow, col).Sub(deflt))
	}
	assertExtDefault(extInputTableEvalArg, one)
	assertExtDefault(extSpongeEvalArg, one)
	assertExtDefault(extU32LookupClientLogDerivative, zero)
	assertExtDefault(extClockJumpDifferenceLookupServerLogDerivative, zero)

	// StandardOutput: Extend()'s write_io check is not gated on hasPrev, so
	// row 0 itself can trigger it when the program's first instruction is
	// write_io.
	writesOutput0 := instructionIndicator(b, WriteIo, circuit.BaseRow)
	outputUpdated0 := b.Input(circuit.ExtRow, extOutputTableEvalArg).Sub(
		one.Mul(b.Challenge(ChallengeStandardOutputIndeterminate)).Add(opStackColumn(b, 0)))
	outputKept0 := b.Input(circuit.ExtRow, extOutputTableEvalArg).Sub(one)
	cs = append(cs, one.Sub(writesOutput0).Mul(outputKept0).Add(writesOutput0.Mul(outputUpdated0)))

	// InstructionLookupClientLogDerivative: row 0 is never padding on a
	// non-empty trace, so Extend() already folds in its own (IP, CI, NIA)
	// lookup term there, landing on 1/(indeterminate - compressed_row), not
	// on the log derivative's zero default. A literal-zero assertion would
	// fail on every legal trace, so this is asserted in the rational form
	// that also avoids an in-circuit inverse: (ext_row - default) *
	// (indeterminate - compressed_row) - 1 = 0.
	lookupCompressed0 := b.Input(circuit.BaseRow, colIP).Mul(b.Challenge(ChallengeInstructionLookupIPWeight)).
		Add(b.Input(circuit.BaseRow, colCI).Mul(b.Challenge(ChallengeInstructionLookupCIWeight))).
		Add(b.Input(circuit.BaseRow, colNIA).Mul(b.Challenge(ChallengeInstructionLookupNIAWeight)))
	lookupDenom0 := b.Challenge(ChallengeInstructionLookupIndeterminate).Sub(lookupCompressed0)
	cs = append(cs, b.Input(circuit.ExtRow, extInstructionLookupClientLogDerivative).Sub(zero).Mul(lookupDenom0).Sub(one))

	// HashInputEvalArg: remains the default (1) unless row 0 itself executes
	// hash, in which case it has already absorbed ST0..ST9 via the same
	// Horner-style update (eval := eval * indeterminate + value) the
	// transition constraints use, starting from the default value 1.
	// hashIndicator is 1 when CI decodes to Hash.opcode and 0 on every other
	// instruction, so it can gate the two branches directly.
	hashCombo := zero
	for i := 0; i < 10; i++ {
		hashCombo = hashCombo.Add(opStackColumn(b, i).Mul(b.Challenge(HashStateWeight(i))))
	}
	hashIndicator0 := hashIndicatorFromBits(b)
	hashInputUpdated0 := b.Input(circuit.ExtRow, extHashInputEvalArg).Sub(one.Mul(b.Challenge(ChallengeHashInputIndeterminate)).Add(hashCombo))
	hashInputKept0 := b.Input(circuit.ExtRow, extHashInputEvalArg).Sub(one)
	cs = append(cs, one.Sub(hashIndicator0).Mul(hashInputKept0).Add(hashIndicator0.Mul(hashInputUpdated0)))

	// RAM / Jump-Stack permutation arguments: one factor applied once at row 0.
	ramTerm := b.Input(circuit.BaseRow, colCLK).Mul(b.Challenge(ChallengeRamClkWeight)).
		Add(b.Input(circuit.BaseRow, colRAMP).Mul(b.Challenge(ChallengeRamRampWeight))).
		Add(b.Input(circuit.BaseRow, colRAMV).Mul(b.Challenge(ChallengeRamRamvWeight))).
		Add(b.Input(circuit.BaseRow, colPreviousInstruction).Mul(b.Challenge(ChallengeRamPreviousInstructionWeight)))
	cs = append(cs, b.Input(circuit.ExtRow, extRamTablePermArg).Sub(b.Challenge(ChallengeRamIndeterminate).Sub(ramTerm)))

	jsTerm := b.Input(circuit.BaseRow, colCLK).Mul(b.Challenge(ChallengeJumpStackClkWeight)).
		Add(b.Input(circuit.BaseRow, colCI).Mul(b.Challenge(ChallengeJumpStackCiWeight))).
		Add(b.Input(circuit.BaseRow, colJSP).Mul(b.Challenge(ChallengeJumpStackJspWeight))).
		Add(b.Input(circuit.BaseRow, colJSO).Mul(b.Challenge(ChallengeJumpStackJsoWeight))).
		Add(b.Input(circuit.BaseRow, colJSD).Mul(b.Challenge(ChallengeJumpStackJsdWeight)))
	cs = append(cs, b.Input(circuit.ExtRow, extJumpStackTablePermArg).Sub(b.Challenge(ChallengeJumpStackIndeterminate).Sub(jsTerm)))

	// Op-Stack permutation argument starts at the identity: no previous row
	// exists at row 0, so its factor is 1 by construction (§4.4).
	assertExtDefault(extOpStackTablePermArg, one)

	// Hash-Digest is never absorbed before any row has executed hash, so it
	// too starts at the default evaluation-argument value.
	assertExtDefault(extHashDigestEvalArg, one)

	return cs, nil
}

// instructionIndicator builds a {0,1}-valued indicator that the row
// referenced through loc executes instr, from its IB0..IB7: the product,
// over every bit position, of the literal matching instr's bit pattern.
// Unlike deselectorCurr/deselectorNext (which are merely non-zero on a
// match), this evaluates to exactly 1 on a match and exactly 0 otherwise,
// so it can gate a two-branch update directly: (1-ind)*A + ind*B.
func instructionIndicator(b *circuit.Builder, instr Instruction, loc circuit.Locator) *circuit.Circuit {
	one := b.One()
	bits := instr.Bits()
	var product *circuit.Circuit
	for i := 0; i < NumInstructionBits; i++ {
		ib := b.Input(loc, instructionBitColumn(i))
		var literal *circuit.Circuit
		if bits[i] == 1 {
			literal = ib
		} else {
			literal = one.Sub(ib)
		}
		if product == nil {
			product = literal
		} else {
			product = product.Mul(literal)
		}
	}
	return product
}

// hashIndicatorFromBits is instructionIndicator specialized to Hash over the
// single row under evaluation, used by InitialCircuits.
func hashIndicatorFromBits(b *circuit.Builder) *circuit.Circuit {
	return instructionIndicator(b, Hash, circuit.BaseRow)
}

// ConsistencyCircuits builds the within-row constraint vector.
func (pt *ProcessorTableImpl) ConsistencyCircuits() ([]*circuit.Circuit, error) {
	b := pt.Builder()
	one := b.One()
	var cs []*circuit.Circuit

	binary := func(c *circuit.Circuit) {
		cs = append(cs, c.Mul(one.Sub(c)))
	}

	for i := 0; i < NumInstructionBits; i++ {
		binary(b.Input(circuit.BaseRow, instructionBitColumn(i)))
	}
	binary(b.Input(circuit.BaseRow, colIsPadding))

	// CI = sum 2^i IB_i.
	ci := b.Input(circuit.BaseRow, colCI)
	sum := b.Zero()
	for i := 0; i < NumInstructionBits; i++ {
		sum = sum.Add(b.Input(circuit.BaseRow, instructionBitColumn(i)).Mul(b.BConstantU64(uint64(1) << uint(i))))
	}
	cs = append(cs, ci.Sub(sum))

	// IsPadding * (CLK - 1) * ClockJumpDifferenceLookupMultiplicity = 0.
	isPadding := b.Input(circuit.BaseRow, colIsPadding)
	clkMinus1 := b.Input(circuit.BaseRow, colCLK).Sub(one)
	mult := b.Input(circuit.BaseRow, colClockJumpDifferenceLookupMultiplicity)
	cs = append(cs, isPadding.Mul(clkMinus1).Mul(mult))

	return cs, nil
}

// TerminalCircuits builds the last-row constraint vector: the program must
// have halted.
func (pt *ProcessorTableImpl) TerminalCircuits() ([]*circuit.Circuit, error) {
	b := pt.Builder()
	ci := b.Input(circuit.BaseRow, colCI)
	return []*circuit.Circuit{ci.Sub(b.BConstantU64(uint64(Halt)))}, nil
}
