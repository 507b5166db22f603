package vm

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/circuit"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
)

// circuitChallenges narrows circuit.Challenges to the single named lookup
// the trace extender and the op-stack factor need, under the name `get`
// rather than `Get` so call sites here read as internal plumbing rather
// than the public circuit-IR surface.
type circuitChallenges struct {
	inner circuit.Challenges
}

func (c circuitChallenges) get(name string) (*core.XFieldElement, error) {
	return c.inner.Get(name)
}

// Extend computes the eleven extension columns from the (already padded)
// base trace and a sampled challenge bundle. It is a single left-to-right
// sweep with no suspension points, matching the sequential-by-construction
// nature of a running accumulator.
func (pt *ProcessorTableImpl) Extend(challenges circuit.Challenges) error {
	if pt.height == 0 {
		return fmt.Errorf("processor table: cannot extend an empty trace")
	}
	ch := circuitChallenges{inner: challenges}
	ext := pt.ext

	inputIndet, err := ch.get(ChallengeStandardInputIndeterminate)
	if err != nil {
		return err
	}
	outputIndet, err := ch.get(ChallengeStandardOutputIndeterminate)
	if err != nil {
		return err
	}
	lookupIndet, err := ch.get(ChallengeInstructionLookupIndeterminate)
	if err != nil {
		return err
	}
	lookupIPWeight, err := ch.get(ChallengeInstructionLookupIPWeight)
	if err != nil {
		return err
	}
	lookupCIWeight, err := ch.get(ChallengeInstructionLookupCIWeight)
	if err != nil {
		return err
	}
	lookupNIAWeight, err := ch.get(ChallengeInstructionLookupNIAWeight)
	if err != nil {
		return err
	}
	ramIndet, err := ch.get(ChallengeRamIndeterminate)
	if err != nil {
		return err
	}
	ramClkW, err := ch.get(ChallengeRamClkWeight)
	if err != nil {
		return err
	}
	ramRampW, err := ch.get(ChallengeRamRampWeight)
	if err != nil {
		return err
	}
	ramRamvW, err := ch.get(ChallengeRamRamvWeight)
	if err != nil {
		return err
	}
	ramPrevInstrW, err := ch.get(ChallengeRamPreviousInstructionWeight)
	if err != nil {
		return err
	}
	jsIndet, err := ch.get(ChallengeJumpStackIndeterminate)
	if err != nil {
		return err
	}
	jsClkW, err := ch.get(ChallengeJumpStackClkWeight)
	if err != nil {
		return err
	}
	jsCiW, err := ch.get(ChallengeJumpStackCiWeight)
	if err != nil {
		return err
	}
	jsJspW, err := ch.get(ChallengeJumpStackJspWeight)
	if err != nil {
		return err
	}
	jsJsoW, err := ch.get(ChallengeJumpStackJsoWeight)
	if err != nil {
		return err
	}
	jsJsdW, err := ch.get(ChallengeJumpStackJsdWeight)
	if err != nil {
		return err
	}
	hashCIWeight, err := ch.get(ChallengeHashCIWeight)
	if err != nil {
		return err
	}
	var hashStateWeights [10]*core.XFieldElement
	for i := 0; i < 10; i++ {
		hashStateWeights[i], err = ch.get(HashStateWeight(i))
		if err != nil {
			return err
		}
	}
	cjdIndet, err := ch.get(ChallengeClockJumpDifferenceLookupIndeterminate)
	if err != nil {
		return err
	}
	hashInputIndet, err := ch.get(ChallengeHashInputIndeterminate)
	if err != nil {
		return err
	}
	hashDigestIndet, err := ch.get(ChallengeHashDigestIndeterminate)
	if err != nil {
		return err
	}
	spongeIndet, err := ch.get(ChallengeSpongeIndeterminate)
	if err != nil {
		return err
	}

	pt.extRows = make([][]*core.XFieldElement, pt.height)

	evalDefault := ext.One()
	permDefault := ext.One()
	logDerivDefault := ext.Zero()

	inputEval := evalDefault
	outputEval := evalDefault
	instrLookupLogDeriv := logDerivDefault
	opStackPerm := permDefault
	ramPerm := permDefault
	jumpStackPerm := permDefault
	hashInputEval := evalDefault
	hashDigestEval := evalDefault
	spongeEval := evalDefault
	u32LogDeriv := logDerivDefault
	cjdServerLogDeriv := logDerivDefault

	for r := 0; r < pt.height; r++ {
		cur := pt.rows[r]
		var prev []*core.FieldElement
		hasPrev := r > 0
		if hasPrev {
			prev = pt.rows[r-1]
		}

		// StandardInput: triggered by the *previous* row reading an input word.
		if hasPrev && prev[colCI].Big().Uint64() == uint64(ReadIo) {
			inputEval = inputEval.Mul(inputIndet).Add(ext.FromBase(cur[colST0]))
		}
		// StandardOutput: triggered by the current row writing an output word.
		if cur[colCI].Big().Uint64() == uint64(WriteIo) {
			outputEval = outputEval.Mul(outputIndet).Add(ext.FromBase(cur[colST0]))
		}
		// Instruction lookup: every non-padding row looks up (IP, CI, NIA).
		if cur[colIsPadding].IsZero() {
			compressed := ext.FromBase(cur[colIP]).Mul(lookupIPWeight).
				Add(ext.FromBase(cur[colCI]).Mul(lookupCIWeight)).
				Add(ext.FromBase(cur[colNIA]).Mul(lookupNIAWeight))
			denom := lookupIndet.Sub(compressed)
			inv, err := denom.Inv()
			if err != nil {
				return fmt.Errorf("processor table: instruction lookup denominator vanished at row %d: %w", r, err)
			}
			instrLookupLogDeriv = instrLookupLogDeriv.Add(inv)
		}
		// Op-Stack permutation.
		factor, err := pt.opStackPermutationFactor(ch, cur, prev, hasPrev)
		if err != nil {
			return err
		}
		opStackPerm = opStackPerm.Mul(factor)

		// RAM permutation, every row.
		ramTerm := ext.FromBase(cur[colCLK]).Mul(ramClkW).
			Add(ext.FromBase(cur[colRAMP]).Mul(ramRampW)).
			Add(ext.FromBase(cur[colRAMV]).Mul(ramRamvW)).
			Add(ext.FromBase(cur[colPreviousInstruction]).Mul(ramPrevInstrW))
		ramPerm = ramPerm.Mul(ramIndet.Sub(ramTerm))

		// Jump-Stack permutation, every row.
		jsTerm := ext.FromBase(cur[colCLK]).Mul(jsClkW).
			Add(ext.FromBase(cur[colCI]).Mul(jsCiW)).
			Add(ext.FromBase(cur[colJSP]).Mul(jsJspW)).
			Add(ext.FromBase(cur[colJSO]).Mul(jsJsoW)).
			Add(ext.FromBase(cur[colJSD]).Mul(jsJsdW))
		jumpStackPerm = jumpStackPerm.Mul(jsIndet.Sub(jsTerm))

		// Hash-Input: absorbed when the current row executes hash, via the
		// Horner-style evaluation argument eval := eval * indeterminate + value.
		if cur[colCI].Big().Uint64() == uint64(Hash) {
			var combo *core.XFieldElement = ext.Zero()
			for i := 0; i < 10; i++ {
				combo = combo.Add(ext.FromBase(cur[opStackColumnByIndex(i)]).Mul(hashStateWeights[i]))
			}
			hashInputEval = hashInputEval.Mul(hashInputIndet).Add(combo)
		}
		// Hash-Digest: absorbed when the previous row executed hash.
		if hasPrev && prev[colCI].Big().Uint64() == uint64(Hash) {
			var combo *core.XFieldElement = ext.Zero()
			for i := 0; i < 5; i++ {
				combo = combo.Add(ext.FromBase(cur[opStackColumnByIndex(5+i)]).Mul(hashStateWeights[i]))
			}
			hashDigestEval = hashDigestEval.Mul(hashDigestIndet).Add(combo)
		}
		// Sponge: dispatched on the previous row's instruction.
		if hasPrev {
			prevCI := prev[colCI].Big().Uint64()
			switch Instruction(prevCI) {
			case SpongeInit:
				spongeEval = spongeEval.Mul(spongeIndet).Add(hashCIWeight.MulBase(prev[colCI]))
			case SpongeAbsorb, SpongeSqueeze:
				combo := hashCIWeight.MulBase(prev[colCI])
				for i := 0; i < 10; i++ {
					combo = combo.Add(ext.FromBase(cur[opStackColumnByIndex(i)]).Mul(hashStateWeights[i]))
				}
				spongeEval = spongeEval.Mul(spongeIndet).Add(combo)
			}
		}
		// U32 lookup: dispatched on the previous row's instruction family.
		if hasPrev {
			terms, err := u32CompressedRows(ch, prev, cur)
			if err != nil {
				return err
			}
			for _, t := range terms {
				inv, err := t.Inv()
				if err != nil {
					return fmt.Errorf("processor table: u32 lookup denominator vanished at row %d: %w", r, err)
				}
				u32LogDeriv = u32LogDeriv.Add(inv)
			}
		}
		// Clock-jump-difference server: every row contributes its own multiplicity.
		denom := cjdIndet.Sub(ext.FromBase(cur[colCLK]))
		inv, err := denom.Inv()
		if err != nil {
			return fmt.Errorf("processor table: clock jump diff denominator vanished at row %d: %w", r, err)
		}
		cjdServerLogDeriv = cjdServerLogDeriv.Add(inv.MulBase(cur[colClockJumpDifferenceLookupMultiplicity]))

		row := make([]*core.XFieldElement, extWidth)
		row[extInputTableEvalArg] = inputEval
		row[extOutputTableEvalArg] = outputEval
		row[extInstructionLookupClientLogDerivative] = instrLookupLogDeriv
		row[extOpStackTablePermArg] = opStackPerm
		row[extRamTablePermArg] = ramPerm
		row[extJumpStackTablePermArg] = jumpStackPerm
		row[extHashInputEvalArg] = hashInputEval
		row[extHashDigestEvalArg] = hashDigestEval
		row[extSpongeEvalArg] = spongeEval
		row[extU32LookupClientLogDerivative] = u32LogDeriv
		row[extClockJumpDifferenceLookupServerLogDerivative] = cjdServerLogDeriv
		pt.extRows[r] = row
	}

	return nil
}

// u32CompressedRows returns the (one or two, for div_mod) compressed-row
// denominators the previous row's instruction contributes to the U32 log
// derivative lookup, per the §4.3 compression table. Instructions outside
// the U32 family contribute nothing.
func u32CompressedRows(ch circuitChallenges, prev, cur []*core.FieldElement) ([]*core.XFieldElement, error) {
	ext := prevFieldOf(prev)
	indet, err := ch.get(ChallengeU32Indeterminate)
	if err != nil {
		return nil, err
	}
	l, err := ch.get(ChallengeU32LhsWeight)
	if err != nil {
		return nil, err
	}
	rW, err := ch.get(ChallengeU32RhsWeight)
	if err != nil {
		return nil, err
	}
	c, err := ch.get(ChallengeU32CiWeight)
	if err != nil {
		return nil, err
	}
	res, err := ch.get(ChallengeU32ResultWeight)
	if err != nil {
		return nil, err
	}

	st0 := func(row []*core.FieldElement) *core.XFieldElement { return ext.FromBase(row[colST0]) }
	st1 := func(row []*core.FieldElement) *core.XFieldElement { return ext.FromBase(row[colST1]) }
	ci := func(row []*core.FieldElement) *core.XFieldElement { return ext.FromBase(row[colCI]) }

	switch Instruction(prev[colCI].Big().Uint64()) {
	case Split:
		t := st0(cur).Mul(l).Add(st1(cur).Mul(rW)).Add(ci(prev).Mul(c))
		return []*core.XFieldElement{indet.Sub(t)}, nil
	case Lt, And, Pow:
		t := st0(prev).Mul(l).Add(st1(prev).Mul(rW)).Add(ci(prev).Mul(c)).Add(st0(cur).Mul(res))
		return []*core.XFieldElement{indet.Sub(t)}, nil
	case Xor:
		andOpcode := ext.FromBase(ext.Base().NewElementFromUint64(uint64(And)))
		two := ext.Base().NewElementFromUint64(2)
		sum := prev[colST0].Add(prev[colST1])
		diff := sum.Sub(cur[colST0])
		invTwo, err := two.Inv()
		if err != nil {
			return nil, fmt.Errorf("u32 xor compression: %w", err)
		}
		half := ext.FromBase(diff.Mul(invTwo))
		t := st0(prev).Mul(l).Add(st1(prev).Mul(rW)).Add(andOpcode.Mul(c)).Add(half.Mul(res))
		return []*core.XFieldElement{indet.Sub(t)}, nil
	case Log2Floor, PopCount:
		t := st0(prev).Mul(l).Add(ci(prev).Mul(c)).Add(st0(cur).Mul(res))
		return []*core.XFieldElement{indet.Sub(t)}, nil
	case DivMod:
		one := ext.One()
		ltTerm := st0(cur).Mul(l).Add(st1(prev).Mul(rW)).Add(ci(prevLtMarker(prev)).Mul(c)).Add(one.Mul(res))
		splitTerm := st0(prev).Mul(l).Add(st1(cur).Mul(rW)).Add(ci(prevSplitMarker(prev)).Mul(c))
		return []*core.XFieldElement{indet.Sub(ltTerm), indet.Sub(splitTerm)}, nil
	default:
		return nil, nil
	}
}

// prevFieldOf recovers the extension field from any row slice via its base
// column values; every FieldElement in a row shares the same *core.Field,
// so the zero column is a convenient handle.
func prevFieldOf(row []*core.FieldElement) *core.XField {
	return core.NewXField(row[colCLK].Field())
}

// prevLtMarker / prevSplitMarker stand in for the synthetic Lt/Split opcode
// used to compress div_mod's two constituent lookups; div_mod itself
// decomposes into "as if Lt" and "as if Split" rows sharing the real row's
// other columns, so only the CI slot is substituted.
func prevLtMarker(row []*core.FieldElement) []*core.FieldElement {
	marker := append([]*core.FieldElement(nil), row...)
	marker[colCI] = row[colCI].Field().NewElementFromUint64(uint64(Lt))
	return marker
}

func prevSplitMarker(row []*core.FieldElement) []*core.FieldElement {
	marker := append([]*core.FieldElement(nil), row...)
	marker[colCI] = row[colCI].Field().NewElementFromUint64(uint64(Split))
	return marker
}
