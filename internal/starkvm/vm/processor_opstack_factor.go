package vm

import "github.com/arclight-zk/airstark-vm/internal/starkvm/core"

// opStackPermutationFactor computes the multiplicative factor that row r
// contributes to OpStackTablePermArg, per the §4.4 derivation: decode the
// previous row's instruction, walk the underflow elements it touches, and
// fold each one into the running product against the OpStack challenges.
//
// On padding rows, on the very first row (no previous row), or when the
// previous row's CI does not decode to a legal opcode (which can only
// happen in padding scratch), the factor is the multiplicative identity.
func (pt *ProcessorTableImpl) opStackPermutationFactor(ch circuitChallenges, curRow, prevRow []*core.FieldElement, hasPrev bool) (*core.XFieldElement, error) {
	one := pt.ext.One()
	if !hasPrev || curRow[colIsPadding].IsOne() {
		return one, nil
	}

	prevCI := prevRow[colCI]
	instr, err := DecodeInstruction(uint8(prevCI.Big().Uint64()))
	if err != nil {
		return one, nil
	}
	info := instr.Info()

	delta := info.StackEffect
	if delta < 0 {
		delta = -delta
	}

	var shorter []*core.FieldElement
	if info.Grows() {
		shorter = prevRow
	} else {
		shorter = curRow
	}

	indeterminate, err := ch.get(ChallengeOpStackIndeterminate)
	if err != nil {
		return nil, err
	}
	wClk, err := ch.get(ChallengeOpStackClkWeight)
	if err != nil {
		return nil, err
	}
	wIB1, err := ch.get(ChallengeOpStackIB1Weight)
	if err != nil {
		return nil, err
	}
	wPtr, err := ch.get(ChallengeOpStackPointerWeight)
	if err != nil {
		return nil, err
	}
	wUF, err := ch.get(ChallengeOpStackFirstUnderflowWeight)
	if err != nil {
		return nil, err
	}

	prevCLK := pt.ext.FromBase(prevRow[colCLK])
	prevIB1 := pt.ext.FromBase(prevRow[colIB1])
	shorterPtr := shorter[colOpStackPointer].Big().Uint64()

	factor := one
	for offset := 0; offset < int(delta); offset++ {
		underflowCol := opStackColumnByIndex(15 - offset)
		underflow := pt.ext.FromBase(shorter[underflowCol])
		offsetPointer := pt.ext.FromBase(pt.base.NewElementFromUint64(shorterPtr + uint64(offset)))

		term := prevCLK.Mul(wClk).
			Add(prevIB1.Mul(wIB1)).
			Add(offsetPointer.Mul(wPtr)).
			Add(underflow.Mul(wUF))
		factor = factor.Mul(indeterminate.Sub(term))
	}
	return factor, nil
}
