package vm

import "github.com/arclight-zk/airstark-vm/internal/starkvm/circuit"

// Instruction groups: reusable sub-vectors of transition constraints shared
// across many instructions. Each returns its polynomials as a slice so
// per-instruction subroutines can concatenate them positionally before
// deselector fusion.

// step1 asserts IP advances by one word and the jump stack is unchanged.
func step1(b *circuit.Builder) []*circuit.Circuit {
	return append([]*circuit.Circuit{ipAdvancesBy(b, 1)}, keepJumpStack(b)...)
}

// step2 asserts IP advances by two words (one inline argument) and the jump
// stack is unchanged.
func step2(b *circuit.Builder) []*circuit.Circuit {
	return append([]*circuit.Circuit{ipAdvancesBy(b, 2)}, keepJumpStack(b)...)
}

func ipAdvancesBy(b *circuit.Builder, n uint64) *circuit.Circuit {
	ip := b.Input(circuit.CurrentBaseRow, colIP)
	ipNext := b.Input(circuit.NextBaseRow, colIP)
	return ipNext.Sub(ip.Add(b.BConstantU64(n)))
}

func keepJumpStack(b *circuit.Builder) []*circuit.Circuit {
	keep := func(col int) *circuit.Circuit {
		return b.Input(circuit.NextBaseRow, col).Sub(b.Input(circuit.CurrentBaseRow, col))
	}
	return []*circuit.Circuit{keep(colJSP), keep(colJSO), keep(colJSD)}
}

func keepRAM(b *circuit.Builder) []*circuit.Circuit {
	keep := func(col int) *circuit.Circuit {
		return b.Input(circuit.NextBaseRow, col).Sub(b.Input(circuit.CurrentBaseRow, col))
	}
	return []*circuit.Circuit{keep(colRAMP), keep(colRAMV)}
}

// keepOpStack asserts every ST register and OpStackPointer are unchanged.
func keepOpStack(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 0; i < stackDepth; i++ {
		curr, next := opStackColumnDual(b, i)
		cs = append(cs, next.Sub(curr))
	}
	cs = append(cs, b.Input(circuit.NextBaseRow, colOpStackPointer).Sub(b.Input(circuit.CurrentBaseRow, colOpStackPointer)))
	return cs
}

// keepOpStackExcept asserts every ST register and the pointer are unchanged
// except the columns listed in skip, by opStackColumnByIndex argument.
func keepOpStackExcept(b *circuit.Builder, skip ...int) []*circuit.Circuit {
	skipSet := make(map[int]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}
	var cs []*circuit.Circuit
	for i := 0; i < stackDepth; i++ {
		if skipSet[i] {
			continue
		}
		curr, next := opStackColumnDual(b, i)
		cs = append(cs, next.Sub(curr))
	}
	return cs
}

// growOpStack asserts the stack grows by one: every register shifts up,
// ST0' is left to the caller (the newly pushed/derived value), the pointer
// increments, and the op-stack permutation argument absorbs the vacated
// top-of-underflow element.
func growOpStack(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 0; i < 15; i++ {
		curr := opStackColumnCurrent(b, i)
		_, next := opStackColumnDual(b, i+1)
		cs = append(cs, next.Sub(curr))
	}
	ptr := b.Input(circuit.CurrentBaseRow, colOpStackPointer)
	ptrNext := b.Input(circuit.NextBaseRow, colOpStackPointer)
	cs = append(cs, ptrNext.Sub(ptr.Add(b.One())))
	return cs
}

// growOpStackTopTwoUnconstrained is growOpStack's variant for instructions
// that compute both ST0' and ST1' themselves (split's hi/lo decomposition):
// ST2'..ST15' still shift up from ST1..ST14 and the pointer increments, but
// the top two registers are left entirely to the caller. Using the full
// growOpStack here would additionally force next(ST1) = curr(ST0), which
// contradicts split's own decomposition for any non-degenerate input.
func growOpStackTopTwoUnconstrained(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 1; i < 15; i++ {
		curr := opStackColumnCurrent(b, i)
		_, next := opStackColumnDual(b, i+1)
		cs = append(cs, next.Sub(curr))
	}
	ptr := b.Input(circuit.CurrentBaseRow, colOpStackPointer)
	ptrNext := b.Input(circuit.NextBaseRow, colOpStackPointer)
	cs = append(cs, ptrNext.Sub(ptr.Add(b.One())))
	return cs
}

// opStackRemainsTopElevenUnconstrained asserts the pointer is unchanged and
// ST11'..ST15' hold their previous values, leaving ST0'..ST10' entirely to
// the caller. divine_sibling reshuffles its top two pentuplets and shifts
// ST10 by one bit without growing or shrinking the stack, so neither
// growOpStack nor shrinkOpStack apply.
func opStackRemainsTopElevenUnconstrained(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 11; i < stackDepth; i++ {
		curr, next := opStackColumnDual(b, i)
		cs = append(cs, next.Sub(curr))
	}
	cs = append(cs, b.Input(circuit.NextBaseRow, colOpStackPointer).Sub(b.Input(circuit.CurrentBaseRow, colOpStackPointer)))
	return cs
}

// shrinkOpStack asserts the stack shrinks by one: every register shifts
// down, the pointer decrements, the underflow witness holds, and the
// op-stack permutation argument absorbs the newly exposed underflow element.
func shrinkOpStack(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 0; i < 15; i++ {
		curr := opStackColumnCurrent(b, i+1)
		next := b.Input(circuit.NextBaseRow, opStackColumnByIndex(i))
		cs = append(cs, next.Sub(curr))
	}
	ptr := b.Input(circuit.CurrentBaseRow, colOpStackPointer)
	ptrNext := b.Input(circuit.NextBaseRow, colOpStackPointer)
	cs = append(cs, ptr.Sub(ptrNext.Add(b.One())))

	// Underflow witness: (OpStackPointer - 16) * HV0 = 1, guards against
	// shrinking past the physical stack floor.
	hv0 := helperVariableCurrent(b, 0)
	cs = append(cs, ptr.Sub(b.BConstantU64(stackDepth)).Mul(hv0).Sub(b.One()))
	return cs
}

// shrinkOpStackBinop is shrinkOpStack's variant for binary operations that
// compute their own new top-of-stack value (add, mul, eq, lt, and, xor,
// pow): ST1'..ST14' still shift down from ST2..ST15, the pointer decrements
// and the underflow witness holds exactly as in shrinkOpStack, but ST0' is
// left unconstrained by this group for the caller's own constraint (or, for
// lt/and/xor/pow, for the U32 lookup argument) to pin down. Using the full
// shrinkOpStack for these instructions asserts next(ST0) = curr(ST1), which
// contradicts a binop's own result constraint for any non-degenerate input.
func shrinkOpStackBinop(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 1; i < 15; i++ {
		curr := opStackColumnCurrent(b, i+1)
		next := b.Input(circuit.NextBaseRow, opStackColumnByIndex(i))
		cs = append(cs, next.Sub(curr))
	}
	ptr := b.Input(circuit.CurrentBaseRow, colOpStackPointer)
	ptrNext := b.Input(circuit.NextBaseRow, colOpStackPointer)
	cs = append(cs, ptr.Sub(ptrNext.Add(b.One())))

	hv0 := helperVariableCurrent(b, 0)
	cs = append(cs, ptr.Sub(b.BConstantU64(stackDepth)).Mul(hv0).Sub(b.One()))
	return cs
}

// shrinkOpStackTopThreeUnconstrained is shrinkOpStack's variant for
// instructions that compute all three of ST0', ST1' and ST2' themselves
// (xb_mul's scalar multiplication touches all three): only ST3'..ST14'
// shift down from ST4..ST15, the pointer decrements and the underflow
// witness holds, and the top three registers are left entirely to the
// caller.
func shrinkOpStackTopThreeUnconstrained(b *circuit.Builder) []*circuit.Circuit {
	var cs []*circuit.Circuit
	for i := 3; i < 15; i++ {
		curr := opStackColumnCurrent(b, i+1)
		next := b.Input(circuit.NextBaseRow, opStackColumnByIndex(i))
		cs = append(cs, next.Sub(curr))
	}
	ptr := b.Input(circuit.CurrentBaseRow, colOpStackPointer)
	ptrNext := b.Input(circuit.NextBaseRow, colOpStackPointer)
	cs = append(cs, ptr.Sub(ptrNext.Add(b.One())))

	hv0 := helperVariableCurrent(b, 0)
	cs = append(cs, ptr.Sub(b.BConstantU64(stackDepth)).Mul(hv0).Sub(b.One()))
	return cs
}

// decomposeArg asserts HV0..HV3 are bits and NIA decodes to their little
// endian value, used by dup/swap's inline argument.
func decomposeArg(b *circuit.Builder) []*circuit.Circuit {
	one := b.One()
	var cs []*circuit.Circuit
	sum := b.Zero()
	for i := 0; i < 4; i++ {
		hv := helperVariableCurrent(b, i)
		cs = append(cs, hv.Mul(one.Sub(hv)))
		sum = sum.Add(hv.Mul(b.BConstantU64(uint64(1) << uint(i))))
	}
	nia := b.Input(circuit.CurrentBaseRow, colNIA)
	cs = append(cs, nia.Sub(sum))
	return cs
}
