// Package vm provides the processor's instruction set architecture: the
// enumerated opcodes, their 8-bit decomposition into IB0..IB7, and the
// operand-stack size delta each instruction contributes.
package vm

import "fmt"

// Instruction identifies one opcode of the processor's instruction set.
type Instruction uint8

// The processor instruction set. Every instruction carries an opcode in
// [0, 38) whose bits populate IB0 (least significant) through IB7 (most
// significant) in the base trace; CI always equals the opcode of the
// instruction executing in that row.
const (
	Pop Instruction = iota
	Push
	Divine
	Dup
	Swap
	Nop
	Skiz
	Call
	Return
	Recurse
	Assert
	Halt
	ReadMem
	WriteMem
	Hash
	DivineSibling
	AssertVector
	SpongeInit
	SpongeAbsorb
	SpongeSqueeze
	Add
	Mul
	Invert
	Eq
	Split
	Lt
	And
	Xor
	Log2Floor
	Pow
	DivMod
	PopCount
	XxAdd
	XxMul
	XInvert
	XbMul
	ReadIo
	WriteIo

	numInstructions
)

// OpStackEffect describes how an instruction changes the operand stack's
// logical size: positive grows, negative shrinks, zero leaves it unchanged.
type OpStackEffect int

// InstructionInfo carries everything the processor table needs to know about
// one instruction, independent of any particular row.
type InstructionInfo struct {
	Name        string
	Opcode      Instruction
	Size        int // word count: 1, or 2 when an inline argument follows
	HasArg      bool
	StackEffect OpStackEffect
}

var instructionTable = [numInstructions]InstructionInfo{
	Pop:           {"pop", Pop, 2, true, -1},
	Push:          {"push", Push, 2, true, 1},
	Divine:        {"divine", Divine, 1, false, 1},
	Dup:           {"dup", Dup, 2, true, 1},
	Swap:          {"swap", Swap, 2, true, 0},
	Nop:           {"nop", Nop, 1, false, 0},
	Skiz:          {"skiz", Skiz, 1, false, -1},
	Call:          {"call", Call, 2, true, 0},
	Return:        {"return", Return, 1, false, 0},
	Recurse:       {"recurse", Recurse, 1, false, 0},
	Assert:        {"assert", Assert, 1, false, -1},
	Halt:          {"halt", Halt, 1, false, 0},
	ReadMem:       {"read_mem", ReadMem, 1, false, 1},
	WriteMem:      {"write_mem", WriteMem, 1, false, -1},
	Hash:          {"hash", Hash, 1, false, -5},
	DivineSibling: {"divine_sibling", DivineSibling, 1, false, 0},
	AssertVector:  {"assert_vector", AssertVector, 1, false, 0},
	SpongeInit:    {"sponge_init", SpongeInit, 1, false, 0},
	SpongeAbsorb:  {"sponge_absorb", SpongeAbsorb, 1, false, -10},
	SpongeSqueeze: {"sponge_squeeze", SpongeSqueeze, 1, false, 10},
	Add:           {"add", Add, 1, false, -1},
	Mul:           {"mul", Mul, 1, false, -1},
	Invert:        {"invert", Invert, 1, false, 0},
	Eq:            {"eq", Eq, 1, false, -1},
	Split:         {"split", Split, 1, false, 1},
	Lt:            {"lt", Lt, 1, false, -1},
	And:           {"and", And, 1, false, -1},
	Xor:           {"xor", Xor, 1, false, -1},
	Log2Floor:     {"log_2_floor", Log2Floor, 1, false, 0},
	Pow:           {"pow", Pow, 1, false, -1},
	DivMod:        {"div_mod", DivMod, 1, false, 0},
	PopCount:      {"pop_count", PopCount, 1, false, 0},
	XxAdd:         {"xxadd", XxAdd, 1, false, -3},
	XxMul:         {"xxmul", XxMul, 1, false, -3},
	XInvert:       {"xinvert", XInvert, 1, false, 0},
	XbMul:         {"xbmul", XbMul, 1, false, -1},
	ReadIo:        {"read_io", ReadIo, 1, false, 1},
	WriteIo:       {"write_io", WriteIo, 1, false, -1},
}

// Info returns the static metadata for an instruction. Panics on an out of
// range opcode: decoding an unknown opcode is a programmer error, not a
// data error the caller should recover from.
func (i Instruction) Info() InstructionInfo {
	if i >= numInstructions {
		panic(fmt.Sprintf("vm: opcode %d out of range", i))
	}
	return instructionTable[i]
}

// String renders the instruction's mnemonic.
func (i Instruction) String() string {
	if i >= numInstructions {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return instructionTable[i].Name
}

// DecodeInstruction maps a raw opcode byte back to an Instruction, failing
// (rather than panicking) when the byte doesn't correspond to a legal
// opcode — used on data paths where an invalid value can legitimately occur
// (padding scratch, corrupted trace columns) and the caller wants to decide
// how tolerant to be.
func DecodeInstruction(opcode uint8) (Instruction, error) {
	if opcode >= uint8(numInstructions) {
		return 0, fmt.Errorf("vm: opcode %d does not correspond to a legal instruction", opcode)
	}
	return Instruction(opcode), nil
}

// NumInstructionBits is the width of the IB0..IB7 decomposition.
const NumInstructionBits = 8

// Bit returns the i-th bit (0 = least significant, matching IB0) of the
// instruction's opcode.
func (i Instruction) Bit(idx int) uint8 {
	if idx < 0 || idx >= NumInstructionBits {
		panic(fmt.Sprintf("vm: instruction bit index %d out of range", idx))
	}
	return uint8(i>>uint(idx)) & 1
}

// Bits returns the full IB0..IB7 decomposition, least significant first.
func (i Instruction) Bits() [NumInstructionBits]uint8 {
	var bits [NumInstructionBits]uint8
	for k := 0; k < NumInstructionBits; k++ {
		bits[k] = i.Bit(k)
	}
	return bits
}

// Grows reports whether the instruction grows the operand stack.
func (info InstructionInfo) Grows() bool { return info.StackEffect > 0 }

// Shrinks reports whether the instruction shrinks the operand stack.
func (info InstructionInfo) Shrinks() bool { return info.StackEffect < 0 }

// AllInstructions lists every instruction in opcode order.
func AllInstructions() []Instruction {
	all := make([]Instruction, numInstructions)
	for i := range all {
		all[i] = Instruction(i)
	}
	return all
}
