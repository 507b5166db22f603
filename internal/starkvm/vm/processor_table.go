// Package vm implements the Processor Table: the tabular arithmetization of
// one program execution, its trace extension, and the constraint circuits
// that bind it to every satellite table.
package vm

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/circuit"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
	"github.com/arclight-zk/airstark-vm/internal/starkvm/protocols"
	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// ProcessorTableImpl is the main execution trace: one row per clock cycle,
// with base columns in the prime field and, after extension, eleven running
// accumulators in the cubic extension field linking it to every satellite
// table.
type ProcessorTableImpl struct {
	base *core.Field
	ext  *core.XField

	// rows holds the base-column matrix, row-major, width baseWidth.
	rows [][]*core.FieldElement

	// extRows holds the extension-column matrix, populated by Extend.
	extRows [][]*core.XFieldElement

	// lenReal is the row count before padding was applied; zero until the
	// first AddRow call, frozen once Pad runs.
	lenReal int

	height       int
	paddedHeight int
}

// NewProcessorTable creates an empty Processor Table over the default prime
// field.
func NewProcessorTable() *ProcessorTableImpl {
	return NewProcessorTableOverField(core.DefaultPrimeField)
}

// NewProcessorTableOverField creates an empty Processor Table over a caller
// supplied base field, for tests that want a small field.
func NewProcessorTableOverField(base *core.Field) *ProcessorTableImpl {
	return &ProcessorTableImpl{
		base: base,
		ext:  core.NewXField(base),
		rows: make([][]*core.FieldElement, 0),
	}
}

// Builder returns a fresh circuit builder over this table's base field. Each
// call to the constraint constructors gets its own builder; builders carry
// no mutable state, so this is cheap and avoids any shared-interner
// lifetime question.
func (pt *ProcessorTableImpl) Builder() *circuit.Builder {
	return circuit.NewBuilder(pt.base)
}

// GetID returns the table's unique identifier.
func (pt *ProcessorTableImpl) GetID() TableID {
	return ProcessorTable
}

// GetHeight returns the row count before padding.
func (pt *ProcessorTableImpl) GetHeight() int {
	return pt.height
}

// GetPaddedHeight returns the row count after padding.
func (pt *ProcessorTableImpl) GetPaddedHeight() int {
	return pt.paddedHeight
}

// Row is one base-column row of the Processor Table, addressed by field
// name rather than column index; AddRow converts it into the table's
// internal column-major-by-name matrix.
type Row struct {
	CLK                 uint64
	IP                  uint64
	CI                  uint64
	NIA                 uint64
	PreviousInstruction uint64
	JSP                 uint64
	JSO                 uint64
	JSD                 uint64
	Stack               [stackDepth]uint64
	OpStackPointer      uint64
	RAMP                uint64
	RAMV                uint64
	HV                  [numHelperVariables]uint64
	IsPadding           bool
	ClockJumpDifferenceLookupMultiplicity uint64
}

// instructionBit decomposition is derived from CI, never supplied directly:
// keeping IB0..IB7 as a derived quantity rather than caller-set data makes
// "CI = sum 2^i IB_i" true by construction instead of by caller discipline.
func (r *Row) instructionBits() [NumInstructionBits]uint8 {
	instr := Instruction(r.CI)
	return instr.Bits()
}

// AddRow appends a real (non-padding) row to the table.
func (pt *ProcessorTableImpl) AddRow(r *Row) error {
	if r == nil {
		return fmt.Errorf("processor table: row cannot be nil")
	}
	row := make([]*core.FieldElement, baseWidth)
	b := pt.base
	row[colCLK] = b.NewElementFromUint64(r.CLK)
	row[colIP] = b.NewElementFromUint64(r.IP)
	row[colCI] = b.NewElementFromUint64(r.CI)
	row[colNIA] = b.NewElementFromUint64(r.NIA)
	row[colPreviousInstruction] = b.NewElementFromUint64(r.PreviousInstruction)
	row[colJSP] = b.NewElementFromUint64(r.JSP)
	row[colJSO] = b.NewElementFromUint64(r.JSO)
	row[colJSD] = b.NewElementFromUint64(r.JSD)
	for i := 0; i < stackDepth; i++ {
		row[opStackColumnByIndex(i)] = b.NewElementFromUint64(r.Stack[i])
	}
	row[colOpStackPointer] = b.NewElementFromUint64(r.OpStackPointer)
	row[colRAMP] = b.NewElementFromUint64(r.RAMP)
	row[colRAMV] = b.NewElementFromUint64(r.RAMV)
	for i := 0; i < numHelperVariables; i++ {
		row[helperVariableColumn(i)] = b.NewElementFromUint64(r.HV[i])
	}
	bits := r.instructionBits()
	for i := 0; i < NumInstructionBits; i++ {
		row[instructionBitColumn(i)] = b.NewElementFromUint64(uint64(bits[i]))
	}
	if r.IsPadding {
		row[colIsPadding] = b.One()
	} else {
		row[colIsPadding] = b.Zero()
	}
	row[colClockJumpDifferenceLookupMultiplicity] = b.NewElementFromUint64(r.ClockJumpDifferenceLookupMultiplicity)

	pt.rows = append(pt.rows, row)
	pt.height++
	if !r.IsPadding {
		pt.lenReal = pt.height
	}
	return nil
}

// column returns the full column at the given base index across every row
// currently in the table (real plus padding).
func (pt *ProcessorTableImpl) column(idx int) []*core.FieldElement {
	out := make([]*core.FieldElement, len(pt.rows))
	for i, row := range pt.rows {
		out[i] = row[idx]
	}
	return out
}

// extColumn returns the full extension column at idx; only valid after Extend.
func (pt *ProcessorTableImpl) extColumn(idx int) []*core.XFieldElement {
	out := make([]*core.XFieldElement, len(pt.extRows))
	for i, row := range pt.extRows {
		out[i] = row[idx]
	}
	return out
}

// --- ExecutionTable interface compatibility -------------------------------
//
// ExecutionTable predates extension-field columns: GetAuxiliaryColumns was
// designed for base-field-only cross-table argument bookkeeping and cannot
// express an F3 accumulator directly. Rather than widen that interface (and
// every satellite table implementing it) this table exposes its real
// (core.FieldElement / core.XFieldElement) data through the methods above
// and above, and satisfies ExecutionTable with a flattening adapter: each
// extension column becomes three base columns, one per F3 coordinate.

// GetMainColumns returns the base-column matrix in the legacy external field
// representation, for ExecutionTable conformance.
func (pt *ProcessorTableImpl) GetMainColumns() [][]field.Element {
	cols := make([][]field.Element, baseWidth)
	for idx := 0; idx < baseWidth; idx++ {
		cols[idx] = toLegacyColumn(pt.column(idx))
	}
	return cols
}

// GetAuxiliaryColumns returns the extension-column matrix flattened 3-wide
// per column, in the legacy external field representation.
func (pt *ProcessorTableImpl) GetAuxiliaryColumns() [][]field.Element {
	if len(pt.extRows) == 0 {
		return nil
	}
	cols := make([][]field.Element, 0, extWidth*3)
	for idx := 0; idx < extWidth; idx++ {
		c0 := make([]field.Element, len(pt.extRows))
		c1 := make([]field.Element, len(pt.extRows))
		c2 := make([]field.Element, len(pt.extRows))
		for i, row := range pt.extRows {
			a, bb, c := row[idx].Coefficients()
			c0[i] = field.New(a.Big().Uint64())
			c1[i] = field.New(bb.Big().Uint64())
			c2[i] = field.New(c.Big().Uint64())
		}
		cols = append(cols, c0, c1, c2)
	}
	return cols
}

// GetColumns returns main and auxiliary columns concatenated.
func (pt *ProcessorTableImpl) GetColumns() ([][]field.Element, error) {
	all := make([][]field.Element, 0, baseWidth+extWidth*3)
	all = append(all, pt.GetMainColumns()...)
	all = append(all, pt.GetAuxiliaryColumns()...)
	return all, nil
}

func toLegacyColumn(col []*core.FieldElement) []field.Element {
	out := make([]field.Element, len(col))
	for i, v := range col {
		out[i] = field.New(v.Big().Uint64())
	}
	return out
}

// circuitsToLegacy wraps circuit nodes into the legacy AIRConstraint shape
// so ProcessorTableImpl still satisfies ExecutionTable's constraint methods.
// The Polynomial field is intentionally left nil: nothing on the live
// proving path (AET.GenerateAIRConstraints is unreachable dead scaffolding,
// see DESIGN.md) dereferences it, and the circuits themselves remain
// available, un-adapted, through InitialCircuits/ConsistencyCircuits/
// TransitionCircuits/TerminalCircuits for anything that wants the real IR.
func circuitsToLegacy(kind string, cs []*circuit.Circuit) []protocols.AIRConstraint {
	out := make([]protocols.AIRConstraint, len(cs))
	for i, c := range cs {
		out[i] = protocols.AIRConstraint{
			Type:   kind,
			Index:  i,
			Degree: c.Degree(),
		}
	}
	return out
}

// CreateInitialConstraints satisfies ExecutionTable; see InitialCircuits.
func (pt *ProcessorTableImpl) CreateInitialConstraints() ([]protocols.AIRConstraint, error) {
	cs, err := pt.InitialCircuits()
	if err != nil {
		return nil, err
	}
	return circuitsToLegacy("initial", cs), nil
}

// CreateConsistencyConstraints satisfies ExecutionTable; see ConsistencyCircuits.
func (pt *ProcessorTableImpl) CreateConsistencyConstraints() ([]protocols.AIRConstraint, error) {
	cs, err := pt.ConsistencyCircuits()
	if err != nil {
		return nil, err
	}
	return circuitsToLegacy("consistency", cs), nil
}

// CreateTransitionConstraints satisfies ExecutionTable; see TransitionCircuits.
func (pt *ProcessorTableImpl) CreateTransitionConstraints() ([]protocols.AIRConstraint, error) {
	cs, err := pt.TransitionCircuits()
	if err != nil {
		return nil, err
	}
	return circuitsToLegacy("transition", cs), nil
}

// CreateTerminalConstraints satisfies ExecutionTable; see TerminalCircuits.
func (pt *ProcessorTableImpl) CreateTerminalConstraints() ([]protocols.AIRConstraint, error) {
	cs, err := pt.TerminalCircuits()
	if err != nil {
		return nil, err
	}
	return circuitsToLegacy("terminal", cs), nil
}
