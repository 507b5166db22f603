// Package circuit implements the constraint circuit intermediate
// representation used to build the processor table's initial, consistency,
// transition and terminal constraint polynomials.
//
// A circuit is a small DAG: leaves are constants, named challenges, or
// column references tagged with a row locator; internal nodes are binary
// addition or multiplication. Nodes are immutable once built, so cloning a
// sub-circuit is just copying a pointer (structural sharing) rather than a
// deep copy.
package circuit

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
)

// Locator identifies which row(s) a column reference is read from.
type Locator int

const (
	// BaseRow reads a base column from the single row under evaluation
	// (used by initial, consistency and terminal constraints).
	BaseRow Locator = iota
	// ExtRow reads an extension column from the single row under evaluation.
	ExtRow
	// CurrentBaseRow reads a base column from the first of a pair of rows
	// (used by transition constraints).
	CurrentBaseRow
	// NextBaseRow reads a base column from the second of a pair of rows.
	NextBaseRow
	// CurrentExtRow reads an extension column from the first of a pair of rows.
	CurrentExtRow
	// NextExtRow reads an extension column from the second of a pair of rows.
	NextExtRow
)

// dual reports whether the locator belongs to a dual-row (transition) circuit.
func (l Locator) dual() bool {
	switch l {
	case CurrentBaseRow, NextBaseRow, CurrentExtRow, NextExtRow:
		return true
	default:
		return false
	}
}

type nodeKind int

const (
	kindConstant nodeKind = iota
	kindChallenge
	kindInput
	kindAdd
	kindMul
)

// Circuit is one node of the constraint DAG. Values are immutable; every
// combinator (Add, Mul, Sub, Neg) returns a new node referencing its operands,
// never mutates in place.
type Circuit struct {
	kind    nodeKind
	value   *core.XFieldElement // kindConstant
	name    string               // kindChallenge
	loc     Locator              // kindInput
	index   int                  // kindInput: column index
	lhs, rhs *Circuit            // kindAdd / kindMul
}

// Builder interns a base field and extension field and constructs circuit
// nodes against them. It carries no mutable shared state beyond the fields
// themselves and is safe to use from a single build goroutine at a time.
type Builder struct {
	base *core.Field
	ext  *core.XField
}

// NewBuilder creates a circuit builder over the given base field.
func NewBuilder(base *core.Field) *Builder {
	return &Builder{base: base, ext: core.NewXField(base)}
}

// Ext returns the builder's extension field, for constructing challenge or
// constant values outside the circuit package.
func (b *Builder) Ext() *core.XField {
	return b.ext
}

// BConstant lifts a base-field value into a constant circuit node.
func (b *Builder) BConstant(v *core.FieldElement) *Circuit {
	return &Circuit{kind: kindConstant, value: b.ext.FromBase(v)}
}

// BConstantU64 is a convenience wrapper around BConstant for small literals.
func (b *Builder) BConstantU64(v uint64) *Circuit {
	return b.BConstant(b.base.NewElementFromUint64(v))
}

// XConstant lifts an extension-field value into a constant circuit node.
func (b *Builder) XConstant(v *core.XFieldElement) *Circuit {
	return &Circuit{kind: kindConstant, value: v}
}

// Zero is the additive-identity constant.
func (b *Builder) Zero() *Circuit { return b.XConstant(b.ext.Zero()) }

// One is the multiplicative-identity constant.
func (b *Builder) One() *Circuit { return b.XConstant(b.ext.One()) }

// Challenge references a named Fiat-Shamir challenge, resolved against the
// Challenges bundle at evaluation time.
func (b *Builder) Challenge(name string) *Circuit {
	return &Circuit{kind: kindChallenge, name: name}
}

// Input references a single column at the given locator and index.
func (b *Builder) Input(loc Locator, index int) *Circuit {
	return &Circuit{kind: kindInput, loc: loc, index: index}
}

// Add returns a new node computing lhs + rhs. Total: always legal.
func (c *Circuit) Add(other *Circuit) *Circuit {
	return &Circuit{kind: kindAdd, lhs: c, rhs: other}
}

// Mul returns a new node computing lhs * rhs. Total: always legal.
func (c *Circuit) Mul(other *Circuit) *Circuit {
	return &Circuit{kind: kindMul, lhs: c, rhs: other}
}

// Neg derives negation as multiplication by the constant -1, computed lazily
// at evaluation time so Neg doesn't need field access.
func (c *Circuit) Neg() *Circuit {
	return &Circuit{kind: kindMul, lhs: c, rhs: negOneMarker}
}

// negOneMarker is a sentinel constant node recognized specially during
// evaluation so Neg doesn't require a field reference at construction time.
var negOneMarker = &Circuit{kind: kindConstant, value: nil}

// Sub derives subtraction as addition of the negation.
func (c *Circuit) Sub(other *Circuit) *Circuit {
	return c.Add(other.Neg())
}

// Clone returns a structurally-shared copy of the node: since nodes are
// immutable, this is the node itself. Exists so instruction constraint
// subroutines can pass shared sub-circuits by value without implying a deep
// copy.
func (c *Circuit) Clone() *Circuit {
	return c
}

// Degree computes the total degree of the polynomial this circuit encodes,
// treating every distinct Input and Challenge leaf as degree 1 and every
// Constant leaf as degree 0.
func (c *Circuit) Degree() int {
	switch c.kind {
	case kindConstant:
		return 0
	case kindChallenge, kindInput:
		return 1
	case kindAdd:
		l, r := c.lhs.Degree(), c.rhs.Degree()
		if l > r {
			return l
		}
		return r
	case kindMul:
		return c.lhs.Degree() + c.rhs.Degree()
	default:
		panic(fmt.Sprintf("circuit: unknown node kind %d", c.kind))
	}
}

// Row is a one-row (base, ext) view used by initial/consistency/terminal
// constraints.
type Row struct {
	Base []*core.FieldElement
	Ext  []*core.XFieldElement
}

// RowPair is a two-row (current, next) view used by transition constraints.
type RowPair struct {
	CurrentBase, NextBase []*core.FieldElement
	CurrentExt, NextExt   []*core.XFieldElement
}

// Challenges resolves a named challenge to its sampled value.
type Challenges interface {
	Get(name string) (*core.XFieldElement, error)
}

// MapChallenges is the simplest Challenges implementation: a plain map.
type MapChallenges map[string]*core.XFieldElement

// Get implements Challenges.
func (m MapChallenges) Get(name string) (*core.XFieldElement, error) {
	v, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("circuit: challenge %q not present in challenge bundle", name)
	}
	return v, nil
}

// EvalSingle evaluates a single-row circuit (BaseRow/ExtRow locators) against
// one row and a challenge bundle.
func (c *Circuit) EvalSingle(ext *core.XField, row Row, ch Challenges) (*core.XFieldElement, error) {
	return c.eval(ext, &row, nil, ch)
}

// EvalPair evaluates a dual-row circuit (Current*/Next* locators) against a
// pair of rows and a challenge bundle.
func (c *Circuit) EvalPair(ext *core.XField, pair RowPair, ch Challenges) (*core.XFieldElement, error) {
	return c.eval(ext, nil, &pair, ch)
}

func (c *Circuit) eval(ext *core.XField, row *Row, pair *RowPair, ch Challenges) (*core.XFieldElement, error) {
	switch c.kind {
	case kindConstant:
		if c.value == nil {
			return ext.FromBase(ext.Base().NewElementFromInt64(-1)), nil
		}
		return c.value, nil
	case kindChallenge:
		v, err := ch.Get(c.name)
		if err != nil {
			return nil, err
		}
		return v, nil
	case kindInput:
		return evalInput(ext, c.loc, c.index, row, pair)
	case kindAdd:
		l, err := c.lhs.eval(ext, row, pair, ch)
		if err != nil {
			return nil, err
		}
		r, err := c.rhs.eval(ext, row, pair, ch)
		if err != nil {
			return nil, err
		}
		return l.Add(r), nil
	case kindMul:
		l, err := c.lhs.eval(ext, row, pair, ch)
		if err != nil {
			return nil, err
		}
		r, err := c.rhs.eval(ext, row, pair, ch)
		if err != nil {
			return nil, err
		}
		return l.Mul(r), nil
	default:
		return nil, fmt.Errorf("circuit: unknown node kind %d", c.kind)
	}
}

func evalInput(ext *core.XField, loc Locator, index int, row *Row, pair *RowPair) (*core.XFieldElement, error) {
	switch loc {
	case BaseRow:
		if row == nil {
			return nil, fmt.Errorf("circuit: BaseRow input evaluated without a single-row view")
		}
		if index < 0 || index >= len(row.Base) {
			return nil, fmt.Errorf("circuit: base column index %d out of range (width %d)", index, len(row.Base))
		}
		return ext.FromBase(row.Base[index]), nil
	case ExtRow:
		if row == nil {
			return nil, fmt.Errorf("circuit: ExtRow input evaluated without a single-row view")
		}
		if index < 0 || index >= len(row.Ext) {
			return nil, fmt.Errorf("circuit: ext column index %d out of range (width %d)", index, len(row.Ext))
		}
		return row.Ext[index], nil
	case CurrentBaseRow:
		if pair == nil {
			return nil, fmt.Errorf("circuit: CurrentBaseRow input evaluated without a dual-row view")
		}
		return ext.FromBase(pair.CurrentBase[index]), nil
	case NextBaseRow:
		if pair == nil {
			return nil, fmt.Errorf("circuit: NextBaseRow input evaluated without a dual-row view")
		}
		return ext.FromBase(pair.NextBase[index]), nil
	case CurrentExtRow:
		if pair == nil {
			return nil, fmt.Errorf("circuit: CurrentExtRow input evaluated without a dual-row view")
		}
		return pair.CurrentExt[index], nil
	case NextExtRow:
		if pair == nil {
			return nil, fmt.Errorf("circuit: NextExtRow input evaluated without a dual-row view")
		}
		return pair.NextExt[index], nil
	default:
		return nil, fmt.Errorf("circuit: unknown locator %d", loc)
	}
}

// IsDual reports whether any input of the circuit is a dual-row locator;
// a mismatch between a circuit's locator family and the evaluation method
// used on it will surface as an error from eval rather than panic, but
// callers building the four constraint vectors should route each vector
// through the matching Eval* method.
func (c *Circuit) IsDual() bool {
	switch c.kind {
	case kindInput:
		return c.loc.dual()
	case kindAdd, kindMul:
		return c.lhs.IsDual() || c.rhs.IsDual()
	default:
		return false
	}
}
