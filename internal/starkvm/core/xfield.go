package core

import "fmt"

// XField is the cubic extension of a base Field, represented as
// F[X] / (X^3 - X + 1). Elements are triples (c0, c1, c2) meaning
// c0 + c1*X + c2*X^2.
type XField struct {
	base *Field
}

// XFieldElement is an element of the cubic extension field.
type XFieldElement struct {
	field  *XField
	c0, c1, c2 *FieldElement
}

// NewXField creates the cubic extension of the given base field.
func NewXField(base *Field) *XField {
	return &XField{base: base}
}

// Base returns the underlying base field.
func (xf *XField) Base() *Field {
	return xf.base
}

// NewElement builds an extension element from its three coordinates.
func (xf *XField) NewElement(c0, c1, c2 *FieldElement) *XFieldElement {
	return &XFieldElement{field: xf, c0: c0, c1: c1, c2: c2}
}

// FromBase lifts a base field element into the extension field.
func (xf *XField) FromBase(v *FieldElement) *XFieldElement {
	return &XFieldElement{field: xf, c0: v, c1: xf.base.Zero(), c2: xf.base.Zero()}
}

// Zero returns the additive identity.
func (xf *XField) Zero() *XFieldElement {
	return xf.FromBase(xf.base.Zero())
}

// One returns the multiplicative identity.
func (xf *XField) One() *XFieldElement {
	return xf.FromBase(xf.base.One())
}

// Field returns the extension field this element belongs to.
func (xe *XFieldElement) Field() *XField {
	return xe.field
}

// Coefficients returns the (c0, c1, c2) coordinates.
func (xe *XFieldElement) Coefficients() (*FieldElement, *FieldElement, *FieldElement) {
	return xe.c0, xe.c1, xe.c2
}

// IsBase reports whether this element lies in the base field (c1 = c2 = 0).
func (xe *XFieldElement) IsBase() bool {
	return xe.c1.IsZero() && xe.c2.IsZero()
}

func (xe *XFieldElement) sameField(other *XFieldElement) {
	if xe.field.base != other.field.base {
		panic("cannot combine extension elements from different base fields")
	}
}

// Add performs extension-field addition, coordinate-wise.
func (xe *XFieldElement) Add(other *XFieldElement) *XFieldElement {
	xe.sameField(other)
	return xe.field.NewElement(
		xe.c0.Add(other.c0),
		xe.c1.Add(other.c1),
		xe.c2.Add(other.c2),
	)
}

// Sub performs extension-field subtraction, coordinate-wise.
func (xe *XFieldElement) Sub(other *XFieldElement) *XFieldElement {
	xe.sameField(other)
	return xe.field.NewElement(
		xe.c0.Sub(other.c0),
		xe.c1.Sub(other.c1),
		xe.c2.Sub(other.c2),
	)
}

// Neg returns the additive inverse.
func (xe *XFieldElement) Neg() *XFieldElement {
	return xe.field.NewElement(xe.c0.Neg(), xe.c1.Neg(), xe.c2.Neg())
}

// Mul multiplies two extension elements modulo X^3 - X + 1.
//
// (a0 + a1 X + a2 X^2)(b0 + b1 X + b2 X^2) = d0 + d1 X + d2 X^2 + d3 X^3 + d4 X^4,
// then X^3 = X - 1 and X^4 = X^2 - X are substituted back in.
func (xe *XFieldElement) Mul(other *XFieldElement) *XFieldElement {
	xe.sameField(other)
	a0, a1, a2 := xe.c0, xe.c1, xe.c2
	b0, b1, b2 := other.c0, other.c1, other.c2

	d0 := a0.Mul(b0)
	d1 := a0.Mul(b1).Add(a1.Mul(b0))
	d2 := a0.Mul(b2).Add(a1.Mul(b1)).Add(a2.Mul(b0))
	d3 := a1.Mul(b2).Add(a2.Mul(b1))
	d4 := a2.Mul(b2)

	// X^3 = X - 1, X^4 = X^2 - X
	c0 := d0.Sub(d3)
	c1 := d1.Add(d3).Sub(d4)
	c2 := d2.Add(d4)
	return xe.field.NewElement(c0, c1, c2)
}

// MulBase multiplies an extension element by a base-field scalar.
func (xe *XFieldElement) MulBase(scalar *FieldElement) *XFieldElement {
	return xe.field.NewElement(xe.c0.Mul(scalar), xe.c1.Mul(scalar), xe.c2.Mul(scalar))
}

// IsZero reports whether every coordinate is zero.
func (xe *XFieldElement) IsZero() bool {
	return xe.c0.IsZero() && xe.c1.IsZero() && xe.c2.IsZero()
}

// Equal reports coordinate-wise equality.
func (xe *XFieldElement) Equal(other *XFieldElement) bool {
	return xe.c0.Equal(other.c0) && xe.c1.Equal(other.c1) && xe.c2.Equal(other.c2)
}

// Inv computes the multiplicative inverse by Gaussian elimination of the 3x3
// base-field matrix of multiplication by xe, and checks the result by
// multiplying it back.
func (xe *XFieldElement) Inv() (*XFieldElement, error) {
	if xe.IsZero() {
		return nil, fmt.Errorf("cannot compute inverse of zero extension element")
	}
	// Solve the inverse directly: find (c0,c1,c2) such that xe * inv = 1,
	// by inverting the 3x3 multiplication matrix of xe over the base field.
	// Row i of M is the coefficient vector of xe * X^i mod (X^3 - X + 1).
	one := xe.field.One()
	x := xe.field.NewElement(xe.field.base.Zero(), xe.field.base.One(), xe.field.base.Zero())
	x2 := x.Mul(x)

	rows := [3][3]*FieldElement{}
	fillRow := func(e *XFieldElement) [3]*FieldElement {
		c0, c1, c2 := e.Coefficients()
		return [3]*FieldElement{c0, c1, c2}
	}
	rows[0] = fillRow(xe)
	rows[1] = fillRow(xe.Mul(x))
	rows[2] = fillRow(xe.Mul(x2))

	// Augment with the identity and Gaussian-eliminate [M | I] -> [I | M^-1].
	base := xe.field.base
	aug := [3][6]*FieldElement{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			aug[i][j] = rows[i][j]
		}
		for j := 0; j < 3; j++ {
			if i == j {
				aug[i][3+j] = base.One()
			} else {
				aug[i][3+j] = base.Zero()
			}
		}
	}

	for col := 0; col < 3; col++ {
		pivot := -1
		for r := col; r < 3; r++ {
			if !aug[r][col].IsZero() {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, fmt.Errorf("singular extension multiplication matrix")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv, err := aug[col][col].Inv()
		if err != nil {
			return nil, fmt.Errorf("inverting pivot: %w", err)
		}
		for j := 0; j < 6; j++ {
			aug[col][j] = aug[col][j].Mul(inv)
		}
		for r := 0; r < 3; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor.IsZero() {
				continue
			}
			for j := 0; j < 6; j++ {
				aug[r][j] = aug[r][j].Sub(factor.Mul(aug[col][j]))
			}
		}
	}

	// The inverse's coordinate vector v satisfies v * M = (1,0,0), so it is
	// the first row of M^-1.
	invVec := xe.field.NewElement(aug[0][3], aug[0][4], aug[0][5])
	check := xe.Mul(invVec)
	if !check.Equal(one) {
		return nil, fmt.Errorf("extension-field inverse verification failed")
	}
	return invVec, nil
}

// Div performs extension-field division.
func (xe *XFieldElement) Div(other *XFieldElement) (*XFieldElement, error) {
	inv, err := other.Inv()
	if err != nil {
		return nil, fmt.Errorf("division failed: %w", err)
	}
	return xe.Mul(inv), nil
}

// String renders the element as its coordinate triple.
func (xe *XFieldElement) String() string {
	return fmt.Sprintf("(%s + %s*X + %s*X^2)", xe.c0.String(), xe.c1.String(), xe.c2.String())
}
