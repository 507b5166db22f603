package vm

import (
	"fmt"

	"github.com/arclight-zk/airstark-vm/internal/starkvm/core"
)

// Pad extends the table to targetHeight by cloning the last real row,
// marking the clones as padding, and re-running the CLK ramp across the
// whole table. It is a structural-invariant violation, not a data error, to
// pad an empty table: the caller must add at least one real row first.
func (pt *ProcessorTableImpl) Pad(targetHeight int) error {
	if pt.lenReal == 0 {
		return fmt.Errorf("processor table: cannot pad with zero real rows")
	}
	if targetHeight < pt.height {
		return fmt.Errorf("processor table: target height %d is less than current height %d", targetHeight, pt.height)
	}

	lenReal := pt.lenReal
	lastIdx := lenReal - 1
	lastRow := pt.rows[lastIdx]
	b := pt.base

	for r := pt.height; r < targetHeight; r++ {
		clone := make([]*core.FieldElement, baseWidth)
		copy(clone, lastRow)
		clone[colIsPadding] = b.One()
		clone[colClockJumpDifferenceLookupMultiplicity] = b.Zero()
		clone[colCLK] = b.NewElementFromUint64(uint64(r))
		pt.rows = append(pt.rows, clone)
	}
	pt.height = targetHeight
	pt.paddedHeight = targetHeight

	// Two satellite tables (RAM, Jump-Stack) keep looking up clock-jump
	// differences of magnitude 1 while the processor is padded; credit that
	// lookup to the real row whose CLK equals 1.
	extra := 2 * (targetHeight - lenReal)
	if extra > 0 {
		for i := 0; i < lenReal; i++ {
			if pt.rows[i][colCLK].Equal(b.NewElementFromUint64(1)) {
				pt.rows[i][colClockJumpDifferenceLookupMultiplicity] =
					pt.rows[i][colClockJumpDifferenceLookupMultiplicity].Add(b.NewElementFromUint64(uint64(extra)))
				break
			}
		}
	}

	return nil
}
