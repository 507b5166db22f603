package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructionBitsRoundTripToOpcode(t *testing.T) {
	for _, instr := range AllInstructions() {
		bits := instr.Bits()
		var reconstructed int
		for i, b := range bits {
			reconstructed += int(b) << uint(i)
		}
		require.Equal(t, int(instr), reconstructed, "instruction %s did not round-trip through its bit decomposition", instr)
	}
}

func TestDecodeInstructionRejectsOutOfRangeOpcode(t *testing.T) {
	_, err := DecodeInstruction(uint8(numInstructions))
	require.Error(t, err)
}

func TestDecodeInstructionAcceptsEveryLegalOpcode(t *testing.T) {
	for _, instr := range AllInstructions() {
		decoded, err := DecodeInstruction(uint8(instr))
		require.NoError(t, err)
		require.Equal(t, instr, decoded)
	}
}

func TestInstructionInfoStackEffectClassification(t *testing.T) {
	require.True(t, Push.Info().Grows())
	require.True(t, Pop.Info().Shrinks())
	require.False(t, Nop.Info().Grows())
	require.False(t, Nop.Info().Shrinks())
}

func TestInstructionStringUsesMnemonic(t *testing.T) {
	require.Equal(t, "push", Push.String())
	require.Equal(t, "halt", Halt.String())
}
