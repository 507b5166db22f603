package vm

// Named Fiat-Shamir challenges consumed by the trace extender and the
// constraint circuits it backs. Every cross-table argument draws one
// indeterminate plus a handful of per-column weights; the processor only
// ever reads these by name through the circuit.Challenges bundle, so the
// prover/verifier collaborator is free to sample them however it likes.
const (
	ChallengeStandardInputIndeterminate  = "StandardInputIndeterminate"
	ChallengeStandardOutputIndeterminate = "StandardOutputIndeterminate"

	ChallengeInstructionLookupIndeterminate = "InstructionLookupIndeterminate"
	ChallengeInstructionLookupIPWeight       = "InstructionLookupIPWeight"
	ChallengeInstructionLookupCIWeight       = "InstructionLookupCIWeight"
	ChallengeInstructionLookupNIAWeight      = "InstructionLookupNIAWeight"

	ChallengeOpStackIndeterminate       = "OpStackIndeterminate"
	ChallengeOpStackClkWeight           = "OpStackClkWeight"
	ChallengeOpStackIB1Weight           = "OpStackIB1Weight"
	ChallengeOpStackPointerWeight       = "OpStackPointerWeight"
	ChallengeOpStackFirstUnderflowWeight = "OpStackFirstUnderflowWeight"

	ChallengeRamIndeterminate           = "RamIndeterminate"
	ChallengeRamClkWeight               = "RamClkWeight"
	ChallengeRamRampWeight              = "RamRampWeight"
	ChallengeRamRamvWeight              = "RamRamvWeight"
	ChallengeRamPreviousInstructionWeight = "RamPreviousInstructionWeight"

	ChallengeJumpStackIndeterminate = "JumpStackIndeterminate"
	ChallengeJumpStackClkWeight     = "JumpStackClkWeight"
	ChallengeJumpStackCiWeight      = "JumpStackCiWeight"
	ChallengeJumpStackJspWeight     = "JumpStackJspWeight"
	ChallengeJumpStackJsoWeight     = "JumpStackJsoWeight"
	ChallengeJumpStackJsdWeight     = "JumpStackJsdWeight"

	ChallengeHashCIWeight = "HashCIWeight"

	ChallengeHashInputIndeterminate  = "HashInputIndeterminate"
	ChallengeHashDigestIndeterminate = "HashDigestIndeterminate"
	ChallengeSpongeIndeterminate     = "SpongeIndeterminate"

	ChallengeU32Indeterminate = "U32Indeterminate"
	ChallengeU32LhsWeight     = "U32LhsWeight"
	ChallengeU32RhsWeight     = "U32RhsWeight"
	ChallengeU32CiWeight      = "U32CiWeight"
	ChallengeU32ResultWeight  = "U32ResultWeight"

	ChallengeClockJumpDifferenceLookupIndeterminate = "ClockJumpDifferenceLookupIndeterminate"

	ChallengeCompressProgramDigestIndeterminate = "CompressProgramDigestIndeterminate"
	ChallengeCompressedProgramDigest            = "CompressedProgramDigest"
)

// HashStateWeight returns the name of the i-th hash-state absorption weight,
// HashStateWeight0..HashStateWeight9.
func HashStateWeight(i int) string {
	if i < 0 || i > 9 {
		panic("vm: hash state weight index out of range")
	}
	const digits = "0123456789"
	return "HashStateWeight" + string(digits[i])
}
