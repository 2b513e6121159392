package envelope

import "github.com/code-oracles/envelope-server/pkg/solana/binary"

// EnvelopeInstruction is the 4-byte slow-path discriminator. Fast-path
// updates carry no discriminator; they are routed by account count.
type EnvelopeInstruction uint32

const (
	EnvelopeInstructionCreate EnvelopeInstruction = iota
	EnvelopeInstructionClose

	EnvelopeInstructionSetDelegatedProgram
	EnvelopeInstructionClearDelegation

	EnvelopeInstructionUpdateAuxiliary
	EnvelopeInstructionUpdateAuxiliaryDelegated
	EnvelopeInstructionUpdateAuxiliaryForce

	EnvelopeInstructionUpdateAuxiliaryRange
	EnvelopeInstructionUpdateAuxiliaryDelegatedRange
	EnvelopeInstructionUpdateAuxiliaryMultiRange
	EnvelopeInstructionUpdateAuxiliaryDelegatedMultiRange

	envelopeInstructionCount
)

const envelopeInstructionSize = 4

func putEnvelopeInstruction(dst []byte, v EnvelopeInstruction, offset *int) {
	binary.PutUint32(dst, uint32(v), offset)
}

func getEnvelopeInstruction(src []byte, dst *EnvelopeInstruction, offset *int) error {
	if len(src) < *offset+envelopeInstructionSize {
		return ErrMalformedInstruction
	}
	var v uint32
	binary.GetUint32(src, &v, offset)
	if v >= uint32(envelopeInstructionCount) {
		return ErrInvalidDiscriminator
	}
	*dst = EnvelopeInstruction(v)
	return nil
}
