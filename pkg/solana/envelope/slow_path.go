package envelope

import "crypto/ed25519"

// processSlowPathInstruction decodes the 4-byte discriminator and routes
// to the matching operation. Each operation validates fully before it
// mutates anything.
func processSlowPathInstruction(programID ed25519.PublicKey, accounts []*Account, data []byte) error {
	var offset int
	var instruction EnvelopeInstruction
	if err := getEnvelopeInstruction(data, &instruction, &offset); err != nil {
		return err
	}
	body := data[offset:]

	switch instruction {
	case EnvelopeInstructionCreate:
		args, err := parseCreateArgs(body)
		if err != nil {
			return err
		}
		return processCreate(programID, accounts, args)

	case EnvelopeInstructionClose:
		if len(body) != 0 {
			return ErrMalformedInstruction
		}
		return processClose(programID, accounts)

	case EnvelopeInstructionSetDelegatedProgram:
		args, err := parseSetDelegatedProgramArgs(body)
		if err != nil {
			return err
		}
		return processSetDelegatedProgram(programID, accounts, args)

	case EnvelopeInstructionClearDelegation:
		if len(body) != 0 {
			return ErrMalformedInstruction
		}
		return processClearDelegation(programID, accounts)

	case EnvelopeInstructionUpdateAuxiliary:
		args, err := parseUpdateAuxiliaryArgs(body)
		if err != nil {
			return err
		}
		return processUpdateAuxiliary(programID, accounts, args)

	case EnvelopeInstructionUpdateAuxiliaryDelegated:
		args, err := parseUpdateAuxiliaryArgs(body)
		if err != nil {
			return err
		}
		return processUpdateAuxiliaryDelegated(programID, accounts, args)

	case EnvelopeInstructionUpdateAuxiliaryForce:
		args, err := parseUpdateAuxiliaryForceArgs(body)
		if err != nil {
			return err
		}
		return processUpdateAuxiliaryForce(programID, accounts, args)

	case EnvelopeInstructionUpdateAuxiliaryRange,
		EnvelopeInstructionUpdateAuxiliaryMultiRange:
		args, err := parseUpdateAuxiliaryRangeArgs(body, instruction == EnvelopeInstructionUpdateAuxiliaryMultiRange)
		if err != nil {
			return err
		}
		return processUpdateAuxiliaryRanges(programID, accounts, args, false)

	case EnvelopeInstructionUpdateAuxiliaryDelegatedRange,
		EnvelopeInstructionUpdateAuxiliaryDelegatedMultiRange:
		args, err := parseUpdateAuxiliaryRangeArgs(body, instruction == EnvelopeInstructionUpdateAuxiliaryDelegatedMultiRange)
		if err != nil {
			return err
		}
		return processUpdateAuxiliaryRanges(programID, accounts, args, true)

	default:
		return ErrInvalidDiscriminator
	}
}
