package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
)

type SetDelegatedProgramInstructionArgs struct {
	ProgramBitmask Mask
	UserBitmask    Mask
}

type SetDelegatedProgramInstructionAccounts struct {
	Authority           ed25519.PublicKey
	Envelope            ed25519.PublicKey
	DelegationAuthority ed25519.PublicKey
}

// NewSetDelegatedProgramInstruction builds the slow-path delegation
// setup. Both the authority and the delegation authority sign; the two
// masks are installed atomically with the delegation.
//
// Wire format: [discriminator: u32][program_bitmask: 256][user_bitmask: 256].
func NewSetDelegatedProgramInstruction(
	accounts *SetDelegatedProgramInstructionAccounts,
	args *SetDelegatedProgramInstructionArgs,
) (solana.Instruction, error) {
	if !args.ProgramBitmask.IsCanonical() || !args.UserBitmask.IsCanonical() {
		return solana.Instruction{}, ErrInvalidArgument
	}

	var offset int
	data := make([]byte, envelopeInstructionSize+2*MaskSize)
	putEnvelopeInstruction(data, EnvelopeInstructionSetDelegatedProgram, &offset)
	putMask(data, &args.ProgramBitmask, &offset)
	putMask(data, &args.UserBitmask, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Envelope,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.DelegationAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
		},
	}, nil
}

func parseSetDelegatedProgramArgs(data []byte) (*SetDelegatedProgramInstructionArgs, error) {
	if len(data) != 2*MaskSize {
		return nil, ErrMalformedInstruction
	}

	var offset int
	var args SetDelegatedProgramInstructionArgs
	getMask(data, &args.ProgramBitmask, &offset)
	getMask(data, &args.UserBitmask, &offset)

	if !args.ProgramBitmask.IsCanonical() || !args.UserBitmask.IsCanonical() {
		return nil, ErrMalformedInstruction
	}

	return &args, nil
}
