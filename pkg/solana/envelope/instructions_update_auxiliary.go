package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

type UpdateAuxiliaryInstructionArgs struct {
	Tag      StructTag
	Sequence uint64
	Data     [AuxDataSize]byte
}

type UpdateAuxiliaryInstructionAccounts struct {
	Authority ed25519.PublicKey
	Envelope  ed25519.PublicKey
}

// NewUpdateAuxiliaryInstruction builds the authority-initiated aux
// update. While delegation is active, changed bytes are checked against
// the user bitmask; without delegation the full buffer is written.
//
// Wire format: [discriminator: u32][tag: u64][sequence: u64][data: 256].
//
// The third account is padding so the invocation never has exactly two
// accounts, which would route it to the fast path.
func NewUpdateAuxiliaryInstruction(
	accounts *UpdateAuxiliaryInstructionAccounts,
	args *UpdateAuxiliaryInstructionArgs,
) solana.Instruction {
	var offset int
	data := make([]byte, envelopeInstructionSize+8+8+AuxDataSize)
	putEnvelopeInstruction(data, EnvelopeInstructionUpdateAuxiliary, &offset)
	putStructTag(data, args.Tag, &offset)
	binary.PutUint64(data, args.Sequence, &offset)
	binary.PutData(data, args.Data[:], &offset)

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
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type UpdateAuxiliaryDelegatedInstructionAccounts struct {
	DelegationAuthority ed25519.PublicKey
	Envelope            ed25519.PublicKey
}

// NewUpdateAuxiliaryDelegatedInstruction builds the delegated-program aux
// update. Only the delegation authority signs; changed bytes are checked
// against the program bitmask.
func NewUpdateAuxiliaryDelegatedInstruction(
	accounts *UpdateAuxiliaryDelegatedInstructionAccounts,
	args *UpdateAuxiliaryInstructionArgs,
) solana.Instruction {
	var offset int
	data := make([]byte, envelopeInstructionSize+8+8+AuxDataSize)
	putEnvelopeInstruction(data, EnvelopeInstructionUpdateAuxiliaryDelegated, &offset)
	putStructTag(data, args.Tag, &offset)
	binary.PutUint64(data, args.Sequence, &offset)
	binary.PutData(data, args.Data[:], &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.DelegationAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Envelope,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

type UpdateAuxiliaryForceInstructionArgs struct {
	Tag               StructTag
	AuthoritySequence uint64
	ProgramSequence   uint64
	Data              [AuxDataSize]byte
}

type UpdateAuxiliaryForceInstructionAccounts struct {
	Authority           ed25519.PublicKey
	Envelope            ed25519.PublicKey
	DelegationAuthority ed25519.PublicKey
}

// NewUpdateAuxiliaryForceInstruction builds the bilateral force update:
// both parties sign, no mask check, and both sequence counters advance
// together. This is the reconciliation escape hatch.
//
// Wire format: [discriminator: u32][tag: u64][authority_sequence: u64]
// [program_sequence: u64][data: 256].
func NewUpdateAuxiliaryForceInstruction(
	accounts *UpdateAuxiliaryForceInstructionAccounts,
	args *UpdateAuxiliaryForceInstructionArgs,
) solana.Instruction {
	var offset int
	data := make([]byte, envelopeInstructionSize+8+8+8+AuxDataSize)
	putEnvelopeInstruction(data, EnvelopeInstructionUpdateAuxiliaryForce, &offset)
	putStructTag(data, args.Tag, &offset)
	binary.PutUint64(data, args.AuthoritySequence, &offset)
	binary.PutUint64(data, args.ProgramSequence, &offset)
	binary.PutData(data, args.Data[:], &offset)

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
	}
}

func parseUpdateAuxiliaryArgs(data []byte) (*UpdateAuxiliaryInstructionArgs, error) {
	if len(data) != 8+8+AuxDataSize {
		return nil, ErrMalformedInstruction
	}

	var offset int
	var args UpdateAuxiliaryInstructionArgs
	getStructTag(data, &args.Tag, &offset)
	binary.GetUint64(data, &args.Sequence, &offset)
	binary.GetData(data, args.Data[:], AuxDataSize, &offset)

	return &args, nil
}

func parseUpdateAuxiliaryForceArgs(data []byte) (*UpdateAuxiliaryForceInstructionArgs, error) {
	if len(data) != 8+8+8+AuxDataSize {
		return nil, ErrMalformedInstruction
	}

	var offset int
	var args UpdateAuxiliaryForceInstructionArgs
	getStructTag(data, &args.Tag, &offset)
	binary.GetUint64(data, &args.AuthoritySequence, &offset)
	binary.GetUint64(data, &args.ProgramSequence, &offset)
	binary.GetData(data, args.Data[:], AuxDataSize, &offset)

	return &args, nil
}
