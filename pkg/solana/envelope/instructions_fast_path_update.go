package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

const fastPathHeaderSize = 16 // tag + sequence

type FastPathUpdateInstructionArgs struct {
	Tag      StructTag
	Sequence uint64
	Payload  []byte
}

type FastPathUpdateInstructionAccounts struct {
	Authority ed25519.PublicKey
	Envelope  ed25519.PublicKey
}

// NewFastPathUpdateInstruction builds the two-account fast-path update.
// There is no discriminator: the program routes any two-account
// invocation to the fast path.
//
// Wire format: [tag: u64 LE][sequence: u64 LE][payload: 0..=239 bytes].
func NewFastPathUpdateInstruction(
	accounts *FastPathUpdateInstructionAccounts,
	args *FastPathUpdateInstructionArgs,
) (solana.Instruction, error) {
	if len(args.Payload) > FastDataSize {
		return solana.Instruction{}, ErrPayloadTooLarge
	}

	var offset int
	data := make([]byte, fastPathHeaderSize+len(args.Payload))
	putStructTag(data, args.Tag, &offset)
	binary.PutUint64(data, args.Sequence, &offset)
	binary.PutData(data, args.Payload, &offset)

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
		},
	}, nil
}

func parseFastPathUpdateArgs(data []byte) (*FastPathUpdateInstructionArgs, error) {
	if len(data) < fastPathHeaderSize {
		return nil, ErrMalformedInstruction
	}
	if len(data) > fastPathHeaderSize+FastDataSize {
		return nil, ErrPayloadTooLarge
	}

	var offset int
	var args FastPathUpdateInstructionArgs
	getStructTag(data, &args.Tag, &offset)
	binary.GetUint64(data, &args.Sequence, &offset)
	args.Payload = data[offset:]

	return &args, nil
}
