package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

type CreateInstructionArgs struct {
	CustomSeeds [][]byte
	Bump        uint8
	OracleTag   StructTag
}

type CreateInstructionAccounts struct {
	Authority ed25519.PublicKey
	Envelope  ed25519.PublicKey
}

// NewCreateInstruction builds the slow-path create: initialize an empty
// envelope at the PDA derived from the authority, the custom seeds, and
// the bump.
//
// Wire format: [discriminator: u32][oracle_tag: u64][num_seeds: u8]
// ([seed_len: u8][seed bytes])*[bump: u8].
func NewCreateInstruction(
	accounts *CreateInstructionAccounts,
	args *CreateInstructionArgs,
) (solana.Instruction, error) {
	if len(args.CustomSeeds) > MaxCustomSeeds {
		return solana.Instruction{}, ErrInvalidArgument
	}

	size := envelopeInstructionSize + 8 + 1 + 1
	for _, seed := range args.CustomSeeds {
		if len(seed) > maxSeedLength {
			return solana.Instruction{}, ErrInvalidArgument
		}
		size += 1 + len(seed)
	}

	var offset int
	data := make([]byte, size)
	putEnvelopeInstruction(data, EnvelopeInstructionCreate, &offset)
	putStructTag(data, args.OracleTag, &offset)
	binary.PutUint8(data, uint8(len(args.CustomSeeds)), &offset)
	for _, seed := range args.CustomSeeds {
		binary.PutUint8(data, uint8(len(seed)), &offset)
		binary.PutData(data, seed, &offset)
	}
	binary.PutUint8(data, args.Bump, &offset)

	return solana.Instruction{
		Program: PROGRAM_ID,

		Data: data,

		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
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
	}, nil
}

func parseCreateArgs(data []byte) (*CreateInstructionArgs, error) {
	if len(data) < 8+1+1 {
		return nil, ErrMalformedInstruction
	}

	var offset int
	var args CreateInstructionArgs
	getStructTag(data, &args.OracleTag, &offset)

	var numSeeds uint8
	binary.GetUint8(data, &numSeeds, &offset)
	if int(numSeeds) > MaxCustomSeeds {
		return nil, ErrMalformedInstruction
	}

	for i := 0; i < int(numSeeds); i++ {
		if offset >= len(data) {
			return nil, ErrMalformedInstruction
		}
		var seedLen uint8
		binary.GetUint8(data, &seedLen, &offset)
		if int(seedLen) > maxSeedLength || offset+int(seedLen) > len(data) {
			return nil, ErrMalformedInstruction
		}
		seed := make([]byte, seedLen)
		binary.GetData(data, seed, int(seedLen), &offset)
		args.CustomSeeds = append(args.CustomSeeds, seed)
	}

	if offset+1 != len(data) {
		return nil, ErrMalformedInstruction
	}
	binary.GetUint8(data, &args.Bump, &offset)

	return &args, nil
}
