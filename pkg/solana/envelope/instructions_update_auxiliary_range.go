package envelope

import (
	"github.com/code-oracles/envelope-server/pkg/solana"
	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

// WriteSpec is one contiguous range of an aux data write.
type WriteSpec struct {
	Offset uint8
	Data   []byte
}

// MaxWriteSpecs bounds the number of ranges in a multi-range update.
const MaxWriteSpecs = 16

type UpdateAuxiliaryRangeInstructionArgs struct {
	Tag      StructTag
	Sequence uint64
	Ranges   []WriteSpec
}

// NewUpdateAuxiliaryRangeInstruction builds an authority-initiated
// partial aux update covering one or more byte ranges. Ranges must stay
// within the typed size of the stored aux tag; validation of every range
// precedes application of any.
//
// Wire format, single range:
// [discriminator: u32][tag: u64][sequence: u64][offset: u8][len: u8][bytes].
// Multi range replaces the trailer with
// [count: u8]([offset: u8][len: u8][bytes])*.
func NewUpdateAuxiliaryRangeInstruction(
	accounts *UpdateAuxiliaryInstructionAccounts,
	args *UpdateAuxiliaryRangeInstructionArgs,
) (solana.Instruction, error) {
	data, err := buildRangeData(
		EnvelopeInstructionUpdateAuxiliaryRange,
		EnvelopeInstructionUpdateAuxiliaryMultiRange,
		args,
	)
	if err != nil {
		return solana.Instruction{}, err
	}

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
	}, nil
}

// NewUpdateAuxiliaryDelegatedRangeInstruction is the delegated-program
// counterpart of NewUpdateAuxiliaryRangeInstruction.
func NewUpdateAuxiliaryDelegatedRangeInstruction(
	accounts *UpdateAuxiliaryDelegatedInstructionAccounts,
	args *UpdateAuxiliaryRangeInstructionArgs,
) (solana.Instruction, error) {
	data, err := buildRangeData(
		EnvelopeInstructionUpdateAuxiliaryDelegatedRange,
		EnvelopeInstructionUpdateAuxiliaryDelegatedMultiRange,
		args,
	)
	if err != nil {
		return solana.Instruction{}, err
	}

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
	}, nil
}

func buildRangeData(
	single, multi EnvelopeInstruction,
	args *UpdateAuxiliaryRangeInstructionArgs,
) ([]byte, error) {
	if len(args.Ranges) == 0 || len(args.Ranges) > MaxWriteSpecs {
		return nil, ErrInvalidArgument
	}

	size := envelopeInstructionSize + 8 + 8
	for _, spec := range args.Ranges {
		// length is carried as a u8, so a full-buffer write must use the
		// non-range variant
		if len(spec.Data) == 0 || len(spec.Data) > 255 {
			return nil, ErrInvalidArgument
		}
		size += 2 + len(spec.Data)
	}

	var offset int
	if len(args.Ranges) == 1 {
		data := make([]byte, size)
		putEnvelopeInstruction(data, single, &offset)
		putStructTag(data, args.Tag, &offset)
		binary.PutUint64(data, args.Sequence, &offset)
		putWriteSpec(data, args.Ranges[0], &offset)
		return data, nil
	}

	data := make([]byte, size+1)
	putEnvelopeInstruction(data, multi, &offset)
	putStructTag(data, args.Tag, &offset)
	binary.PutUint64(data, args.Sequence, &offset)
	binary.PutUint8(data, uint8(len(args.Ranges)), &offset)
	for _, spec := range args.Ranges {
		putWriteSpec(data, spec, &offset)
	}
	return data, nil
}

func putWriteSpec(dst []byte, spec WriteSpec, offset *int) {
	binary.PutUint8(dst, spec.Offset, offset)
	binary.PutUint8(dst, uint8(len(spec.Data)), offset)
	binary.PutData(dst, spec.Data, offset)
}

func getWriteSpec(src []byte, dst *WriteSpec, offset *int) error {
	if *offset+2 > len(src) {
		return ErrMalformedInstruction
	}
	var length uint8
	binary.GetUint8(src, &dst.Offset, offset)
	binary.GetUint8(src, &length, offset)
	if length == 0 || *offset+int(length) > len(src) {
		return ErrMalformedInstruction
	}
	dst.Data = make([]byte, length)
	binary.GetData(src, dst.Data, int(length), offset)
	return nil
}

func parseUpdateAuxiliaryRangeArgs(data []byte, multi bool) (*UpdateAuxiliaryRangeInstructionArgs, error) {
	if len(data) < 8+8+1 {
		return nil, ErrMalformedInstruction
	}

	var offset int
	var args UpdateAuxiliaryRangeInstructionArgs
	getStructTag(data, &args.Tag, &offset)
	binary.GetUint64(data, &args.Sequence, &offset)

	count := 1
	if multi {
		var n uint8
		binary.GetUint8(data, &n, &offset)
		if n == 0 || int(n) > MaxWriteSpecs {
			return nil, ErrMalformedInstruction
		}
		count = int(n)
	}

	for i := 0; i < count; i++ {
		var spec WriteSpec
		if err := getWriteSpec(data, &spec, &offset); err != nil {
			return nil, err
		}
		args.Ranges = append(args.Ranges, spec)
	}

	if offset != len(data) {
		return nil, ErrMalformedInstruction
	}

	return &args, nil
}
