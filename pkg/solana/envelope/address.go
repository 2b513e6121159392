package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
)

var EnvelopePrefix = []byte("envelope")

type GetEnvelopeAddressArgs struct {
	Authority   ed25519.PublicKey
	CustomSeeds [][]byte
}

// GetEnvelopeAddress derives the envelope PDA for an authority and an
// optional set of custom seeds (up to MaxCustomSeeds, each at most 32
// bytes).
func GetEnvelopeAddress(args *GetEnvelopeAddressArgs) (ed25519.PublicKey, uint8, error) {
	seeds, err := envelopeSeeds(args.Authority, args.CustomSeeds)
	if err != nil {
		return nil, 0, err
	}
	return solana.FindProgramAddressAndBump(PROGRAM_ID, seeds...)
}

// CreateEnvelopeAddress recomputes the envelope PDA for a known bump.
func CreateEnvelopeAddress(args *GetEnvelopeAddressArgs, bump uint8) (ed25519.PublicKey, error) {
	seeds, err := envelopeSeeds(args.Authority, args.CustomSeeds)
	if err != nil {
		return nil, err
	}
	return solana.CreateProgramAddress(PROGRAM_ID, append(seeds, []byte{bump})...)
}

func envelopeSeeds(authority ed25519.PublicKey, customSeeds [][]byte) ([][]byte, error) {
	if len(customSeeds) > MaxCustomSeeds {
		return nil, ErrInvalidArgument
	}
	for _, seed := range customSeeds {
		if len(seed) > maxSeedLength {
			return nil, ErrInvalidArgument
		}
	}

	seeds := make([][]byte, 0, 2+len(customSeeds))
	seeds = append(seeds, EnvelopePrefix, authority)
	seeds = append(seeds, customSeeds...)
	return seeds, nil
}
