// Package envelope provides the account model, instruction builders, and
// protocol logic for the oracle envelope program.
//
// An envelope is a fixed-size account holding two data slots: a hot slot
// updated through a minimal two-account fast path, and a permissioned slot
// updated through a slow path governed by per-byte write masks and a
// delegation lifecycle. Both slots are stamped with structural type tags
// so writes can be type-checked without deserialization.
package envelope

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	// todo: setup real program address
	PROGRAM_ADDRESS = mustBase58Decode("enve1ope1111111111111111111111111111111111")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
)

var (
	ErrUnauthorized          = errors.New("signer does not match the required authority")
	ErrMissingSignature      = errors.New("missing required signature")
	ErrTypeMismatch          = errors.New("type tag does not match stored tag")
	ErrStaleSequence         = errors.New("sequence is not strictly greater than stored sequence")
	ErrPayloadTooLarge       = errors.New("payload exceeds data slot size")
	ErrPermissionDenied      = errors.New("write mask blocks a changed byte")
	ErrDelegationNotActive   = errors.New("envelope has no active delegation")
	ErrDelegationActive      = errors.New("envelope has an active delegation")
	ErrSequenceOverflow      = errors.New("sequence counter at maximum value")
	ErrInvalidDiscriminator  = errors.New("unknown instruction discriminator")
	ErrMalformedInstruction  = errors.New("unexpected instruction data")
	ErrInvalidAccountData    = errors.New("unexpected account data")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrNotEnoughAccounts     = errors.New("not enough accounts")
	ErrIncorrectProgramOwner = errors.New("account not owned by the envelope program")
)

const (
	// MaxCustomSeeds is the maximum number of caller-supplied PDA seeds.
	MaxCustomSeeds = 13

	maxSeedLength = 32
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
