package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
)

// CreateProgramAddress derives a program address from a program id and a
// set of seeds.
//
// Program addresses must not lie on the ed25519 curve, so that no private
// key can exist for them. If the derived hash is a valid curve point,
// ErrInvalidPublicKey is returned and the caller should try a different
// bump seed.
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
		h.Write(s)
	}
	h.Write(program)
	h.Write([]byte("ProgramDerivedAddress"))

	var pub [32]byte
	copy(pub[:], h.Sum(nil))

	// Reject hashes that decompress to a valid edwards point. The x/crypto
	// internals aren't exported, so the check relies on the jdgcs fork.
	var p edwards25519.ExtendedGroupElement
	if p.FromBytes(&pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// FindProgramAddressAndBump finds the first off-curve program address for
// the given seeds, searching bump values downward from 255. It returns the
// address and the bump seed that produced it.
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bump := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bump)...)
		if err == nil {
			return pub, bump[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bump[0]--
	}

	return nil, 0, errors.New("exhausted bump seeds")
}

// FindProgramAddress finds the first off-curve program address for the
// given seeds.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}
