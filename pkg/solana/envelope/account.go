package envelope

import (
	"bytes"
	"crypto/ed25519"
)

// Account is the runtime view of one account participating in an
// instruction, as handed over by the dispatch layer. Signer and
// writability flags were checked by that layer against the transaction;
// all authorization decisions (identity comparisons, mask checks) are
// re-derived here.
type Account struct {
	Key        ed25519.PublicKey
	Owner      ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	Lamports   uint64
	Data       []byte
}

func (a *Account) ownedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// loadEnvelope unmarshals the envelope record out of a program-owned
// account.
func loadEnvelope(programID ed25519.PublicKey, account *Account) (*EnvelopeAccount, error) {
	if !account.ownedBy(programID) {
		return nil, ErrIncorrectProgramOwner
	}

	var obj EnvelopeAccount
	if err := obj.Unmarshal(account.Data); err != nil {
		return nil, err
	}
	return &obj, nil
}

// storeEnvelope writes the record back. Processors only call this after
// every validation has passed, so a failed instruction never leaves a
// partial write.
func storeEnvelope(account *Account, obj *EnvelopeAccount) {
	copy(account.Data, obj.Marshal())
}

// verifyDelegationAuthority confirms the account signed and matches the
// envelope's stored delegation authority.
func verifyDelegationAuthority(account *Account, expected ed25519.PublicKey) error {
	if !account.IsSigner {
		return ErrMissingSignature
	}
	if !bytes.Equal(account.Key, expected) {
		return ErrUnauthorized
	}
	return nil
}
