package envelope

import (
	"bytes"
	"crypto/ed25519"
)

// ProcessInstruction executes one envelope program invocation against
// the provided account views. Any invocation with exactly two accounts
// is a fast-path update; everything else is routed through the slow-path
// discriminator.
//
// Every error leaves all accounts unchanged.
func ProcessInstruction(programID ed25519.PublicKey, accounts []*Account, data []byte) error {
	if len(accounts) == 2 {
		return processFastPathUpdate(programID, accounts, data)
	}
	return processSlowPathInstruction(programID, accounts, data)
}

// processFastPathUpdate is the minimal-cost hot-slot write:
// [authority (signer), envelope (writable)], data
// [tag: u64][sequence: u64][payload: 0..=239].
//
// Checks run cheapest-first and all precede the single mutation: signer
// flag, authority identity, tag match, strict sequence increase, payload
// size. The first accepted write to an untyped envelope adopts its tag
// permanently; type migration requires a new envelope.
func processFastPathUpdate(programID ed25519.PublicKey, accounts []*Account, data []byte) error {
	authority, envelopeAccount := accounts[0], accounts[1]

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	obj, err := loadEnvelope(programID, envelopeAccount)
	if err != nil {
		return err
	}

	if !bytes.Equal(obj.Authority, authority.Key) {
		return ErrUnauthorized
	}

	args, err := parseFastPathUpdateArgs(data)
	if err != nil {
		return err
	}

	if !obj.OracleTag.IsZero() && args.Tag != obj.OracleTag {
		return ErrTypeMismatch
	}

	if args.Sequence <= obj.OracleSequence {
		return ErrStaleSequence
	}

	if len(args.Payload) > FastDataSize {
		return ErrPayloadTooLarge
	}

	obj.OracleTag = args.Tag
	obj.OracleSequence = args.Sequence
	copy(obj.FastData[:len(args.Payload)], args.Payload)
	storeEnvelope(envelopeAccount, obj)

	return nil
}
