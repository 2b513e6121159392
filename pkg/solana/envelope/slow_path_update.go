package envelope

import (
	"bytes"
	"crypto/ed25519"
)

// processUpdateAuxiliary writes aux data as the envelope authority.
//
// Accounts: [authority (signer), envelope (writable), padding].
//
// While delegation is active, bytes that differ from current content
// must be writable under the user bitmask. Without delegation the
// authority owns the whole slot and the buffer is written outright.
// Sequence and tag rules match the fast path: strict increase, one-shot
// tag adoption.
func processUpdateAuxiliary(programID ed25519.PublicKey, accounts []*Account, args *UpdateAuxiliaryInstructionArgs) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
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

	if !obj.AuxTag.IsZero() && args.Tag != obj.AuxTag {
		return ErrTypeMismatch
	}

	if args.Sequence <= obj.AuthorityAuxSequence {
		return ErrStaleSequence
	}

	if obj.HasDelegation() {
		if !obj.UserBitmask.ApplyMaskedUpdate(&obj.AuxData, &args.Data) {
			return ErrPermissionDenied
		}
	} else {
		obj.AuxData = args.Data
	}

	obj.AuxTag = args.Tag
	obj.AuthorityAuxSequence = args.Sequence
	storeEnvelope(envelopeAccount, obj)

	return nil
}

// processUpdateAuxiliaryDelegated writes aux data as the delegated
// program.
//
// Accounts: [delegation_authority (signer), envelope (writable), padding].
//
// Requires an active delegation; changed bytes are checked against the
// program bitmask.
func processUpdateAuxiliaryDelegated(programID ed25519.PublicKey, accounts []*Account, args *UpdateAuxiliaryInstructionArgs) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	delegationAuthority, envelopeAccount := accounts[0], accounts[1]

	obj, err := loadEnvelope(programID, envelopeAccount)
	if err != nil {
		return err
	}

	if !obj.HasDelegation() {
		return ErrDelegationNotActive
	}

	if err := verifyDelegationAuthority(delegationAuthority, obj.DelegationAuthority); err != nil {
		return err
	}

	if !obj.AuxTag.IsZero() && args.Tag != obj.AuxTag {
		return ErrTypeMismatch
	}

	if args.Sequence <= obj.ProgramAuxSequence {
		return ErrStaleSequence
	}

	if !obj.ProgramBitmask.ApplyMaskedUpdate(&obj.AuxData, &args.Data) {
		return ErrPermissionDenied
	}

	obj.AuxTag = args.Tag
	obj.ProgramAuxSequence = args.Sequence
	storeEnvelope(envelopeAccount, obj)

	return nil
}

// processUpdateAuxiliaryForce overwrites aux data with no mask check,
// under full bilateral consent.
//
// Accounts: [authority (signer), envelope (writable),
// delegation_authority (signer)].
//
// Both sequence counters must strictly advance and are set together.
// This is the reconciliation escape hatch for drifted counters or mask
// migrations; it trades isolation for dual authorization.
func processUpdateAuxiliaryForce(programID ed25519.PublicKey, accounts []*Account, args *UpdateAuxiliaryForceInstructionArgs) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	authority, envelopeAccount, delegationAuthority := accounts[0], accounts[1], accounts[2]

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

	if !obj.HasDelegation() {
		return ErrDelegationNotActive
	}

	if err := verifyDelegationAuthority(delegationAuthority, obj.DelegationAuthority); err != nil {
		return err
	}

	if !obj.AuxTag.IsZero() && args.Tag != obj.AuxTag {
		return ErrTypeMismatch
	}

	if args.AuthoritySequence <= obj.AuthorityAuxSequence {
		return ErrStaleSequence
	}

	if args.ProgramSequence <= obj.ProgramAuxSequence {
		return ErrStaleSequence
	}

	obj.AuxData = args.Data
	obj.AuxTag = args.Tag
	obj.AuthorityAuxSequence = args.AuthoritySequence
	obj.ProgramAuxSequence = args.ProgramSequence
	storeEnvelope(envelopeAccount, obj)

	return nil
}

// processUpdateAuxiliaryRanges applies one or more partial writes to the
// aux slot. The stored aux tag must already match the instruction tag:
// partial writes cannot adopt a type. Validation is two-phase — bounds
// against the typed size and mask checks against current content for
// every range — before any range is applied.
func processUpdateAuxiliaryRanges(programID ed25519.PublicKey, accounts []*Account, args *UpdateAuxiliaryRangeInstructionArgs, delegated bool) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	signer, envelopeAccount := accounts[0], accounts[1]

	obj, err := loadEnvelope(programID, envelopeAccount)
	if err != nil {
		return err
	}

	var mask *Mask
	if delegated {
		if !obj.HasDelegation() {
			return ErrDelegationNotActive
		}
		if err := verifyDelegationAuthority(signer, obj.DelegationAuthority); err != nil {
			return err
		}
		mask = &obj.ProgramBitmask
	} else {
		if !signer.IsSigner {
			return ErrMissingSignature
		}
		if !bytes.Equal(obj.Authority, signer.Key) {
			return ErrUnauthorized
		}
		if obj.HasDelegation() {
			mask = &obj.UserBitmask
		}
	}

	if obj.AuxTag.IsZero() || args.Tag != obj.AuxTag {
		return ErrTypeMismatch
	}

	var sequence *uint64
	if delegated {
		sequence = &obj.ProgramAuxSequence
	} else {
		sequence = &obj.AuthorityAuxSequence
	}
	if args.Sequence <= *sequence {
		return ErrStaleSequence
	}

	typeSize := obj.AuxTag.TypeSize()
	for _, spec := range args.Ranges {
		end := int(spec.Offset) + len(spec.Data)
		if len(spec.Data) == 0 || end > typeSize {
			return ErrMalformedInstruction
		}
		if mask != nil && !mask.CheckRange(obj.AuxData[:], int(spec.Offset), spec.Data) {
			return ErrPermissionDenied
		}
	}

	for _, spec := range args.Ranges {
		copy(obj.AuxData[int(spec.Offset):], spec.Data)
	}
	*sequence = args.Sequence
	storeEnvelope(envelopeAccount, obj)

	return nil
}
