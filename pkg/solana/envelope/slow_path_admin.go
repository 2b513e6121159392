package envelope

import (
	"bytes"
	"crypto/ed25519"
)

// processCreate initializes an envelope at its PDA.
//
// Accounts: [authority (signer, writable), envelope (writable), system].
//
// Create is idempotent: if the envelope already exists with matching
// authority and bump, it succeeds without touching it. Account funding
// and allocation mechanics belong to the host account system; here the
// record is materialized directly on the envelope view.
func processCreate(programID ed25519.PublicKey, accounts []*Account, args *CreateInstructionArgs) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	authority, envelopeAccount := accounts[0], accounts[1]

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	expected, err := CreateEnvelopeAddress(&GetEnvelopeAddressArgs{
		Authority:   authority.Key,
		CustomSeeds: args.CustomSeeds,
	}, args.Bump)
	if err != nil {
		return ErrInvalidArgument
	}
	if !bytes.Equal(envelopeAccount.Key, expected) {
		return ErrInvalidArgument
	}

	if envelopeAccount.ownedBy(programID) {
		existing, err := loadEnvelope(programID, envelopeAccount)
		if err != nil {
			return err
		}
		if !bytes.Equal(existing.Authority, authority.Key) {
			return ErrUnauthorized
		}
		if existing.Bump != args.Bump {
			return ErrInvalidArgument
		}
		return nil
	}

	if !envelopeAccount.ownedBy(SYSTEM_PROGRAM_ID) {
		return ErrIncorrectProgramOwner
	}
	if len(envelopeAccount.Data) != 0 {
		return ErrInvalidAccountData
	}

	obj := NewEnvelopeAccount(authority.Key, args.Bump)
	obj.OracleTag = args.OracleTag

	envelopeAccount.Owner = programID
	envelopeAccount.Data = obj.Marshal()

	return nil
}

// processClose deallocates an envelope and sends its lamports to the
// recipient.
//
// Accounts: [authority (signer), envelope (writable), recipient (writable)].
//
// Blocked while delegation is active; the recipient must differ from the
// envelope. Data is zero-filled before deallocation.
func processClose(programID ed25519.PublicKey, accounts []*Account) error {
	if len(accounts) < 3 {
		return ErrNotEnoughAccounts
	}
	authority, envelopeAccount, recipient := accounts[0], accounts[1], accounts[2]

	if !authority.IsSigner {
		return ErrMissingSignature
	}

	if bytes.Equal(envelopeAccount.Key, recipient.Key) {
		return ErrInvalidArgument
	}

	obj, err := loadEnvelope(programID, envelopeAccount)
	if err != nil {
		return err
	}

	if !bytes.Equal(obj.Authority, authority.Key) {
		return ErrUnauthorized
	}

	if obj.HasDelegation() {
		return ErrDelegationActive
	}

	for i := range envelopeAccount.Data {
		envelopeAccount.Data[i] = 0
	}

	recipient.Lamports += envelopeAccount.Lamports
	envelopeAccount.Lamports = 0
	envelopeAccount.Data = nil
	envelopeAccount.Owner = SYSTEM_PROGRAM_ID

	return nil
}

// processSetDelegatedProgram moves the envelope from Undelegated to
// Delegated, installing the delegation authority and both masks
// atomically.
//
// Accounts: [authority (signer), envelope (writable),
// delegation_authority (signer)]. Both parties must consent; the stored
// masks must still be all-blocked, which they are in every Undelegated
// envelope.
func processSetDelegatedProgram(programID ed25519.PublicKey, accounts []*Account, args *SetDelegatedProgramInstructionArgs) error {
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

	if obj.HasDelegation() {
		return ErrDelegationActive
	}

	if !obj.ProgramBitmask.IsAllBlocked() || !obj.UserBitmask.IsAllBlocked() {
		return ErrInvalidAccountData
	}

	if !delegationAuthority.IsSigner {
		return ErrMissingSignature
	}

	if bytes.Equal(delegationAuthority.Key, zeroAddress) {
		return ErrInvalidArgument
	}

	obj.DelegationAuthority = delegationAuthority.Key
	obj.ProgramBitmask = args.ProgramBitmask
	obj.UserBitmask = args.UserBitmask
	storeEnvelope(envelopeAccount, obj)

	return nil
}

// processClearDelegation moves the envelope back to Undelegated.
//
// Accounts: [authority (signer), envelope (writable),
// delegation_authority (signer)].
//
// Both data slots, both tags, and both masks are wiped along with the
// delegation: content written under one mask regime must not become
// readable under a future, different one.
func processClearDelegation(programID ed25519.PublicKey, accounts []*Account) error {
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

	obj.DelegationAuthority = make([]byte, ed25519.PublicKeySize)
	obj.ProgramBitmask = AllBlockedMask()
	obj.UserBitmask = AllBlockedMask()
	obj.OracleSequence = 0
	obj.OracleTag = ZeroStructTag
	obj.FastData = [FastDataSize]byte{}
	obj.AuxTag = ZeroStructTag
	obj.AuxData = [AuxDataSize]byte{}
	storeEnvelope(envelopeAccount, obj)

	return nil
}
