package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
)

type ClearDelegationInstructionAccounts struct {
	Authority           ed25519.PublicKey
	Envelope            ed25519.PublicKey
	DelegationAuthority ed25519.PublicKey
}

// NewClearDelegationInstruction builds the slow-path delegation teardown.
// Both parties sign. Clearing wipes the fast and aux data slots entirely:
// data written under a mask regime does not survive it.
func NewClearDelegationInstruction(accounts *ClearDelegationInstructionAccounts) solana.Instruction {
	var offset int
	data := make([]byte, envelopeInstructionSize)
	putEnvelopeInstruction(data, EnvelopeInstructionClearDelegation, &offset)

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
				PublicKey:  accounts.DelegationAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
		},
	}
}
