package envelope

import (
	"crypto/ed25519"

	"github.com/code-oracles/envelope-server/pkg/solana"
)

type CloseInstructionAccounts struct {
	Authority ed25519.PublicKey
	Envelope  ed25519.PublicKey
	Recipient ed25519.PublicKey
}

// NewCloseInstruction builds the slow-path close: deallocate the envelope
// and send its lamports to the recipient. Rejected on chain while a
// delegation is active.
func NewCloseInstruction(accounts *CloseInstructionAccounts) solana.Instruction {
	var offset int
	data := make([]byte, envelopeInstructionSize)
	putEnvelopeInstruction(data, EnvelopeInstructionClose, &offset)

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
				PublicKey:  accounts.Recipient,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}
