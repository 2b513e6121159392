package envelope

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-oracles/envelope-server/pkg/solana"
)

var (
	// ErrEnvelopeNotFound indicates there is no account at the given address.
	ErrEnvelopeNotFound = errors.New("envelope not found")
	// ErrInvalidEnvelopeAccount indicates an account exists at the given
	// address, but it is not a valid envelope record.
	ErrInvalidEnvelopeAccount = errors.New("invalid envelope account")
)

// Client provides read access to envelope accounts on a node.
type Client struct {
	sc solana.Client
}

// NewClient creates a new Client.
func NewClient(sc solana.Client) *Client {
	return &Client{
		sc: sc,
	}
}

// GetEnvelope returns the envelope record at the specified address.
func (c *Client) GetEnvelope(address ed25519.PublicKey, commitment solana.Commitment) (*EnvelopeAccount, error) {
	accountInfo, err := c.sc.GetAccountInfo(address, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrEnvelopeNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, PROGRAM_ID) {
		return nil, ErrInvalidEnvelopeAccount
	}

	var obj EnvelopeAccount
	if err := obj.Unmarshal(accountInfo.Data); err != nil {
		return nil, ErrInvalidEnvelopeAccount
	}

	return &obj, nil
}

// ByteChange is one byte that a proposed aux update would modify, with
// the permission each role's mask grants at that offset.
type ByteChange struct {
	Offset           int
	OldValue         byte
	NewValue         byte
	ProgramAllowed   bool
	AuthorityAllowed bool
}

// ChangeReport summarizes a proposed aux update against an envelope's
// masks. Useful for debugging a rejected slow-path write.
type ChangeReport struct {
	Changes          []ByteChange
	ProgramAllowed   bool
	AuthorityAllowed bool
}

// DiffAuxUpdate reports, byte by byte, which changes in the proposed aux
// buffer each role is permitted to make under the envelope's stored
// masks.
func DiffAuxUpdate(obj *EnvelopeAccount, proposed *[AuxDataSize]byte) ChangeReport {
	report := ChangeReport{
		ProgramAllowed:   true,
		AuthorityAllowed: true,
	}

	for i := 0; i < AuxDataSize; i++ {
		if obj.AuxData[i] == proposed[i] {
			continue
		}

		change := ByteChange{
			Offset:           i,
			OldValue:         obj.AuxData[i],
			NewValue:         proposed[i],
			ProgramAllowed:   obj.ProgramBitmask.IsWritable(i),
			AuthorityAllowed: obj.UserBitmask.IsWritable(i),
		}
		report.Changes = append(report.Changes, change)
		report.ProgramAllowed = report.ProgramAllowed && change.ProgramAllowed
		report.AuthorityAllowed = report.AuthorityAllowed && change.AuthorityAllowed
	}

	return report
}
