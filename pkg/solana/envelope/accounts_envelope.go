package envelope

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

const (
	// FastDataSize is the capacity of the fast (oracle) data slot.
	FastDataSize = 239

	// AuxDataSize is the capacity of the permissioned (aux) data slot.
	AuxDataSize = 256

	EnvelopeAccountSize = (8 + // discriminator
		32 + // authority
		1 + // bump
		7 + // padding
		32 + // delegation_authority
		MaskSize + // program_bitmask
		MaskSize + // user_bitmask
		8 + // oracle_sequence
		8 + // oracle_tag
		FastDataSize + // fast_data
		1 + // padding
		8 + // authority_aux_sequence
		8 + // program_aux_sequence
		8 + // aux_tag
		AuxDataSize) // aux_data
)

// The layout is append-only with fixed offsets; any change requires a new
// discriminator, since deployed records cannot be migrated in place.
var EnvelopeAccountDiscriminator = []byte("envelope")

var zeroAddress = make([]byte, ed25519.PublicKeySize)

// EnvelopeAccount is the persisted envelope record.
type EnvelopeAccount struct {
	Authority ed25519.PublicKey
	Bump      uint8

	// Zero when delegation is inactive. Both masks are all-blocked
	// whenever delegation is inactive.
	DelegationAuthority ed25519.PublicKey
	ProgramBitmask      Mask
	UserBitmask         Mask

	OracleSequence uint64
	OracleTag      StructTag
	FastData       [FastDataSize]byte

	AuthorityAuxSequence uint64
	ProgramAuxSequence   uint64
	AuxTag               StructTag
	AuxData              [AuxDataSize]byte
}

// NewEnvelopeAccount returns a freshly initialized envelope: zeroed slots,
// no delegation, all-blocked masks, sequences at zero.
func NewEnvelopeAccount(authority ed25519.PublicKey, bump uint8) *EnvelopeAccount {
	return &EnvelopeAccount{
		Authority:           authority,
		Bump:                bump,
		DelegationAuthority: make([]byte, ed25519.PublicKeySize),
		ProgramBitmask:      AllBlockedMask(),
		UserBitmask:         AllBlockedMask(),
	}
}

func (obj *EnvelopeAccount) Marshal() []byte {
	data := make([]byte, EnvelopeAccountSize)

	var offset int
	putDiscriminator(data, EnvelopeAccountDiscriminator, &offset)
	binary.PutKey32(data, obj.Authority, &offset)
	binary.PutUint8(data, obj.Bump, &offset)
	offset += 7 // padding
	binary.PutKey32(data, obj.DelegationAuthority, &offset)
	putMask(data, &obj.ProgramBitmask, &offset)
	putMask(data, &obj.UserBitmask, &offset)
	binary.PutUint64(data, obj.OracleSequence, &offset)
	putStructTag(data, obj.OracleTag, &offset)
	binary.PutData(data, obj.FastData[:], &offset)
	offset += 1 // padding
	binary.PutUint64(data, obj.AuthorityAuxSequence, &offset)
	binary.PutUint64(data, obj.ProgramAuxSequence, &offset)
	putStructTag(data, obj.AuxTag, &offset)
	binary.PutData(data, obj.AuxData[:], &offset)

	return data
}

func (obj *EnvelopeAccount) Unmarshal(data []byte) error {
	if len(data) != EnvelopeAccountSize {
		return ErrInvalidAccountData
	}

	var offset int

	var discriminator []byte
	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, EnvelopeAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	binary.GetKey32(data, &obj.Authority, &offset)
	binary.GetUint8(data, &obj.Bump, &offset)
	offset += 7 // padding
	binary.GetKey32(data, &obj.DelegationAuthority, &offset)
	getMask(data, &obj.ProgramBitmask, &offset)
	getMask(data, &obj.UserBitmask, &offset)
	binary.GetUint64(data, &obj.OracleSequence, &offset)
	getStructTag(data, &obj.OracleTag, &offset)
	binary.GetData(data, obj.FastData[:], FastDataSize, &offset)
	offset += 1 // padding
	binary.GetUint64(data, &obj.AuthorityAuxSequence, &offset)
	binary.GetUint64(data, &obj.ProgramAuxSequence, &offset)
	getStructTag(data, &obj.AuxTag, &offset)
	binary.GetData(data, obj.AuxData[:], AuxDataSize, &offset)

	return nil
}

// HasDelegation reports whether a delegated program currently holds write
// rights into the aux data slot.
func (obj *EnvelopeAccount) HasDelegation() bool {
	return len(obj.DelegationAuthority) == ed25519.PublicKeySize &&
		!bytes.Equal(obj.DelegationAuthority, zeroAddress)
}

// Oracle returns the typed prefix of the fast data slot when the stored
// oracle tag matches the shape. The second return is false when the slot
// is untyped or typed differently.
func (obj *EnvelopeAccount) Oracle(shape Shape) ([]byte, bool) {
	tag, err := TagOf(shape)
	if err != nil || tag.IsZero() || obj.OracleTag != tag || tag.TypeSize() > FastDataSize {
		return nil, false
	}
	return obj.FastData[:tag.TypeSize()], true
}

// Aux returns the typed prefix of the aux data slot when the stored aux
// tag matches the shape.
func (obj *EnvelopeAccount) Aux(shape Shape) ([]byte, bool) {
	tag, err := TagOf(shape)
	if err != nil || tag.IsZero() || obj.AuxTag != tag {
		return nil, false
	}
	return obj.AuxData[:tag.TypeSize()], true
}

func (obj *EnvelopeAccount) String() string {
	return fmt.Sprintf(
		"EnvelopeAccount{authority=%s,bump=%d,delegation=%s,oracle_sequence=%d,oracle_tag=%s,authority_aux_sequence=%d,program_aux_sequence=%d,aux_tag=%s}",
		base58.Encode(obj.Authority),
		obj.Bump,
		base58.Encode(obj.DelegationAuthority),
		obj.OracleSequence,
		obj.OracleTag.String(),
		obj.AuthorityAuxSequence,
		obj.ProgramAuxSequence,
		obj.AuxTag.String(),
	)
}

func putDiscriminator(dst []byte, v []byte, offset *int) {
	copy(dst[*offset:], v)
	*offset += 8
}

func getDiscriminator(src []byte, dst *[]byte, offset *int) {
	*dst = make([]byte, 8)
	copy(*dst, src[*offset:])
	*offset += 8
}
