package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuxShape = StructOf("feed_state",
	Field{Shape: U64, Access: AccessProgram},    // [0, 8)
	Field{Shape: U64, Access: AccessAuthority},  // [8, 16)
	Field{Shape: U32, Access: AccessShared},     // [16, 20)
	Field{Shape: Bytes(12), Access: AccessNone}, // [20, 32)
)

type testParties struct {
	authority   *Account
	delegation  *Account
	envelope    *Account
	padding     *Account
	programMask Mask
	userMask    Mask
}

func newTestParties(t *testing.T) *testParties {
	keys := generateKeys(t, 2)

	programMask, userMask, err := CompileMasks(testAuxShape)
	require.NoError(t, err)

	return &testParties{
		authority:   &Account{Key: keys[0], IsSigner: true},
		delegation:  &Account{Key: keys[1], IsSigner: true},
		envelope:    newTestEnvelope(t, keys[0]),
		padding:     &Account{Key: SYSTEM_PROGRAM_ID},
		programMask: programMask,
		userMask:    userMask,
	}
}

func (p *testParties) delegate(t *testing.T) {
	instruction, err := NewSetDelegatedProgramInstruction(
		&SetDelegatedProgramInstructionAccounts{
			Authority:           p.authority.Key,
			Envelope:            p.envelope.Key,
			DelegationAuthority: p.delegation.Key,
		},
		&SetDelegatedProgramInstructionArgs{
			ProgramBitmask: p.programMask,
			UserBitmask:    p.userMask,
		},
	)
	require.NoError(t, err)
	require.NoError(t, ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.delegation}, instruction.Data))
}

func (p *testParties) updateAuxiliary(tag StructTag, sequence uint64, data [AuxDataSize]byte) error {
	instruction := NewUpdateAuxiliaryInstruction(
		&UpdateAuxiliaryInstructionAccounts{Authority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryInstructionArgs{Tag: tag, Sequence: sequence, Data: data},
	)
	return ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, instruction.Data)
}

func (p *testParties) updateAuxiliaryDelegated(tag StructTag, sequence uint64, data [AuxDataSize]byte) error {
	instruction := NewUpdateAuxiliaryDelegatedInstruction(
		&UpdateAuxiliaryDelegatedInstructionAccounts{DelegationAuthority: p.delegation.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryInstructionArgs{Tag: tag, Sequence: sequence, Data: data},
	)
	return ProcessInstruction(PROGRAM_ID,
		[]*Account{p.delegation, p.envelope, p.padding}, instruction.Data)
}

func TestCreate(t *testing.T) {
	keys := generateKeys(t, 2)
	address, bump, err := GetEnvelopeAddress(&GetEnvelopeAddressArgs{
		Authority:   keys[0],
		CustomSeeds: [][]byte{[]byte("spot")},
	})
	require.NoError(t, err)

	authority := &Account{Key: keys[0], IsSigner: true, IsWritable: true}
	envelopeAccount := &Account{Key: address, Owner: SYSTEM_PROGRAM_ID, IsWritable: true}
	system := &Account{Key: SYSTEM_PROGRAM_ID}
	accounts := []*Account{authority, envelopeAccount, system}

	instruction, err := NewCreateInstruction(
		&CreateInstructionAccounts{Authority: keys[0], Envelope: address},
		&CreateInstructionArgs{
			CustomSeeds: [][]byte{[]byte("spot")},
			Bump:        bump,
			OracleTag:   MustTagOf(U64),
		},
	)
	require.NoError(t, err)

	require.NoError(t, ProcessInstruction(PROGRAM_ID, accounts, instruction.Data))
	require.True(t, envelopeAccount.ownedBy(PROGRAM_ID))

	obj := loadTestEnvelope(t, envelopeAccount)
	assert.Equal(t, []byte(keys[0]), []byte(obj.Authority))
	assert.Equal(t, bump, obj.Bump)
	assert.Equal(t, MustTagOf(U64), obj.OracleTag)
	assert.False(t, obj.HasDelegation())

	// idempotent when the envelope already exists with matching identity
	require.NoError(t, ProcessInstruction(PROGRAM_ID, accounts, instruction.Data))

	// a different authority cannot re-create it
	other := &Account{Key: keys[1], IsSigner: true, IsWritable: true}
	err = ProcessInstruction(PROGRAM_ID, []*Account{other, envelopeAccount, system}, instruction.Data)
	assert.Error(t, err)
}

func TestCreate_WrongAddress(t *testing.T) {
	keys := generateKeys(t, 2)
	_, bump, err := GetEnvelopeAddress(&GetEnvelopeAddressArgs{Authority: keys[0]})
	require.NoError(t, err)

	authority := &Account{Key: keys[0], IsSigner: true, IsWritable: true}
	wrong := &Account{Key: keys[1], Owner: SYSTEM_PROGRAM_ID, IsWritable: true}
	system := &Account{Key: SYSTEM_PROGRAM_ID}

	instruction, err := NewCreateInstruction(
		&CreateInstructionAccounts{Authority: keys[0], Envelope: keys[1]},
		&CreateInstructionArgs{Bump: bump},
	)
	require.NoError(t, err)

	err = ProcessInstruction(PROGRAM_ID, []*Account{authority, wrong, system}, instruction.Data)
	assert.Equal(t, ErrInvalidArgument, err)
}

func TestSetDelegatedProgram(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)

	obj := loadTestEnvelope(t, p.envelope)
	assert.True(t, obj.HasDelegation())
	assert.Equal(t, []byte(p.delegation.Key), []byte(obj.DelegationAuthority))
	assert.Equal(t, p.programMask, obj.ProgramBitmask)
	assert.Equal(t, p.userMask, obj.UserBitmask)
}

func TestSetDelegatedProgram_Failures(t *testing.T) {
	p := newTestParties(t)

	instruction, err := NewSetDelegatedProgramInstruction(
		&SetDelegatedProgramInstructionAccounts{
			Authority:           p.authority.Key,
			Envelope:            p.envelope.Key,
			DelegationAuthority: p.delegation.Key,
		},
		&SetDelegatedProgramInstructionArgs{
			ProgramBitmask: p.programMask,
			UserBitmask:    p.userMask,
		},
	)
	require.NoError(t, err)

	// delegation authority must consent
	unsigned := &Account{Key: p.delegation.Key}
	err = ProcessInstruction(PROGRAM_ID, []*Account{p.authority, p.envelope, unsigned}, instruction.Data)
	assert.Equal(t, ErrMissingSignature, err)
	assert.False(t, loadTestEnvelope(t, p.envelope).HasDelegation())

	// no Delegated -> Delegated transition
	p.delegate(t)
	err = ProcessInstruction(PROGRAM_ID, []*Account{p.authority, p.envelope, p.delegation}, instruction.Data)
	assert.Equal(t, ErrDelegationActive, err)
}

func TestUpdateAuxiliary_Undelegated(t *testing.T) {
	p := newTestParties(t)
	tag := MustTagOf(testAuxShape)

	// without delegation the authority owns the full slot
	var data [AuxDataSize]byte
	for i := range data[:32] {
		data[i] = 0xEE
	}
	require.NoError(t, p.updateAuxiliary(tag, 1, data))

	obj := loadTestEnvelope(t, p.envelope)
	assert.Equal(t, data, obj.AuxData)
	assert.EqualValues(t, 1, obj.AuthorityAuxSequence)
	assert.Equal(t, tag, obj.AuxTag)
}

func TestUpdateAuxiliary_DelegatedMask(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	// authority territory: [8, 16) and shared [16, 20)
	var data [AuxDataSize]byte
	data[8] = 1
	data[16] = 2
	require.NoError(t, p.updateAuxiliary(tag, 1, data))

	// program-only territory [0, 8) is off limits
	data[0] = 3
	err := p.updateAuxiliary(tag, 2, data)
	assert.Equal(t, ErrPermissionDenied, err)

	obj := loadTestEnvelope(t, p.envelope)
	assert.EqualValues(t, 1, obj.AuthorityAuxSequence)
	assert.Zero(t, obj.AuxData[0])
	assert.EqualValues(t, 1, obj.AuxData[8])
}

func TestUpdateAuxiliaryDelegated(t *testing.T) {
	p := newTestParties(t)
	tag := MustTagOf(testAuxShape)

	var data [AuxDataSize]byte
	data[0] = 1

	// requires an active delegation
	err := p.updateAuxiliaryDelegated(tag, 1, data)
	assert.Equal(t, ErrDelegationNotActive, err)

	p.delegate(t)
	require.NoError(t, p.updateAuxiliaryDelegated(tag, 1, data))

	obj := loadTestEnvelope(t, p.envelope)
	assert.EqualValues(t, 1, obj.ProgramAuxSequence)
	assert.Zero(t, obj.AuthorityAuxSequence)
	assert.EqualValues(t, 1, obj.AuxData[0])

	// authority territory is off limits for the program
	data[8] = 2
	err = p.updateAuxiliaryDelegated(tag, 2, data)
	assert.Equal(t, ErrPermissionDenied, err)

	// wrong signer
	instruction := NewUpdateAuxiliaryDelegatedInstruction(
		&UpdateAuxiliaryDelegatedInstructionAccounts{DelegationAuthority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryInstructionArgs{Tag: tag, Sequence: 3, Data: data},
	)
	err = ProcessInstruction(PROGRAM_ID, []*Account{p.authority, p.envelope, p.padding}, instruction.Data)
	assert.Equal(t, ErrUnauthorized, err)
}

func TestUpdateAuxiliary_SequencesAreIndependent(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	var authorityData, programData [AuxDataSize]byte
	authorityData[8] = 1
	programData[0] = 1

	require.NoError(t, p.updateAuxiliary(tag, 3, authorityData))

	// the program's counter is untouched by authority writes
	programData[8] = 1 // keep authority byte unchanged
	require.NoError(t, p.updateAuxiliaryDelegated(tag, 1, programData))

	obj := loadTestEnvelope(t, p.envelope)
	assert.EqualValues(t, 3, obj.AuthorityAuxSequence)
	assert.EqualValues(t, 1, obj.ProgramAuxSequence)
}

func TestUpdateAuxiliaryForce(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	// force writes into AccessNone territory, which no mask permits
	var data [AuxDataSize]byte
	data[20] = 0xFF

	buildForce := func(authoritySeq, programSeq uint64) []byte {
		instruction := NewUpdateAuxiliaryForceInstruction(
			&UpdateAuxiliaryForceInstructionAccounts{
				Authority:           p.authority.Key,
				Envelope:            p.envelope.Key,
				DelegationAuthority: p.delegation.Key,
			},
			&UpdateAuxiliaryForceInstructionArgs{
				Tag:               tag,
				AuthoritySequence: authoritySeq,
				ProgramSequence:   programSeq,
				Data:              data,
			},
		)
		return instruction.Data
	}
	accounts := []*Account{p.authority, p.envelope, p.delegation}

	require.NoError(t, ProcessInstruction(PROGRAM_ID, accounts, buildForce(1, 1)))

	obj := loadTestEnvelope(t, p.envelope)
	assert.EqualValues(t, 0xFF, obj.AuxData[20])
	assert.EqualValues(t, 1, obj.AuthorityAuxSequence)
	assert.EqualValues(t, 1, obj.ProgramAuxSequence)

	// both counters must advance
	assert.Equal(t, ErrStaleSequence, ProcessInstruction(PROGRAM_ID, accounts, buildForce(1, 2)))
	assert.Equal(t, ErrStaleSequence, ProcessInstruction(PROGRAM_ID, accounts, buildForce(2, 1)))

	// both parties must sign
	unsigned := &Account{Key: p.delegation.Key}
	err := ProcessInstruction(PROGRAM_ID, []*Account{p.authority, p.envelope, unsigned}, buildForce(2, 2))
	assert.Equal(t, ErrMissingSignature, err)
}

func TestClearDelegation(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	var data [AuxDataSize]byte
	data[8] = 1
	require.NoError(t, p.updateAuxiliary(tag, 1, data))

	fastTag := MustTagOf(U64)
	fastAccounts := []*Account{p.authority, p.envelope}
	require.NoError(t, ProcessInstruction(PROGRAM_ID, fastAccounts, fastPathData(t, fastTag, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})))

	instruction := NewClearDelegationInstruction(&ClearDelegationInstructionAccounts{
		Authority:           p.authority.Key,
		Envelope:            p.envelope.Key,
		DelegationAuthority: p.delegation.Key,
	})
	require.NoError(t, ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.delegation}, instruction.Data))

	obj := loadTestEnvelope(t, p.envelope)
	assert.False(t, obj.HasDelegation())
	assert.True(t, obj.ProgramBitmask.IsAllBlocked())
	assert.True(t, obj.UserBitmask.IsAllBlocked())

	// both slots are wiped with the delegation
	assert.Equal(t, [FastDataSize]byte{}, obj.FastData)
	assert.Equal(t, [AuxDataSize]byte{}, obj.AuxData)
	assert.True(t, obj.OracleTag.IsZero())
	assert.True(t, obj.AuxTag.IsZero())
	assert.Zero(t, obj.OracleSequence)

	// clearing again has nothing to clear
	err := ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.delegation}, instruction.Data)
	assert.Equal(t, ErrDelegationNotActive, err)
}

func TestClose(t *testing.T) {
	p := newTestParties(t)
	keys := generateKeys(t, 1)
	recipient := &Account{Key: keys[0], IsWritable: true}
	p.envelope.Lamports = 500

	instruction := NewCloseInstruction(&CloseInstructionAccounts{
		Authority: p.authority.Key,
		Envelope:  p.envelope.Key,
		Recipient: recipient.Key,
	})
	accounts := []*Account{p.authority, p.envelope, recipient}

	// blocked while delegated
	p.delegate(t)
	err := ProcessInstruction(PROGRAM_ID, accounts, instruction.Data)
	assert.Equal(t, ErrDelegationActive, err)

	clear := NewClearDelegationInstruction(&ClearDelegationInstructionAccounts{
		Authority:           p.authority.Key,
		Envelope:            p.envelope.Key,
		DelegationAuthority: p.delegation.Key,
	})
	require.NoError(t, ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.delegation}, clear.Data))

	require.NoError(t, ProcessInstruction(PROGRAM_ID, accounts, instruction.Data))
	assert.EqualValues(t, 500, recipient.Lamports)
	assert.Zero(t, p.envelope.Lamports)
	assert.Empty(t, p.envelope.Data)
	assert.True(t, p.envelope.ownedBy(SYSTEM_PROGRAM_ID))
}

func TestClose_RecipientMustDiffer(t *testing.T) {
	p := newTestParties(t)

	instruction := NewCloseInstruction(&CloseInstructionAccounts{
		Authority: p.authority.Key,
		Envelope:  p.envelope.Key,
		Recipient: p.envelope.Key,
	})
	err := ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.envelope}, instruction.Data)
	assert.Equal(t, ErrInvalidArgument, err)
}

func TestUpdateAuxiliaryRange(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	// adopt the aux type first; ranges cannot adopt
	var seed [AuxDataSize]byte
	require.NoError(t, p.updateAuxiliary(tag, 1, seed))

	instruction, err := NewUpdateAuxiliaryRangeInstruction(
		&UpdateAuxiliaryInstructionAccounts{Authority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryRangeInstructionArgs{
			Tag:      tag,
			Sequence: 2,
			Ranges:   []WriteSpec{{Offset: 8, Data: []byte{9, 9}}},
		},
	)
	require.NoError(t, err)
	require.NoError(t, ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, instruction.Data))

	obj := loadTestEnvelope(t, p.envelope)
	assert.Equal(t, []byte{9, 9}, obj.AuxData[8:10])
	assert.EqualValues(t, 2, obj.AuthorityAuxSequence)
}

func TestUpdateAuxiliaryRange_RequiresAdoptedTag(t *testing.T) {
	p := newTestParties(t)
	tag := MustTagOf(testAuxShape)

	instruction, err := NewUpdateAuxiliaryRangeInstruction(
		&UpdateAuxiliaryInstructionAccounts{Authority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryRangeInstructionArgs{
			Tag:      tag,
			Sequence: 1,
			Ranges:   []WriteSpec{{Offset: 0, Data: []byte{1}}},
		},
	)
	require.NoError(t, err)
	err = ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, instruction.Data)
	assert.Equal(t, ErrTypeMismatch, err)
}

func TestUpdateAuxiliaryMultiRange_Atomic(t *testing.T) {
	p := newTestParties(t)
	p.delegate(t)
	tag := MustTagOf(testAuxShape)

	var seed [AuxDataSize]byte
	require.NoError(t, p.updateAuxiliary(tag, 1, seed))

	// second range hits program-only territory; nothing may be applied
	instruction, err := NewUpdateAuxiliaryRangeInstruction(
		&UpdateAuxiliaryInstructionAccounts{Authority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryRangeInstructionArgs{
			Tag:      tag,
			Sequence: 2,
			Ranges: []WriteSpec{
				{Offset: 8, Data: []byte{7}},
				{Offset: 0, Data: []byte{7}},
			},
		},
	)
	require.NoError(t, err)
	err = ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, instruction.Data)
	assert.Equal(t, ErrPermissionDenied, err)

	obj := loadTestEnvelope(t, p.envelope)
	assert.Zero(t, obj.AuxData[8])
	assert.EqualValues(t, 1, obj.AuthorityAuxSequence)
}

func TestUpdateAuxiliaryRange_Bounds(t *testing.T) {
	p := newTestParties(t)
	tag := MustTagOf(testAuxShape) // 32 byte type

	var seed [AuxDataSize]byte
	require.NoError(t, p.updateAuxiliary(tag, 1, seed))

	// write past the typed size
	instruction, err := NewUpdateAuxiliaryRangeInstruction(
		&UpdateAuxiliaryInstructionAccounts{Authority: p.authority.Key, Envelope: p.envelope.Key},
		&UpdateAuxiliaryRangeInstructionArgs{
			Tag:      tag,
			Sequence: 2,
			Ranges:   []WriteSpec{{Offset: 30, Data: []byte{1, 2, 3, 4}}},
		},
	)
	require.NoError(t, err)
	err = ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, instruction.Data)
	assert.Equal(t, ErrMalformedInstruction, err)
}

func TestSlowPath_UnknownDiscriminator(t *testing.T) {
	p := newTestParties(t)

	err := ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, []byte{0xFF, 0xFF, 0xFF, 0xFF})
	assert.Equal(t, ErrInvalidDiscriminator, err)

	err = ProcessInstruction(PROGRAM_ID,
		[]*Account{p.authority, p.envelope, p.padding}, []byte{0x01})
	assert.Equal(t, ErrMalformedInstruction, err)
}
