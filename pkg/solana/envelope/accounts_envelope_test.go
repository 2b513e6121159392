package envelope

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		keys[i] = pub
	}
	return keys
}

func TestEnvelopeAccount_RoundTrip(t *testing.T) {
	keys := generateKeys(t, 2)

	obj := NewEnvelopeAccount(keys[0], 253)
	obj.DelegationAuthority = keys[1]
	obj.ProgramBitmask.SetWritable(3)
	obj.UserBitmask.SetWritable(200)
	obj.OracleSequence = 42
	obj.OracleTag = MustTagOf(U64)
	obj.FastData[0] = 0xAA
	obj.FastData[FastDataSize-1] = 0xBB
	obj.AuthorityAuxSequence = 7
	obj.ProgramAuxSequence = 9
	obj.AuxTag = MustTagOf(Bytes(32))
	obj.AuxData[AuxDataSize-1] = 0xCC

	marshalled := obj.Marshal()
	require.Len(t, marshalled, EnvelopeAccountSize)

	var decoded EnvelopeAccount
	require.NoError(t, decoded.Unmarshal(marshalled))
	assert.Equal(t, *obj, decoded)
	assert.True(t, decoded.HasDelegation())
}

func TestEnvelopeAccount_Unmarshal_Invalid(t *testing.T) {
	keys := generateKeys(t, 1)

	var decoded EnvelopeAccount
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(make([]byte, EnvelopeAccountSize-1)))

	data := NewEnvelopeAccount(keys[0], 1).Marshal()
	data[0] = 'x'
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(data))
}

func TestEnvelopeAccount_FreshHasNoDelegation(t *testing.T) {
	keys := generateKeys(t, 1)

	obj := NewEnvelopeAccount(keys[0], 255)
	assert.False(t, obj.HasDelegation())
	assert.True(t, obj.ProgramBitmask.IsAllBlocked())
	assert.True(t, obj.UserBitmask.IsAllBlocked())
	assert.True(t, obj.OracleTag.IsZero())
	assert.True(t, obj.AuxTag.IsZero())
}

func TestEnvelopeAccount_TypedReads(t *testing.T) {
	keys := generateKeys(t, 1)

	obj := NewEnvelopeAccount(keys[0], 1)

	// untyped slots report no data
	_, ok := obj.Oracle(U64)
	assert.False(t, ok)
	_, ok = obj.Aux(U64)
	assert.False(t, ok)

	obj.OracleTag = MustTagOf(U64)
	copy(obj.FastData[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9})

	data, ok := obj.Oracle(U64)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, data)

	_, ok = obj.Oracle(I64)
	assert.False(t, ok)

	shape := StructOf("state", Field{Shape: U32}, Field{Shape: U32})
	obj.AuxTag = MustTagOf(shape)
	data, ok = obj.Aux(shape)
	require.True(t, ok)
	assert.Len(t, data, 8)
}
