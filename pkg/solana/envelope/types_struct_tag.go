package envelope

import (
	"fmt"

	"github.com/code-oracles/envelope-server/pkg/solana/binary"
)

const hash56Mask = 0x00FFFFFFFFFFFFFF

// StructTag is a compact fingerprint of a fixed-layout type: the type's
// byte size in the top 8 bits and a 56-bit structural hash in the rest.
//
// Two logically identical types always produce the same tag; structurally
// different types collide only with negligible probability within the
// 56-bit hash domain. Tag computation depends only on the type's shape,
// never on a value's contents.
type StructTag uint64

// ZeroStructTag marks a data slot that has not adopted a type yet.
const ZeroStructTag StructTag = 0

// NewStructTag packs a type size and a structural hash into a tag. Hash
// bits above the 56-bit domain are discarded.
func NewStructTag(typeSize uint8, hash56 uint64) StructTag {
	return StructTag(uint64(typeSize)<<56 | hash56&hash56Mask)
}

// TypeSize returns the byte size of the tagged type.
func (t StructTag) TypeSize() int {
	return int(uint64(t) >> 56)
}

// Hash56 returns the 56-bit structural hash.
func (t StructTag) Hash56() uint64 {
	return uint64(t) & hash56Mask
}

// IsZero reports whether the tag is the unset marker.
func (t StructTag) IsZero() bool {
	return t == ZeroStructTag
}

func (t StructTag) String() string {
	return fmt.Sprintf("StructTag{size=%d,hash=%014x}", t.TypeSize(), t.Hash56())
}

func getStructTag(src []byte, dst *StructTag, offset *int) {
	var v uint64
	binary.GetUint64(src, &v, offset)
	*dst = StructTag(v)
}

func putStructTag(dst []byte, v StructTag, offset *int) {
	binary.PutUint64(dst, uint64(v), offset)
}
