package envelope

import (
	"math/bits"

	"github.com/spaolacci/murmur3"
)

// Shape describes the layout of a fixed-size value type. Shapes are the
// source of both structural type tags and, for aux data structs, the
// per-byte write masks. Producers and verifiers must derive both from the
// same shape declaration or every update will be rejected.
//
// Layouts are packed: a struct's fields occupy consecutive byte offsets
// with no alignment padding. Insert explicit Bytes fields where padding
// is part of the wire layout.
type Shape interface {
	// TypeSize is the packed byte size of the type.
	TypeSize() int
	// TypeHash is the 64-bit structural hash of the type's shape.
	TypeHash() uint64
}

const hashFinalizer = 0x517cc1b727220a95

func leafHash(name string) uint64 {
	return murmur3.Sum64([]byte(name))
}

// combineHash mixes a member hash into an accumulated structural hash.
// Order-sensitive, so field reordering changes the result.
func combineHash(accumulated, memberHash uint64) uint64 {
	return (bits.RotateLeft64(accumulated, 7) ^ memberHash) * hashFinalizer
}

type primitiveShape struct {
	name string
	size int
}

func (p primitiveShape) TypeSize() int    { return p.size }
func (p primitiveShape) TypeHash() uint64 { return leafHash(p.name) }

// Primitive numeric shapes. Names are part of the hash domain and must
// never change for deployed envelopes.
var (
	U8   Shape = primitiveShape{"u8", 1}
	U16  Shape = primitiveShape{"u16", 2}
	U32  Shape = primitiveShape{"u32", 4}
	U64  Shape = primitiveShape{"u64", 8}
	U128 Shape = primitiveShape{"u128", 16}
	I8   Shape = primitiveShape{"i8", 1}
	I16  Shape = primitiveShape{"i16", 2}
	I32  Shape = primitiveShape{"i32", 4}
	I64  Shape = primitiveShape{"i64", 8}
	I128 Shape = primitiveShape{"i128", 16}
	F32  Shape = primitiveShape{"f32", 4}
	F64  Shape = primitiveShape{"f64", 8}
)

type arrayShape struct {
	elem Shape
	n    int
}

func (a arrayShape) TypeSize() int { return a.elem.TypeSize() * a.n }
func (a arrayShape) TypeHash() uint64 {
	return combineHash(combineHash(leafHash("array"), a.elem.TypeHash()), uint64(a.n))
}

// ArrayOf is a fixed-length array of n elements.
func ArrayOf(elem Shape, n int) Shape {
	return arrayShape{elem: elem, n: n}
}

type bytesShape struct {
	n int
}

func (b bytesShape) TypeSize() int { return b.n }
func (b bytesShape) TypeHash() uint64 {
	return combineHash(leafHash("bytes"), uint64(b.n))
}

// Bytes is an opaque run of n bytes. Masks treat it as one indivisible
// unit; nothing inspects its interior.
func Bytes(n int) Shape {
	return bytesShape{n: n}
}

// Access declares which roles may write a struct field through the slow
// path while delegation is active.
type Access uint8

const (
	AccessNone      Access = 0
	AccessProgram   Access = 1 << 0
	AccessAuthority Access = 1 << 1
	AccessShared    Access = AccessProgram | AccessAuthority

	// AccessNested defers to the field's own struct shape: the child's
	// compiled masks are composed into the parent at the field's offset.
	AccessNested Access = 1 << 7
)

// Field is one member of a StructShape.
type Field struct {
	Shape  Shape
	Access Access
}

// StructShape is a named composite of ordered fields.
type StructShape struct {
	name   string
	fields []Field
}

// StructOf declares a composite shape. The name and the field order are
// both part of the structural hash.
func StructOf(name string, fields ...Field) *StructShape {
	return &StructShape{name: name, fields: fields}
}

func (s *StructShape) TypeSize() int {
	var size int
	for _, f := range s.fields {
		size += f.Shape.TypeSize()
	}
	return size
}

func (s *StructShape) TypeHash() uint64 {
	h := leafHash(s.name)
	for _, f := range s.fields {
		h = combineHash(h, f.Shape.TypeHash())
	}
	return h
}

// TagOf derives the structural tag for a shape. Fails when the shape is
// too large for the tag's 8-bit size field.
func TagOf(s Shape) (StructTag, error) {
	size := s.TypeSize()
	if size > 255 {
		return ZeroStructTag, ErrPayloadTooLarge
	}
	return NewStructTag(uint8(size), s.TypeHash()), nil
}

// MustTagOf derives the structural tag for a shape, panicking when the
// shape is too large. Intended for package-level tag declarations.
func MustTagOf(s Shape) StructTag {
	tag, err := TagOf(s)
	if err != nil {
		panic(err)
	}
	return tag
}

// CompileMasks expands a struct's per-field access declarations into the
// two byte-granular write masks installed at delegation setup. Fields
// with AccessNone are blocked in both masks; AccessNested composes the
// child struct's masks at the field's offset.
func CompileMasks(s *StructShape) (programMask, userMask Mask, err error) {
	programMask = AllBlockedMask()
	userMask = AllBlockedMask()

	if s.TypeSize() > AuxDataSize {
		return programMask, userMask, ErrPayloadTooLarge
	}

	var offset int
	for _, f := range s.fields {
		size := f.Shape.TypeSize()

		if f.Access&AccessNested != 0 {
			child, ok := f.Shape.(*StructShape)
			if !ok {
				return AllBlockedMask(), AllBlockedMask(), ErrInvalidArgument
			}
			childProgram, childUser, err := CompileMasks(child)
			if err != nil {
				return AllBlockedMask(), AllBlockedMask(), err
			}
			composeMaskAtOffset(&programMask, &childProgram, offset, size)
			composeMaskAtOffset(&userMask, &childUser, offset, size)
			offset += size
			continue
		}

		for i := offset; i < offset+size; i++ {
			if f.Access&AccessProgram != 0 {
				programMask.SetWritable(i)
			}
			if f.Access&AccessAuthority != 0 {
				userMask.SetWritable(i)
			}
		}
		offset += size
	}

	return programMask, userMask, nil
}

func composeMaskAtOffset(parent, child *Mask, offset, size int) {
	for i := 0; i < size && offset+i < MaskSize; i++ {
		if child.IsWritable(i) {
			parent.SetWritable(offset + i)
		}
	}
}
