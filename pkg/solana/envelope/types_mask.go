package envelope

const (
	// MaskSize is one mask byte per aux data byte.
	MaskSize = AuxDataSize

	maskWritable byte = 0x00
	maskBlocked  byte = 0xFF
)

// Mask is a per-byte write authorization table for the aux data slot.
// A byte offset may be written by the mask's role only when the mask
// byte at that offset is 0x00; 0xFF blocks it. Masks are compiled once
// at delegation setup and treated as opaque policy data afterwards.
type Mask [MaskSize]byte

// AllBlockedMask permits no writes. This is the stored state whenever
// delegation is inactive.
func AllBlockedMask() Mask {
	var m Mask
	for i := range m {
		m[i] = maskBlocked
	}
	return m
}

// AllWritableMask permits every write.
func AllWritableMask() Mask {
	return Mask{}
}

func (m *Mask) SetWritable(i int) {
	if i >= 0 && i < MaskSize {
		m[i] = maskWritable
	}
}

func (m *Mask) SetBlocked(i int) {
	if i >= 0 && i < MaskSize {
		m[i] = maskBlocked
	}
}

func (m *Mask) IsWritable(i int) bool {
	return i >= 0 && i < MaskSize && m[i] == maskWritable
}

func (m *Mask) IsAllBlocked() bool {
	for _, b := range m {
		if b != maskBlocked {
			return false
		}
	}
	return true
}

// IsCanonical reports whether every mask byte is exactly 0x00 or 0xFF.
// Non-canonical masks are rejected at delegation setup.
func (m *Mask) IsCanonical() bool {
	for _, b := range m {
		if b != maskWritable && b != maskBlocked {
			return false
		}
	}
	return true
}

// ApplyMaskedUpdate copies src over dst if every byte that differs is
// writable under the mask. Unchanged bytes are never checked, so a caller
// may submit the full buffer without knowing which bytes belong to the
// other party. Returns false, with dst untouched, if any changed byte is
// blocked.
func (m *Mask) ApplyMaskedUpdate(dst *[AuxDataSize]byte, src *[AuxDataSize]byte) bool {
	for i := 0; i < AuxDataSize; i++ {
		if src[i] != dst[i] && m[i] != maskWritable {
			return false
		}
	}
	copy(dst[:], src[:])
	return true
}

// CheckRange reports whether writing data at the given offset of current
// would only change writable bytes. It does not apply the write.
func (m *Mask) CheckRange(current []byte, offset int, data []byte) bool {
	if offset < 0 || offset+len(data) > len(current) || offset+len(data) > MaskSize {
		return false
	}
	for i, b := range data {
		if current[offset+i] != b && m[offset+i] != maskWritable {
			return false
		}
	}
	return true
}

func getMask(src []byte, dst *Mask, offset *int) {
	copy(dst[:], src[*offset:*offset+MaskSize])
	*offset += MaskSize
}

func putMask(dst []byte, src *Mask, offset *int) {
	copy(dst[*offset:], src[:])
	*offset += MaskSize
}
