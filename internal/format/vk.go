package format

import (
	"bytes"
	"fmt"

	"github.com/hiveread/regf/internal/buf"
	"github.com/hiveread/regf/internal/limits"
)

// VKRecord models a value key record header. VK cells describe registry
// values and reference the actual data payload (either inline or via
// another cell).
type VKRecord struct {
	DataLength uint32
	DataOffset uint32
	Type       uint32
	Flags      uint16
	NameRaw    []byte
	Corrupted  bool
}

// NameIsASCII reports whether the name is stored as legacy-codepage bytes
// (flag 0x01); a clear flag on a zero-length name denotes the anonymous
// default value.
func (vk VKRecord) NameIsASCII() bool {
	return vk.Flags&VKFlagASCIIName != 0
}

// DataInline reports whether the data is stored within the DataOffset field.
func (vk VKRecord) DataInline() bool {
	return vk.DataLength&VKDataInlineBit != 0
}

// InlineLength returns the actual data length when DataInline is true.
func (vk VKRecord) InlineLength() int {
	if !vk.DataInline() {
		return int(vk.DataLength)
	}
	return int(vk.DataLength & VKDataLengthMask)
}

// DecodeVK decodes a VK record payload.
//
// A tag mismatch or a payload shorter than the fixed header is fatal —
// there is no record to speak of. An out-of-bounds name marks Corrupted
// and leaves NameRaw empty rather than aborting, so a caller can still
// enumerate the value by offset. The short-string inline-length
// correction (1->2, 3->4, zero-padded) reproduces a quirk seen in
// malformed real-world hives and marks the record corrupted so a caller
// can tell the fix was applied.
func DecodeVK(b []byte) (VKRecord, error) {
	if len(b) < VKMinSize {
		return VKRecord{}, fmt.Errorf("vk: %w (have %d, need %d)", ErrTruncated, len(b), VKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], VKSignature) {
		return VKRecord{}, fmt.Errorf("vk: %w", ErrSignatureMismatch)
	}

	lim := limits.Default()
	// VKMinSize already guarantees DataLength/DataOffset are in bounds;
	// these checked reads guard that invariant rather than trusting it
	// silently.
	dataLength, err := CheckedReadU32(b, VKDataLenOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk: %w", err)
	}
	dataOffset, err := CheckedReadU32(b, VKDataOffOffset)
	if err != nil {
		return VKRecord{}, fmt.Errorf("vk: %w", err)
	}
	vk := VKRecord{
		DataLength: dataLength,
		DataOffset: dataOffset,
		Type:       ReadU32(b, VKTypeOffset),
		Flags:      ReadU16(b, VKFlagsOffset),
	}

	if actual := vk.DataLength & VKDataLengthMask; int(actual) > lim.MaxValueSize {
		vk.Corrupted = true
	}

	if vk.DataInline() && (vk.Type == REGSZ || vk.Type == REGExpandSZ) {
		switch vk.InlineLength() {
		case 1:
			vk.DataLength = VKDataInlineBit | 2
			vk.DataOffset &^= 0x0000FF00
			vk.Corrupted = true
		case 3:
			vk.DataLength = VKDataInlineBit | 4
			vk.DataOffset &^= 0xFF000000
			vk.Corrupted = true
		}
	}

	nameLen, err := CheckedReadU16(b, VKNameLenOffset)
	if err != nil {
		vk.Corrupted = true
		return vk, nil
	}
	if int(nameLen) > lim.MaxValueNameLen {
		vk.Corrupted = true
		return vk, nil
	}
	nameEnd, ok := buf.AddOverflowSafe(VKNameOffset, int(nameLen))
	if !ok || nameEnd > len(b) {
		vk.Corrupted = true
		return vk, nil
	}
	vk.NameRaw = b[VKNameOffset:nameEnd]
	return vk, nil
}
