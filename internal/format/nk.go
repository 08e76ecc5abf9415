package format

import (
	"bytes"
	"fmt"

	"github.com/hiveread/regf/internal/buf"
	"github.com/hiveread/regf/internal/limits"
)

// NKRecord captures metadata extracted from an NK record. NK cells describe
// registry keys. The structure (simplified) is shown below:
//
//	Offset  Size  Field
//	0x00    2     'n' 'k'
//	0x02    2     Flags (bit 0x20 => name stored as ASCII)
//	0x04    8     Last write time (FILETIME)
//	0x0C    4     Access bits (Windows 8+, ignored)
//	0x10    4     Parent cell offset (ignored, back-refs are unused)
//	0x14    4     Number of subkeys
//	0x18    4     Number of volatile subkeys (ignored)
//	0x1C    4     Offset to subkey list
//	0x20    4     Volatile subkey list offset (ignored)
//	0x24    4     Number of values
//	0x28    4     Offset to value list
//	0x2C    4     Security offset
//	0x30    4     Class name offset
//	0x34    4     Max subkey name length (ignored)
//	0x38    4     Max subkey class name length (ignored)
//	0x3C    4     Max value name length (ignored)
//	0x40    4     Max value data length (ignored)
//	0x44    4     Work var (ignored)
//	0x48    2     Name length
//	0x4A    2     Class length
//	0x4C    n     Name bytes (ASCII or UTF-16LE)
type NKRecord struct {
	Flags            uint16
	LastWriteRaw     uint64
	SubkeyCount      uint32
	SubkeyListOffset uint32
	ValueCount       uint32
	ValueListOffset  uint32
	SecurityOffset   uint32
	ClassNameOffset  uint32
	ClassLength      uint16
	NameRaw          []byte
	Corrupted        bool
}

// NameIsCompressed returns true when the name is stored in 8-bit form.
func (nk NKRecord) NameIsCompressed() bool {
	return nk.Flags&NKFlagCompressedName != 0
}

// DecodeNK decodes an NK record payload.
//
// Per the format's corruption-tolerance policy, an out-of-bounds or
// zero-length name does not fail the whole decode: it marks the record
// Corrupted and returns an object with a possibly empty NameRaw, so a
// damaged key can still be enumerated by offset even though it cannot be
// matched by name. Only a signature mismatch or a payload too short to
// hold the fixed header is a hard failure, since there is nothing
// meaningful left to return in that case.
func DecodeNK(b []byte) (NKRecord, error) {
	if len(b) < NKMinSize {
		return NKRecord{}, fmt.Errorf("nk: %w (have %d, need %d)", ErrTruncated, len(b), NKMinSize)
	}
	if !bytes.Equal(b[:SignatureSize], NKSignature) {
		return NKRecord{}, fmt.Errorf("nk: %w", ErrSignatureMismatch)
	}

	lim := limits.Default()
	// NKMinSize already guarantees every fixed field below is in bounds;
	// these two checked reads guard that invariant at the widest (8-byte)
	// and last (class length) fields rather than trusting it silently.
	lastWrite, err := CheckedReadU64(b, NKLastWriteOffset)
	if err != nil {
		return NKRecord{}, fmt.Errorf("nk: %w", err)
	}
	classLen, err := CheckedReadU16(b, NKClassLenOffset)
	if err != nil {
		return NKRecord{}, fmt.Errorf("nk: %w", err)
	}
	nk := NKRecord{
		Flags:            ReadU16(b, NKFlagsOffset),
		LastWriteRaw:     lastWrite,
		SubkeyCount:      ReadU32(b, NKSubkeyCountOffset),
		SubkeyListOffset: ReadU32(b, NKSubkeyListOffset),
		ValueCount:       ReadU32(b, NKValueCountOffset),
		ValueListOffset:  ReadU32(b, NKValueListOffset),
		SecurityOffset:   ReadU32(b, NKSecurityOffset),
		ClassNameOffset:  ReadU32(b, NKClassNameOffset),
		ClassLength:      classLen,
	}

	if int(nk.SubkeyCount) > lim.MaxSubkeys {
		nk.SubkeyCount = 0
		nk.Corrupted = true
	}
	if int(nk.ValueCount) > lim.MaxValues {
		nk.ValueCount = 0
		nk.Corrupted = true
	}

	nameLen, err := CheckedReadU16(b, NKNameLenOffset)
	if err != nil {
		nk.Corrupted = true
		return nk, nil
	}
	if nameLen == 0 || int(nameLen) > lim.MaxNameBytes {
		nk.Corrupted = true
		return nk, nil
	}

	nameEnd, ok := buf.AddOverflowSafe(NKNameOffset, int(nameLen))
	if !ok || nameEnd > len(b) {
		nk.Corrupted = true
		return nk, nil
	}
	nk.NameRaw = b[NKNameOffset:nameEnd]
	return nk, nil
}
