package format

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hiveread/regf/internal/buf"
)

// SubkeyListKind distinguishes the three subkey-list encodings a hive can
// use for a given key's children.
type SubkeyListKind int

const (
	// SubkeyListLI is a plain linear list of NK offsets with no lookup aid.
	SubkeyListLI SubkeyListKind = iota
	// SubkeyListLF pairs each NK offset with a 4-byte name hint: the first
	// four characters of the child's name, used only to skip obviously
	// wrong candidates during a linear scan.
	SubkeyListLF
	// SubkeyListLH pairs each NK offset with a full 32-bit name hash
	// (see internal/namehash), suitable for a direct equality check before
	// ever touching the child NK.
	SubkeyListLH
)

// SubkeyEntry is one child reference from an LI/LF/LH subkey list.
type SubkeyEntry struct {
	Offset uint32
	// HintOrHash is zero for LI lists, the raw 4-character name hint for
	// LF lists, and the full name hash for LH lists. Its interpretation
	// depends on the SubkeyListKind returned alongside it; it is always an
	// accelerator, never authoritative — a match still requires comparing
	// the child NK's actual name.
	HintOrHash uint32
}

// DecodeSubkeyList extracts child NK entries from a subkey list cell (LI,
// LF, or LH). The expected count, when non-zero, caps how many entries are
// read even if the cell's own count field claims more, so a caller holding
// the NK's SubkeyCount can keep a corrupted list header from inflating the
// result. Hive.collectSubkeyRefs passes 0; Key.loadSubkeys applies the
// NK's SubkeyCount after any ri sub-lists have been flattened.
func DecodeSubkeyList(b []byte, expected uint32) (SubkeyListKind, []SubkeyEntry, error) {
	if len(b) < ListHeaderSize {
		return 0, nil, fmt.Errorf("subkey list: %w", ErrTruncated)
	}
	sig := b[:SignatureSize]
	count := uint32(buf.U16LE(b[SignatureSize:ListHeaderSize]))
	if expected != 0 && expected < count {
		count = expected
	}
	switch {
	case bytes.Equal(sig, LISignature):
		entries, err := decodeLI(b[ListHeaderSize:], count)
		return SubkeyListLI, entries, err
	case bytes.Equal(sig, LFSignature):
		entries, err := decodeLFLH(b[ListHeaderSize:], count)
		return SubkeyListLF, entries, err
	case bytes.Equal(sig, LHSignature):
		entries, err := decodeLFLH(b[ListHeaderSize:], count)
		return SubkeyListLH, entries, err
	default:
		return 0, nil, fmt.Errorf("subkey list: %w", ErrUnsupported)
	}
}

func decodeLI(b []byte, count uint32) ([]SubkeyEntry, error) {
	if len(b) < int(count)*OffsetFieldSize {
		return nil, fmt.Errorf("li list: %w", ErrTruncated)
	}
	out := make([]SubkeyEntry, count)
	for i := range count {
		out[i] = SubkeyEntry{Offset: buf.U32LE(b[i*OffsetFieldSize:])}
	}
	return out, nil
}

func decodeLFLH(b []byte, count uint32) ([]SubkeyEntry, error) {
	if len(b) < int(count)*LFEntrySize {
		return nil, fmt.Errorf("lf/lh list: %w", ErrTruncated)
	}
	out := make([]SubkeyEntry, count)
	for i := range count {
		start := int(i) * LFEntrySize
		out[i] = SubkeyEntry{
			Offset:     buf.U32LE(b[start:]),
			HintOrHash: buf.U32LE(b[start+OffsetFieldSize:]),
		}
	}
	return out, nil
}

// IsRIList checks if a byte slice contains an RI (indirect) subkey list.
// RI lists are used when a key has many subkeys and contain offsets to
// multiple LF/LH/LI lists rather than direct NK offsets.
func IsRIList(b []byte) bool {
	if len(b) < SignatureSize {
		return false
	}
	return bytes.Equal(b[:SignatureSize], RISignature)
}

// DecodeRIList decodes an RI (indirect) subkey list and returns the offsets
// to the constituent LF/LH/LI lists. The caller must fetch and decode each
// sub-list itself.
func DecodeRIList(b []byte) ([]uint32, error) {
	if len(b) < ListHeaderSize {
		return nil, fmt.Errorf("ri list: %w", ErrTruncated)
	}
	sig := b[:SignatureSize]
	if !bytes.Equal(sig, RISignature) {
		return nil, errors.New("ri list: invalid signature")
	}
	count := buf.U16LE(b[SignatureSize:ListHeaderSize])
	if len(b) < ListHeaderSize+int(count)*OffsetFieldSize {
		return nil, fmt.Errorf("ri list: %w", ErrTruncated)
	}
	offsets := make([]uint32, count)
	for i := range count {
		offsets[i] = buf.U32LE(b[ListHeaderSize+i*OffsetFieldSize:])
	}
	return offsets, nil
}

// DecodeValueList decodes a value list containing offsets to VK records.
func DecodeValueList(b []byte, count uint32) ([]uint32, error) {
	need := int(count) * OffsetFieldSize
	if need == 0 {
		return nil, nil
	}
	if len(b) < need {
		return nil, fmt.Errorf("value list: %w", ErrTruncated)
	}
	out := make([]uint32, count)
	for i := range count {
		out[i] = buf.U32LE(b[i*OffsetFieldSize:])
	}
	return out, nil
}
