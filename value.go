package regf

import (
	"encoding/binary"

	"github.com/hiveread/regf/internal/codepoint"
	"github.com/hiveread/regf/internal/format"
	"github.com/hiveread/regf/internal/valuedata"
)

// Value is a handle to a value key (a "vk" cell) within a Hive.
type Value struct {
	h      *Hive
	offset uint32
	vk     format.VKRecord

	data       valuedata.Data
	dataLoaded bool
}

// Offset returns the value's hive-relative cell offset.
func (v *Value) Offset() uint32 { return v.offset }

// IsCorrupted reports whether this value's record or its data needed to
// recover from malformed data.
func (v *Value) IsCorrupted() bool {
	return v.vk.Corrupted || v.resolve().Corrupted
}

// NameRaw returns the value's name as stored on disk, plus whether it is
// encoded as 8-bit ("ASCII") rather than UTF-16LE.
func (v *Value) NameRaw() ([]byte, bool) {
	return v.vk.NameRaw, v.vk.NameIsASCII()
}

// Name decodes the value's name to UTF-8. The empty string denotes a
// key's default/unnamed value.
func (v *Value) Name() (string, error) {
	return codepoint.Decode(v.vk.NameRaw, v.vk.NameIsASCII())
}

// Type returns the value's on-disk type tag.
func (v *Value) Type() ValueType {
	return ValueType(v.vk.Type)
}

// DataSize returns the value's logical payload length in bytes, as
// declared by the VK record (not necessarily the number of bytes this
// package could actually recover — see IsCorrupted).
func (v *Value) DataSize() int {
	return v.vk.InlineLength()
}

func (v *Value) resolve() valuedata.Data {
	if v.dataLoaded {
		return v.data
	}
	v.dataLoaded = true
	v.data = valuedata.Read(v.h.bins, v.vk)
	if v.data.Corrupted {
		v.h.corrupted = true
	}
	return v.data
}

// ReadData copies up to len(buf) bytes of the value's data starting at
// offset into buf, returning the number of bytes copied.
func (v *Value) ReadData(offset int, buf []byte) (int, error) {
	d := v.resolve()
	if offset < 0 || offset > len(d.Bytes) {
		return 0, &Error{Kind: ErrKindInvalidArgument, Msg: "read offset out of range"}
	}
	return copy(buf, d.Bytes[offset:]), nil
}

// AsBinary returns the value's raw bytes regardless of declared type.
func (v *Value) AsBinary() []byte {
	return v.resolve().Bytes
}

// AsU32 interprets the value's data as a 32-bit integer, honoring
// whichever endianness its type declares.
func (v *Value) AsU32() (uint32, error) {
	t := v.Type()
	if t != TypeUint32LE && t != TypeUint32BE {
		return 0, &Error{Kind: ErrKindUnsupportedValueType, Msg: "value is not " + TypeUint32LE.String() + " or " + TypeUint32BE.String()}
	}
	d := v.resolve().Bytes
	if len(d) < 4 {
		return 0, &Error{Kind: ErrKindCorruptedRecord, Msg: "uint32 value shorter than 4 bytes"}
	}
	if t == TypeUint32BE {
		return binary.BigEndian.Uint32(d), nil
	}
	return binary.LittleEndian.Uint32(d), nil
}

// AsU64 interprets the value's data as a little-endian 64-bit integer.
func (v *Value) AsU64() (uint64, error) {
	if v.Type() != TypeUint64LE {
		return 0, &Error{Kind: ErrKindUnsupportedValueType, Msg: "value is not " + TypeUint64LE.String()}
	}
	d := v.resolve().Bytes
	if len(d) < 8 {
		return 0, &Error{Kind: ErrKindCorruptedRecord, Msg: "uint64 value shorter than 8 bytes"}
	}
	return binary.LittleEndian.Uint64(d), nil
}

// AsUTF16String decodes the value's data as a single NUL-terminated
// UTF-16LE string, for STRING, EXPANDABLE_STRING, and SYMLINK values.
func (v *Value) AsUTF16String() (string, error) {
	switch v.Type() {
	case TypeString, TypeExpandString, TypeSymlink:
	default:
		return "", &Error{Kind: ErrKindUnsupportedValueType, Msg: "value is not a string type"}
	}
	return codepoint.Decode(trimUTF16Terminator(v.resolve().Bytes), false)
}

// AsMultiString decodes a MULTI_STRING value into its component strings.
// A value missing its final terminator still decodes (see
// format.SplitMultiString) but leaves IsCorrupted true.
func (v *Value) AsMultiString() ([]string, error) {
	if v.Type() != TypeMultiString {
		return nil, &Error{Kind: ErrKindUnsupportedValueType, Msg: "value is not " + TypeMultiString.String()}
	}
	parts, wellTerminated := format.SplitMultiString(v.resolve().Bytes)
	if !wellTerminated {
		v.data.Corrupted = true
		v.h.corrupted = true
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s, err := codepoint.Decode(p, false)
		if err != nil {
			v.h.corrupted = true
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// trimUTF16Terminator drops the trailing NUL code unit (and anything
// after it) from a UTF-16LE byte slice, if present.
func trimUTF16Terminator(data []byte) []byte {
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] == 0 && data[i+1] == 0 {
			return data[:i]
		}
	}
	return data
}
