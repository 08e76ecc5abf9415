package regf

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/hiveread/regf/internal/codepoint"
	"github.com/hiveread/regf/internal/format"
	"github.com/hiveread/regf/internal/namehash"
)

// Key is a handle to a named key (an "nk" cell) within a Hive. A Key
// holds only its hive offset and the decoded record fetched for that
// offset at construction time; it does not own any cache state itself
// (see Hive.nkAt), so holding many Key values is cheap.
type Key struct {
	h      *Hive
	offset uint32
	nk     format.NKRecord

	subkeys       []subkeyRef
	subkeysLoaded bool
	values        []uint32
	valuesLoaded  bool
}

// Offset returns the key's hive-relative cell offset. Two Key handles
// from the same Hive identify the same key iff their offsets are equal.
func (k *Key) Offset() uint32 { return k.offset }

// IsCorrupted reports whether this key's own nk record needed to recover
// from malformed data. It does not reflect corruption in descendants, nor
// in the cells the key references: a damaged sub-key list, value list,
// class name or security cell marks the Hive corrupted, not the Key.
func (k *Key) IsCorrupted() bool { return k.nk.Corrupted }

// NameRaw returns the key's name as stored on disk, plus whether it is
// encoded as 8-bit ("compressed"/Windows-1252) rather than UTF-16LE.
func (k *Key) NameRaw() ([]byte, bool) {
	return k.nk.NameRaw, k.nk.NameIsCompressed()
}

// Name decodes the key's name to UTF-8. Most callers that only need to
// compare or display a name should prefer this; callers that want to
// transcode with a different codepage should use NameRaw instead.
func (k *Key) Name() (string, error) {
	return codepoint.Decode(k.nk.NameRaw, k.nk.NameIsCompressed())
}

// LastWrittenTime returns the key's last-write FILETIME, converted to a
// time.Time.
func (k *Key) LastWrittenTime() time.Time {
	return format.FiletimeToTime(k.nk.LastWriteRaw)
}

// ClassNameRaw returns the key's associated class-name blob (raw
// UTF-16LE), or nil if the key has none. A class name that overruns its
// cell marks the hive corrupted and returns whatever bytes were
// available.
func (k *Key) ClassNameRaw() []byte {
	if k.nk.ClassNameOffset == 0 || k.nk.ClassNameOffset == format.InvalidOffset {
		return nil
	}
	payload, err := k.h.bins.CellPayload(k.nk.ClassNameOffset)
	if err != nil {
		k.h.corrupted = true
		return nil
	}
	name, truncated := format.DecodeClassName(payload, int(k.nk.ClassLength))
	if truncated {
		k.h.corrupted = true
	}
	return name
}

// SecurityDescriptor returns the raw SECURITY_DESCRIPTOR_RELATIVE bytes
// referenced by the key's SK cell, or nil if the key has none.
func (k *Key) SecurityDescriptor() ([]byte, error) {
	if k.nk.SecurityOffset == 0 || k.nk.SecurityOffset == format.InvalidOffset {
		return nil, nil
	}
	payload, err := k.h.bins.CellPayload(k.nk.SecurityOffset)
	if err != nil {
		k.h.corrupted = true
		return nil, &Error{Kind: classifyCellErr(err), Msg: "resolving security descriptor cell", Err: err}
	}
	start, length, err := format.DecodeSK(payload, 0)
	if err != nil {
		k.h.corrupted = true
		return nil, &Error{Kind: ErrKindCorruptedRecord, Msg: "decoding sk record", Err: err}
	}
	if start+length > len(payload) {
		k.h.corrupted = true
		return nil, &Error{Kind: ErrKindCorruptedRecord, Msg: "security descriptor overruns sk cell"}
	}
	return payload[start : start+length], nil
}

// loadSubkeys resolves and caches this key's child references on first
// use. A key's own SubkeyCount is trusted as an upper bound so a
// corrupted list can't inflate the result past what the NK declared.
func (k *Key) loadSubkeys() []subkeyRef {
	if k.subkeysLoaded {
		return k.subkeys
	}
	k.subkeysLoaded = true
	if k.nk.SubkeyListOffset == 0 || k.nk.SubkeyListOffset == format.InvalidOffset {
		return nil
	}
	refs := k.h.collectSubkeyRefs(k.nk.SubkeyListOffset, 0)
	if n := int(k.nk.SubkeyCount); n != 0 && n < len(refs) {
		refs = refs[:n]
	}
	k.subkeys = refs
	return refs
}

// SubKeyCount returns the number of sub-keys resolvable under this key.
func (k *Key) SubKeyCount() int {
	return len(k.loadSubkeys())
}

// SubKeyAt returns the i-th sub-key in this key's sub-key list (0-based,
// stable for the life of the Key).
func (k *Key) SubKeyAt(i int) (*Key, error) {
	refs := k.loadSubkeys()
	if i < 0 || i >= len(refs) {
		return nil, &Error{Kind: ErrKindInvalidArgument, Msg: fmt.Sprintf("sub-key index %d out of range [0,%d)", i, len(refs))}
	}
	return k.h.keyAt(refs[i].offset)
}

// SubKeyByNameRaw looks up a direct child by its on-disk name bytes and
// the hash computed over it (see Hash). It is the low-level contract
// external wrappers use when they already hold raw, possibly
// non-UTF-8-decoded bytes: lh-indexed sub-key lists reject mismatching
// hashes before ever touching a candidate child's cell.
func (k *Key) SubKeyByNameRaw(rawName []byte, hash uint32, compressed bool) (*Key, error) {
	for _, ref := range k.loadSubkeys() {
		if ref.kind == format.SubkeyListLH && ref.hint != hash {
			continue
		}
		child, err := k.h.keyAt(ref.offset)
		if err != nil {
			continue
		}
		if rawNamesEqualFold(rawName, compressed, child.nk.NameRaw, child.nk.NameIsCompressed()) {
			return child, nil
		}
	}
	return nil, &Error{Kind: ErrKindNotFound, Msg: "sub-key not found"}
}

// SubKeyByName looks up a direct child by name, case-insensitively. It
// is a convenience wrapper over SubKeyByNameRaw for callers holding a Go
// string rather than raw on-disk bytes.
func (k *Key) SubKeyByName(name string) (*Key, error) {
	raw, compressed := encodeQueryName(name)
	return k.SubKeyByNameRaw(raw, Hash(name), compressed)
}

// SubKeyByPath resolves a backslash-separated path of sub-key names
// relative to this key, case-insensitively at each segment. A leading
// backslash is optional; an empty path returns this key itself.
func (k *Key) SubKeyByPath(path string) (*Key, error) {
	path = strings.TrimPrefix(path, `\`)
	if path == "" {
		return k, nil
	}
	cur := k
	for _, seg := range strings.Split(path, `\`) {
		if seg == "" {
			return nil, &Error{Kind: ErrKindNotFound, Msg: "empty path segment"}
		}
		next, err := cur.SubKeyByName(seg)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (k *Key) loadValues() []uint32 {
	if k.valuesLoaded {
		return k.values
	}
	k.valuesLoaded = true
	if k.nk.ValueListOffset == 0 || k.nk.ValueListOffset == format.InvalidOffset || k.nk.ValueCount == 0 {
		return nil
	}
	payload, err := k.h.bins.CellPayload(k.nk.ValueListOffset)
	if err != nil {
		k.h.corrupted = true
		return nil
	}
	offsets, err := format.DecodeValueList(payload, k.nk.ValueCount)
	if err != nil {
		k.h.corrupted = true
		return nil
	}
	k.values = offsets
	return offsets
}

// ValueCount returns the number of values resolvable under this key.
func (k *Key) ValueCount() int {
	return len(k.loadValues())
}

// ValueAt returns the i-th value in this key's value list.
func (k *Key) ValueAt(i int) (*Value, error) {
	offsets := k.loadValues()
	if i < 0 || i >= len(offsets) {
		return nil, &Error{Kind: ErrKindInvalidArgument, Msg: fmt.Sprintf("value index %d out of range [0,%d)", i, len(offsets))}
	}
	return k.h.valueAt(offsets[i])
}

// ValueByNameRaw looks up a value by its on-disk name bytes, the
// low-level counterpart to ValueByName.
func (k *Key) ValueByNameRaw(rawName []byte, compressed bool) (*Value, error) {
	for _, off := range k.loadValues() {
		v, err := k.h.valueAt(off)
		if err != nil {
			continue
		}
		if rawNamesEqualFold(rawName, compressed, v.vk.NameRaw, v.vk.NameIsASCII()) {
			return v, nil
		}
	}
	return nil, &Error{Kind: ErrKindNotFound, Msg: "value not found"}
}

// ValueByName looks up a value by name, case-insensitively. Pass "" for
// the key's default/unnamed value.
func (k *Key) ValueByName(name string) (*Value, error) {
	raw, compressed := encodeQueryName(name)
	return k.ValueByNameRaw(raw, compressed)
}

// Hash computes the name hash used by lh sub-key lists and by
// SubKeyByName's hash-accelerated lookup (see namehash.Hash). Value
// lookup (ValueByName/ValueByNameRaw) does not use it; it compares every
// value's full name.
func Hash(name string) uint32 {
	return namehash.Hash(name)
}

// encodeQueryName renders a Go string the way it would appear on disk,
// choosing 8-bit ("compressed") encoding when every rune is ASCII and
// UTF-16LE otherwise. This library never writes, so there is no need to
// reproduce a specific legacy codepage for the non-ASCII case.
func encodeQueryName(name string) ([]byte, bool) {
	for _, r := range name {
		if r >= 0x80 {
			units := utf16.Encode([]rune(name))
			raw := make([]byte, len(units)*2)
			for i, u := range units {
				raw[i*2] = byte(u)
				raw[i*2+1] = byte(u >> 8)
			}
			return raw, false
		}
	}
	return []byte(name), true
}

// rawNamesEqualFold compares two on-disk names case-insensitively. When
// both sides use the same encoding it folds ASCII case directly on the
// raw bytes, avoiding a decode on the common path; it only falls back to
// decoding both sides to UTF-8 when the encodings differ.
func rawNamesEqualFold(a []byte, aCompressed bool, b []byte, bCompressed bool) bool {
	if aCompressed == bCompressed {
		if len(a) != len(b) {
			return false
		}
		if aCompressed {
			for i := range a {
				if upperASCIIByte(a[i]) != upperASCIIByte(b[i]) {
					return false
				}
			}
			return true
		}
		if len(a)%2 != 0 {
			return false
		}
		for i := 0; i+1 < len(a); i += 2 {
			if a[i+1] == 0 && b[i+1] == 0 {
				if upperASCIIByte(a[i]) != upperASCIIByte(b[i]) {
					return false
				}
				continue
			}
			if a[i] != b[i] || a[i+1] != b[i+1] {
				return false
			}
		}
		return true
	}

	sa, err := codepoint.Decode(a, aCompressed)
	if err != nil {
		return false
	}
	sb, err := codepoint.Decode(b, bCompressed)
	if err != nil {
		return false
	}
	return strings.EqualFold(sa, sb)
}

func upperASCIIByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
