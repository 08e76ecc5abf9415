package regf

import (
	"time"

	"github.com/hiveread/regf/internal/bins"
	"github.com/hiveread/regf/internal/cache"
	"github.com/hiveread/regf/internal/format"
	"github.com/hiveread/regf/internal/ioabs"
)

// Hive is an open registry hive. The zero value is not usable; obtain one
// from Open or OpenBytes.
type Hive struct {
	src  ioabs.Source
	hdr  format.Header
	bins *bins.Bins

	nkCache *cache.Cache[uint32, format.NKRecord]
	vkCache *cache.Cache[uint32, format.VKRecord]

	// corrupted latches true the first time any cell or record fails to
	// parse cleanly. It never clears: once a hive has shown damage,
	// is_corrupted stays true for the life of the Hive (see the error
	// handling design's propagation policy).
	corrupted bool
}

// Close releases the hive's backing storage (unmapping a memory-mapped
// file, where applicable). Any Key or Value obtained from this Hive must
// not be used after Close.
func (h *Hive) Close() error {
	return h.src.Close()
}

// IsCorrupted reports whether this hive, or anything reachable from it,
// has needed to recover from malformed data since it was opened.
func (h *Hive) IsCorrupted() bool {
	return h.corrupted
}

// MajorVersion and MinorVersion report the hive's on-disk format version.
func (h *Hive) MajorVersion() uint32 { return h.hdr.MajorVersion }
func (h *Hive) MinorVersion() uint32 { return h.hdr.MinorVersion }

// LastWrittenTime returns the header's last-write timestamp.
func (h *Hive) LastWrittenTime() time.Time {
	return format.FiletimeToTime(h.hdr.LastWriteRaw)
}

// RootKey returns the hive's root named key.
func (h *Hive) RootKey() (*Key, error) {
	return h.keyAt(h.hdr.RootCellOffset)
}

func (h *Hive) keyAt(offset uint32) (*Key, error) {
	nk, err := h.nkAt(offset)
	if err != nil {
		return nil, err
	}
	return &Key{h: h, offset: offset, nk: nk}, nil
}

func (h *Hive) valueAt(offset uint32) (*Value, error) {
	vk, err := h.vkAt(offset)
	if err != nil {
		return nil, err
	}
	return &Value{h: h, offset: offset, vk: vk}, nil
}

func (h *Hive) nkAt(offset uint32) (format.NKRecord, error) {
	if nk, ok := h.nkCache.Get(offset); ok {
		return nk, nil
	}
	payload, err := h.bins.CellPayload(offset)
	if err != nil {
		h.corrupted = true
		return format.NKRecord{}, &Error{Kind: classifyCellErr(err), Msg: "resolving key cell", Err: err}
	}
	nk, err := format.DecodeNK(payload)
	if err != nil {
		h.corrupted = true
		return format.NKRecord{}, &Error{Kind: ErrKindCorruptedRecord, Msg: "decoding nk record", Err: err}
	}
	if nk.Corrupted {
		h.corrupted = true
	}
	h.nkCache.Put(offset, nk)
	return nk, nil
}

func (h *Hive) vkAt(offset uint32) (format.VKRecord, error) {
	if vk, ok := h.vkCache.Get(offset); ok {
		return vk, nil
	}
	payload, err := h.bins.CellPayload(offset)
	if err != nil {
		h.corrupted = true
		return format.VKRecord{}, &Error{Kind: classifyCellErr(err), Msg: "resolving value cell", Err: err}
	}
	vk, err := format.DecodeVK(payload)
	if err != nil {
		h.corrupted = true
		return format.VKRecord{}, &Error{Kind: ErrKindCorruptedRecord, Msg: "decoding vk record", Err: err}
	}
	if vk.Corrupted {
		h.corrupted = true
	}
	h.vkCache.Put(offset, vk)
	return vk, nil
}

// maxRIDepth bounds recursion through ri (indirect) subkey lists. Real
// hives nest at most one level; this fixes the ceiling at 4 against a
// crafted or corrupted ri chain that points at itself.
const maxRIDepth = 4

// collectSubkeyRefs resolves a subkey-list cell (possibly an ri of
// sub-lists) into a flat slice of child references. It never returns an
// error: any resolution failure marks the hive corrupted and drops the
// failing list (or ri sub-list), keeping every reference collected from
// the others, per this package's corruption-tolerance policy.
func (h *Hive) collectSubkeyRefs(offset uint32, depth int) []subkeyRef {
	if depth > maxRIDepth {
		h.corrupted = true
		return nil
	}
	payload, err := h.bins.CellPayload(offset)
	if err != nil {
		h.corrupted = true
		return nil
	}
	if format.IsRIList(payload) {
		subLists, err := format.DecodeRIList(payload)
		if err != nil {
			h.corrupted = true
			return nil
		}
		var all []subkeyRef
		for _, sub := range subLists {
			all = append(all, h.collectSubkeyRefs(sub, depth+1)...)
		}
		return all
	}
	kind, entries, err := format.DecodeSubkeyList(payload, 0)
	if err != nil {
		h.corrupted = true
		return nil
	}
	out := make([]subkeyRef, len(entries))
	for i, e := range entries {
		out[i] = subkeyRef{offset: e.Offset, hint: e.HintOrHash, kind: kind}
	}
	return out
}

// subkeyRef is one resolved child reference, annotated with which list
// variant produced it so name lookup knows whether hint is a full hash
// (lh), a weak 4-byte prefix (lf, currently unused as an accelerator), or
// nothing (li).
type subkeyRef struct {
	offset uint32
	hint   uint32
	kind   format.SubkeyListKind
}
