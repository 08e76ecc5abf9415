package regf

import (
	"errors"
	"fmt"

	"github.com/hiveread/regf/internal/bins"
	"github.com/hiveread/regf/internal/cache"
	"github.com/hiveread/regf/internal/format"
	"github.com/hiveread/regf/internal/ioabs"
)

// defaultCacheSize bounds how many decoded NK/VK records a Hive keeps
// warm. It is a count of records, not bytes: decoded records are small
// and fixed-shape, so a flat entry cap is simpler to reason about than a
// byte budget.
const defaultCacheSize = 4096

// hiveFileType is the only REGF header "Type" value this package accepts.
// 1 marks a log/alternate file, which this library does not replay.
const hiveFileType = 0

// Open memory-maps (where supported) and parses the hive at path.
func Open(path string) (*Hive, error) {
	src, err := ioabs.OpenFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrKindIoFailure, Msg: fmt.Sprintf("opening %s", path), Err: err}
	}
	h, err := newHive(src)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return h, nil
}

// OpenBytes parses a hive already resident in memory. The caller retains
// ownership of data and must not modify it while the Hive is in use.
func OpenBytes(data []byte) (*Hive, error) {
	return newHive(ioabs.FromBytes(data))
}

func newHive(src ioabs.Source) (*Hive, error) {
	data := src.Bytes()

	hdr, err := format.ParseHeader(data)
	if err != nil {
		if errors.Is(err, format.ErrSignatureMismatch) {
			return nil, &Error{Kind: ErrKindUnsupportedSignature, Msg: "not a regf hive", Err: err}
		}
		return nil, &Error{Kind: ErrKindIoFailure, Msg: "reading hive header", Err: err}
	}
	if !format.SupportedVersion(hdr.MajorVersion, hdr.MinorVersion) {
		return nil, &Error{
			Kind: ErrKindUnsupportedVersion,
			Msg:  fmt.Sprintf("hive version %d.%d is not supported", hdr.MajorVersion, hdr.MinorVersion),
		}
	}
	if hdr.Type != hiveFileType {
		return nil, &Error{
			Kind: ErrKindUnsupportedFileType,
			Msg:  fmt.Sprintf("hive type %d is not a primary hive file", hdr.Type),
		}
	}

	b, err := bins.New(data)
	if err != nil {
		return nil, &Error{Kind: ErrKindInvalidOffset, Msg: "hive has no usable hbin blocks", Err: err}
	}

	corrupted := !format.ChecksumValid(data) || hdr.PrimarySequence != hdr.SecondarySequence || b.Truncated()

	h := &Hive{
		src:       src,
		hdr:       hdr,
		bins:      b,
		corrupted: corrupted,
		nkCache:   cache.New[uint32, format.NKRecord](defaultCacheSize),
		vkCache:   cache.New[uint32, format.VKRecord](defaultCacheSize),
	}
	return h, nil
}
