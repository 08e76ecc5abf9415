package format

import (
	"bytes"
	"fmt"

	"github.com/hiveread/regf/internal/buf"
)

// Header captures the minimal subset of the REGF header required to traverse a
// types. The diagram below highlights the offsets we care about.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'r' 'e' 'g' 'f'
//	 0x004   4    Primary sequence number
//	 0x008   4    Secondary sequence number
//	 0x00C   8    Last write timestamp (FILETIME)
//	 0x014   4    Major version
//	 0x018   4    Minor version
//	 0x01C   4    Type (0 = primary, 1 = alternate)
//	 0x024   4    Offset (relative to first HBIN) of the root cell (NK)
//	 0x028   4    Total size of HBIN data
//	 0x02C   4    Clustering factor (rarely used)
//
// Windows stores the header in little-endian form.
type Header struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWriteRaw      uint64
	MajorVersion      uint32
	MinorVersion      uint32
	Type              uint32
	RootCellOffset    uint32
	HiveBinsDataSize  uint32
	ClusteringFactor  uint32
	Checksum          uint32
}

// ParseHeader validates and extracts key fields from a REGF header. Only
// the signature and overall length are verified here; checksum and version
// compatibility are separate checks (see Checksum and SupportedVersion) so
// a caller can decide how strictly to enforce them.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("regf header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:REGFSignatureSize], REGFSignature) {
		return Header{}, fmt.Errorf("regf header: %w", ErrSignatureMismatch)
	}
	pseq := buf.U32LE(b[REGFPrimarySeqOffset:])
	sseq := buf.U32LE(b[REGFSecondarySeqOffset:])
	lastWrite := buf.U64LE(b[REGFTimeStampOffset:])
	major := buf.U32LE(b[REGFMajorVersionOffset:])
	minor := buf.U32LE(b[REGFMinorVersionOffset:])
	hType := buf.U32LE(b[REGFTypeOffset:])
	rootOff := buf.U32LE(b[REGFRootCellOffset:])
	hbinsSize := buf.U32LE(b[REGFDataSizeOffset:])
	cluster := buf.U32LE(b[REGFClusterOffset:])
	checksum := buf.U32LE(b[REGFCheckSumOffset:])
	return Header{
		PrimarySequence:   pseq,
		SecondarySequence: sseq,
		LastWriteRaw:      lastWrite,
		MajorVersion:      major,
		MinorVersion:      minor,
		Type:              hType,
		RootCellOffset:    rootOff,
		HiveBinsDataSize:  hbinsSize,
		ClusteringFactor:  cluster,
		Checksum:          checksum,
	}, nil
}

// Checksum computes the REGF header checksum: the XOR of the first 127
// little-endian dwords (bytes 0x000-0x1FB). Two results collide with
// sentinel meanings used elsewhere in the format and are remapped:
// 0x00000000 becomes 0x00000001, and 0xFFFFFFFF becomes 0xFFFFFFFE.
func Checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < REGFChecksumDwords; i++ {
		sum ^= buf.U32LE(b[i*4:])
	}
	switch sum {
	case 0x00000000:
		return 0x00000001
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	default:
		return sum
	}
}

// ChecksumValid reports whether b's stored checksum matches its computed
// value. b must be at least HeaderSize bytes.
func ChecksumValid(b []byte) bool {
	if len(b) < HeaderSize {
		return false
	}
	return Checksum(b) == buf.U32LE(b[REGFCheckSumOffset:])
}

// SupportedVersion reports whether a (major, minor) pair is one this
// package knows how to parse. Only major version 1 hives exist in the
// wild; minor versions 0 through 6 have all been observed, though full
// feature support (big data, layered keys) only arrived in 1.2+.
func SupportedVersion(major, minor uint32) bool {
	return major == 1 && minor <= 6
}
