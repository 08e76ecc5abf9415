package regf

import (
	"encoding/binary"

	"github.com/hiveread/regf/internal/format"
)

// fixture assembles a minimal, single-bin hive byte buffer for tests. It
// mirrors the real layout closely enough to exercise the public API
// end-to-end without needing a real registry file on disk.
type fixture struct {
	buf []byte
}

func newFixture() *fixture {
	// header (4096) + hbin header (0x20), cells start right after.
	return &fixture{buf: make([]byte, format.HiveDataBase+format.HBINHeaderSize)}
}

// putCell appends a cell (size header + payload, 8-byte aligned) and
// returns its offset relative to the first hbin, as stored in on-disk
// reference fields.
func (f *fixture) putCell(payload []byte) uint32 {
	body := append([]byte(nil), payload...)
	total := format.Align8(format.CellHeaderSize + len(body))
	body = append(body, make([]byte, total-format.CellHeaderSize-len(body))...)
	relOff := uint32(len(f.buf) - format.HiveDataBase)
	sizeField := make([]byte, format.CellHeaderSize)
	binary.LittleEndian.PutUint32(sizeField, uint32(int32(-total)))
	f.buf = append(f.buf, sizeField...)
	f.buf = append(f.buf, body...)
	return relOff
}

// finish pads the single bin to a 4 KiB boundary, fills in the hbin and
// regf headers (including a valid checksum), and returns the hive bytes.
func (f *fixture) finish(rootOffset, major, minor uint32) []byte {
	binSize := format.AlignHBIN(len(f.buf) - format.HiveDataBase)
	f.buf = append(f.buf, make([]byte, format.HiveDataBase+binSize-len(f.buf))...)

	copy(f.buf[format.HiveDataBase+format.HBINSignatureOffset:], format.HBINSignature)
	binary.LittleEndian.PutUint32(f.buf[format.HiveDataBase+format.HBINFileOffsetField:], 0)
	binary.LittleEndian.PutUint32(f.buf[format.HiveDataBase+format.HBINSizeOffset:], uint32(binSize))

	copy(f.buf[format.REGFSignatureOffset:], format.REGFSignature)
	binary.LittleEndian.PutUint32(f.buf[format.REGFPrimarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(f.buf[format.REGFSecondarySeqOffset:], 1)
	binary.LittleEndian.PutUint32(f.buf[format.REGFMajorVersionOffset:], major)
	binary.LittleEndian.PutUint32(f.buf[format.REGFMinorVersionOffset:], minor)
	binary.LittleEndian.PutUint32(f.buf[format.REGFTypeOffset:], 0)
	binary.LittleEndian.PutUint32(f.buf[format.REGFRootCellOffset:], rootOffset)
	binary.LittleEndian.PutUint32(f.buf[format.REGFDataSizeOffset:], uint32(binSize))
	binary.LittleEndian.PutUint32(f.buf[format.REGFClusterOffset:], 1)
	binary.LittleEndian.PutUint32(f.buf[format.REGFCheckSumOffset:], format.Checksum(f.buf))

	return f.buf
}

const (
	nkFlagCompressedName = format.NKFlagCompressedName
	nkFlagRootKey        = 0x0004
	vkFlagASCIIName      = format.VKFlagASCIIName
	vkInlineBit          = format.VKDataInlineBit
)

func buildNK(flags uint16, subkeyCount, subkeyListOff, valueCount, valueListOff, securityOff, classNameOff uint32, classLen uint16, name []byte) []byte {
	b := make([]byte, format.NKNameOffset+len(name))
	copy(b[:format.SignatureSize], format.NKSignature)
	binary.LittleEndian.PutUint16(b[format.NKFlagsOffset:], flags)
	binary.LittleEndian.PutUint32(b[format.NKSubkeyCountOffset:], subkeyCount)
	binary.LittleEndian.PutUint32(b[format.NKSubkeyListOffset:], subkeyListOff)
	binary.LittleEndian.PutUint32(b[format.NKValueCountOffset:], valueCount)
	binary.LittleEndian.PutUint32(b[format.NKValueListOffset:], valueListOff)
	binary.LittleEndian.PutUint32(b[format.NKSecurityOffset:], securityOff)
	binary.LittleEndian.PutUint32(b[format.NKClassNameOffset:], classNameOff)
	binary.LittleEndian.PutUint16(b[format.NKClassLenOffset:], classLen)
	binary.LittleEndian.PutUint16(b[format.NKNameLenOffset:], uint16(len(name)))
	copy(b[format.NKNameOffset:], name)
	return b
}

func buildVK(dataLength, dataOffset, typ uint32, flags uint16, name []byte) []byte {
	b := make([]byte, format.VKNameOffset+len(name))
	copy(b[:format.SignatureSize], format.VKSignature)
	binary.LittleEndian.PutUint16(b[format.VKNameLenOffset:], uint16(len(name)))
	binary.LittleEndian.PutUint32(b[format.VKDataLenOffset:], dataLength)
	binary.LittleEndian.PutUint32(b[format.VKDataOffOffset:], dataOffset)
	binary.LittleEndian.PutUint32(b[format.VKTypeOffset:], typ)
	binary.LittleEndian.PutUint16(b[format.VKFlagsOffset:], flags)
	copy(b[format.VKNameOffset:], name)
	return b
}

func buildValueList(offsets ...uint32) []byte {
	b := make([]byte, len(offsets)*format.OffsetFieldSize)
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(b[i*format.OffsetFieldSize:], off)
	}
	return b
}

func buildLIList(offsets ...uint32) []byte {
	b := make([]byte, format.ListHeaderSize+len(offsets)*format.OffsetFieldSize)
	copy(b[:format.SignatureSize], format.LISignature)
	binary.LittleEndian.PutUint16(b[format.SignatureSize:format.ListHeaderSize], uint16(len(offsets)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint32(b[format.ListHeaderSize+i*format.OffsetFieldSize:], off)
	}
	return b
}

func buildDB(blocklistOffset uint32, numBlocks uint16) []byte {
	b := make([]byte, format.DBHeaderSize)
	copy(b[:format.SignatureSize], format.DBSignature)
	binary.LittleEndian.PutUint16(b[format.DBCountOffset:], numBlocks)
	binary.LittleEndian.PutUint32(b[format.DBListOffset:], blocklistOffset)
	return b
}

// dbBlockPayload returns a block cell payload for segmented value data: n
// bytes of actual data followed by 4 bytes of padding that the reader
// trims (simulating the following cell's header in a real hive).
func dbBlockPayload(data []byte) []byte {
	return append(append([]byte(nil), data...), 0, 0, 0, 0)
}

func utf16leBytes(units ...uint16) []byte {
	b := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	return b
}
