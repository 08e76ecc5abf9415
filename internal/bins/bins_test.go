package bins

import (
	"encoding/binary"
	"testing"

	"github.com/hiveread/regf/internal/format"
)

func makeHiveBuf(t *testing.T, hbinSizes ...int) []byte {
	t.Helper()
	total := format.HiveDataBase
	for _, s := range hbinSizes {
		total += s
	}
	data := make([]byte, total)
	off := format.HiveDataBase
	for _, s := range hbinSizes {
		copy(data[off:], format.HBINSignature)
		binary.LittleEndian.PutUint32(data[off+format.HBINFileOffsetField:], uint32(off-format.HiveDataBase))
		binary.LittleEndian.PutUint32(data[off+format.HBINSizeOffset:], uint32(s))
		off += s
	}
	return data
}

func TestNewIndexesAllBins(t *testing.T) {
	data := makeHiveBuf(t, 0x1000, 0x1000)
	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Count() != 2 {
		t.Fatalf("expected 2 bins, got %d", b.Count())
	}
}

func TestNewStopsAtCorruption(t *testing.T) {
	data := makeHiveBuf(t, 0x1000, 0x1000)
	// Corrupt the second hbin's signature.
	copy(data[format.HiveDataBase+0x1000:], []byte{0, 0, 0, 0})

	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Count() != 1 {
		t.Fatalf("expected walk to stop after the first bin, got %d", b.Count())
	}
	if !b.Truncated() {
		t.Fatalf("expected Truncated to report the short walk")
	}
}

func TestNewCleanWalkIsNotTruncated(t *testing.T) {
	data := makeHiveBuf(t, 0x1000, 0x1000)
	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Truncated() {
		t.Fatalf("expected a clean walk not to be reported truncated")
	}
}

func TestCellPayloadRejectsFreeCell(t *testing.T) {
	data := makeHiveBuf(t, 0x1000)
	cellOff := format.HBINHeaderSize
	binary.LittleEndian.PutUint32(data[format.HiveDataBase+cellOff:], uint32(0x10))

	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.CellPayload(uint32(cellOff)); err == nil {
		t.Fatalf("expected free-cell error")
	}
}

func TestCellPayloadResolvesWithinBin(t *testing.T) {
	data := makeHiveBuf(t, 0x1000)
	cellOff := format.HBINHeaderSize
	binary.LittleEndian.PutUint32(data[format.HiveDataBase+cellOff:], 0xFFFFFFF0) // int32(-16): allocated, 16 bytes
	copy(data[format.HiveDataBase+cellOff+format.CellHeaderSize:], []byte("nk"))

	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	payload, err := b.CellPayload(uint32(cellOff))
	if err != nil {
		t.Fatalf("CellPayload: %v", err)
	}
	if string(payload[:2]) != "nk" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestCellPayloadRejectsOutOfRange(t *testing.T) {
	data := makeHiveBuf(t, 0x1000)
	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.CellPayload(0x5000); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestCellPayloadRejectsZeroOffset(t *testing.T) {
	data := makeHiveBuf(t, 0x1000)
	b, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := b.CellPayload(0); err == nil {
		t.Fatalf("expected zero-offset error")
	}
}
