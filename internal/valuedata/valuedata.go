// Package valuedata assembles a VK record's payload bytes, regardless of
// whether the data is stored inline, in a single external cell, or spread
// across a big-data (db) chain of 16,344-byte chunks.
package valuedata

import (
	"encoding/binary"

	"github.com/hiveread/regf/internal/bins"
	"github.com/hiveread/regf/internal/buf"
	"github.com/hiveread/regf/internal/format"
)

// Data is the assembled payload for a value. Corrupted is set whenever the
// assembly had to stop short of the declared length — a missing cell, a
// truncated block list, or a big-data chain that ran out before
// expectedLen was reached — in which case Bytes holds whatever could be
// recovered.
type Data struct {
	Bytes     []byte
	Corrupted bool
}

// Read assembles the data referenced by a decoded VK record.
func Read(b *bins.Bins, vk format.VKRecord) Data {
	if vk.DataInline() {
		return Data{Bytes: inlineBytes(vk)}
	}

	expectedLen := vk.InlineLength()
	if expectedLen == 0 {
		return Data{}
	}

	payload, err := b.CellPayload(vk.DataOffset)
	if err != nil {
		return Data{Corrupted: true}
	}

	if format.IsDBRecord(payload) {
		return readSegmented(b, payload, expectedLen)
	}

	if len(payload) < expectedLen {
		return Data{Bytes: payload, Corrupted: true}
	}
	return Data{Bytes: payload[:expectedLen]}
}

func inlineBytes(vk format.VKRecord) []byte {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, vk.DataOffset)
	n := vk.InlineLength()
	if n > 4 {
		n = 4
	}
	if n < 0 {
		n = 0
	}
	return raw[:n]
}

// readSegmented walks a db record's blocklist, trimming the 4-byte cell
// padding each block carries, and stops as soon as expectedLen bytes have
// been collected or a referenced cell cannot be resolved.
func readSegmented(b *bins.Bins, dbPayload []byte, expectedLen int) Data {
	db, err := format.DecodeDB(dbPayload)
	if err != nil {
		return Data{Corrupted: true}
	}

	blocklist, err := b.CellPayload(db.BlocklistOffset)
	if err != nil {
		return Data{Corrupted: true}
	}

	numBlocks := int(db.NumBlocks)
	if max := len(blocklist) / format.OffsetFieldSize; numBlocks > max {
		numBlocks = max
	}

	result := make([]byte, expectedLen)
	read := 0
	corrupted := false
	for i := 0; i < numBlocks && read < expectedLen; i++ {
		off := buf.U32LE(blocklist[i*format.OffsetFieldSize:])
		blockData, err := b.CellPayload(off)
		if err != nil {
			corrupted = true
			break
		}
		if len(blockData) > format.DBBlockPadding {
			blockData = blockData[:len(blockData)-format.DBBlockPadding]
		}
		if len(blockData) > format.DBChunkSize {
			blockData = blockData[:format.DBChunkSize]
			corrupted = true
		}
		if avail := expectedLen - read; len(blockData) > avail {
			blockData = blockData[:avail]
		}
		read += copy(result[read:], blockData)
	}

	if read != expectedLen {
		corrupted = true
	}
	return Data{Bytes: result[:read], Corrupted: corrupted}
}
