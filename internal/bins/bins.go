// Package bins indexes a hive's sequence of hbin blocks so that a cell
// offset can be validated and resolved to its payload bytes in O(log n)
// rather than by scanning every bin in file order.
package bins

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hiveread/regf/internal/format"
)

var (
	// ErrCellOffsetZero indicates a cell offset of 0, which is invalid.
	ErrCellOffsetZero = errors.New("bins: cell offset is zero")
	// ErrCellOutOfRange indicates a cell offset outside any known hbin.
	ErrCellOutOfRange = errors.New("bins: cell offset out of range")
	// ErrCellTruncated indicates a cell whose size header is implausible:
	// zero, smaller than the header itself, or running past its hbin.
	ErrCellTruncated = errors.New("bins: cell truncated")
	// ErrCellFree indicates a cell offset resolved to a free cell rather
	// than the allocated record a caller expected there.
	ErrCellFree = errors.New("bins: cell is marked free")
	// ErrNoBins indicates the hive contains no usable hbin blocks at all.
	ErrNoBins = errors.New("bins: no hbin blocks found")
)

// Bins is the ordered index of a hive's hbin blocks, keyed by absolute
// file offset.
type Bins struct {
	data   []byte
	starts []uint32 // absolute offsets, ascending
	sizes  []uint32

	// truncated is set when the hbin chain walk in New stopped on a
	// malformed header rather than running to the end of data.
	truncated bool
}

// New walks the hbin chain starting at format.HiveDataBase and builds an
// index over it. Walking stops at the first malformed hbin header rather
// than failing outright: a hive is readable up to the point of damage,
// and everything before that point remains fully usable. Such a stop is
// recorded and surfaced through Truncated so a caller can still treat the
// hive as damaged.
func New(data []byte) (*Bins, error) {
	b := &Bins{data: data}
	off := format.HiveDataBase
	for off < len(data) {
		hbin, next, err := format.NextHBIN(data, off)
		if err != nil {
			b.truncated = true
			break
		}
		b.starts = append(b.starts, uint32(off))
		b.sizes = append(b.sizes, hbin.Size)
		off = next
	}
	if len(b.starts) == 0 {
		return nil, ErrNoBins
	}
	return b, nil
}

// Count returns the number of indexed hbin blocks.
func (b *Bins) Count() int {
	return len(b.starts)
}

// Truncated reports whether the hbin chain walk in New stopped short of
// the end of the backing buffer because a later hbin header was
// malformed, rather than exhausting it cleanly.
func (b *Bins) Truncated() bool {
	return b.truncated
}

// binAt locates the hbin containing an absolute offset via binary search
// over the ascending start offsets.
func (b *Bins) binAt(abs uint32) (format.HBIN, bool) {
	idx := sort.Search(len(b.starts), func(i int) bool {
		return b.starts[i]+b.sizes[i] > abs
	})
	if idx >= len(b.starts) || b.starts[idx] > abs {
		return format.HBIN{}, false
	}
	return format.HBIN{FileOffset: b.starts[idx], Size: b.sizes[idx]}, true
}

// CellPayload resolves a relative HCELL offset to its payload bytes,
// skipping the 4-byte cell size header. The offset is first checked
// against the bin index; format.NextCell then decodes the cell header
// itself and enforces that the cell does not run past its own hbin.
func (b *Bins) CellPayload(relOff uint32) ([]byte, error) {
	if relOff == 0 {
		return nil, ErrCellOffsetZero
	}
	abs := uint32(format.HiveDataBase) + relOff
	hbin, ok := b.binAt(abs)
	if !ok {
		return nil, fmt.Errorf("%w: rel=%#x abs=%#x", ErrCellOutOfRange, relOff, abs)
	}
	cell, _, err := format.NextCell(b.data, hbin, int(abs))
	if err != nil {
		if errors.Is(err, format.ErrTruncated) {
			return nil, fmt.Errorf("%w: %w", ErrCellTruncated, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCellTruncated, err)
	}
	if cell.Free {
		return nil, fmt.Errorf("%w: %w", ErrCellFree, format.ErrFreeCell)
	}
	return cell.Data, nil
}
