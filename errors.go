package regf

import (
	"errors"

	"github.com/hiveread/regf/internal/bins"
)

// ErrKind classifies a Error so callers can branch on intent rather than
// on message text.
type ErrKind int

const (
	// ErrKindInvalidArgument marks a caller contract violation: a nil
	// argument or an out-of-range index.
	ErrKindInvalidArgument ErrKind = iota
	// ErrKindIoFailure marks an underlying read that failed or returned
	// fewer bytes than required.
	ErrKindIoFailure
	// ErrKindUnsupportedSignature marks a hive whose header didn't start
	// with "regf".
	ErrKindUnsupportedSignature
	// ErrKindUnsupportedVersion marks a hive whose major/minor version
	// this package doesn't know how to parse.
	ErrKindUnsupportedVersion
	// ErrKindUnsupportedFileType marks a hive whose header type field
	// wasn't the primary-file value this package supports.
	ErrKindUnsupportedFileType
	// ErrKindInvalidOffset marks a hive offset that falls outside every
	// indexed hbin.
	ErrKindInvalidOffset
	// ErrKindCorruptedCell marks a cell whose size header is implausible.
	ErrKindCorruptedCell
	// ErrKindCorruptedRecord marks a record-level field that is out of
	// bounds or inconsistent with its declared size.
	ErrKindCorruptedRecord
	// ErrKindUnsupportedValueType marks a typed value getter called on a
	// value whose on-disk type doesn't match.
	ErrKindUnsupportedValueType
	// ErrKindNotFound marks a lookup by name or path that completed
	// mechanically but found no match.
	ErrKindNotFound
)

// String names an ErrKind for diagnostic output.
func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidArgument:
		return "InvalidArgument"
	case ErrKindIoFailure:
		return "IoFailure"
	case ErrKindUnsupportedSignature:
		return "UnsupportedSignature"
	case ErrKindUnsupportedVersion:
		return "UnsupportedVersion"
	case ErrKindUnsupportedFileType:
		return "UnsupportedFileType"
	case ErrKindInvalidOffset:
		return "InvalidOffset"
	case ErrKindCorruptedCell:
		return "CorruptedCell"
	case ErrKindCorruptedRecord:
		return "CorruptedRecord"
	case ErrKindUnsupportedValueType:
		return "UnsupportedValueType"
	case ErrKindNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// Error is this package's error type. Every error Open/Hive/Key/Value can
// return is a *Error, except that Key.Name, Value.Name and
// Value.AsUTF16String pass the codepoint decoder's error through
// unchanged.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return "regf: " + e.Msg + ": " + e.Err.Error()
	}
	return "regf: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers
// can write errors.Is(err, &regf.Error{Kind: regf.ErrKindNotFound}).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// classifyCellErr maps a bins.CellPayload failure to the ErrKind that
// distinguishes "no containing bin for this offset" (InvalidOffset) from
// "the cell at that offset has an implausible size header, or is marked
// free where an allocated record was expected" (CorruptedCell).
func classifyCellErr(err error) ErrKind {
	if errors.Is(err, bins.ErrCellTruncated) || errors.Is(err, bins.ErrCellFree) {
		return ErrKindCorruptedCell
	}
	return ErrKindInvalidOffset
}
