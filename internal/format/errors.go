package format

import "errors"

var (
	// ErrSignatureMismatch indicates a structure had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrFreeCell indicates a cell marked free was encountered where allocation was required.
	ErrFreeCell = errors.New("format: cell not in use")
	// ErrUnsupported indicates the structure or feature is not yet supported.
	ErrUnsupported = errors.New("format: unsupported feature")

	// ErrBoundsCheck indicates a buffer access exceeded bounds.
	// This is returned by Checked* encoding functions when the offset
	// or required size would exceed the buffer length.
	ErrBoundsCheck = errors.New("format: buffer bounds exceeded")
)
