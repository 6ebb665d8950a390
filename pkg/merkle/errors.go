package merkle

import "errors"

var (
	// ErrEmptyAllocation is returned when an allocation list has no entries.
	ErrEmptyAllocation = errors.New("allocation list is empty")

	// ErrDuplicateRecipient is returned when the same recipient appears more
	// than once in an allocation list, making its index ambiguous.
	ErrDuplicateRecipient = errors.New("duplicate recipient in allocation list")

	// ErrIndexOutOfRange is returned for proof or leaf requests past the
	// number of committed entries.
	ErrIndexOutOfRange = errors.New("leaf index out of range")
)
