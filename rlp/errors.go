package rlp

import "errors"

var (
	// ErrUnsupportedType is returned when a value's Go type has no RLP
	// encoding rule.
	ErrUnsupportedType = errors.New("rlp: unsupported type")

	// ErrValueTooLarge is returned when a value is too large to encode.
	ErrValueTooLarge = errors.New("rlp: value too large")
)
