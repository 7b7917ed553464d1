package nitro

import "github.com/pkg/errors"

// Errors returned (wrapped) by the decoders. Use errors.Is to classify.
var (
	ErrBadMagic               = errors.New("bad magic")
	ErrTruncatedData          = errors.New("truncated data")
	ErrMalformedDictionary    = errors.New("malformed dictionary")
	ErrDuplicateDictionaryKey = errors.New("duplicate dictionary key")
	ErrInvalidEnumValue       = errors.New("invalid enum value")
	ErrUnknownOpcode          = errors.New("unknown opcode")
)
