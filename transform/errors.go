package transform

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is a client error: the source is not jpeg, png or webp.
	ErrUnsupportedFormat = errors.New("unsupported image format. Supported: jpg, png, webp")
	// ErrCodec matches every CodecError.
	ErrCodec = errors.New("transform: codec failure")
)

// CodecError is a decode/encode failure on a supported format.
type CodecError struct {
	Op  string // "detect", "decode", "encode", "limit"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("transform: %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Is(target error) bool { return target == ErrCodec }
