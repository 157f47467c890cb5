package qr

import (
	"fmt"
	"strings"
)

// DecodeError reports a payload that could not be decoded: bad Base64,
// bytes that are not UTF-8, or text that is not JSON.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode QR payload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode QR payload: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeError reports a payload that decoded cleanly but is missing the
// fields required to be a book or user record.
type ShapeError struct {
	Missing []string
}

func (e *ShapeError) Error() string {
	if len(e.Missing) == 0 {
		return "QR payload has unrecognized shape"
	}
	return fmt.Sprintf("QR payload has unrecognized shape (missing %s)", strings.Join(e.Missing, ", "))
}
