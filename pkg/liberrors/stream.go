package liberrors

import (
	"fmt"
)

// ErrStreamClosed is returned when writing to a closed Stream.
type ErrStreamClosed struct{}

// Error implements the error interface.
func (e ErrStreamClosed) Error() string {
	return "stream closed"
}

// ErrStreamMediaMissing is returned when a Stream is initialized without a media.
type ErrStreamMediaMissing struct{}

// Error implements the error interface.
func (e ErrStreamMediaMissing) Error() string {
	return "media not provided"
}

// ErrStreamWriterMissing is returned when a Stream is initialized without a RTP writer.
type ErrStreamWriterMissing struct{}

// Error implements the error interface.
func (e ErrStreamWriterMissing) Error() string {
	return "WritePacketRTP not provided"
}

// ErrStreamInvalidSRTPKey is returned when the SRTP key has a wrong length.
type ErrStreamInvalidSRTPKey struct {
	Length int
}

// Error implements the error interface.
func (e ErrStreamInvalidSRTPKey) Error() string {
	return fmt.Sprintf("invalid SRTP key length: %d", e.Length)
}
