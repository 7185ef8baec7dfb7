// Package liberrors contains errors returned by the library.
package liberrors

import (
	"fmt"
)

// ErrSenderInvalidState is returned when a Sender is reconfigured with a media ID
// that differs from the one already assigned.
type ErrSenderInvalidState struct {
	Current   string
	Requested string
}

// Error implements the error interface.
func (e ErrSenderInvalidState) Error() string {
	return fmt.Sprintf("media ID is already set to '%s', cannot change it to '%s'",
		e.Current, e.Requested)
}

// ErrSenderMissingExtension is returned when a Sender is asked to send a packet
// before a required header extension has been negotiated.
type ErrSenderMissingExtension struct {
	URI string
}

// Error implements the error interface.
func (e ErrSenderMissingExtension) Error() string {
	return fmt.Sprintf("header extension '%s' has not been negotiated", e.URI)
}

// ErrSenderCodecMissing is returned when a Sender is asked to send a packet
// before a codec has been negotiated.
type ErrSenderCodecMissing struct{}

// Error implements the error interface.
func (e ErrSenderCodecMissing) Error() string {
	return "codec has not been negotiated"
}

// ErrSenderMidMissing is returned when a Sender is asked to send a packet
// while its media ID is empty.
type ErrSenderMidMissing struct{}

// Error implements the error interface.
func (e ErrSenderMidMissing) Error() string {
	return "media ID is not set"
}
