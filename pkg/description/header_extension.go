package description

import (
	psdp "github.com/pion/sdp/v3"
)

// MIDURI is the URI of the header extension that carries the media ID.
// Specification: RFC8843, section 15
const MIDURI = psdp.SDESMidURI

// HeaderExtension is a negotiated RTP header extension.
// Specification: RFC8285
type HeaderExtension struct {
	// URI of the extension.
	URI string

	// ID used on the wire.
	ID int
}
