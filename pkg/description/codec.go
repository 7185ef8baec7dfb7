package description

import (
	"fmt"
	"strconv"
	"strings"
)

// static payload types that can be used without a rtpmap attribute.
// Specification: RFC3551, section 6
var staticPayloadTypes = map[uint8]Codec{
	0:  {PayloadType: 0, MimeType: "audio/PCMU", ClockRate: 8000, Channels: 1},
	3:  {PayloadType: 3, MimeType: "audio/GSM", ClockRate: 8000, Channels: 1},
	8:  {PayloadType: 8, MimeType: "audio/PCMA", ClockRate: 8000, Channels: 1},
	9:  {PayloadType: 9, MimeType: "audio/G722", ClockRate: 8000, Channels: 1},
	14: {PayloadType: 14, MimeType: "audio/MPA", ClockRate: 90000},
	26: {PayloadType: 26, MimeType: "video/JPEG", ClockRate: 90000},
	32: {PayloadType: 32, MimeType: "video/MPV", ClockRate: 90000},
	33: {PayloadType: 33, MimeType: "video/MP2T", ClockRate: 90000},
}

// Codec is a negotiated codec.
type Codec struct {
	// payload type of packets.
	PayloadType uint8

	// MIME type, in the form "type/encoding".
	MimeType string

	// clock rate of RTP timestamps.
	ClockRate int

	// channel count (optional).
	Channels int
}

// EncodingName returns the encoding part of the MIME type.
func (c Codec) EncodingName() string {
	if i := strings.IndexByte(c.MimeType, '/'); i >= 0 {
		return c.MimeType[i+1:]
	}
	return c.MimeType
}

// RTPMap returns the value of the rtpmap attribute, without the payload type.
func (c Codec) RTPMap() string {
	ret := c.EncodingName() + "/" + strconv.FormatInt(int64(c.ClockRate), 10)
	if c.Channels > 1 {
		ret += "/" + strconv.FormatInt(int64(c.Channels), 10)
	}
	return ret
}

func (c *Codec) unmarshalRTPMap(mediaType MediaType, rtpMap string) error {
	parts := strings.Split(rtpMap, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return fmt.Errorf("invalid rtpmap (%v)", rtpMap)
	}

	clockRate, err := strconv.ParseUint(parts[1], 10, 31)
	if err != nil {
		return fmt.Errorf("invalid clock rate: %w", err)
	}

	c.MimeType = string(mediaType) + "/" + parts[0]
	c.ClockRate = int(clockRate)
	c.Channels = 0

	if len(parts) == 3 {
		channels, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return fmt.Errorf("invalid channel count: %w", err)
		}
		c.Channels = int(channels)
	}

	return nil
}
