// Package rtpsender contains a utility to stamp and serialize outgoing RTP packets.
package rtpsender

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"

	"github.com/bluenviron/gortpsender/pkg/description"
	"github.com/bluenviron/gortpsender/pkg/liberrors"
)

const (
	rtpVersion = 2
)

func randUint32() (uint32, error) {
	var b [4]byte
	_, err := rand.Read(b[:])
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func headerExtensionMap(exts []description.HeaderExtension) map[string]description.HeaderExtension {
	ret := make(map[string]description.HeaderExtension, len(exts))
	for _, ext := range exts {
		ret[ext.URI] = ext
	}
	return ret
}

func payloadTypeOf(codec *description.Codec) *uint8 {
	if codec == nil {
		return nil
	}
	v := codec.PayloadType
	return &v
}

// Params are the parameters of a Sender.
type Params struct {
	// track whose packets are sent (optional).
	Track *description.Track

	// negotiated codec (optional).
	// It is required in order to send packets.
	Codec *description.Codec

	// negotiated header extensions.
	HeaderExtensions []description.HeaderExtension

	// media ID (optional).
	// It is required in order to send packets.
	Mid string

	// SSRC of packets.
	SSRC uint32

	// sequence number of the packet that precedes the first one (optional).
	// It defaults to a random value.
	LastSequenceNumber *uint16
}

// Sender stamps outgoing RTP packets with the identity of a media stream
// and keeps statistics about them.
//
// A Sender is a value: every operation returns an updated copy and never
// modifies the receiver. Callers must keep the latest copy and must not
// use the same copy from multiple goroutines to send packets.
type Sender struct {
	id               uuid.UUID
	track            *description.Track
	codec            *description.Codec
	headerExtensions map[string]description.HeaderExtension
	mid              string
	payloadType      *uint8
	ssrc             uint32

	lastSequenceNumber uint16
	packetsSent        uint64
	bytesSent          uint64
	payloadBytesSent   uint64
	markersSent        uint64
}

// New allocates a Sender.
func New(p Params) (Sender, error) {
	var lastSequenceNumber uint16
	if p.LastSequenceNumber != nil {
		lastSequenceNumber = *p.LastSequenceNumber
	} else {
		v, err := randUint32()
		if err != nil {
			return Sender{}, err
		}
		lastSequenceNumber = uint16(v)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Sender{}, err
	}

	return Sender{
		id:                 id,
		track:              p.Track,
		codec:              p.Codec,
		headerExtensions:   headerExtensionMap(p.HeaderExtensions),
		mid:                p.Mid,
		payloadType:        payloadTypeOf(p.Codec),
		ssrc:               p.SSRC,
		lastSequenceNumber: lastSequenceNumber,
	}, nil
}

// ID returns the unique ID of the sender.
func (s Sender) ID() uuid.UUID {
	return s.id
}

// Track returns the track whose packets are sent.
func (s Sender) Track() *description.Track {
	return s.track
}

// Codec returns the negotiated codec.
func (s Sender) Codec() *description.Codec {
	return s.codec
}

// Mid returns the media ID.
func (s Sender) Mid() string {
	return s.mid
}

// PayloadType returns the payload type, if a codec has been negotiated.
func (s Sender) PayloadType() (uint8, bool) {
	if s.payloadType == nil {
		return 0, false
	}
	return *s.payloadType, true
}

// SSRC returns the SSRC.
func (s Sender) SSRC() uint32 {
	return s.ssrc
}

// LastSequenceNumber returns the sequence number of the last sent packet.
func (s Sender) LastSequenceNumber() uint16 {
	return s.lastSequenceNumber
}

// HeaderExtension returns the negotiated header extension with the given URI.
func (s Sender) HeaderExtension(uri string) (description.HeaderExtension, bool) {
	ext, ok := s.headerExtensions[uri]
	return ext, ok
}

// Reconfigure applies the result of a renegotiation.
// The media ID can be set only once: after that, it must not change.
func (s Sender) Reconfigure(
	mid string,
	codec *description.Codec,
	exts []description.HeaderExtension,
) (Sender, error) {
	if s.mid != "" && mid != s.mid {
		return s, liberrors.ErrSenderInvalidState{Current: s.mid, Requested: mid}
	}

	s.mid = mid
	s.codec = codec
	s.payloadType = payloadTypeOf(codec)
	s.headerExtensions = headerExtensionMap(exts)

	return s, nil
}

// Send stamps a packet with payload type, SSRC, sequence number and media ID,
// and serializes it.
// The packet is not modified.
// It returns the serialized packet and the updated Sender.
func (s Sender) Send(pkt *rtp.Packet) ([]byte, Sender, error) {
	ext, ok := s.headerExtensions[description.MIDURI]
	if !ok {
		return nil, s, liberrors.ErrSenderMissingExtension{URI: description.MIDURI}
	}

	if s.payloadType == nil {
		return nil, s, liberrors.ErrSenderCodecMissing{}
	}

	if s.mid == "" {
		return nil, s, liberrors.ErrSenderMidMissing{}
	}

	if ext.ID < 1 || ext.ID > 255 {
		return nil, s, fmt.Errorf("invalid extension ID: %d", ext.ID)
	}

	nextSequenceNumber := s.lastSequenceNumber + 1

	out := pkt.Clone()
	out.Version = rtpVersion
	out.PayloadType = *s.payloadType
	out.SSRC = s.ssrc
	out.SequenceNumber = nextSequenceNumber

	// RFC8285: the one-byte form can carry IDs 1-14 and up to 16 bytes of data.
	profile := uint16(rtp.ExtensionProfileOneByte)
	if ext.ID > 14 || len(s.mid) > 16 ||
		(out.Extension && out.ExtensionProfile == rtp.ExtensionProfileTwoByte) {
		profile = rtp.ExtensionProfileTwoByte
	}

	if !out.Extension {
		out.Extension = true
		out.ExtensionProfile = profile
	}

	err := out.Header.SetExtensionWithProfile(uint8(ext.ID), []byte(s.mid), profile)
	if err != nil {
		return nil, s, err
	}

	buf, err := out.Marshal()
	if err != nil {
		return nil, s, err
	}

	s.lastSequenceNumber = nextSequenceNumber
	s.packetsSent++
	s.bytesSent += uint64(len(buf))
	s.payloadBytesSent += uint64(len(out.Payload))
	if out.Marker {
		s.markersSent++
	}

	return buf, s, nil
}

// Stats returns a snapshot of the statistics.
func (s Sender) Stats(ts time.Time) Stats {
	return Stats{
		Timestamp:          ts,
		Type:               StatsTypeOutboundRTP,
		ID:                 s.id.String(),
		SSRC:               s.ssrc,
		PacketsSent:        s.packetsSent,
		BytesSent:          s.bytesSent,
		PayloadBytesSent:   s.payloadBytesSent,
		MarkersSent:        s.markersSent,
		LastSequenceNumber: s.lastSequenceNumber,
	}
}
