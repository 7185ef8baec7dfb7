package rtpsender

import (
	"time"
)

// StatsType is the type of a statistics record.
type StatsType string

// statistics types.
const (
	StatsTypeOutboundRTP StatsType = "outbound-rtp"
)

// Stats are statistics of a Sender.
type Stats struct {
	// time of the snapshot
	Timestamp time.Time
	// type of the record
	Type StatsType
	// unique ID of the sender
	ID string
	// SSRC of sent packets
	SSRC uint32
	// number of sent RTP packets
	PacketsSent uint64
	// number of sent bytes, headers included
	BytesSent uint64
	// number of sent payload bytes
	PayloadBytesSent uint64
	// number of sent RTP packets with the marker bit set
	MarkersSent uint64
	// sequence number of the last sent packet
	LastSequenceNumber uint16
}
