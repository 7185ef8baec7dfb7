// Package gortpsender is a library to send RTP packets of negotiated media streams.
package gortpsender

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"

	"github.com/bluenviron/gortpsender/pkg/description"
	"github.com/bluenviron/gortpsender/pkg/liberrors"
	"github.com/bluenviron/gortpsender/pkg/rtpsender"
)

const (
	defaultSenderReportPeriod = 10 * time.Second
)

func randUint32() (uint32, error) {
	var b [4]byte
	_, err := rand.Read(b[:])
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// Stream is the owner of a rtpsender.Sender.
// This is in charge of
// - serializing access to the sender
// - writing stamped packets
// - generating RTCP sender reports
// - encrypting packets with SRTP
type Stream struct {
	//
	// parameters (all optional except Media and WritePacketRTP)
	//
	// negotiated media.
	Media *description.Media
	// track whose packets are sent.
	Track *description.Track
	// SSRC of packets.
	// It defaults to the SSRC of the media, or to a random value.
	SSRC *uint32
	// sequence number of the packet that precedes the first one.
	// It defaults to a random value.
	LastSequenceNumber *uint16
	// SRTP master key and salt (AES_CM_128_HMAC_SHA1_80).
	// When set, packets are encrypted.
	SRTPKey []byte
	// period of RTCP sender reports.
	// It defaults to 10 seconds.
	SenderReportPeriod time.Duration
	// function used to get the current time.
	// It defaults to time.Now.
	TimeNow func() time.Time
	// logger.
	// It defaults to the logrus standard logger.
	Log logrus.FieldLogger

	//
	// callbacks
	//
	// called when a RTP packet is ready to be sent.
	WritePacketRTP func([]byte) error
	// called when a RTCP packet is ready to be sent.
	// When set, sender reports are generated.
	WritePacketRTCP func([]byte) error

	mutex      sync.Mutex
	sender     rtpsender.Sender
	srtpOutCtx *wrappedSRTPContext
	closed     bool

	// data from RTP packets
	firstRTPPacketSent bool
	lastTimeRTP        uint32
	lastTimeNTP        time.Time
	lastTimeSystem     time.Time

	terminate chan struct{}
	done      chan struct{}
}

// Initialize initializes a Stream.
func (st *Stream) Initialize() error {
	if st.Media == nil {
		return liberrors.ErrStreamMediaMissing{}
	}
	if st.WritePacketRTP == nil {
		return liberrors.ErrStreamWriterMissing{}
	}
	if st.SenderReportPeriod == 0 {
		st.SenderReportPeriod = defaultSenderReportPeriod
	}
	if st.TimeNow == nil {
		st.TimeNow = time.Now
	}
	if st.Log == nil {
		st.Log = logrus.StandardLogger()
	}

	var ssrc uint32
	switch {
	case st.SSRC != nil:
		ssrc = *st.SSRC
	case st.Media.SSRC != nil:
		ssrc = *st.Media.SSRC
	default:
		var err error
		ssrc, err = randUint32()
		if err != nil {
			return err
		}
	}

	var err error
	st.sender, err = rtpsender.New(rtpsender.Params{
		Track:              st.Track,
		Codec:              st.Media.Codec(),
		HeaderExtensions:   st.Media.HeaderExtensions,
		Mid:                st.Media.ID,
		SSRC:               ssrc,
		LastSequenceNumber: st.LastSequenceNumber,
	})
	if err != nil {
		return err
	}

	if st.SRTPKey != nil {
		if len(st.SRTPKey) != srtpKeyLength {
			return liberrors.ErrStreamInvalidSRTPKey{Length: len(st.SRTPKey)}
		}

		st.srtpOutCtx = &wrappedSRTPContext{key: st.SRTPKey}
		err = st.srtpOutCtx.initialize()
		if err != nil {
			return err
		}
	}

	st.terminate = make(chan struct{})
	st.done = make(chan struct{})

	if st.WritePacketRTCP != nil {
		go st.runSenderReports()
	} else {
		close(st.done)
	}

	st.logger().Debug("stream initialized")

	return nil
}

// Close closes the Stream.
func (st *Stream) Close() {
	st.mutex.Lock()
	if st.closed {
		st.mutex.Unlock()
		return
	}
	st.closed = true
	st.logger().Debug("stream closed")
	st.mutex.Unlock()

	close(st.terminate)
	<-st.done
}

func (st *Stream) logger() logrus.FieldLogger {
	return st.Log.WithFields(logrus.Fields{
		"sender_id": st.sender.ID().String(),
		"ssrc":      st.sender.SSRC(),
		"mid":       st.sender.Mid(),
	})
}

// Sender returns the current state of the sender.
func (st *Stream) Sender() rtpsender.Sender {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.sender
}

// Reconfigure applies the result of a renegotiation.
// The SSRC of the new media is ignored.
func (st *Stream) Reconfigure(media *description.Media) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	sender, err := st.sender.Reconfigure(media.ID, media.Codec(), media.HeaderExtensions)
	if err != nil {
		st.logger().WithError(err).Warn("renegotiation rejected")
		return err
	}

	st.sender = sender
	st.logger().Debug("stream reconfigured")

	return nil
}

// WritePacket stamps, serializes and writes a RTP packet.
// ntp is the absolute time of the packet, used to fill sender reports.
func (st *Stream) WritePacket(pkt *rtp.Packet, ntp time.Time) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.closed {
		return liberrors.ErrStreamClosed{}
	}

	buf, sender, err := st.sender.Send(pkt)
	if err != nil {
		st.logger().WithError(err).Debug("unable to send packet")
		return err
	}

	st.sender = sender
	st.firstRTPPacketSent = true
	st.lastTimeRTP = pkt.Timestamp
	st.lastTimeNTP = ntp
	st.lastTimeSystem = st.TimeNow()

	if st.srtpOutCtx != nil {
		buf, err = st.srtpOutCtx.encryptRTP(nil, buf)
		if err != nil {
			return err
		}
	}

	return st.WritePacketRTP(buf)
}

// Stats returns a snapshot of the statistics.
func (st *Stream) Stats() rtpsender.Stats {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	return st.sender.Stats(st.TimeNow())
}
