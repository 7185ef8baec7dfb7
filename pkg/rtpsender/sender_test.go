package rtpsender

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"

	"github.com/bluenviron/gortpsender/pkg/description"
	"github.com/bluenviron/gortpsender/pkg/liberrors"
)

func uint16Ptr(v uint16) *uint16 {
	return &v
}

var testCodec = &description.Codec{
	PayloadType: 96,
	MimeType:    "video/VP8",
	ClockRate:   90000,
}

var testExtensions = []description.HeaderExtension{
	{URI: description.MIDURI, ID: 1},
}

func newTestSender(t *testing.T, lastSequenceNumber uint16) Sender {
	s, err := New(Params{
		Codec:              testCodec,
		HeaderExtensions:   testExtensions,
		Mid:                "0",
		SSRC:               1111,
		LastSequenceNumber: uint16Ptr(lastSequenceNumber),
	})
	require.NoError(t, err)
	return s
}

func testPacket(marker bool) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Marker:    marker,
			Timestamp: 1287987768,
		},
		Payload: []byte{0x01, 0x02},
	}
}

func TestSenderNew(t *testing.T) {
	track := &description.Track{ID: "video", Kind: description.MediaTypeVideo}

	s, err := New(Params{
		Track:            track,
		Codec:            testCodec,
		HeaderExtensions: testExtensions,
		Mid:              "0",
		SSRC:             1111,
	})
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, s.ID())
	require.Equal(t, track, s.Track())
	require.Equal(t, testCodec, s.Codec())
	require.Equal(t, "0", s.Mid())
	require.Equal(t, uint32(1111), s.SSRC())

	pt, ok := s.PayloadType()
	require.True(t, ok)
	require.Equal(t, uint8(96), pt)

	ext, ok := s.HeaderExtension(description.MIDURI)
	require.True(t, ok)
	require.Equal(t, description.HeaderExtension{URI: description.MIDURI, ID: 1}, ext)

	s2, err := New(Params{SSRC: 1111})
	require.NoError(t, err)
	require.NotEqual(t, s.ID(), s2.ID())

	_, ok = s2.PayloadType()
	require.False(t, ok)
}

func TestSenderSend(t *testing.T) {
	s := newTestSender(t, 1000)

	buf, s, err := s.Send(testPacket(false))
	require.NoError(t, err)
	require.Equal(t, uint16(1001), s.LastSequenceNumber())
	require.Equal(t, []byte{
		0x90, 0x60, 0x03, 0xe9, 0x4c, 0xc5, 0x22, 0x38,
		0x00, 0x00, 0x04, 0x57, 0xbe, 0xde, 0x00, 0x01,
		0x10, 0x30, 0x00, 0x00, 0x01, 0x02,
	}, buf)

	st := s.Stats(time.Time{})
	require.Equal(t, uint64(1), st.PacketsSent)
	require.Equal(t, uint64(0), st.MarkersSent)
	require.Equal(t, uint64(22), st.BytesSent)

	buf2, s, err := s.Send(testPacket(true))
	require.NoError(t, err)
	require.Equal(t, uint16(1002), s.LastSequenceNumber())

	st = s.Stats(time.Time{})
	require.Equal(t, uint64(2), st.PacketsSent)
	require.Equal(t, uint64(1), st.MarkersSent)
	require.Equal(t, uint64(len(buf)+len(buf2)), st.BytesSent)
	require.Equal(t, uint64(4), st.PayloadBytesSent)
}

func TestSenderSendRoundTrip(t *testing.T) {
	for _, ca := range []struct {
		name    string
		id      int
		mid     string
		profile uint16
	}{
		{
			"one-byte",
			3,
			"audio",
			rtp.ExtensionProfileOneByte,
		},
		{
			"two-byte, large id",
			20,
			"0",
			rtp.ExtensionProfileTwoByte,
		},
		{
			"two-byte, long mid",
			5,
			"a-very-long-media-identifier",
			rtp.ExtensionProfileTwoByte,
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			s, err := New(Params{
				Codec:            testCodec,
				HeaderExtensions: []description.HeaderExtension{{URI: description.MIDURI, ID: ca.id}},
				Mid:              ca.mid,
				SSRC:             0xba9da416,
			})
			require.NoError(t, err)

			in := testPacket(true)
			buf, s2, err := s.Send(in)
			require.NoError(t, err)

			var dec rtp.Packet
			err = dec.Unmarshal(buf)
			require.NoError(t, err)

			require.Equal(t, uint8(96), dec.PayloadType)
			require.Equal(t, uint32(0xba9da416), dec.SSRC)
			require.Equal(t, s.LastSequenceNumber()+1, dec.SequenceNumber)
			require.Equal(t, s2.LastSequenceNumber(), dec.SequenceNumber)
			require.Equal(t, uint32(1287987768), dec.Timestamp)
			require.True(t, dec.Marker)
			require.Equal(t, ca.profile, dec.ExtensionProfile)
			require.Equal(t, []byte(ca.mid), dec.GetExtension(uint8(ca.id)))
			require.Equal(t, []byte{0x01, 0x02}, dec.Payload)

			// input is untouched
			require.Equal(t, testPacket(true), in)
		})
	}
}

func TestSenderSendPreservesExtensions(t *testing.T) {
	s := newTestSender(t, 0)

	in := testPacket(false)
	err := in.Header.SetExtension(2, []byte{0xaa, 0xbb, 0xcc})
	require.NoError(t, err)

	buf, _, err := s.Send(in)
	require.NoError(t, err)

	var dec rtp.Packet
	err = dec.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc}, dec.GetExtension(2))
	require.Equal(t, []byte("0"), dec.GetExtension(1))
	require.Equal(t, []uint8{2}, in.GetExtensionIDs())
}

func TestSenderSequenceNumber(t *testing.T) {
	for _, initial := range []uint16{0, 1000, 65500} {
		s := newTestSender(t, initial)

		for n := 1; n <= 100; n++ {
			var buf []byte
			var err error
			buf, s, err = s.Send(testPacket(n%3 == 0))
			require.NoError(t, err)

			var dec rtp.Packet
			err = dec.Unmarshal(buf)
			require.NoError(t, err)
			require.Equal(t, uint16((int(initial)+n)%65536), dec.SequenceNumber)
		}

		st := s.Stats(time.Time{})
		require.Equal(t, uint64(100), st.PacketsSent)
		require.Equal(t, uint64(33), st.MarkersSent)
	}
}

func TestSenderSequenceNumberWraparound(t *testing.T) {
	s := newTestSender(t, 65535)

	buf, s, err := s.Send(testPacket(false))
	require.NoError(t, err)
	require.Equal(t, uint16(0), s.LastSequenceNumber())

	var dec rtp.Packet
	err = dec.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, uint16(0), dec.SequenceNumber)
}

func TestSenderSendErrors(t *testing.T) {
	for _, ca := range []struct {
		name   string
		params Params
		err    error
	}{
		{
			"missing extension",
			Params{
				Codec: testCodec,
				HeaderExtensions: []description.HeaderExtension{
					{URI: "urn:ietf:params:rtp-hdrext:sdes:rtp-stream-id", ID: 1},
				},
				Mid: "0",
			},
			liberrors.ErrSenderMissingExtension{URI: description.MIDURI},
		},
		{
			"missing codec",
			Params{
				HeaderExtensions: testExtensions,
				Mid:              "0",
			},
			liberrors.ErrSenderCodecMissing{},
		},
		{
			"missing mid",
			Params{
				Codec:            testCodec,
				HeaderExtensions: testExtensions,
			},
			liberrors.ErrSenderMidMissing{},
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			ca.params.LastSequenceNumber = uint16Ptr(1000)
			s, err := New(ca.params)
			require.NoError(t, err)

			buf, s2, err := s.Send(testPacket(true))
			require.Equal(t, ca.err, err)
			require.Nil(t, buf)
			require.Equal(t, s, s2)
			require.Equal(t, uint16(1000), s2.LastSequenceNumber())
			require.Equal(t, uint64(0), s2.Stats(time.Time{}).PacketsSent)
		})
	}
}

func TestSenderReconfigure(t *testing.T) {
	s, err := New(Params{
		SSRC:               1111,
		LastSequenceNumber: uint16Ptr(1000),
	})
	require.NoError(t, err)

	_, _, err = s.Send(testPacket(false))
	var missingErr liberrors.ErrSenderMissingExtension
	require.True(t, errors.As(err, &missingErr))

	s, err = s.Reconfigure("0", testCodec, testExtensions)
	require.NoError(t, err)
	require.Equal(t, "0", s.Mid())

	_, s, err = s.Send(testPacket(false))
	require.NoError(t, err)

	// same mid, new codec and extension ID
	s, err = s.Reconfigure("0",
		&description.Codec{PayloadType: 97, MimeType: "video/H264", ClockRate: 90000},
		[]description.HeaderExtension{{URI: description.MIDURI, ID: 9}})
	require.NoError(t, err)
	require.Equal(t, "0", s.Mid())
	require.Equal(t, uint32(1111), s.SSRC())
	require.Equal(t, uint16(1001), s.LastSequenceNumber())
	require.Equal(t, uint64(1), s.Stats(time.Time{}).PacketsSent)

	buf, _, err := s.Send(testPacket(false))
	require.NoError(t, err)

	var dec rtp.Packet
	err = dec.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, uint8(97), dec.PayloadType)
	require.Equal(t, []byte("0"), dec.GetExtension(9))
	require.Equal(t, uint16(1002), dec.SequenceNumber)

	// different mid
	s2, err := s.Reconfigure("1", testCodec, testExtensions)
	require.Equal(t, liberrors.ErrSenderInvalidState{Current: "0", Requested: "1"}, err)
	require.Equal(t, s, s2)

	// removing the mid is a change too
	_, err = s.Reconfigure("", testCodec, testExtensions)
	require.Error(t, err)
}

func TestSenderReconfigureDoesNotAffectCopies(t *testing.T) {
	s := newTestSender(t, 0)

	s2, err := s.Reconfigure("0", testCodec, nil)
	require.NoError(t, err)

	_, ok := s2.HeaderExtension(description.MIDURI)
	require.False(t, ok)

	_, ok = s.HeaderExtension(description.MIDURI)
	require.True(t, ok)
}

func TestSenderStats(t *testing.T) {
	s := newTestSender(t, 1000)

	_, s, err := s.Send(testPacket(true))
	require.NoError(t, err)

	ts1 := time.Date(2008, 5, 20, 22, 16, 20, 0, time.UTC)
	ts2 := ts1.Add(time.Second)

	st1 := s.Stats(ts1)
	st2 := s.Stats(ts2)

	require.Equal(t, Stats{
		Timestamp:          ts1,
		Type:               StatsTypeOutboundRTP,
		ID:                 s.ID().String(),
		SSRC:               1111,
		PacketsSent:        1,
		BytesSent:          22,
		PayloadBytesSent:   2,
		MarkersSent:        1,
		LastSequenceNumber: 1001,
	}, st1)

	st1.Timestamp = ts2
	require.Equal(t, st1, st2)
}
