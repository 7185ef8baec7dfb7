package gortpsender

import (
	"math"
	"time"

	"github.com/pion/rtcp"
	"github.com/sirupsen/logrus"
)

// ntpEncode encodes a timestamp in NTP format.
// Specification: RFC3550, section 4
func ntpEncode(t time.Time) uint64 {
	v := uint64(t.UnixNano()) + 2208988800*1000000000
	secs := v / 1000000000
	fractional := uint64(math.Round(float64((v%1000000000)*(1<<32)) / 1000000000))
	return secs<<32 | fractional
}

func (st *Stream) runSenderReports() {
	defer close(st.done)

	t := time.NewTicker(st.SenderReportPeriod)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			st.writeSenderReport()

		case <-st.terminate:
			return
		}
	}
}

func (st *Stream) senderReport() *rtcp.SenderReport {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	codec := st.sender.Codec()

	if !st.firstRTPPacketSent || codec == nil || codec.ClockRate == 0 {
		return nil
	}

	now := st.TimeNow()
	systemTimeDiff := now.Sub(st.lastTimeSystem)
	ntpTime := st.lastTimeNTP.Add(systemTimeDiff)
	rtpTime := st.lastTimeRTP + uint32(systemTimeDiff.Seconds()*float64(codec.ClockRate))

	stats := st.sender.Stats(now)

	return &rtcp.SenderReport{
		SSRC:        stats.SSRC,
		NTPTime:     ntpEncode(ntpTime),
		RTPTime:     rtpTime,
		PacketCount: uint32(stats.PacketsSent),
		OctetCount:  uint32(stats.PayloadBytesSent),
	}
}

func (st *Stream) writeSenderReport() {
	sr := st.senderReport()
	if sr == nil {
		return
	}

	buf, err := sr.Marshal()
	if err != nil {
		st.Log.WithError(err).Warn("unable to encode sender report")
		return
	}

	if st.srtpOutCtx != nil {
		buf, err = st.srtpOutCtx.encryptRTCP(nil, buf)
		if err != nil {
			st.Log.WithError(err).Warn("unable to encrypt sender report")
			return
		}
	}

	err = st.WritePacketRTCP(buf)
	if err != nil {
		st.Log.WithError(err).Warn("unable to write sender report")
		return
	}

	st.Log.WithFields(logrus.Fields{
		"ssrc":         sr.SSRC,
		"packet_count": sr.PacketCount,
		"octet_count":  sr.OctetCount,
	}).Trace("sender report sent")
}
