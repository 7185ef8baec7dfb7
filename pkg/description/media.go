// Package description contains objects to describe negotiated streams.
package description

import (
	"fmt"
	"strconv"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

func getAttribute(attributes []psdp.Attribute, key string) string {
	for _, attr := range attributes {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}

func getFormatAttribute(attributes []psdp.Attribute, payloadType uint8, key string) string {
	for _, attr := range attributes {
		if attr.Key == key {
			v := strings.TrimSpace(attr.Value)
			if parts := strings.SplitN(v, " ", 2); len(parts) == 2 {
				if tmp, err := strconv.ParseUint(parts[0], 10, 8); err == nil && uint8(tmp) == payloadType {
					return parts[1]
				}
			}
		}
	}
	return ""
}

// RFC8843 allows a media ID to contain any token character.
func isToken(v string) bool {
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("!#$%&'*+-.^_`{|}~", r):
		default:
			return false
		}
	}
	return true
}

func unmarshalExtMap(value string) (HeaderExtension, error) {
	var em psdp.ExtMap
	err := em.Unmarshal("extmap:" + value)
	if err != nil {
		return HeaderExtension{}, err
	}

	if em.Value < 1 || em.Value > 255 {
		return HeaderExtension{}, fmt.Errorf("invalid extension ID: %d", em.Value)
	}

	if em.URI == nil {
		return HeaderExtension{}, fmt.Errorf("extension URI is missing")
	}

	return HeaderExtension{
		URI: em.URI.String(),
		ID:  em.Value,
	}, nil
}

func unmarshalSSRC(attributes []psdp.Attribute) (*uint32, error) {
	v := getAttribute(attributes, "ssrc")
	if v == "" {
		return nil, nil
	}

	tmp, err := strconv.ParseUint(strings.SplitN(v, " ", 2)[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid SSRC: %w", err)
	}

	ssrc := uint32(tmp)
	return &ssrc, nil
}

// MediaType is the type of a media stream.
type MediaType string

// media types.
const (
	MediaTypeVideo       MediaType = "video"
	MediaTypeAudio       MediaType = "audio"
	MediaTypeApplication MediaType = "application"
)

// Media is a negotiated media stream.
type Media struct {
	// Media type.
	Type MediaType

	// Media ID (optional).
	ID string

	// Codecs, in order of preference.
	Codecs []Codec

	// Header extensions.
	HeaderExtensions []HeaderExtension

	// SSRC announced for the media (optional).
	SSRC *uint32
}

// Unmarshal decodes the media from the SDP format.
func (m *Media) Unmarshal(md *psdp.MediaDescription) error {
	m.Type = MediaType(md.MediaName.Media)

	m.ID = getAttribute(md.Attributes, "mid")
	if m.ID != "" && !isToken(m.ID) {
		return fmt.Errorf("invalid mid: %v", m.ID)
	}

	m.Codecs = nil
	for _, payloadType := range md.MediaName.Formats {
		tmp, err := strconv.ParseUint(payloadType, 10, 7)
		if err != nil {
			return fmt.Errorf("invalid payload type: %v", payloadType)
		}
		payloadTypeInt := uint8(tmp)

		rtpMap := getFormatAttribute(md.Attributes, payloadTypeInt, "rtpmap")
		if rtpMap == "" {
			codec, ok := staticPayloadTypes[payloadTypeInt]
			if !ok {
				return fmt.Errorf("rtpmap of payload type %d is missing", payloadTypeInt)
			}
			m.Codecs = append(m.Codecs, codec)
			continue
		}

		codec := Codec{PayloadType: payloadTypeInt}
		err = codec.unmarshalRTPMap(m.Type, rtpMap)
		if err != nil {
			return err
		}

		m.Codecs = append(m.Codecs, codec)
	}

	m.HeaderExtensions = nil
	ids := make(map[int]struct{})

	for _, attr := range md.Attributes {
		if attr.Key != "extmap" {
			continue
		}

		ext, err := unmarshalExtMap(attr.Value)
		if err != nil {
			return fmt.Errorf("invalid extmap (%v): %w", attr.Value, err)
		}

		if _, ok := ids[ext.ID]; ok {
			return fmt.Errorf("duplicate extension ID: %d", ext.ID)
		}
		ids[ext.ID] = struct{}{}

		m.HeaderExtensions = append(m.HeaderExtensions, ext)
	}

	var err error
	m.SSRC, err = unmarshalSSRC(md.Attributes)
	if err != nil {
		return err
	}

	return nil
}

// Marshal encodes the media in SDP format.
func (m Media) Marshal() *psdp.MediaDescription {
	md := &psdp.MediaDescription{
		MediaName: psdp.MediaName{
			Media:  string(m.Type),
			Protos: []string{"RTP", "AVP"},
		},
	}

	if m.ID != "" {
		md.Attributes = append(md.Attributes, psdp.Attribute{
			Key:   "mid",
			Value: m.ID,
		})
	}

	for _, codec := range m.Codecs {
		typ := strconv.FormatUint(uint64(codec.PayloadType), 10)
		md.MediaName.Formats = append(md.MediaName.Formats, typ)

		md.Attributes = append(md.Attributes, psdp.Attribute{
			Key:   "rtpmap",
			Value: typ + " " + codec.RTPMap(),
		})
	}

	for _, ext := range m.HeaderExtensions {
		md.Attributes = append(md.Attributes, psdp.Attribute{
			Key:   "extmap",
			Value: strconv.FormatInt(int64(ext.ID), 10) + " " + ext.URI,
		})
	}

	if m.SSRC != nil {
		md.Attributes = append(md.Attributes, psdp.Attribute{
			Key:   "ssrc",
			Value: strconv.FormatUint(uint64(*m.SSRC), 10),
		})
	}

	return md
}

// Codec returns the preferred codec, or nil if no codec has been negotiated.
func (m Media) Codec() *Codec {
	if len(m.Codecs) == 0 {
		return nil
	}
	c := m.Codecs[0]
	return &c
}

// HeaderExtension returns the negotiated header extension with the given URI.
func (m Media) HeaderExtension(uri string) (HeaderExtension, bool) {
	for _, ext := range m.HeaderExtensions {
		if ext.URI == uri {
			return ext, true
		}
	}
	return HeaderExtension{}, false
}
