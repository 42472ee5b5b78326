package feed

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Batch envelope wire layout (little-endian):
//
//	magic     uint16  0x4C42
//	version   uint8
//	flags     uint8   bit 0 = end of frame
//	sequence  uint32  batch sequence within the feed
//	stride    uint16  point stride in bytes
//	count     uint16  records in this batch
//	idlen     uint8   frame id length
//	id        idlen bytes
//	payload   count × stride bytes
const (
	EnvelopeMagic   = 0x4C42
	EnvelopeVersion = 1

	// FlagFrameEnd marks the last batch of a frame.
	FlagFrameEnd = 0x01

	envelopeFixedSize = 13
)

var (
	ErrShortEnvelope    = errors.New("feed: datagram shorter than envelope header")
	ErrBadMagic         = errors.New("feed: bad envelope magic")
	ErrBadVersion       = errors.New("feed: unsupported envelope version")
	ErrTruncatedPayload = errors.New("feed: envelope payload shorter than declared")
	ErrBadStride        = errors.New("feed: envelope stride must be at least 1")
)

// Envelope is one decoded feed batch: a slice of raw point records belonging
// to the frame named by FrameID.
type Envelope struct {
	FrameID  string
	Sequence uint32
	Stride   int
	Flags    uint8
	Payload  []byte
}

// EndOfFrame reports whether this batch closes its frame.
func (e Envelope) EndOfFrame() bool {
	return e.Flags&FlagFrameEnd != 0
}

// Count returns the number of whole records in the payload.
func (e Envelope) Count() int {
	if e.Stride < 1 {
		return 0
	}
	return len(e.Payload) / e.Stride
}

// EncodeEnvelope serialises an envelope into a single datagram.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	if e.Stride < 1 || e.Stride > 0xFFFF {
		return nil, ErrBadStride
	}
	if len(e.FrameID) > 255 {
		return nil, fmt.Errorf("feed: frame id %d bytes, limit 255", len(e.FrameID))
	}
	count := len(e.Payload) / e.Stride
	if count > 0xFFFF || count*e.Stride != len(e.Payload) {
		return nil, fmt.Errorf("feed: payload %d bytes is not a whole number of %d-byte records", len(e.Payload), e.Stride)
	}

	buf := make([]byte, 0, envelopeFixedSize+len(e.FrameID)+len(e.Payload))
	buf = binary.LittleEndian.AppendUint16(buf, EnvelopeMagic)
	buf = append(buf, EnvelopeVersion, e.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, e.Sequence)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Stride))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(count))
	buf = append(buf, uint8(len(e.FrameID)))
	buf = append(buf, e.FrameID...)
	buf = append(buf, e.Payload...)
	return buf, nil
}

// DecodeEnvelope parses one datagram. The payload is copied out of data, so
// the caller may reuse its receive buffer immediately.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(data) < envelopeFixedSize {
		return Envelope{}, ErrShortEnvelope
	}
	if binary.LittleEndian.Uint16(data[0:]) != EnvelopeMagic {
		return Envelope{}, ErrBadMagic
	}
	if data[2] != EnvelopeVersion {
		return Envelope{}, fmt.Errorf("%w: %d", ErrBadVersion, data[2])
	}

	flags := data[3]
	sequence := binary.LittleEndian.Uint32(data[4:])
	stride := int(binary.LittleEndian.Uint16(data[8:]))
	count := int(binary.LittleEndian.Uint16(data[10:]))
	idLen := int(data[12])
	if stride < 1 {
		return Envelope{}, ErrBadStride
	}

	payloadStart := envelopeFixedSize + idLen
	payloadLen := count * stride
	if len(data) < payloadStart+payloadLen {
		return Envelope{}, ErrTruncatedPayload
	}

	payload := make([]byte, payloadLen)
	copy(payload, data[payloadStart:payloadStart+payloadLen])

	return Envelope{
		FrameID:  string(data[envelopeFixedSize:payloadStart]),
		Sequence: sequence,
		Stride:   stride,
		Flags:    flags,
		Payload:  payload,
	}, nil
}

// SplitFrame cuts a raw frame buffer into envelopes of at most batchPoints
// records each, in scan order, marking the last one end-of-frame. A trailing
// remainder shorter than one record is dropped, which is what a real sensor
// emits: whole records only.
func SplitFrame(frameID string, stride int, data []byte, batchPoints int, firstSeq uint32) ([]Envelope, error) {
	if stride < 1 {
		return nil, ErrBadStride
	}
	if batchPoints < 1 {
		batchPoints = 1
	}

	batchBytes := batchPoints * stride
	var envelopes []Envelope
	seq := firstSeq
	for offset := 0; ; offset += batchBytes {
		remaining := len(data) - offset
		if remaining <= batchBytes {
			// Final batch: whatever remains, plus the end-of-frame mark.
			// The remainder may not be a whole record; trim it to whole
			// records for the envelope, which is what a sensor emits.
			tail := data[offset:]
			tail = tail[:len(tail)/stride*stride]
			envelopes = append(envelopes, Envelope{
				FrameID:  frameID,
				Sequence: seq,
				Stride:   stride,
				Flags:    FlagFrameEnd,
				Payload:  tail,
			})
			return envelopes, nil
		}
		envelopes = append(envelopes, Envelope{
			FrameID:  frameID,
			Sequence: seq,
			Stride:   stride,
			Payload:  data[offset : offset+batchBytes],
		})
		seq++
	}
}
