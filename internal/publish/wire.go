// Package publish streams encoded BEV frames to downstream consumers over
// TCP. Each connected client receives every published frame as one
// length-prefixed message carrying the frame id, field descriptors, metadata
// and the raw point payload.
package publish

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
)

// Frame message layout, after a uint32 little-endian length prefix covering
// everything below:
//
//	magic       uint16  0x4C46
//	version     uint8
//	flags       uint8   bit 0 = dense, bit 1 = big-endian payload
//	idlen       uint8
//	id          idlen bytes
//	nfields     uint8
//	per field:  namelen uint8, name, offset uint32, datatype uint8, count uint32
//	height      uint32
//	width       uint32
//	pointStride uint32
//	rowStride   uint32
//	paylen      uint32
//	payload     paylen bytes
const (
	FrameMagic   = 0x4C46
	FrameVersion = 1

	flagDense     = 0x01
	flagBigEndian = 0x02

	// MaxFrameMessage caps a single message at 64 MiB. A full-resolution
	// Mid-360 frame is under 3 MiB, so anything near the cap is corrupt.
	MaxFrameMessage = 64 << 20
)

var (
	ErrFrameTooLarge = errors.New("publish: frame message exceeds size cap")
	ErrBadFrameMagic = errors.New("publish: bad frame message magic")
)

// WriteFrame serialises one frame onto w as a single length-prefixed message.
func WriteFrame(w io.Writer, f cloud.Frame) error {
	if len(f.FrameID) > 255 {
		return fmt.Errorf("publish: frame id %d bytes, limit 255", len(f.FrameID))
	}
	if len(f.Fields) > 255 {
		return fmt.Errorf("publish: %d field descriptors, limit 255", len(f.Fields))
	}

	var flags uint8
	if f.Metadata.IsDense {
		flags |= flagDense
	}
	if f.Metadata.IsBigEndian {
		flags |= flagBigEndian
	}

	body := make([]byte, 0, 64+len(f.FrameID)+len(f.Data))
	body = binary.LittleEndian.AppendUint16(body, FrameMagic)
	body = append(body, FrameVersion, flags)
	body = append(body, uint8(len(f.FrameID)))
	body = append(body, f.FrameID...)
	body = append(body, uint8(len(f.Fields)))
	for _, fd := range f.Fields {
		if len(fd.Name) > 255 {
			return fmt.Errorf("publish: field name %q too long", fd.Name)
		}
		body = append(body, uint8(len(fd.Name)))
		body = append(body, fd.Name...)
		body = binary.LittleEndian.AppendUint32(body, fd.Offset)
		body = append(body, uint8(fd.Datatype))
		body = binary.LittleEndian.AppendUint32(body, fd.Count)
	}
	body = binary.LittleEndian.AppendUint32(body, f.Metadata.Height)
	body = binary.LittleEndian.AppendUint32(body, f.Metadata.Width)
	body = binary.LittleEndian.AppendUint32(body, f.Metadata.PointStride)
	body = binary.LittleEndian.AppendUint32(body, f.Metadata.RowStride)
	body = binary.LittleEndian.AppendUint32(body, uint32(len(f.Data)))
	body = append(body, f.Data...)

	if len(body) > MaxFrameMessage {
		return ErrFrameTooLarge
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("publish: write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("publish: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame message from r. It is the inverse
// of WriteFrame and exists for consumers and tests.
func ReadFrame(r io.Reader) (cloud.Frame, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return cloud.Frame{}, err
	}
	msgLen := int(binary.LittleEndian.Uint32(prefix[:]))
	if msgLen > MaxFrameMessage {
		return cloud.Frame{}, ErrFrameTooLarge
	}

	body := make([]byte, msgLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return cloud.Frame{}, fmt.Errorf("publish: read frame body: %w", err)
	}

	d := frameReader{data: body}
	if d.uint16le() != FrameMagic {
		return cloud.Frame{}, ErrBadFrameMagic
	}
	if v := d.uint8(); v != FrameVersion {
		return cloud.Frame{}, fmt.Errorf("publish: unsupported frame message version %d", v)
	}
	flags := d.uint8()

	var f cloud.Frame
	f.FrameID = d.str()

	nfields := int(d.uint8())
	f.Fields = make([]cloud.FieldDescriptor, 0, nfields)
	for i := 0; i < nfields; i++ {
		fd := cloud.FieldDescriptor{Name: d.str()}
		fd.Offset = d.uint32le()
		fd.Datatype = cloud.FieldType(d.uint8())
		fd.Count = d.uint32le()
		f.Fields = append(f.Fields, fd)
	}

	f.Metadata.Height = d.uint32le()
	f.Metadata.Width = d.uint32le()
	f.Metadata.PointStride = d.uint32le()
	f.Metadata.RowStride = d.uint32le()
	f.Metadata.IsDense = flags&flagDense != 0
	f.Metadata.IsBigEndian = flags&flagBigEndian != 0

	payLen := int(d.uint32le())
	f.Data = d.bytes(payLen)

	if d.err != nil {
		return cloud.Frame{}, fmt.Errorf("publish: truncated frame message: %w", d.err)
	}
	return f, nil
}

// frameReader is a cursor over a frame message body. The first short read
// latches err; subsequent reads return zero values.
type frameReader struct {
	data []byte
	pos  int
	err  error
}

func (d *frameReader) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.data) {
		d.err = io.ErrUnexpectedEOF
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *frameReader) uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *frameReader) uint16le() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *frameReader) uint32le() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *frameReader) str() string {
	n := int(d.uint8())
	return string(d.take(n))
}

func (d *frameReader) bytes(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
