package cloud

import "fmt"

// BEVFrameSuffix is appended to the source frame id when encoding an output
// frame, so consumers can tell projected clouds apart from raw ones.
const BEVFrameSuffix = "_bev"

// FrameMetadata describes the layout of one encoded frame buffer. Height is
// always 1: the buffer is a single unstructured row of points.
type FrameMetadata struct {
	Height      uint32 `json:"height"`
	Width       uint32 `json:"width"`
	PointStride uint32 `json:"point_stride"`
	RowStride   uint32 `json:"row_stride"`
	IsDense     bool   `json:"is_dense"`
	IsBigEndian bool   `json:"is_bigendian"`
}

// Frame is one encoded output frame: the contiguous record buffer, the field
// descriptors describing its layout, and the per-buffer metadata.
type Frame struct {
	FrameID  string
	Fields   []FieldDescriptor
	Metadata FrameMetadata
	Data     []byte
}

// DecodeFrame walks data in steps of pointStride bytes starting at offset 0
// and decodes one record per step, in scan order. Decoding stops silently at
// the first step with fewer than PointRecordSize bytes remaining; trailing
// remainder bytes never produce a partial record.
//
// A stride smaller than the record width makes consecutive records share
// bytes. That mirrors the wire contract of the declared-stride input and is
// accepted here; use DecodeFrameStrict to reject it.
func DecodeFrame(data []byte, pointStride int) []Point {
	if pointStride < 1 {
		return nil
	}
	points := make([]Point, 0, len(data)/pointStride)
	for offset := 0; offset < len(data); offset += pointStride {
		p, ok := DecodePoint(data, offset)
		if !ok {
			break
		}
		points = append(points, p)
	}
	return points
}

// DecodeFrameStrict is DecodeFrame with stride validation: strides below the
// record width cause overlapping reads and are rejected instead of accepted.
func DecodeFrameStrict(data []byte, pointStride int) ([]Point, error) {
	if pointStride < PointRecordSize {
		return nil, fmt.Errorf("cloud: point stride %d below record size %d", pointStride, PointRecordSize)
	}
	return DecodeFrame(data, pointStride), nil
}

// EncodeFrame serialises the projected points into one contiguous buffer in
// input order and attaches the constant field schema and layout metadata.
// The output frame id is the source frame id with the BEV suffix appended.
func EncodeFrame(points []BEVPoint, sourceFrameID string) Frame {
	data := make([]byte, 0, len(points)*PointRecordSize)
	for _, p := range points {
		data = AppendBEVPoint(data, p)
	}
	n := uint32(len(points))
	return Frame{
		FrameID: sourceFrameID + BEVFrameSuffix,
		Fields:  PointSchema(),
		Metadata: FrameMetadata{
			Height:      1,
			Width:       n,
			PointStride: PointRecordSize,
			RowStride:   n * PointRecordSize,
			IsDense:     true,
			IsBigEndian: false,
		},
		Data: data,
	}
}
