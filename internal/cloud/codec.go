package cloud

import (
	"encoding/binary"
	"math"
)

// DecodePoint reads one 26-byte record starting at offset. The second return
// value is false when fewer than PointRecordSize bytes remain at offset; that
// is the defined truncation policy for a short trailing remainder, not an
// error. All multi-byte fields are little-endian.
func DecodePoint(data []byte, offset int) (Point, bool) {
	if offset < 0 || offset+PointRecordSize > len(data) {
		return Point{}, false
	}
	rec := data[offset : offset+PointRecordSize]
	return Point{
		X:         math.Float32frombits(binary.LittleEndian.Uint32(rec[offX:])),
		Y:         math.Float32frombits(binary.LittleEndian.Uint32(rec[offY:])),
		Z:         math.Float32frombits(binary.LittleEndian.Uint32(rec[offZ:])),
		Intensity: math.Float32frombits(binary.LittleEndian.Uint32(rec[offIntensity:])),
		Tag:       rec[offTag],
		Line:      rec[offLine],
		Timestamp: math.Float64frombits(binary.LittleEndian.Uint64(rec[offTimestamp:])),
	}, true
}

// AppendPoint appends the 26-byte wire form of a raw point to dst and returns
// the extended slice. Used by synthetic feed generation and tests; the
// pipeline output path encodes BEV points.
func AppendPoint(dst []byte, p Point) []byte {
	return appendRecord(dst, p.X, p.Y, p.Z, p.Intensity, p.Tag, p.Line, p.Timestamp)
}

// AppendBEVPoint appends the 26-byte wire form of a projected point to dst
// and returns the extended slice.
func AppendBEVPoint(dst []byte, p BEVPoint) []byte {
	return appendRecord(dst, p.X, p.Y, p.Z, p.Intensity, p.Tag, p.Line, p.Timestamp)
}

// EncodePoint returns the 26-byte wire form of a single raw point.
func EncodePoint(p Point) []byte {
	return AppendPoint(make([]byte, 0, PointRecordSize), p)
}

// EncodeBEVPoint returns the 26-byte wire form of a single projected point.
func EncodeBEVPoint(p BEVPoint) []byte {
	return AppendBEVPoint(make([]byte, 0, PointRecordSize), p)
}

func appendRecord(dst []byte, x, y, z, intensity float32, tag, line uint8, timestamp float64) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(y))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(z))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(intensity))
	dst = append(dst, tag, line)
	dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(timestamp))
	return dst
}
