package cloud

// Wire layout of one point record. The offsets chain together so the codec,
// the field schema, and the record size all derive from a single definition.
// Livox extended-format points are 26 bytes, little-endian, fixed field order.
const (
	offX         = 0
	offY         = offX + 4
	offZ         = offY + 4
	offIntensity = offZ + 4
	offTag       = offIntensity + 4
	offLine      = offTag + 1
	offTimestamp = offLine + 1

	// PointRecordSize is the wire size of one point record in bytes,
	// identical for raw and BEV records.
	PointRecordSize = offTimestamp + 8
)

// Point is one decoded lidar point. Field values are passed through from the
// wire without range validation: NaN coordinates or unknown tag values are
// the producer's problem, not the codec's.
type Point struct {
	X         float32 // metres, sensor frame
	Y         float32 // metres, sensor frame
	Z         float32 // metres, vertical axis
	Intensity float32
	Tag       uint8
	Line      uint8 // originating scan line / ring id
	Timestamp float64
}

// BEVPoint is a point projected onto the ground plane. It keeps the same
// 26-byte wire layout as Point so downstream 3D consumers stay compatible;
// Z is always exactly zero.
type BEVPoint struct {
	X         float32
	Y         float32
	Z         float32 // always 0
	Intensity float32
	Tag       uint8
	Line      uint8
	Timestamp float64
}

// ToBEV flattens the vertical axis, carrying every other field through
// unchanged.
func (p Point) ToBEV() BEVPoint {
	return BEVPoint{
		X:         p.X,
		Y:         p.Y,
		Z:         0,
		Intensity: p.Intensity,
		Tag:       p.Tag,
		Line:      p.Line,
		Timestamp: p.Timestamp,
	}
}
