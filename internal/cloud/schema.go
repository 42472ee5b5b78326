package cloud

// FieldType is the scalar type code used in field-layout descriptors.
// The codes follow the PointCloud2 datatype convention.
type FieldType uint8

const (
	FieldUint8   FieldType = 2
	FieldFloat32 FieldType = 7
	FieldFloat64 FieldType = 8
)

// Size returns the wire width of one scalar of this type in bytes.
func (t FieldType) Size() int {
	switch t {
	case FieldUint8:
		return 1
	case FieldFloat32:
		return 4
	case FieldFloat64:
		return 8
	default:
		return 0
	}
}

// String returns the conventional lowercase name of the scalar type.
func (t FieldType) String() string {
	switch t {
	case FieldUint8:
		return "uint8"
	case FieldFloat32:
		return "float32"
	case FieldFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// FieldDescriptor names one scalar sub-field of the point record: its byte
// offset within the record, its scalar type, and how many consecutive
// elements it holds (always 1 in this layout).
type FieldDescriptor struct {
	Name     string    `json:"name"`
	Offset   uint32    `json:"offset"`
	Datatype FieldType `json:"datatype"`
	Count    uint32    `json:"count"`
}

// pointSchema is the single ordered definition of the record layout. The
// codec offsets in point.go and this table are tied together by the shared
// off* constants, so the decode and encode paths cannot drift apart.
var pointSchema = [7]FieldDescriptor{
	{Name: "x", Offset: offX, Datatype: FieldFloat32, Count: 1},
	{Name: "y", Offset: offY, Datatype: FieldFloat32, Count: 1},
	{Name: "z", Offset: offZ, Datatype: FieldFloat32, Count: 1},
	{Name: "intensity", Offset: offIntensity, Datatype: FieldFloat32, Count: 1},
	{Name: "tag", Offset: offTag, Datatype: FieldUint8, Count: 1},
	{Name: "line", Offset: offLine, Datatype: FieldUint8, Count: 1},
	{Name: "timestamp", Offset: offTimestamp, Datatype: FieldFloat64, Count: 1},
}

// PointSchema returns the ordered field descriptors for the point record.
// The schema is constant for a given build; callers get a fresh copy so an
// encoded frame can never alias another frame's descriptor slice.
func PointSchema() []FieldDescriptor {
	fields := make([]FieldDescriptor, len(pointSchema))
	copy(fields, pointSchema[:])
	return fields
}
