package cloud

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildFrameBuffer(points ...Point) []byte {
	var buf []byte
	for _, p := range points {
		buf = AppendPoint(buf, p)
	}
	return buf
}

func TestDecodeFrameScanOrder(t *testing.T) {
	want := []Point{
		{X: 1, Line: 1, Timestamp: 10},
		{X: 2, Line: 2, Timestamp: 20},
		{X: 3, Line: 3, Timestamp: 30},
	}
	buf := buildFrameBuffer(want...)

	got := DecodeFrame(buf, PointRecordSize)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decoded frame mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFrameTruncation(t *testing.T) {
	full := buildFrameBuffer(Point{X: 1}, Point{X: 2}, Point{X: 3})

	tests := []struct {
		name   string
		data   []byte
		stride int
		want   int
	}{
		{"empty buffer", nil, PointRecordSize, 0},
		{"exact multiple", full, PointRecordSize, 3},
		{"trailing remainder dropped", full[:len(full)-5], PointRecordSize, 2},
		{"single short record", full[:10], PointRecordSize, 0},
		{"stride larger than record", full, PointRecordSize + 4, 2},
		{"zero stride", full, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeFrame(tt.data, tt.stride)
			if len(got) != tt.want {
				t.Errorf("decoded %d records, want %d", len(got), tt.want)
			}
		})
	}
}

// A stride below the record width makes records share bytes. The permissive
// decoder accepts this as-is; the strict variant rejects it.
func TestDecodeFrameOverlappingStride(t *testing.T) {
	buf := buildFrameBuffer(Point{X: 1}, Point{X: 2})

	got := DecodeFrame(buf, 13)
	// Offsets 0, 13 and 26 leave at least 26 bytes; offset 39 does not.
	if len(got) != 3 {
		t.Errorf("permissive decode yielded %d records, want 3", len(got))
	}

	if _, err := DecodeFrameStrict(buf, 13); err == nil {
		t.Error("strict decode should reject stride below the record size")
	}
	strict, err := DecodeFrameStrict(buf, PointRecordSize)
	if err != nil {
		t.Fatalf("strict decode failed on valid stride: %v", err)
	}
	if len(strict) != 2 {
		t.Errorf("strict decode yielded %d records, want 2", len(strict))
	}
}

func TestEncodeFrameCardinality(t *testing.T) {
	points := []BEVPoint{
		{X: 1, Timestamp: 1},
		{X: 2, Timestamp: 2},
		{X: 3, Timestamp: 3},
	}
	frame := EncodeFrame(points, "livox_frame")

	if frame.Metadata.Width != uint32(len(points)) {
		t.Errorf("width = %d, want %d", frame.Metadata.Width, len(points))
	}
	if len(frame.Data) != len(points)*PointRecordSize {
		t.Errorf("buffer is %d bytes, want %d", len(frame.Data), len(points)*PointRecordSize)
	}
	if frame.Metadata.Height != 1 {
		t.Errorf("height = %d, want 1", frame.Metadata.Height)
	}
	if frame.Metadata.PointStride != PointRecordSize {
		t.Errorf("point stride = %d, want %d", frame.Metadata.PointStride, PointRecordSize)
	}
	if frame.Metadata.RowStride != uint32(len(points)*PointRecordSize) {
		t.Errorf("row stride = %d, want %d", frame.Metadata.RowStride, len(points)*PointRecordSize)
	}
	if !frame.Metadata.IsDense || frame.Metadata.IsBigEndian {
		t.Errorf("flags: dense=%v bigendian=%v, want dense and little-endian",
			frame.Metadata.IsDense, frame.Metadata.IsBigEndian)
	}
	if frame.FrameID != "livox_frame_bev" {
		t.Errorf("frame id = %q, want %q", frame.FrameID, "livox_frame_bev")
	}

	// Buffer content must round-trip to the input in order.
	decoded := DecodeFrame(frame.Data, PointRecordSize)
	for i, p := range decoded {
		if p.ToBEV() != points[i] {
			t.Errorf("record %d mismatch: got %+v, want %+v", i, p, points[i])
		}
	}
}

// The descriptor sequence depends only on the schema, never on the records.
func TestEncodeFrameConstantSchema(t *testing.T) {
	empty := EncodeFrame(nil, "a")
	loaded := EncodeFrame([]BEVPoint{{X: 9, Intensity: 1}}, "b")
	if diff := cmp.Diff(empty.Fields, loaded.Fields); diff != "" {
		t.Errorf("field descriptors vary with record contents:\n%s", diff)
	}
	if diff := cmp.Diff(PointSchema(), empty.Fields); diff != "" {
		t.Errorf("field descriptors differ from the point schema:\n%s", diff)
	}
}

// End-to-end example: one in-window record survives the whole pipeline.
func TestPipelineEndToEnd(t *testing.T) {
	in := buildFrameBuffer(Point{X: 1.0, Y: 2.0, Z: 0.05, Intensity: 100.0, Tag: 1, Line: 3, Timestamp: 123.456})

	points := DecodeFrame(in, PointRecordSize)
	if len(points) != 1 {
		t.Fatalf("decoded %d points, want 1", len(points))
	}

	bev := ProjectBEV(points, DefaultBEVWindow())
	if len(bev) != 1 {
		t.Fatalf("projected %d points, want 1", len(bev))
	}
	want := BEVPoint{X: 1.0, Y: 2.0, Z: 0, Intensity: 100.0, Tag: 1, Line: 3, Timestamp: 123.456}
	if bev[0] != want {
		t.Errorf("projected point = %+v, want %+v", bev[0], want)
	}

	frame := EncodeFrame(bev, "livox")
	if len(frame.Data) != PointRecordSize {
		t.Errorf("output buffer is %d bytes, want %d", len(frame.Data), PointRecordSize)
	}
	if frame.Metadata.Width != 1 || frame.Metadata.PointStride != 26 || frame.Metadata.RowStride != 26 {
		t.Errorf("metadata = %+v, want width=1 point_stride=26 row_stride=26", frame.Metadata)
	}
}

// Exclusion example: an out-of-window record yields an empty output frame.
func TestPipelineExcludesOutOfWindow(t *testing.T) {
	in := buildFrameBuffer(Point{X: 1.0, Y: 2.0, Z: 5.0, Intensity: 100.0, Tag: 1, Line: 3, Timestamp: 123.456})

	bev := ProjectBEV(DecodeFrame(in, PointRecordSize), DefaultBEVWindow())
	if len(bev) != 0 {
		t.Fatalf("projected %d points, want 0", len(bev))
	}

	frame := EncodeFrame(bev, "livox")
	if len(frame.Data) != 0 || frame.Metadata.Width != 0 {
		t.Errorf("expected empty output frame, got %d bytes width=%d",
			len(frame.Data), frame.Metadata.Width)
	}
}
