package pipeline

import (
	"testing"
	"time"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/feed"
)

type capturePublisher struct {
	frames []cloud.Frame
}

func (c *capturePublisher) Publish(f cloud.Frame) { c.frames = append(c.frames, f) }

type captureRecorder struct {
	sessionIDs []string
	frameIDs   []string
	inputs     []int
	outputs    []int
	err        error
}

func (c *captureRecorder) RecordFrameSummary(sessionID, frameID string, in, out int, sum cloud.Summary) error {
	c.sessionIDs = append(c.sessionIDs, sessionID)
	c.frameIDs = append(c.frameIDs, frameID)
	c.inputs = append(c.inputs, in)
	c.outputs = append(c.outputs, out)
	return c.err
}

func rawFrame(t *testing.T, frameID string, points []cloud.Point) feed.RawFrame {
	t.Helper()
	var data []byte
	for _, p := range points {
		data = cloud.AppendPoint(data, p)
	}
	return feed.RawFrame{
		FrameID:  frameID,
		Stride:   cloud.PointRecordSize,
		Data:     data,
		Received: time.Now(),
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	pub := &capturePublisher{}
	rec := &captureRecorder{}
	p := New(Config{
		Window:    cloud.BEVWindow{ZMin: -0.1, ZMax: 0.2},
		SessionID: "session-1",
		Stats:     cloud.NewPipelineStats(),
		Publisher: pub,
		Recorder:  rec,
	})

	p.HandleFrame(rawFrame(t, "livox_frame", []cloud.Point{
		{X: 1, Y: 2, Z: 0.05, Intensity: 100, Tag: 1, Line: 3, Timestamp: 123.456},
		{X: 0, Y: 0, Z: 5.0, Intensity: 1, Line: 1, Timestamp: 123.5},
	}))

	if len(pub.frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(pub.frames))
	}
	out := pub.frames[0]
	if out.FrameID != "livox_frame_bev" {
		t.Errorf("frame id = %q", out.FrameID)
	}
	// The z=5.0 point is outside the window; one point survives, flattened.
	if out.Metadata.Width != 1 || len(out.Data) != cloud.PointRecordSize {
		t.Errorf("width=%d data=%d bytes, want one record", out.Metadata.Width, len(out.Data))
	}
	survivors := cloud.DecodeFrame(out.Data, cloud.PointRecordSize)
	if len(survivors) != 1 || survivors[0].Z != 0 {
		t.Errorf("survivor = %+v", survivors)
	}

	if len(rec.frameIDs) != 1 || rec.frameIDs[0] != "livox_frame" {
		t.Errorf("recorded frames = %v", rec.frameIDs)
	}
	if rec.inputs[0] != 2 || rec.outputs[0] != 1 {
		t.Errorf("recorded counts = in %d out %d, want 2/1", rec.inputs[0], rec.outputs[0])
	}

	frameID, sum, ok := p.LatestSummary()
	if !ok || frameID != "livox_frame" || sum.Count != 2 {
		t.Errorf("latest summary = (%q, count %d, %v)", frameID, sum.Count, ok)
	}
}

func TestPipelineEmptyFrame(t *testing.T) {
	pub := &capturePublisher{}
	p := New(Config{Publisher: pub})

	p.HandleFrame(rawFrame(t, "livox_frame", nil))

	if len(pub.frames) != 1 {
		t.Fatalf("published %d frames, want 1", len(pub.frames))
	}
	if pub.frames[0].Metadata.Width != 0 || len(pub.frames[0].Data) != 0 {
		t.Errorf("empty input should publish an empty frame, got %+v", pub.frames[0].Metadata)
	}

	_, sum, ok := p.LatestSummary()
	if !ok || sum.HasData {
		t.Errorf("summary for empty frame: ok=%v hasData=%v", ok, sum.HasData)
	}
}

func TestPipelineStrictRejectsNarrowStride(t *testing.T) {
	pub := &capturePublisher{}
	stats := cloud.NewPipelineStats()
	p := New(Config{Strict: true, Publisher: pub, Stats: stats})

	p.HandleFrame(feed.RawFrame{FrameID: "livox_frame", Stride: 13, Data: make([]byte, 52)})

	if len(pub.frames) != 0 {
		t.Error("strict pipeline published a rejected frame")
	}
	_, _, _, _, dropped, _ := stats.GetAndReset()
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestPipelineSkipsRecorderWithoutSession(t *testing.T) {
	rec := &captureRecorder{}
	p := New(Config{Recorder: rec})

	p.HandleFrame(rawFrame(t, "livox_frame", []cloud.Point{{Z: 0.1}}))

	if len(rec.frameIDs) != 0 {
		t.Error("summary recorded without a session id")
	}
}
