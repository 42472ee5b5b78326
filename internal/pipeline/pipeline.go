// Package pipeline wires the stages together: assembled input frames are
// decoded, summarised, filtered to the BEV window, re-encoded and handed to
// the publisher. One Pipeline instance serves one feed.
package pipeline

import (
	"log"
	"sync"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/feed"
)

// FramePublisher receives encoded BEV frames. *publish.Publisher satisfies
// it; tests use a capture fake.
type FramePublisher interface {
	Publish(cloud.Frame)
}

// SummaryRecorder persists per-frame summaries. *store.Store satisfies it
// through Recorder; tests use a fake.
type SummaryRecorder interface {
	RecordFrameSummary(sessionID, frameID string, inputPoints, outputPoints int, sum cloud.Summary) error
}

// Config holds pipeline configuration.
type Config struct {
	// Window is the vertical band kept by the BEV projection.
	Window cloud.BEVWindow

	// Strict rejects frames whose declared stride is smaller than one
	// point record instead of decoding them with overlapping reads.
	Strict bool

	// SessionID tags stored summaries; empty disables persistence even
	// when a recorder is configured.
	SessionID string

	Stats     *cloud.PipelineStats
	Publisher FramePublisher
	Recorder  SummaryRecorder
}

// Pipeline transforms assembled input frames into published BEV frames.
// Implements feed.FrameSink.
type Pipeline struct {
	cfg Config

	mu            sync.Mutex
	latestFrameID string
	latestSummary cloud.Summary
	hasSummary    bool
}

// New creates a pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	if cfg.Window == (cloud.BEVWindow{}) {
		cfg.Window = cloud.DefaultBEVWindow()
	}
	return &Pipeline{cfg: cfg}
}

// HandleFrame processes one assembled input frame end to end.
func (p *Pipeline) HandleFrame(frame feed.RawFrame) {
	var points []cloud.Point
	if p.cfg.Strict {
		var err error
		points, err = cloud.DecodeFrameStrict(frame.Data, frame.Stride)
		if err != nil {
			log.Printf("Rejecting frame %q: %v", frame.FrameID, err)
			if p.cfg.Stats != nil {
				p.cfg.Stats.AddDropped()
			}
			return
		}
	} else {
		points = cloud.DecodeFrame(frame.Data, frame.Stride)
	}

	if p.cfg.Stats != nil {
		p.cfg.Stats.AddFrame(len(frame.Data), len(points))
	}

	summary := cloud.Summarize(points)
	p.mu.Lock()
	p.latestFrameID = frame.FrameID
	p.latestSummary = summary
	p.hasSummary = true
	p.mu.Unlock()

	bev := cloud.ProjectBEV(points, p.cfg.Window)
	out := cloud.EncodeFrame(bev, frame.FrameID)

	if p.cfg.Stats != nil {
		p.cfg.Stats.AddOutput(len(bev))
	}
	if p.cfg.Recorder != nil && p.cfg.SessionID != "" {
		if err := p.cfg.Recorder.RecordFrameSummary(p.cfg.SessionID, frame.FrameID, len(points), len(bev), summary); err != nil {
			log.Printf("Failed to store summary for frame %q: %v", frame.FrameID, err)
		}
	}
	if p.cfg.Publisher != nil {
		p.cfg.Publisher.Publish(out)
	}
}

// LatestSummary returns the most recent frame's summary. Implements
// monitor.SummarySource.
func (p *Pipeline) LatestSummary() (string, cloud.Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latestFrameID, p.latestSummary, p.hasSummary
}
