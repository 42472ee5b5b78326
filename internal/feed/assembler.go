package feed

import (
	"log"
	"sync"
	"time"
)

// RawFrame is one fully assembled input frame: an immutable byte buffer with
// its declared point stride and source frame id.
type RawFrame struct {
	FrameID  string
	Stride   int
	Data     []byte
	Received time.Time
}

// FrameSink consumes assembled frames.
type FrameSink interface {
	HandleFrame(RawFrame)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(RawFrame)

func (f FrameSinkFunc) HandleFrame(frame RawFrame) { f(frame) }

// AssemblerConfig holds configuration for the FrameAssembler.
type AssemblerConfig struct {
	// MaxFrameAge drops a partial frame whose first batch arrived longer
	// than this ago without an end-of-frame mark (default 2s).
	MaxFrameAge time.Duration

	// MaxFrameBytes caps the accumulated buffer size; a frame growing past
	// it is dropped as corrupt (default 64 MiB).
	MaxFrameBytes int
}

// DefaultAssemblerConfig returns the assembler defaults.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		MaxFrameAge:   2 * time.Second,
		MaxFrameBytes: 64 << 20,
	}
}

// FrameAssembler accumulates feed batches into whole frames. Batches belong
// to the frame named in their envelope; the frame is emitted when its
// end-of-frame batch arrives. A batch for a different frame id while a
// partial frame is pending means the previous frame lost its end mark: the
// partial is dropped, never emitted.
type FrameAssembler struct {
	mu      sync.Mutex
	cfg     AssemblerConfig
	sink    FrameSink
	current *partialFrame

	// Diagnostics
	assembled uint64
	dropped   uint64
	lastSeq   uint32
	gaps      uint64
}

type partialFrame struct {
	frameID string
	stride  int
	data    []byte
	started time.Time
}

// NewFrameAssembler creates an assembler delivering whole frames to sink.
func NewFrameAssembler(cfg AssemblerConfig, sink FrameSink) *FrameAssembler {
	if cfg.MaxFrameAge <= 0 {
		cfg.MaxFrameAge = DefaultAssemblerConfig().MaxFrameAge
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = DefaultAssemblerConfig().MaxFrameBytes
	}
	return &FrameAssembler{cfg: cfg, sink: sink}
}

// HandleEnvelope folds one decoded batch into the pending frame, emitting
// the frame when its end mark arrives. Implements EnvelopeHandler.
func (a *FrameAssembler) HandleEnvelope(env Envelope) {
	a.mu.Lock()

	now := time.Now()

	if a.current != nil {
		switch {
		case a.current.frameID != env.FrameID || a.current.stride != env.Stride:
			log.Printf("Dropping partial frame %q (%d bytes): feed moved on to %q",
				a.current.frameID, len(a.current.data), env.FrameID)
			a.dropped++
			a.current = nil
		case now.Sub(a.current.started) > a.cfg.MaxFrameAge:
			log.Printf("Dropping stale partial frame %q (%d bytes, age %v)",
				a.current.frameID, len(a.current.data), now.Sub(a.current.started))
			a.dropped++
			a.current = nil
		}
	}

	if a.lastSeq != 0 && env.Sequence > a.lastSeq+1 {
		a.gaps += uint64(env.Sequence - a.lastSeq - 1)
	}
	a.lastSeq = env.Sequence

	if a.current == nil {
		a.current = &partialFrame{
			frameID: env.FrameID,
			stride:  env.Stride,
			data:    make([]byte, 0, len(env.Payload)*4),
			started: now,
		}
	}

	a.current.data = append(a.current.data, env.Payload...)
	if len(a.current.data) > a.cfg.MaxFrameBytes {
		log.Printf("Dropping oversized partial frame %q (%d bytes)", a.current.frameID, len(a.current.data))
		a.dropped++
		a.current = nil
		a.mu.Unlock()
		return
	}

	if !env.EndOfFrame() {
		a.mu.Unlock()
		return
	}

	frame := RawFrame{
		FrameID:  a.current.frameID,
		Stride:   a.current.stride,
		Data:     a.current.data,
		Received: now,
	}
	a.current = nil
	a.assembled++
	a.mu.Unlock()

	// Deliver outside the lock so a sink may call back into the assembler.
	a.sink.HandleFrame(frame)
}

// Counters returns assembled/dropped frame counts and observed sequence gaps.
func (a *FrameAssembler) Counters() (assembled, dropped, gaps uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assembled, a.dropped, a.gaps
}
