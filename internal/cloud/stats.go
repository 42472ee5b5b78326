package cloud

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// StatsSnapshot is a point-in-time view of pipeline throughput, kept for the
// monitor web interface.
type StatsSnapshot struct {
	FramesPerSec    float64   `json:"frames_per_sec"`
	MBPerSec        float64   `json:"mb_per_sec"`
	PointsInPerSec  float64   `json:"points_in_per_sec"`
	PointsOutPerSec float64   `json:"points_out_per_sec"`
	DroppedCount    int64     `json:"dropped"`
	Timestamp       time.Time `json:"timestamp"`
}

// PipelineStats tracks frame and point throughput with thread-safe
// operations. One instance is shared between the feed listener, the
// pipeline, and the monitor.
type PipelineStats struct {
	mu             sync.Mutex
	frameCount     int64
	byteCount      int64
	pointsIn       int64
	pointsOut      int64
	droppedCount   int64
	lastReset      time.Time
	startTime      time.Time
	latestSnapshot *StatsSnapshot
}

// NewPipelineStats creates a new PipelineStats instance.
func NewPipelineStats() *PipelineStats {
	now := time.Now()
	return &PipelineStats{
		lastReset: now,
		startTime: now,
	}
}

// AddFrame records one assembled input frame and its decoded point count.
func (ps *PipelineStats) AddFrame(bytes, points int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.frameCount++
	ps.byteCount += int64(bytes)
	ps.pointsIn += int64(points)
}

// AddOutput records the surviving point count of one published BEV frame.
func (ps *PipelineStats) AddOutput(points int) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.pointsOut += int64(points)
}

// AddDropped increments the dropped frame count.
func (ps *PipelineStats) AddDropped() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.droppedCount++
}

// GetAndReset returns the current counters and resets them.
func (ps *PipelineStats) GetAndReset() (frames, bytes, pointsIn, pointsOut, dropped int64, duration time.Duration) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := time.Now()
	duration = now.Sub(ps.lastReset)
	frames = ps.frameCount
	bytes = ps.byteCount
	pointsIn = ps.pointsIn
	pointsOut = ps.pointsOut
	dropped = ps.droppedCount

	ps.frameCount = 0
	ps.byteCount = 0
	ps.pointsIn = 0
	ps.pointsOut = 0
	ps.droppedCount = 0
	ps.lastReset = now

	return
}

// LogStats logs formatted throughput and stores a snapshot for the monitor.
func (ps *PipelineStats) LogStats() {
	frames, bytes, pointsIn, pointsOut, dropped, duration := ps.GetAndReset()
	if frames == 0 && dropped == 0 {
		return
	}

	framesPerSec := float64(frames) / duration.Seconds()
	mbPerSec := float64(bytes) / duration.Seconds() / (1024 * 1024)
	pointsInPerSec := float64(pointsIn) / duration.Seconds()
	pointsOutPerSec := float64(pointsOut) / duration.Seconds()

	ps.mu.Lock()
	ps.latestSnapshot = &StatsSnapshot{
		FramesPerSec:    framesPerSec,
		MBPerSec:        mbPerSec,
		PointsInPerSec:  pointsInPerSec,
		PointsOutPerSec: pointsOutPerSec,
		DroppedCount:    dropped,
		Timestamp:       time.Now(),
	}
	ps.mu.Unlock()

	logMsg := fmt.Sprintf("BEV stats (/sec): %.2f MB, %.1f frames, %s points in, %s points out",
		mbPerSec, framesPerSec, FormatWithCommas(int64(pointsInPerSec)), FormatWithCommas(int64(pointsOutPerSec)))
	if dropped > 0 {
		logMsg += fmt.Sprintf(", %d frames dropped", dropped)
	}
	log.Print(logMsg)
}

// Uptime returns the time since the stats were created.
func (ps *PipelineStats) Uptime() time.Duration {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return time.Since(ps.startTime)
}

// LatestSnapshot returns a copy of the most recent snapshot, or nil before
// the first logging interval has elapsed.
func (ps *PipelineStats) LatestSnapshot() *StatsSnapshot {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.latestSnapshot == nil {
		return nil
	}
	snapshot := *ps.latestSnapshot
	return &snapshot
}

// FormatWithCommas formats a number with thousands separators.
func FormatWithCommas(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(char)
	}
	return result
}
