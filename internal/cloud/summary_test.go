package cloud

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.HasData {
		t.Error("empty input must yield a no-data summary")
	}
	if s.Count != 0 {
		t.Errorf("count = %d, want 0", s.Count)
	}
	// The no-data summary must not leak fold sentinels.
	for _, r := range []AxisRange{s.X, s.Y, s.Z, s.Intensity} {
		if math.IsInf(float64(r.Min), 0) || math.IsInf(float64(r.Max), 0) {
			t.Errorf("no-data summary carries infinity: %+v", r)
		}
	}
}

func TestSummarizeRangesAndLines(t *testing.T) {
	points := []Point{
		{X: -1, Y: 5, Z: 0.3, Intensity: 10, Line: 7},
		{X: 4, Y: -2, Z: -0.5, Intensity: 90, Line: 2},
		{X: 2, Y: 0, Z: 0.1, Intensity: 50, Line: 7},
		{X: 0, Y: 1, Z: 0, Intensity: 30, Line: 0},
	}

	s := Summarize(points)
	if !s.HasData || s.Count != 4 {
		t.Fatalf("summary header = has_data=%v count=%d, want true/4", s.HasData, s.Count)
	}

	if s.X != (AxisRange{Min: -1, Max: 4}) {
		t.Errorf("X range = %+v", s.X)
	}
	if s.Y != (AxisRange{Min: -2, Max: 5}) {
		t.Errorf("Y range = %+v", s.Y)
	}
	if s.Z != (AxisRange{Min: -0.5, Max: 0.3}) {
		t.Errorf("Z range = %+v", s.Z)
	}
	if s.Intensity != (AxisRange{Min: 10, Max: 90}) {
		t.Errorf("intensity range = %+v", s.Intensity)
	}

	wantCounts := map[uint8]int{0: 1, 2: 1, 7: 2}
	if diff := cmp.Diff(wantCounts, s.LineCounts); diff != "" {
		t.Errorf("line counts mismatch (-want +got):\n%s", diff)
	}
	wantLines := []uint8{0, 2, 7}
	if diff := cmp.Diff(wantLines, s.Lines()); diff != "" {
		t.Errorf("line enumeration not ascending (-want +got):\n%s", diff)
	}
}

func TestSummarizeIntensityDistribution(t *testing.T) {
	points := []Point{
		{Intensity: 10}, {Intensity: 20}, {Intensity: 30}, {Intensity: 40},
	}
	s := Summarize(points)
	if s.IntensityD.Mean != 25 {
		t.Errorf("mean = %v, want 25", s.IntensityD.Mean)
	}
	if s.IntensityD.StdDev <= 0 {
		t.Errorf("stddev = %v, want > 0", s.IntensityD.StdDev)
	}
	if s.IntensityD.P50 < 10 || s.IntensityD.P50 > 30 {
		t.Errorf("p50 = %v, outside plausible range", s.IntensityD.P50)
	}
	if s.IntensityD.P95 < s.IntensityD.P50 {
		t.Errorf("p95 (%v) below p50 (%v)", s.IntensityD.P95, s.IntensityD.P50)
	}
}

func TestSummarizeSinglePoint(t *testing.T) {
	s := Summarize([]Point{{X: 3, Y: 3, Z: 3, Intensity: 3, Line: 9}})
	if s.X.Min != 3 || s.X.Max != 3 {
		t.Errorf("single-point range = %+v, want min=max=3", s.X)
	}
	if s.IntensityD.StdDev != 0 {
		t.Errorf("single-point stddev = %v, want 0", s.IntensityD.StdDev)
	}
	if s.LineCounts[9] != 1 {
		t.Errorf("line counts = %v", s.LineCounts)
	}
}

func TestWriteReport(t *testing.T) {
	points := make([]Point, 0, 8)
	for i := 0; i < 8; i++ {
		points = append(points, Point{X: float32(i), Line: uint8(i % 3), Intensity: float32(10 * i)})
	}

	var buf bytes.Buffer
	WriteReport(&buf, "livox", points, DefaultReportOptions())
	out := buf.String()

	for _, want := range []string{
		"Frame ID: livox",
		"Total Points: 8",
		"First 5 Points:",
		"... and 3 more points",
		"X range: 0.000 ~ 7.000 m",
		"Line 0: 3 points",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, "livox", nil, DefaultReportOptions())
	if !strings.Contains(buf.String(), "(no points)") {
		t.Errorf("empty report should state the absence of data:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Inf") {
		t.Errorf("empty report leaks infinities:\n%s", buf.String())
	}
}
