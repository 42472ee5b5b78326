package cloud

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AxisRange holds the observed minimum and maximum of one scalar axis.
type AxisRange struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

// IntensityStats holds distribution statistics for the intensity channel.
type IntensityStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
}

// Summary holds the per-frame observability statistics: per-axis extents,
// the intensity distribution, and per-line point counts. A Summary with
// HasData false carries no statistics at all; callers must check it before
// reading the ranges, which would otherwise report zero values rather than
// sentinel infinities.
type Summary struct {
	HasData    bool           `json:"has_data"`
	Count      int            `json:"count"`
	X          AxisRange      `json:"x"`
	Y          AxisRange      `json:"y"`
	Z          AxisRange      `json:"z"`
	Intensity  AxisRange      `json:"intensity"`
	IntensityD IntensityStats `json:"intensity_distribution"`
	LineCounts map[uint8]int  `json:"line_counts"`
}

// Lines returns the scan line ids present in the summary in ascending order.
// Map iteration order is unspecified, so any enumeration or printing of the
// per-line counts must go through this.
func (s Summary) Lines() []uint8 {
	lines := make([]uint8, 0, len(s.LineCounts))
	for line := range s.LineCounts {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i] < lines[j] })
	return lines
}

// Summarize computes the summary statistics for a decoded point sequence.
// The input is read-only and never filtered. An empty sequence yields the
// explicit no-data summary.
func Summarize(points []Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	s := Summary{
		HasData:    true,
		Count:      len(points),
		X:          AxisRange{Min: points[0].X, Max: points[0].X},
		Y:          AxisRange{Min: points[0].Y, Max: points[0].Y},
		Z:          AxisRange{Min: points[0].Z, Max: points[0].Z},
		Intensity:  AxisRange{Min: points[0].Intensity, Max: points[0].Intensity},
		LineCounts: make(map[uint8]int),
	}

	intensities := make([]float64, len(points))
	for i, p := range points {
		s.X.Min = min(s.X.Min, p.X)
		s.X.Max = max(s.X.Max, p.X)
		s.Y.Min = min(s.Y.Min, p.Y)
		s.Y.Max = max(s.Y.Max, p.Y)
		s.Z.Min = min(s.Z.Min, p.Z)
		s.Z.Max = max(s.Z.Max, p.Z)
		s.Intensity.Min = min(s.Intensity.Min, p.Intensity)
		s.Intensity.Max = max(s.Intensity.Max, p.Intensity)
		s.LineCounts[p.Line]++
		intensities[i] = float64(p.Intensity)
	}

	sort.Float64s(intensities)
	s.IntensityD = IntensityStats{
		Mean: stat.Mean(intensities, nil),
		P50:  stat.Quantile(0.5, stat.Empirical, intensities, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, intensities, nil),
	}
	if len(intensities) > 1 {
		s.IntensityD.StdDev = stat.StdDev(intensities, nil)
	}
	return s
}
