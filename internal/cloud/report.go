package cloud

import (
	"fmt"
	"io"
	"strings"
)

// ReportOptions controls the formatted frame report.
type ReportOptions struct {
	FirstPoints int // detail rows at the top of the report (default 5)
	MaxLines    int // per-line count rows before eliding (default 10)
}

// DefaultReportOptions returns the report shape used by cloud-scan.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{FirstPoints: 5, MaxLines: 10}
}

// WriteReport prints a human-readable summary of one decoded frame: a short
// table of the first points, per-axis ranges, and per-line point counts in
// ascending line order.
func WriteReport(w io.Writer, frameID string, points []Point, opts ReportOptions) {
	if opts.FirstPoints <= 0 {
		opts.FirstPoints = 5
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = 10
	}

	fmt.Fprintln(w, "=== Point Cloud Frame ===")
	fmt.Fprintf(w, "Frame ID: %s\n", frameID)
	fmt.Fprintf(w, "Total Points: %d\n", len(points))
	fmt.Fprintf(w, "Point Stride: %d bytes\n", PointRecordSize)
	fmt.Fprintln(w)

	s := Summarize(points)
	if !s.HasData {
		fmt.Fprintln(w, "(no points)")
		fmt.Fprintln(w, strings.Repeat("=", 50))
		return
	}

	n := min(opts.FirstPoints, len(points))
	fmt.Fprintf(w, "First %d Points:\n", n)
	fmt.Fprintf(w, "%-6s %-10s %-10s %-10s %-10s %-4s %-4s %-15s\n",
		"Index", "X(m)", "Y(m)", "Z(m)", "Intensity", "Tag", "Line", "Timestamp")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i := 0; i < n; i++ {
		p := points[i]
		fmt.Fprintf(w, "%-6d %-10.3f %-10.3f %-10.3f %-10.1f %-4d %-4d %-15.3f\n",
			i, p.X, p.Y, p.Z, p.Intensity, p.Tag, p.Line, p.Timestamp)
	}
	if len(points) > n {
		fmt.Fprintf(w, "... and %d more points\n", len(points)-n)
	}

	fmt.Fprintln(w, "\n=== Statistics ===")
	fmt.Fprintf(w, "X range: %.3f ~ %.3f m\n", s.X.Min, s.X.Max)
	fmt.Fprintf(w, "Y range: %.3f ~ %.3f m\n", s.Y.Min, s.Y.Max)
	fmt.Fprintf(w, "Z range: %.3f ~ %.3f m\n", s.Z.Min, s.Z.Max)
	fmt.Fprintf(w, "Intensity range: %.1f ~ %.1f\n", s.Intensity.Min, s.Intensity.Max)
	fmt.Fprintf(w, "Intensity mean/stddev: %.1f / %.1f (p50=%.1f p95=%.1f)\n",
		s.IntensityD.Mean, s.IntensityD.StdDev, s.IntensityD.P50, s.IntensityD.P95)

	fmt.Fprintln(w, "\n=== Points per Line ===")
	lines := s.Lines()
	shown := min(opts.MaxLines, len(lines))
	for _, line := range lines[:shown] {
		fmt.Fprintf(w, "Line %d: %d points\n", line, s.LineCounts[line])
	}
	if len(lines) > shown {
		fmt.Fprintf(w, "... and %d more lines\n", len(lines)-shown)
	}

	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w)
}
