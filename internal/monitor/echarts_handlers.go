package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleLineChart renders a bar chart of the latest frame's per-line point
// counts. Debugging-only endpoint for eyeballing scan-line coverage without
// a downstream consumer.
func (ws *WebServer) handleLineChart(w http.ResponseWriter, r *http.Request) {
	if ws.summaries == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no summary source configured")
		return
	}
	frameID, sum, ok := ws.summaries.LatestSummary()
	if !ok || !sum.HasData {
		ws.writeJSONError(w, http.StatusNotFound, "no frames processed yet")
		return
	}

	lines := sum.Lines()
	x := make([]string, 0, len(lines))
	y := make([]opts.BarData, 0, len(lines))
	for _, line := range lines {
		x = append(x, fmt.Sprintf("line %d", line))
		y = append(y, opts.BarData{Value: sum.LineCounts[line]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Points per scan line", Subtitle: fmt.Sprintf("frame=%s points=%d", frameID, sum.Count)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("points", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleThroughputChart renders a simple bar chart of pipeline throughput.
func (ws *WebServer) handleThroughputChart(w http.ResponseWriter, r *http.Request) {
	if ws.stats == nil {
		ws.writeJSONError(w, http.StatusNotFound, "no pipeline stats available")
		return
	}

	snap := ws.stats.LatestSnapshot()
	if snap == nil {
		snap = &cloud.StatsSnapshot{Timestamp: time.Now()}
	}

	x := []string{"Frames/s", "MB/s", "Points in/s", "Points out/s", "Dropped (recent)"}
	y := []opts.BarData{
		{Value: snap.FramesPerSec},
		{Value: snap.MBPerSec},
		{Value: snap.PointsInPerSec},
		{Value: snap.PointsOutPerSec},
		{Value: snap.DroppedCount},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "BEV Pipeline Throughput", Subtitle: snap.Timestamp.Format(time.RFC3339)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("throughput", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(bar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		ws.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
