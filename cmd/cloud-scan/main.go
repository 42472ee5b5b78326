// cloud-scan prints human-readable summaries of point cloud frames for field
// debugging: point counts, axis ranges, intensity distribution and per-line
// breakdowns. Frames come from a live UDP feed, a PCAP capture, or a raw
// record dump on disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/feed"
)

var (
	udpPort     = flag.Int("udp-port", 56001, "UDP port to listen for feed datagrams")
	pcapFile    = flag.String("pcap", "", "Read frames from a PCAP capture instead of listening (requires -tags=pcap build)")
	rawFile     = flag.String("raw", "", "Read one frame from a raw record dump instead of listening")
	rawStride   = flag.Int("stride", cloud.PointRecordSize, "Point stride in bytes for -raw input")
	rawFrameID  = flag.String("frame-id", "raw", "Frame id label for -raw input")
	frameLimit  = flag.Int("frames", 5, "Number of frames to report before exiting (0 = run until interrupted)")
	firstPoints = flag.Int("first", 5, "Points to list from the start of each frame")
	maxLines    = flag.Int("max-lines", 10, "Scan lines to break out individually")
	metaOnly    = flag.Bool("meta", false, "Print frame metadata only, skipping the point report")
)

// byteCount tracks raw datagram throughput across the run.
type byteCount struct {
	n atomic.Int64
}

func (b *byteCount) AddBytes(n int) { b.n.Add(int64(n)) }

func main() {
	flag.Parse()

	opts := cloud.ReportOptions{FirstPoints: *firstPoints, MaxLines: *maxLines}

	if *rawFile != "" {
		if err := reportRawFile(*rawFile, *rawStride, *rawFrameID, opts); err != nil {
			log.Fatalf("Failed to report %s: %v", *rawFile, err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reported := 0
	sink := feed.FrameSinkFunc(func(frame feed.RawFrame) {
		if *metaOnly {
			fmt.Printf("frame %q: stride=%d bytes=%d records=%d received=%s\n",
				frame.FrameID, frame.Stride, len(frame.Data),
				len(frame.Data)/frame.Stride, frame.Received.Format("15:04:05.000"))
		} else {
			points := cloud.DecodeFrame(frame.Data, frame.Stride)
			cloud.WriteReport(os.Stdout, frame.FrameID, points, opts)
			fmt.Println()
		}

		reported++
		if *frameLimit > 0 && reported >= *frameLimit {
			stop()
		}
	})
	assembler := feed.NewFrameAssembler(feed.DefaultAssemblerConfig(), sink)

	var bytes byteCount
	var err error
	if *pcapFile != "" {
		err = feed.ReplayPCAPFile(ctx, *pcapFile, *udpPort, assembler, &bytes)
	} else {
		listener := feed.NewListener(feed.ListenerConfig{
			Address: fmt.Sprintf(":%d", *udpPort),
			Handler: assembler,
			Counter: &bytes,
		})
		err = listener.Start(ctx)
	}
	if err != nil && err != context.Canceled {
		log.Fatalf("Feed error: %v", err)
	}

	assembled, dropped, gaps := assembler.Counters()
	fmt.Printf("Frames: %d assembled, %d dropped, %d sequence gaps, %s bytes received\n",
		assembled, dropped, gaps, cloud.FormatWithCommas(bytes.n.Load()))
}

func reportRawFile(path string, stride int, frameID string, opts cloud.ReportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	points, err := cloud.DecodeFrameStrict(data, stride)
	if err != nil {
		return err
	}
	cloud.WriteReport(os.Stdout, frameID, points, opts)
	return nil
}
