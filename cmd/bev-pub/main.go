// bev-pub is the BEV pipeline daemon: it listens for point cloud frames on a
// UDP feed (or replays them from a PCAP capture), flattens the points inside
// a configurable vertical window onto the ground plane, and publishes the
// re-encoded frames to TCP subscribers. An HTTP interface exposes health,
// throughput and per-frame summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/feed"
	"github.com/lattice-sensing/bevpipe/internal/monitor"
	"github.com/lattice-sensing/bevpipe/internal/pipeline"
	"github.com/lattice-sensing/bevpipe/internal/publish"
	"github.com/lattice-sensing/bevpipe/internal/store"
	"github.com/lattice-sensing/bevpipe/internal/version"
)

var (
	listen      = flag.String("listen", ":8081", "HTTP listen address")
	udpPort     = flag.Int("udp-port", 56001, "UDP port to listen for feed datagrams")
	udpAddress  = flag.String("udp-addr", "", "UDP bind address (default: listen on all interfaces)")
	publishAddr = flag.String("publish", "localhost:56011", "TCP address to publish BEV frames on")
	dbFile      = flag.String("db", "bev_data.db", "Path to the SQLite summary database file")
	zMin        = flag.Float64("z-min", -0.1, "Lower bound of the vertical window in metres (inclusive)")
	zMax        = flag.Float64("z-max", 0.2, "Upper bound of the vertical window in metres (inclusive)")
	strict      = flag.Bool("strict", false, "Reject frames whose stride is smaller than one point record")
	rcvBuf      = flag.Int("rcvbuf", 4<<20, "UDP receive buffer size in bytes (default 4MB)")
	logInterval = flag.Int("log-interval", 2, "Statistics logging interval in seconds")
	pcapFile    = flag.String("pcap", "", "Replay feed datagrams from a PCAP file instead of listening (requires -tags=pcap build)")
	notes       = flag.String("notes", "", "Free-form notes stored with this session")
)

func main() {
	flag.Parse()

	log.Printf("bev-pub %s", version.String())

	if *listen == "" {
		log.Fatal("HTTP listen address is required")
	}
	if *zMax < *zMin {
		log.Fatalf("Invalid vertical window: z-max %.3f below z-min %.3f", *zMax, *zMin)
	}

	var udpListenAddr string
	if *udpAddress == "" {
		udpListenAddr = fmt.Sprintf(":%d", *udpPort)
	} else {
		udpListenAddr = fmt.Sprintf("%s:%d", *udpAddress, *udpPort)
	}

	window := cloud.BEVWindow{ZMin: float32(*zMin), ZMax: float32(*zMax)}

	db, err := store.NewStore(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open summary database: %v", err)
	}
	defer db.Close()

	feedDesc := udpListenAddr
	if *pcapFile != "" {
		feedDesc = "pcap:" + *pcapFile
	}
	sessionID, err := db.StartSession(feedDesc, window, *notes)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	log.Printf("Started session %s (window [%.3f, %.3f] m)", sessionID, window.ZMin, window.ZMax)

	publisher := publish.NewPublisher(publish.Config{ListenAddr: *publishAddr})
	if err := publisher.Start(); err != nil {
		log.Fatalf("Failed to start frame publisher: %v", err)
	}
	defer publisher.Stop()

	stats := cloud.NewPipelineStats()

	pipe := pipeline.New(pipeline.Config{
		Window:    window,
		Strict:    *strict,
		SessionID: sessionID,
		Stats:     stats,
		Publisher: publisher,
		Recorder:  db,
	})

	assembler := feed.NewFrameAssembler(feed.DefaultAssemblerConfig(), pipe)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic stats logging
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(*logInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats.LogStats()
			}
		}
	}()

	// Feed input: live UDP or PCAP replay
	wg.Add(1)
	go func() {
		defer wg.Done()
		if *pcapFile != "" {
			if err := feed.ReplayPCAPFile(ctx, *pcapFile, *udpPort, assembler, nil); err != nil && err != context.Canceled {
				log.Printf("PCAP replay error: %v", err)
			}
			stop()
			return
		}
		listener := feed.NewListener(feed.ListenerConfig{
			Address: udpListenAddr,
			RcvBuf:  *rcvBuf,
			Handler: assembler,
		})
		if err := listener.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Feed listener error: %v", err)
		}
	}()

	// HTTP monitoring interface
	wg.Add(1)
	go func() {
		defer wg.Done()
		webServer := monitor.NewWebServer(monitor.WebServerConfig{
			Address:   *listen,
			Stats:     stats,
			Store:     db,
			Summaries: pipe,
		})
		if err := webServer.Start(ctx); err != nil {
			log.Printf("Web server error: %v", err)
		}
	}()

	wg.Wait()

	if err := db.EndSession(sessionID); err != nil {
		log.Printf("Failed to end session: %v", err)
	} else {
		log.Printf("Ended session %s", sessionID)
	}
}
