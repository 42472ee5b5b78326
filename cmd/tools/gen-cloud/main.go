// gen-cloud sends synthetic point cloud frames to a bev-pub feed for bench
// testing without a sensor. Points are scattered over a flat scene with a
// configurable fraction inside the default vertical window.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net"
	"time"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
	"github.com/lattice-sensing/bevpipe/internal/feed"
)

var (
	target      = flag.String("target", "localhost:56001", "UDP address of the feed listener")
	frames      = flag.Int("frames", 100, "Number of frames to send (0 = run until interrupted)")
	points      = flag.Int("points", 20000, "Points per frame")
	rate        = flag.Float64("rate", 10, "Frames per second")
	frameID     = flag.String("frame-id", "livox_frame", "Frame id stamped on every envelope")
	batchPoints = flag.Int("batch", 400, "Points per datagram")
	groundFrac  = flag.Float64("ground", 0.7, "Fraction of points near the ground plane")
	seed        = flag.Int64("seed", 0, "Random seed (0 = time-based)")
)

func main() {
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	addr, err := net.ResolveUDPAddr("udp", *target)
	if err != nil {
		log.Fatalf("Failed to resolve target address: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.Fatalf("Failed to dial target: %v", err)
	}
	defer conn.Close()

	interval := time.Duration(float64(time.Second) / *rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Sending %d-point frames to %s at %.1f fps (seed %d)", *points, *target, *rate, *seed)

	var seq uint32 = 1
	sent := 0
	for ; *frames == 0 || sent < *frames; <-ticker.C {
		data := synthesizeFrame(rng, *points)

		envelopes, err := feed.SplitFrame(*frameID, cloud.PointRecordSize, data, *batchPoints, seq)
		if err != nil {
			log.Fatalf("Failed to split frame: %v", err)
		}
		for _, env := range envelopes {
			datagram, err := feed.EncodeEnvelope(env)
			if err != nil {
				log.Fatalf("Failed to encode envelope: %v", err)
			}
			if _, err := conn.Write(datagram); err != nil {
				log.Fatalf("Failed to send datagram: %v", err)
			}
		}
		seq += uint32(len(envelopes))
		sent++

		if sent%50 == 0 {
			fmt.Printf("sent %d frames (%d datagrams each)\n", sent, len(envelopes))
		}
	}

	log.Printf("Done: %d frames sent", sent)
}

// synthesizeFrame builds one frame of encoded records: a ground plane with
// mild height noise plus scattered elevated clutter.
func synthesizeFrame(rng *rand.Rand, n int) []byte {
	now := float64(time.Now().UnixNano()) / 1e9

	data := make([]byte, 0, n*cloud.PointRecordSize)
	for i := 0; i < n; i++ {
		r := 2 + rng.Float64()*48
		theta := rng.Float64() * 2 * math.Pi

		var z float64
		if rng.Float64() < *groundFrac {
			// Ground return with a few centimetres of noise.
			z = rng.NormFloat64() * 0.05
		} else {
			// Elevated clutter: poles, foliage, vehicles.
			z = 0.3 + rng.Float64()*4
		}

		p := cloud.Point{
			X:         float32(r * math.Cos(theta)),
			Y:         float32(r * math.Sin(theta)),
			Z:         float32(z),
			Intensity: float32(rng.Intn(255)),
			Tag:       uint8(rng.Intn(3)),
			Line:      uint8(i % 6),
			Timestamp: now + float64(i)*1e-6,
		}
		data = cloud.AppendPoint(data, p)
	}
	return data
}
