package feed

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// EnvelopeHandler consumes decoded feed envelopes.
type EnvelopeHandler interface {
	HandleEnvelope(Envelope)
}

// ByteCounter receives the size of every accepted datagram, for throughput
// accounting. *cloud.PipelineStats satisfies it via a thin adapter in the
// daemon; tests pass nil.
type ByteCounter interface {
	AddBytes(n int)
}

// ListenerConfig contains configuration options for the UDP feed listener.
type ListenerConfig struct {
	Address string // UDP bind address, e.g. ":56001"
	RcvBuf  int    // socket receive buffer in bytes (default 4 MiB)
	Handler EnvelopeHandler
	Counter ByteCounter // optional
}

// Listener receives feed datagrams over UDP and hands decoded envelopes to
// the configured handler. Malformed datagrams are logged and skipped; they
// never stop the listener.
type Listener struct {
	address string
	rcvBuf  int
	handler EnvelopeHandler
	counter ByteCounter

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewListener creates a UDP feed listener with the provided configuration.
func NewListener(cfg ListenerConfig) *Listener {
	rcvBuf := cfg.RcvBuf
	if rcvBuf == 0 {
		rcvBuf = 4 << 20
	}
	return &Listener{
		address: cfg.Address,
		rcvBuf:  rcvBuf,
		handler: cfg.Handler,
		counter: cfg.Counter,
	}
}

// Start begins receiving datagrams until the context is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	defer conn.Close()

	if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
		log.Printf("Warning: failed to set UDP receive buffer to %d bytes: %v", l.rcvBuf, err)
	}

	log.Printf("Feed listener started on %s with receive buffer %d bytes", l.address, l.rcvBuf)

	// Sized for the largest envelope a single datagram can carry.
	buffer := make([]byte, 65535)
	badDatagrams := 0

	for {
		select {
		case <-ctx.Done():
			log.Print("Feed listener stopping due to context cancellation")
			return ctx.Err()
		default:
			// Short read deadline so context cancellation is noticed promptly.
			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))

			n, from, err := conn.ReadFromUDP(buffer)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("UDP read error: %v", err)
				continue
			}

			env, err := DecodeEnvelope(buffer[:n])
			if err != nil {
				badDatagrams++
				// Log every 100th bad datagram to avoid spamming on a
				// misdirected feed.
				if badDatagrams == 1 || badDatagrams%100 == 0 {
					log.Printf("Rejected datagram from %v (%d so far): %v", from, badDatagrams, err)
				}
				continue
			}

			if l.counter != nil {
				l.counter.AddBytes(n)
			}
			if l.handler != nil {
				l.handler.HandleEnvelope(env)
			}
		}
	}
}

// LocalAddr returns the bound socket address, or nil before Start has bound
// it. Useful when listening on port 0.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Close closes the underlying socket, unblocking Start.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
