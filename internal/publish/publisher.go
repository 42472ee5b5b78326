package publish

import (
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lattice-sensing/bevpipe/internal/cloud"
)

var errAlreadyRunning = errors.New("publish: publisher already running")

// Config holds configuration for the frame publisher.
type Config struct {
	// ListenAddr is the TCP address to listen on (e.g., "localhost:56011")
	ListenAddr string

	// MaxClients is the maximum number of concurrent streaming clients
	MaxClients int

	// ClientQueue is the per-client frame buffer depth; a client that falls
	// this far behind starts losing frames (default 10)
	ClientQueue int

	// WriteTimeout bounds a single frame write to one client (default 5s)
	WriteTimeout time.Duration
}

// DefaultConfig returns a default publisher configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "localhost:56011",
		MaxClients:   5,
		ClientQueue:  10,
		WriteTimeout: 5 * time.Second,
	}
}

// Publisher accepts TCP subscribers and broadcasts every published frame to
// all of them. A slow client loses frames rather than stalling the pipeline.
type Publisher struct {
	config   Config
	listener net.Listener

	frameChan chan cloud.Frame
	clients   map[string]*clientStream
	clientsMu sync.RWMutex

	frameCount    atomic.Uint64
	clientCount   atomic.Int32
	droppedFrames atomic.Uint64

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// clientStream represents one connected subscriber.
type clientStream struct {
	id      string
	conn    net.Conn
	frameCh chan cloud.Frame
	doneCh  chan struct{}
}

// NewPublisher creates a Publisher with the given configuration.
func NewPublisher(cfg Config) *Publisher {
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultConfig().MaxClients
	}
	if cfg.ClientQueue <= 0 {
		cfg.ClientQueue = DefaultConfig().ClientQueue
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Publisher{
		config:    cfg,
		frameChan: make(chan cloud.Frame, 100),
		clients:   make(map[string]*clientStream),
		stopCh:    make(chan struct{}),
	}
}

// Start binds the listen address and begins accepting subscribers.
func (p *Publisher) Start() error {
	if p.running.Load() {
		return errAlreadyRunning
	}

	lis, err := net.Listen("tcp", p.config.ListenAddr)
	if err != nil {
		return err
	}
	p.listener = lis
	p.running.Store(true)
	log.Printf("Frame publisher listening on %s", lis.Addr())

	p.wg.Add(2)
	go p.acceptLoop()
	go p.broadcastLoop()
	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (p *Publisher) Addr() net.Addr {
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop disconnects all clients and stops the publisher.
func (p *Publisher) Stop() {
	if !p.running.Load() {
		return
	}
	p.running.Store(false)
	close(p.stopCh)

	if p.listener != nil {
		p.listener.Close()
	}

	p.clientsMu.Lock()
	for _, client := range p.clients {
		client.conn.Close()
	}
	p.clientsMu.Unlock()

	p.wg.Wait()
	log.Print("Frame publisher stopped")
}

// Publish queues a frame for broadcast to all connected clients. If the
// broadcast queue is full the frame is dropped and counted.
func (p *Publisher) Publish(frame cloud.Frame) {
	if !p.running.Load() {
		return
	}

	select {
	case p.frameChan <- frame:
		p.frameCount.Add(1)
	default:
		dropped := p.droppedFrames.Add(1)
		log.Printf("DROPPED frame %q (total dropped: %d), broadcast queue full, %d bytes",
			frame.FrameID, dropped, len(frame.Data))
	}
}

func (p *Publisher) acceptLoop() {
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			if !p.running.Load() {
				return
			}
			log.Printf("Frame publisher accept error: %v", err)
			continue
		}

		if int(p.clientCount.Load()) >= p.config.MaxClients {
			log.Printf("Rejecting subscriber %v: client limit %d reached", conn.RemoteAddr(), p.config.MaxClients)
			conn.Close()
			continue
		}

		client := p.addClient(conn)
		p.wg.Add(1)
		go p.serveClient(client)
	}
}

// broadcastLoop fans each queued frame out to every client queue.
func (p *Publisher) broadcastLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		case frame := <-p.frameChan:
			p.clientsMu.RLock()
			for _, client := range p.clients {
				select {
				case client.frameCh <- frame:
				default:
					// Client is slow, drop this frame for it.
					p.droppedFrames.Add(1)
				}
			}
			p.clientsMu.RUnlock()
		}
	}
}

// serveClient writes queued frames to one subscriber until it disconnects.
func (p *Publisher) serveClient(client *clientStream) {
	defer p.wg.Done()
	defer p.removeClient(client.id)

	for {
		select {
		case <-p.stopCh:
			return
		case <-client.doneCh:
			return
		case frame := <-client.frameCh:
			client.conn.SetWriteDeadline(time.Now().Add(p.config.WriteTimeout))
			if err := WriteFrame(client.conn, frame); err != nil {
				if p.running.Load() {
					log.Printf("Subscriber %s write failed, disconnecting: %v", client.id, err)
				}
				client.conn.Close()
				return
			}
		}
	}
}

func (p *Publisher) addClient(conn net.Conn) *clientStream {
	client := &clientStream{
		id:      uuid.NewString(),
		conn:    conn,
		frameCh: make(chan cloud.Frame, p.config.ClientQueue),
		doneCh:  make(chan struct{}),
	}

	p.clientsMu.Lock()
	p.clients[client.id] = client
	p.clientsMu.Unlock()

	p.clientCount.Add(1)
	log.Printf("Subscriber connected: %s from %v (total: %d)", client.id, conn.RemoteAddr(), p.clientCount.Load())
	return client
}

func (p *Publisher) removeClient(id string) {
	p.clientsMu.Lock()
	client, ok := p.clients[id]
	if ok {
		close(client.doneCh)
		delete(p.clients, id)
	}
	p.clientsMu.Unlock()

	if ok {
		p.clientCount.Add(-1)
		log.Printf("Subscriber disconnected: %s (remaining: %d)", id, p.clientCount.Load())
	}
}

// Stats returns current publisher statistics.
func (p *Publisher) Stats() PublisherStats {
	return PublisherStats{
		FrameCount:    p.frameCount.Load(),
		DroppedFrames: p.droppedFrames.Load(),
		ClientCount:   p.clientCount.Load(),
		Running:       p.running.Load(),
	}
}

// PublisherStats contains publisher statistics.
type PublisherStats struct {
	FrameCount    uint64
	DroppedFrames uint64
	ClientCount   int32
	Running       bool
}
