package server

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/softwarewrighter/n-body/internal/proto"
	"github.com/softwarewrighter/n-body/internal/sim"
	"github.com/softwarewrighter/n-body/internal/watchdog"
)

const (
	// physicsPeriod is the tick cadence driving Step.
	physicsPeriod = 16 * time.Millisecond

	// statsEveryFrames spaces Stats records on the data plane.
	statsEveryFrames = 30

	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024

	// sendQueueSize bounds the outbound queue. Snapshots dropped when it is
	// full are replaced by fresher ones on the next tick.
	sendQueueSize = 16
)

type outFrame struct {
	messageType int
	data        []byte
}

// session owns one client connection and its private simulation. The run
// loop serializes ticks, heartbeats and inbound control messages; the
// simulation mutex is held only across state-manager calls, never across
// I/O.
type session struct {
	id   string
	conn *websocket.Conn

	mu  sync.Mutex
	sim *sim.Simulation

	probe *watchdog.Probe

	heartbeatInterval time.Duration
	clientTimeout     time.Duration
	debug             bool

	send      chan outFrame
	inbound   chan []byte
	done      chan struct{}
	closeOnce sync.Once

	lastSnapshot   time.Time
	lastStatsFrame uint64
	peerSeen       atomic.Int64 // unix nanos of last peer ping/pong
}

func newSession(id string, conn *websocket.Conn, simulation *sim.Simulation, probe *watchdog.Probe, heartbeat, timeout time.Duration, debug bool) *session {
	return &session{
		id:                id,
		conn:              conn,
		sim:               simulation,
		probe:             probe,
		heartbeatInterval: heartbeat,
		clientTimeout:     timeout,
		debug:             debug,
		send:              make(chan outFrame, sendQueueSize),
		inbound:           make(chan []byte, 8),
		done:              make(chan struct{}),
	}
}

// run drives the session until the peer closes, the transport fails, or the
// heartbeat times out. It returns with the done channel closed; the caller
// closes the connection.
func (s *session) run() {
	defer s.terminate()

	s.touchPeer()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.touchPeer()
		return nil
	})
	s.conn.SetPingHandler(func(appData string) error {
		s.touchPeer()
		return s.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	go s.writePump()
	go s.readPump()

	// the peer learns the active configuration before any state flows
	s.mu.Lock()
	cfg := s.sim.Config()
	s.mu.Unlock()
	if data, err := proto.EncodeConfig(cfg); err == nil {
		s.sendReliable(data)
	}

	ticker := time.NewTicker(physicsPeriod)
	defer ticker.Stop()
	heartbeat := time.NewTicker(s.heartbeatInterval)
	defer heartbeat.Stop()
	var lastPing time.Time

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		case <-heartbeat.C:
			// a peer times out only after leaving a ping unanswered
			seen := s.peerSeenAt()
			if seen.Before(lastPing) && time.Since(seen) > s.clientTimeout {
				log.Printf("%s: client heartbeat failed, disconnecting", s.id)
				return
			}
			lastPing = time.Now()
			s.sendPing()
		case data := <-s.inbound:
			s.dispatch(data)
		}
	}
}

// tick advances physics once and emits whatever the cadences call for.
func (s *session) tick() {
	s.mu.Lock()
	snapshot, stats := s.sim.Step()
	visualFPS := s.sim.Config().VisualFPS
	s.mu.Unlock()

	s.probe.Observe(snapshot.FrameNumber)

	now := time.Now()
	if now.Sub(s.lastSnapshot) >= time.Second/time.Duration(visualFPS) {
		if data, err := proto.EncodeState(snapshot); err == nil && s.trySend(data) {
			s.lastSnapshot = now
		}
	}

	if snapshot.FrameNumber%statsEveryFrames == 0 && snapshot.FrameNumber != s.lastStatsFrame {
		s.lastStatsFrame = snapshot.FrameNumber
		if data, err := proto.EncodeStats(stats); err == nil {
			s.sendReliable(data)
		}
	}
}

// dispatch routes one decoded control message into the state manager.
// Decode failures are logged and dropped; they never end the session.
func (s *session) dispatch(raw []byte) {
	msg, err := proto.DecodeClient(raw)
	if err != nil {
		log.Printf("%s: ignoring inbound message: %v", s.id, err)
		return
	}

	switch msg.Type {
	case proto.TypeUpdateConfig:
		s.mu.Lock()
		err := s.sim.UpdateConfig(msg.Config)
		applied := s.sim.Config()
		s.mu.Unlock()

		if err != nil {
			log.Printf("%s: rejected config: %v", s.id, err)
			if data, encErr := proto.EncodeError(err.Error()); encErr == nil {
				s.sendReliable(data)
			}
			return
		}
		log.Printf("%s: config updated: %d particles, dt=%v, gravity=%v, fps=%d",
			s.id, applied.ParticleCount, applied.TimeStep, applied.GravityStrength, applied.VisualFPS)
		if data, encErr := proto.EncodeConfig(applied); encErr == nil {
			s.sendReliable(data)
		}

	case proto.TypeReset:
		log.Printf("%s: resetting simulation", s.id)
		s.mu.Lock()
		s.sim.Reset()
		snapshot := s.sim.Snapshot()
		s.mu.Unlock()
		// immediate snapshot so the client sees the fresh state before
		// the next throttled emission
		if data, err := proto.EncodeState(snapshot); err == nil {
			s.trySend(data)
		}

	case proto.TypePause:
		s.setPaused(true)
	case proto.TypeResume:
		s.setPaused(false)
	}
}

func (s *session) setPaused(paused bool) {
	if s.debug {
		log.Printf("%s: paused=%v", s.id, paused)
	}
	s.mu.Lock()
	s.sim.SetPaused(paused)
	s.mu.Unlock()
}

// trySend enqueues a droppable frame. Snapshots use this: when the queue is
// full the next tick produces a fresher one anyway.
func (s *session) trySend(data []byte) bool {
	select {
	case s.send <- outFrame{messageType: websocket.TextMessage, data: data}:
		return true
	default:
		return false
	}
}

// sendReliable enqueues a frame that must not be dropped (config echoes,
// stats, errors). It blocks until queued or the session ends.
func (s *session) sendReliable(data []byte) {
	select {
	case s.send <- outFrame{messageType: websocket.TextMessage, data: data}:
	case <-s.done:
	}
}

func (s *session) sendPing() {
	select {
	case s.send <- outFrame{messageType: websocket.PingMessage}:
	case <-s.done:
	}
}

// writePump is the connection's only data writer.
func (s *session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case f := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.terminate()
				return
			}
			if err := s.conn.WriteMessage(f.messageType, f.data); err != nil {
				if s.debug {
					log.Printf("%s: write failed: %v", s.id, err)
				}
				s.terminate()
				return
			}
		}
	}
}

// readPump forwards inbound frames to the run loop and ends the session on
// transport errors.
func (s *session) readPump() {
	defer s.terminate()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("%s: read error: %v", s.id, err)
			}
			return
		}
		select {
		case s.inbound <- data:
		case <-s.done:
			return
		}
	}
}

func (s *session) touchPeer() {
	s.peerSeen.Store(time.Now().UnixNano())
}

func (s *session) peerSeenAt() time.Time {
	return time.Unix(0, s.peerSeen.Load())
}

func (s *session) terminate() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
