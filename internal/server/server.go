// Package server hosts the simulation service: a websocket endpoint where
// each connection owns its own simulation and session loop, plus static
// hosting for the rendering client.
package server

import (
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/softwarewrighter/n-body/internal/config"
	"github.com/softwarewrighter/n-body/internal/sim"
	"github.com/softwarewrighter/n-body/internal/watchdog"
)

// Server accepts websocket sessions and wires them to the shared watchdog.
type Server struct {
	cfg      *config.Config
	wd       *watchdog.Watchdog
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	seed     func() int64
}

// New builds a server from cfg. The watchdog monitor starts with
// ListenAndServe (or an explicit StartWatchdog for custom hosting).
func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
		wd:  watchdog.New(watchdog.DefaultPeriod),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		seed: func() int64 { return time.Now().UnixNano() },
	}
}

// Handler returns the HTTP routes: /ws for sessions and the static client
// under /.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	if dir := s.cfg.Server.StaticDir; dir != "" {
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}
	return mux
}

// StartWatchdog launches the stall monitor.
func (s *Server) StartWatchdog() {
	s.wd.Start()
}

// ListenAndServe runs the HTTP server until it fails.
func (s *Server) ListenAndServe() error {
	s.StartWatchdog()
	addr := s.cfg.Addr()
	log.Printf("n-body server listening on http://%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	id := fmt.Sprintf("session-%d", s.nextID.Add(1))

	simulation, err := sim.New(s.cfg.SimConfig(), s.seed())
	if err != nil {
		// server-side defaults failed validation: configuration bug
		log.Printf("%s: cannot start simulation: %v", id, err)
		conn.Close()
		return
	}

	probe := s.wd.Register(id)
	sess := newSession(id, conn, simulation, probe,
		s.cfg.HeartbeatInterval(), s.cfg.ClientTimeout(), s.cfg.Server.Debug)

	log.Printf("%s: connected from %s", id, r.RemoteAddr)
	go func() {
		sess.run()
		s.wd.Unregister(id)
		conn.Close()
		log.Printf("%s: closed", id)
	}()
}
