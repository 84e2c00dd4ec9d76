// Package server accepts WebSocket connections and supervises their
// lifetime (C7): it holds the shared job queue (whose worker owns the
// ASR model) and spawns one ConnectionPipeline per accepted connection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"speechserver/internal/pipeline"
	"speechserver/internal/queue"
	"speechserver/internal/vad"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// VadFactory builds a fresh, per-connection VadDetector. A connection
// whose detector fails to construct gets one error reply and is
// closed immediately (§4.4).
type VadFactory func() (*vad.VadDetector, error)

// Server binds {host, port}, upgrades every accepted connection to a
// WebSocket, and supervises a ConnectionPipeline per connection.
type Server struct {
	addr             string
	queue            *queue.JobQueue
	newDetector      VadFactory
	blockSamples     int
	minSpeechSamples int

	httpServer *http.Server
	shutdown   atomic.Bool
	conns      sync.WaitGroup
}

// New constructs a Server. blockSamples and minSpeechSamples are
// forwarded unchanged to every ConnectionPipeline it spawns.
func New(host string, port int, q *queue.JobQueue, newDetector VadFactory, blockSamples, minSpeechSamples int) *Server {
	s := &Server{
		addr:             formatAddr(host, port),
		queue:            q,
		newDetector:      newDetector,
		blockSamples:     blockSamples,
		minSpeechSamples: minSpeechSamples,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	return s
}

// ListenAndServe blocks until the server is shut down or fails to
// bind. Returns nil on a clean Shutdown, the bind error otherwise.
func (s *Server) ListenAndServe() error {
	log.Printf("server: listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown sets the shutdown flag, stops accepting new connections,
// and waits for every live ConnectionPipeline to drain before
// returning (§4.5, §5). http.Server.Shutdown does not wait for
// hijacked connections such as WebSockets, so that wait is tracked
// separately via conns; it is bounded by ctx, same as the HTTP
// shutdown itself.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdown.Store(true)
	err := s.httpServer.Shutdown(ctx)

	drained := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
	}

	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.shutdown.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: upgrade failed: %v", err)
		return
	}

	detector, err := s.newDetector()
	if err != nil {
		log.Printf("server: vad init failed, closing connection: %v", err)
		body, _ := json.Marshal(struct {
			Error string `json:"error"`
		}{err.Error()})
		_ = conn.WriteMessage(websocket.TextMessage, body)
		_ = conn.Close()
		return
	}

	p := pipeline.New(conn, detector, s.queue, s.blockSamples, s.minSpeechSamples)
	s.conns.Add(1)
	go func() {
		defer s.conns.Done()
		defer detector.Close()
		defer conn.Close()
		p.Run()
	}()
}

func formatAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
