// Package ws serves chunk meshes to remote viewers over websockets and
// reads their camera position back.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/meshcodec"
	"marching-terrain/internal/world"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait / 2

	// sessionQueue is the backlog a client may fall behind by before it is
	// disconnected. The cached meshes sent on join come on top.
	sessionQueue = 256
)

// Server is a bridge.Sink, bridge.VisibilitySink and bridge.ViewerSource
// backed by websocket clients. The latest viewer position from any client wins.
type Server struct {
	log       *log.Logger
	chunkSize int
	upgrader  websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	meshes   map[bridge.Handle]*cachedMesh
	next     bridge.Handle

	viewer    mgl32.Vec3
	hasViewer bool

	framesSent atomic.Int64
	bytesSent  atomic.Int64
}

type cachedMesh struct {
	coord   world.ChunkCoord
	frame   []byte
	visible bool
}

type outbound struct {
	kind int
	data []byte
}

type session struct {
	id   string
	conn *websocket.Conn
	out  chan outbound
	quit chan struct{}
	once sync.Once
}

func (ss *session) stop() { ss.once.Do(func() { close(ss.quit) }) }

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins accepts browser connections from the listed origins.
// "*" accepts any origin. Without this option only same-origin requests (or
// requests without an Origin header) are upgraded.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) == 0 {
			s.upgrader.CheckOrigin = nil
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[strings.TrimSuffix(o, "/")] = true
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		}
	}
}

// NewServer returns a server announcing chunkSize to its clients.
func NewServer(chunkSize int, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		log:       logger,
		chunkSize: chunkSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		sessions: make(map[string]*session),
		meshes:   make(map[bridge.Handle]*cachedMesh),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler upgrades the request and serves the connection until it closes.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Printf("[ws] upgrade: %v", err)
			return
		}
		defer conn.Close()

		ss := s.join(conn)
		defer s.leave(ss)

		go s.writeLoop(ss)
		s.readLoop(ss)
	}
}

// join registers a session and queues its welcome plus every mesh on display.
func (s *Server) join(conn *websocket.Conn) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss := &session{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan outbound, sessionQueue+2*len(s.meshes)+1),
		quit: make(chan struct{}),
	}
	if m, ok := s.message(welcomeMsg{Type: "welcome", Session: ss.id, ChunkSize: s.chunkSize}); ok {
		ss.out <- m
	}

	var backlog int
	for h, m := range s.meshes {
		ss.out <- outbound{kind: websocket.BinaryMessage, data: m.frame}
		backlog += len(m.frame)
		if m.visible {
			continue
		}
		if vm, ok := s.message(visibleMsg{Type: "visible", Handle: h, Coord: coordArray(m.coord), Visible: false}); ok {
			ss.out <- vm
		}
	}
	s.sessions[ss.id] = ss
	s.log.Printf("[ws] session %s connected, %d meshes queued (%s)", ss.id, len(s.meshes), humanize.Bytes(uint64(backlog)))
	return ss
}

func (s *Server) leave(ss *session) {
	ss.stop()
	s.mu.Lock()
	delete(s.sessions, ss.id)
	s.mu.Unlock()
	s.log.Printf("[ws] session %s disconnected", ss.id)
}

func (s *Server) writeLoop(ss *session) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer ss.conn.Close()

	for {
		select {
		case <-ss.quit:
			_ = ss.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case m := <-ss.out:
			_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(m.kind, m.data); err != nil {
				ss.stop()
				return
			}
			s.framesSent.Add(1)
			s.bytesSent.Add(int64(len(m.data)))
		case <-ping.C:
			_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ss.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ss.stop()
				return
			}
		}
	}
}

func (s *Server) readLoop(ss *session) {
	_ = ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	ss.conn.SetPongHandler(func(string) error {
		return ss.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := ss.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = ss.conn.SetReadDeadline(time.Now().Add(pongWait))

		var in clientMsg
		if err := json.Unmarshal(msg, &in); err != nil {
			continue
		}
		switch in.Type {
		case "viewer":
			if len(in.Pos) != 3 {
				continue
			}
			s.mu.Lock()
			s.viewer = mgl32.Vec3{in.Pos[0], in.Pos[1], in.Pos[2]}
			s.hasViewer = true
			s.mu.Unlock()
		}
	}
}

// Position returns the most recent viewer position reported by any client.
func (s *Server) Position() (mgl32.Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer, s.hasViewer
}

// Display encodes the mesh once and sends it to every connected client.
func (s *Server) Display(cm bridge.ChunkMesh) (bridge.Handle, error) {
	frame, err := meshcodec.Encode(cm.Coord, cm.Mesh)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.meshes[h] = &cachedMesh{coord: cm.Coord, frame: frame, visible: true}
	s.broadcastLocked(outbound{kind: websocket.BinaryMessage, data: frame})
	return h, nil
}

func (s *Server) Remove(h bridge.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meshes[h]
	if !ok {
		return
	}
	delete(s.meshes, h)
	if out, ok := s.message(removeMsg{Type: "remove", Handle: h, Coord: coordArray(m.coord)}); ok {
		s.broadcastLocked(out)
	}
}

func (s *Server) SetVisible(h bridge.Handle, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meshes[h]
	if !ok || m.visible == visible {
		return
	}
	m.visible = visible
	if out, ok := s.message(visibleMsg{Type: "visible", Handle: h, Coord: coordArray(m.coord), Visible: visible}); ok {
		s.broadcastLocked(out)
	}
}

// message encodes v, logging and reporting false when it cannot.
func (s *Server) message(v any) (outbound, bool) {
	m, err := jsonMessage(v)
	if err != nil {
		s.log.Printf("[ws] %v", err)
		return outbound{}, false
	}
	return m, true
}

// broadcastLocked queues m on every session; a session whose queue is full
// is disconnected.
func (s *Server) broadcastLocked(m outbound) {
	for id, ss := range s.sessions {
		select {
		case ss.out <- m:
		default:
			s.log.Printf("[ws] session %s is too slow, disconnecting", id)
			delete(s.sessions, id)
			ss.stop()
		}
	}
}

// Stats describes the server for periodic logging.
type Stats struct {
	Sessions   int
	Meshes     int
	FramesSent int64
	BytesSent  int64
}

func (s Stats) String() string {
	return humanize.Comma(s.FramesSent) + " frames, " + humanize.Bytes(uint64(s.BytesSent)) + " sent"
}

func (s *Server) Stats() Stats {
	s.mu.Lock()
	st := Stats{Sessions: len(s.sessions), Meshes: len(s.meshes)}
	s.mu.Unlock()
	st.FramesSent = s.framesSent.Load()
	st.BytesSent = s.bytesSent.Load()
	return st
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ss := range s.sessions {
		delete(s.sessions, id)
		ss.stop()
	}
}
