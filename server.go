package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"hurricaneviz/core"
	"hurricaneviz/physics"
	"hurricaneviz/simulation"

	"github.com/gorilla/websocket"
)

// clientMessage is anything a renderer sends. Params is decoded over the
// current parameter set, so a client may send only the fields it changed.
type clientMessage struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

type paramsMessage struct {
	Type   string      `json:"type"`
	Params core.Params `json:"params"`
}

type statusMessage struct {
	Type string `json:"type"`
	simulation.Status
}

type streamlinesMessage struct {
	Type         string      `json:"type"`
	Generation   uint64      `json:"generation"`
	Points       [][]float32 `json:"points"`
	Magnitudes   [][]float32 `json:"magnitudes"`
	MaxMagnitude float64     `json:"maxMagnitude"`
}

type tubesMessage struct {
	Type       string              `json:"type"`
	Generation uint64              `json:"generation"`
	Start      int                 `json:"start"`
	Meshes     []*physics.TubeMesh `json:"meshes"`
}

// contoursMessage carries segments as flat slice-local (ax, ay, bx, by)
// quadruples and the slice's scalars row-major
type contoursMessage struct {
	Type     string     `json:"type"`
	Slice    core.Slice `json:"slice"`
	Levels   []float64  `json:"levels"`
	Segments []float32  `json:"segments"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Scalars  []float32  `json:"scalars"`
	Min      float64    `json:"min"`
	Max      float64    `json:"max"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Hub fans engine output out to every connected renderer. It is the
// engine's Sink.
type Hub struct {
	logger *slog.Logger
	engine *simulation.Engine

	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex

	lastLines    atomic.Pointer[streamlinesMessage]
	lastContours atomic.Pointer[contoursMessage]
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Attach connects the hub to the engine whose parameters clients edit
func (h *Hub) Attach(e *simulation.Engine) {
	h.engine = e
}

func (h *Hub) Status(s simulation.Status) {
	h.broadcast(statusMessage{Type: "status", Status: s})
}

func (h *Hub) Streamlines(gen uint64, batch core.Batch) {
	msg := &streamlinesMessage{
		Type:         "streamlines",
		Generation:   gen,
		Points:       make([][]float32, len(batch.Lines)),
		Magnitudes:   make([][]float32, len(batch.Lines)),
		MaxMagnitude: batch.MaxMagnitude,
	}
	for i, line := range batch.Lines {
		pts := make([]float32, 0, len(line.Points)*3)
		for _, p := range line.Points {
			pts = append(pts, float32(p[0]), float32(p[1]), float32(p[2]))
		}
		mags := make([]float32, len(line.Magnitudes))
		for j, m := range line.Magnitudes {
			mags[j] = float32(m)
		}
		msg.Points[i], msg.Magnitudes[i] = pts, mags
	}
	h.lastLines.Store(msg)
	h.broadcast(msg)
}

func (h *Hub) Tubes(gen uint64, start int, meshes []*physics.TubeMesh) {
	h.broadcast(tubesMessage{Type: "tubes", Generation: gen, Start: start, Meshes: meshes})
}

func (h *Hub) Contours(res simulation.SliceResult) {
	msg := &contoursMessage{
		Type:     "contours",
		Slice:    res.Slice,
		Levels:   res.Levels,
		Segments: make([]float32, 0, len(res.Segments)*4),
		Width:    res.Scalars.Width,
		Height:   res.Scalars.Height,
		Scalars:  make([]float32, len(res.Scalars.Values)),
		Min:      res.Scalars.Min,
		Max:      res.Scalars.Max,
	}
	for _, s := range res.Segments {
		msg.Segments = append(msg.Segments, float32(s.A[0]), float32(s.A[1]), float32(s.B[0]), float32(s.B[1]))
	}
	for i, v := range res.Scalars.Values {
		msg.Scalars[i] = float32(v)
	}
	h.lastContours.Store(msg)
	h.broadcast(msg)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.clientsMutex.Lock()
	h.clients[conn] = &sync.Mutex{}
	count := len(h.clients)
	h.clientsMutex.Unlock()
	defer h.remove(conn)
	h.logger.Info("client connected", "remote", r.RemoteAddr, "clients", count)

	h.sendState(conn)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}

		switch msg.Type {
		case "params":
			p := h.engine.Params()
			if err := json.Unmarshal(msg.Params, &p); err != nil {
				h.logger.Warn("ignoring malformed params", "error", err)
				continue
			}
			p = h.engine.UpdateParams(p)
			h.broadcast(paramsMessage{Type: "params", Params: p})
		case "sync":
			h.sendState(conn)
		default:
			h.logger.Debug("unknown message", "type", msg.Type)
		}
	}
}

// sendState brings a (re)connecting client up to date. Tubes are rebuilt
// for everyone rather than kept around.
func (h *Hub) sendState(conn *websocket.Conn) {
	h.send(conn, paramsMessage{Type: "params", Params: h.engine.Params()})
	if msg := h.lastContours.Load(); msg != nil {
		h.send(conn, msg)
	}
	if msg := h.lastLines.Load(); msg != nil {
		h.send(conn, msg)
		h.engine.RebuildTubes()
	}
}

func (h *Hub) send(conn *websocket.Conn, v any) {
	h.clientsMutex.RLock()
	mutex, ok := h.clients[conn]
	h.clientsMutex.RUnlock()
	if !ok {
		return
	}

	mutex.Lock()
	err := conn.WriteJSON(v)
	mutex.Unlock()
	if err != nil {
		h.logger.Debug("websocket write error", "error", err)
		h.remove(conn)
	}
}

func (h *Hub) broadcast(v any) {
	h.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range h.clients {
		mutex.Lock()
		if err := client.WriteJSON(v); err != nil {
			clientsToRemove = append(clientsToRemove, client)
		}
		mutex.Unlock()
	}
	h.clientsMutex.RUnlock()

	for _, client := range clientsToRemove {
		h.remove(client)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.clientsMutex.Unlock()
	if ok {
		conn.Close()
	}
}

func newMux(h *Hub, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// serve runs the HTTP server until ctx ends
func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
