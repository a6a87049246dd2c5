package main

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hurricaneviz/core"
	"hurricaneviz/simulation"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

func testGrids() (*core.VectorField, *core.ScalarField) {
	wd := core.Dims{X: 16, Y: 16, Z: 4}
	u := make([]float32, wd.Len())
	v := make([]float32, wd.Len())
	w := make([]float32, wd.Len())
	for i := range v {
		v[i] = -1
	}
	td := core.Dims{X: 5, Y: 5, Z: 5}
	temps := make([]float32, td.Len())
	for i := range temps {
		temps[i] = float32(i % 37)
	}
	return core.NewVectorField(wd, u, v, w), core.NewScalarField(td, temps)
}

func startTestServer(t *testing.T) (*websocket.Conn, *simulation.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	wind, temp := testGrids()

	p := core.DefaultParams()
	p.Count = 12
	p.Iterations = 40
	p.FeatureCenter = mgl64.Vec2{8, 8}
	p.FeatureRadius = 3
	p.RandomSeed = 3

	hub := NewHub(logger)
	engine := simulation.NewEngine(wind, temp, hub,
		simulation.WithLogger(logger),
		simulation.WithParams(p),
		simulation.WithDelays(time.Millisecond, time.Millisecond))
	hub.Attach(engine)
	t.Cleanup(engine.Close)

	srv := httptest.NewServer(newMux(hub, ""))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, engine
}

// readUntil reads messages until one of the given type arrives
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg map[string]json.RawMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		var got string
		json.Unmarshal(msg["type"], &got)
		if got == typ {
			return msg
		}
	}
}

func TestServerSendsParamsOnConnect(t *testing.T) {
	conn, engine := startTestServer(t)

	msg := readUntil(t, conn, "params")
	var p core.Params
	if err := json.Unmarshal(msg["params"], &p); err != nil {
		t.Fatal(err)
	}
	if p != engine.Params() {
		t.Errorf("params = %+v, want %+v", p, engine.Params())
	}
}

func TestServerAppliesPartialParams(t *testing.T) {
	conn, engine := startTestServer(t)
	readUntil(t, conn, "params")

	if err := conn.WriteJSON(map[string]any{
		"type":   "params",
		"params": map[string]any{"count": 8, "iterations": 99999},
	}); err != nil {
		t.Fatal(err)
	}

	msg := readUntil(t, conn, "params")
	var p core.Params
	if err := json.Unmarshal(msg["params"], &p); err != nil {
		t.Fatal(err)
	}
	if p.Count != 8 || p.Iterations != core.MaxIterations {
		t.Errorf("broadcast params = %+v, want count 8 and clamped iterations", p)
	}
	if p.RandomSeed != 3 {
		t.Error("partial update reset untouched fields")
	}
	if engine.Params() != p {
		t.Error("engine params differ from the broadcast")
	}

	lines := readUntil(t, conn, "streamlines")
	var points [][]float32
	if err := json.Unmarshal(lines["points"], &points); err != nil {
		t.Fatal(err)
	}
	if len(points) == 0 {
		t.Error("no streamlines after a params change")
	}
	readUntil(t, conn, "tubes")
}

func TestServerContours(t *testing.T) {
	conn, engine := startTestServer(t)
	readUntil(t, conn, "params")

	engine.RecomputeSlice()
	msg := readUntil(t, conn, "contours")
	var width, height int
	json.Unmarshal(msg["width"], &width)
	json.Unmarshal(msg["height"], &height)
	if width != 5 || height != 5 {
		t.Errorf("slice size = %dx%d, want 5x5", width, height)
	}
	var segments []float32
	if err := json.Unmarshal(msg["segments"], &segments); err != nil {
		t.Fatal(err)
	}
	if len(segments)%4 != 0 {
		t.Errorf("segment payload length %d is not a multiple of 4", len(segments))
	}
}
