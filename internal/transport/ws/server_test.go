package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorilla/websocket"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/meshcodec"
	"marching-terrain/internal/meshing"
	"marching-terrain/internal/world"
)

func testMesh() *meshing.Mesh {
	g := world.NewVoxelGrid(3, world.ChunkCoord{})
	for z := range 3 {
		for y := range 3 {
			for x := range 3 {
				g.Push(float32(y) - 0.5)
			}
		}
	}
	return meshing.Extract(g, meshing.DefaultOptions())
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer(15, log.New(io.Discard, "", 0))
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		hs.Close()
	})
	return s, "ws" + strings.TrimPrefix(hs.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

func readJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	kind, b, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("message kind %d, want text", kind)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
}

func readFrame(t *testing.T, c *websocket.Conn) meshcodec.Frame {
	t.Helper()
	kind, b, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("message kind %d, want binary", kind)
	}
	f, err := meshcodec.Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return f
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWelcomeAndMeshFlow(t *testing.T) {
	s, url := startServer(t)
	c := dial(t, url)

	var w welcomeMsg
	readJSON(t, c, &w)
	if w.Type != "welcome" || w.Session == "" || w.ChunkSize != 15 {
		t.Fatalf("welcome = %+v", w)
	}
	waitFor(t, func() bool { return s.Stats().Sessions == 1 })

	coord := world.ChunkCoord{X: 2, Y: -1, Z: 0}
	mesh := testMesh()
	h, err := s.Display(bridge.ChunkMesh{Coord: coord, Offset: coord.Offset(15), Mesh: mesh})
	if err != nil || h == 0 {
		t.Fatalf("Display = %d, %v", h, err)
	}
	f := readFrame(t, c)
	if f.Coord != coord || f.Mesh.TriangleCount() != mesh.TriangleCount() {
		t.Fatalf("frame coord %v, %d triangles", f.Coord, f.Mesh.TriangleCount())
	}

	s.SetVisible(h, false)
	var v visibleMsg
	readJSON(t, c, &v)
	if v.Type != "visible" || v.Handle != h || v.Visible || v.Coord != [3]int{2, -1, 0} {
		t.Fatalf("visible = %+v", v)
	}

	s.Remove(h)
	var r removeMsg
	readJSON(t, c, &r)
	if r.Type != "remove" || r.Handle != h {
		t.Fatalf("remove = %+v", r)
	}
	waitFor(t, func() bool {
		st := s.Stats()
		return st.Meshes == 0 && st.FramesSent >= 4 && st.BytesSent > 0
	})
}

func TestLateJoinerGetsCachedMeshes(t *testing.T) {
	s, url := startServer(t)
	for i := range 3 {
		h, _ := s.Display(bridge.ChunkMesh{Coord: world.ChunkCoord{X: i}, Mesh: testMesh()})
		if i == 1 {
			s.SetVisible(h, false)
		}
	}

	c := dial(t, url)
	var w welcomeMsg
	readJSON(t, c, &w)

	seen := map[int]bool{}
	hidden := 0
	for len(seen) < 3 || hidden < 1 {
		kind, b, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if kind == websocket.BinaryMessage {
			f, err := meshcodec.Decode(b)
			if err != nil {
				t.Fatal(err)
			}
			seen[f.Coord.X] = true
			continue
		}
		var v visibleMsg
		if err := json.Unmarshal(b, &v); err != nil || v.Type != "visible" || v.Coord[0] != 1 {
			t.Fatalf("unexpected message %s", b)
		}
		hidden++
	}
}

func TestViewerPosition(t *testing.T) {
	s, url := startServer(t)
	if _, ok := s.Position(); ok {
		t.Fatal("position before any client")
	}
	c := dial(t, url)
	var w welcomeMsg
	readJSON(t, c, &w)

	_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewer","pos":[1]}`))
	_ = c.WriteMessage(websocket.TextMessage, []byte(`not json`))
	_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"viewer","pos":[10.5,-3,7]}`))
	waitFor(t, func() bool {
		p, ok := s.Position()
		return ok && p == (mgl32.Vec3{10.5, -3, 7})
	})
}

func TestDisconnectUnregisters(t *testing.T) {
	s, url := startServer(t)
	c := dial(t, url)
	var w welcomeMsg
	readJSON(t, c, &w)
	waitFor(t, func() bool { return s.Stats().Sessions == 1 })
	c.Close()
	waitFor(t, func() bool { return s.Stats().Sessions == 0 })

	// Displays with nobody listening still cache.
	if _, err := s.Display(bridge.ChunkMesh{Mesh: testMesh()}); err != nil {
		t.Fatal(err)
	}
	if s.Stats().Meshes != 1 {
		t.Fatal("mesh not cached")
	}
}

func dialFrom(url, origin string) (*websocket.Conn, *http.Response, error) {
	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, h)
}

func TestOriginCheck(t *testing.T) {
	_, url := startServer(t)
	if c, resp, err := dialFrom(url, "https://elsewhere.example"); err == nil {
		c.Close()
		t.Fatal("cross-origin dial accepted without an allow list")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-origin dial: %v (response %v)", err, resp)
	}
	c, _, err := dialFrom(url, "")
	if err != nil {
		t.Fatalf("dial without Origin: %v", err)
	}
	c.Close()

	s := NewServer(15, log.New(io.Discard, "", 0), WithAllowedOrigins("https://viewer.example/"))
	hs := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		hs.Close()
	})
	allowURL := "ws" + strings.TrimPrefix(hs.URL, "http")
	c, _, err = dialFrom(allowURL, "https://viewer.example")
	if err != nil {
		t.Fatalf("listed origin rejected: %v", err)
	}
	c.Close()
	if c, _, err := dialFrom(allowURL, "https://other.example"); err == nil {
		c.Close()
		t.Fatal("unlisted origin accepted")
	}

	wildcard := NewServer(15, log.New(io.Discard, "", 0), WithAllowedOrigins("*"))
	hs2 := httptest.NewServer(wildcard.Handler())
	t.Cleanup(func() {
		wildcard.Close()
		hs2.Close()
	})
	c, _, err = dialFrom("ws"+strings.TrimPrefix(hs2.URL, "http"), "https://anything.example")
	if err != nil {
		t.Fatalf("wildcard origin rejected: %v", err)
	}
	c.Close()
}

func TestJSONMessageReportsEncodeError(t *testing.T) {
	if _, err := jsonMessage(map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("jsonMessage accepted an unencodable value")
	}
	var buf strings.Builder
	s := NewServer(15, log.New(&buf, "", 0))
	if _, ok := s.message(func() {}); ok || !strings.Contains(buf.String(), "encode") {
		t.Fatalf("message(func) ok=%v, log %q", ok, buf.String())
	}
	m, ok := s.message(removeMsg{Type: "remove", Handle: 3})
	if !ok || !strings.Contains(string(m.data), `"handle":3`) {
		t.Fatalf("message(remove) = %q, %v", m.data, ok)
	}
}
