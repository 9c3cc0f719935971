package ws

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/world"
)

type clientMsg struct {
	Type string    `json:"type"`
	Pos  []float32 `json:"pos,omitempty"`
}

type welcomeMsg struct {
	Type      string `json:"type"`
	Session   string `json:"session"`
	ChunkSize int    `json:"chunk_size"`
}

type removeMsg struct {
	Type   string        `json:"type"`
	Handle bridge.Handle `json:"handle"`
	Coord  [3]int        `json:"coord"`
}

type visibleMsg struct {
	Type    string        `json:"type"`
	Handle  bridge.Handle `json:"handle"`
	Coord   [3]int        `json:"coord"`
	Visible bool          `json:"visible"`
}

func coordArray(c world.ChunkCoord) [3]int { return [3]int{c.X, c.Y, c.Z} }

func jsonMessage(v any) (outbound, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return outbound{}, fmt.Errorf("ws: encode %T: %w", v, err)
	}
	return outbound{kind: websocket.TextMessage, data: b}, nil
}
