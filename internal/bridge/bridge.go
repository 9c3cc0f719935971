// Package bridge is the boundary between the terrain pipeline and whatever
// shows it. A ViewerSource tells the pipeline where the camera is, and a Sink
// receives finished chunk meshes.
package bridge

import (
	"github.com/go-gl/mathgl/mgl32"

	"marching-terrain/internal/meshing"
	"marching-terrain/internal/world"
)

// Handle identifies a mesh owned by a Sink. Zero means no display.
type Handle uint64

// ChunkMesh is a finished chunk ready to show. Offset is the chunk's world
// translation (coord * edge); the mesh itself is chunk-local.
type ChunkMesh struct {
	Coord  world.ChunkCoord
	Offset mgl32.Vec3
	Mesh   *meshing.Mesh
}

// ViewerSource supplies the viewer position once per tick.
// ok is false when no viewer exists yet.
type ViewerSource interface {
	Position() (pos mgl32.Vec3, ok bool)
}

// Sink displays chunk meshes. Calls come from the tick goroutine only.
type Sink interface {
	Display(m ChunkMesh) (Handle, error)
	Remove(h Handle)
}

// VisibilitySink is implemented by sinks that can hide a mesh without
// dropping it.
type VisibilitySink interface {
	SetVisible(h Handle, visible bool)
}

// SetVisible forwards to s when it supports visibility and reports whether it did.
func SetVisible(s Sink, h Handle, visible bool) bool {
	vs, ok := s.(VisibilitySink)
	if !ok || h == 0 {
		return false
	}
	vs.SetVisible(h, visible)
	return true
}
