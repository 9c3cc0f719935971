// Package meshcodec encodes chunk meshes into compact binary frames for
// remote viewers.
//
// Frame layout, little endian, before compression:
//
//	magic    [4]byte  "MCHK"
//	version  uint8
//	flags    uint8    bit 0: colors present
//	reserved uint16
//	coord    [3]int32
//	vertices uint32
//	indices  uint32
//	positions [vertices][3]float32
//	normals   [vertices][3]float32
//	colors    [vertices][4]uint8   (only with bit 0)
//	indices   [indices]uint32
//
// The whole frame is then zstd compressed.
package meshcodec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"marching-terrain/internal/meshing"
	"marching-terrain/internal/world"
)

const (
	Magic   = "MCHK"
	Version = 1

	flagColors = 1 << 0

	headerSize = 4 + 1 + 1 + 2 + 3*4 + 4 + 4
	// maxFrame bounds decompressed frames so a hostile peer cannot make us
	// allocate without limit.
	maxFrame = 64 << 20
)

var (
	ErrBadMagic  = errors.New("meshcodec: bad magic")
	ErrVersion   = errors.New("meshcodec: unsupported version")
	ErrTruncated = errors.New("meshcodec: truncated frame")
	ErrCorrupt   = errors.New("meshcodec: corrupt frame")
)

type header struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	Reserved uint16
	Coord    [3]int32
	Vertices uint32
	Indices  uint32
}

// Frame is a decoded mesh message.
type Frame struct {
	Coord world.ChunkCoord
	Mesh  *meshing.Mesh
}

// The zstd coders are shared and built on first use.
var (
	encoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	decoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxFrame))
	})
)

// Encode serialises and compresses one chunk mesh.
func Encode(coord world.ChunkCoord, m *meshing.Mesh) ([]byte, error) {
	raw, err := Marshal(coord, m)
	if err != nil {
		return nil, err
	}
	enc, err := encoder()
	if err != nil {
		return nil, fmt.Errorf("meshcodec: zstd encoder: %w", err)
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode decompresses and parses a frame produced by Encode.
func Decode(b []byte) (Frame, error) {
	dec, err := decoder()
	if err != nil {
		return Frame{}, fmt.Errorf("meshcodec: zstd decoder: %w", err)
	}
	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return Frame{}, fmt.Errorf("meshcodec: decompress: %w", err)
	}
	return Unmarshal(raw)
}

// Marshal writes the uncompressed frame.
func Marshal(coord world.ChunkCoord, m *meshing.Mesh) ([]byte, error) {
	if m == nil {
		m = &meshing.Mesh{}
	}
	vc := len(m.Positions)
	if len(m.Normals) != vc {
		return nil, fmt.Errorf("meshcodec: %d normals for %d positions", len(m.Normals), vc)
	}
	colors := m.Colors != nil
	if colors && len(m.Colors) != vc {
		return nil, fmt.Errorf("meshcodec: %d colors for %d positions", len(m.Colors), vc)
	}
	if uint64(vc) > math.MaxUint32 || uint64(len(m.Indices)) > math.MaxUint32 {
		return nil, fmt.Errorf("meshcodec: mesh too large")
	}

	h := header{
		Version:  Version,
		Coord:    [3]int32{int32(coord.X), int32(coord.Y), int32(coord.Z)},
		Vertices: uint32(vc),
		Indices:  uint32(len(m.Indices)),
	}
	copy(h.Magic[:], Magic)
	if colors {
		h.Flags |= flagColors
	}

	var buf bytes.Buffer
	buf.Grow(frameSize(h))
	// bytes.Buffer writes cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, h)
	_ = binary.Write(&buf, binary.LittleEndian, m.Positions)
	_ = binary.Write(&buf, binary.LittleEndian, m.Normals)
	if colors {
		rgba := make([][4]uint8, vc)
		for i, c := range m.Colors {
			rgba[i] = packColor(c)
		}
		_ = binary.Write(&buf, binary.LittleEndian, rgba)
	}
	_ = binary.Write(&buf, binary.LittleEndian, m.Indices)
	return buf.Bytes(), nil
}

// Unmarshal parses an uncompressed frame.
func Unmarshal(raw []byte) (Frame, error) {
	if len(raw) < 4 {
		return Frame{}, ErrTruncated
	}
	if string(raw[:4]) != Magic {
		return Frame{}, ErrBadMagic
	}
	if len(raw) < headerSize {
		return Frame{}, ErrTruncated
	}

	r := bytes.NewReader(raw)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return Frame{}, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	if h.Version != Version {
		return Frame{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if want := frameSize(h); len(raw) < want {
		return Frame{}, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, len(raw), want)
	}
	if h.Indices%3 != 0 {
		return Frame{}, fmt.Errorf("%w: %d indices", ErrCorrupt, h.Indices)
	}

	vc := int(h.Vertices)
	m := &meshing.Mesh{
		Positions: make([]mgl32.Vec3, vc),
		Normals:   make([]mgl32.Vec3, vc),
		Indices:   make([]uint32, h.Indices),
	}
	if err := readAll(r, m.Positions, m.Normals); err != nil {
		return Frame{}, err
	}
	if h.Flags&flagColors != 0 {
		rgba := make([][4]uint8, vc)
		if err := readAll(r, rgba); err != nil {
			return Frame{}, err
		}
		m.Colors = make([]mgl32.Vec4, vc)
		for i, c := range rgba {
			m.Colors[i] = unpackColor(c)
		}
	}
	if err := readAll(r, m.Indices); err != nil {
		return Frame{}, err
	}
	for i, idx := range m.Indices {
		if int(idx) >= vc {
			return Frame{}, fmt.Errorf("%w: index %d = %d, %d vertices", ErrCorrupt, i, idx, vc)
		}
	}

	coord := world.ChunkCoord{X: int(h.Coord[0]), Y: int(h.Coord[1]), Z: int(h.Coord[2])}
	return Frame{Coord: coord, Mesh: m}, nil
}

func readAll(r io.Reader, dst ...any) error {
	for _, d := range dst {
		if err := binary.Read(r, binary.LittleEndian, d); err != nil {
			return fmt.Errorf("%w: %v", ErrTruncated, err)
		}
	}
	return nil
}

func frameSize(h header) int {
	n := headerSize + int(h.Vertices)*24 + int(h.Indices)*4
	if h.Flags&flagColors != 0 {
		n += int(h.Vertices) * 4
	}
	return n
}

func packColor(c mgl32.Vec4) [4]uint8 {
	var out [4]uint8
	for i := range 4 {
		out[i] = uint8(mgl32.Clamp(c[i], 0, 1)*255 + 0.5)
	}
	return out
}

func unpackColor(c [4]uint8) mgl32.Vec4 {
	return mgl32.Vec4{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}
