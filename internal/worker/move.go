package worker

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pierrec/lz4/v4"

	"loom/internal/graph"
)

// compressionThreshold is the gob-encoded size at or above which a
// cross-worker move is lz4-compressed for the trip. Below it the framing overhead isn't
// worth paying.
const compressionThreshold = 4096

// Move implements the design's _move(ctx, proc, x): identity for plain
// data, and for an AbstractChunk, a gather of its bytes onto dst. Gathers
// that cross worker boundaries are lz4-compressed in flight; gathers from a
// worker to itself are a no-op lookup.
func Move(reg *Registry, dst *Worker, x any) (any, error) {
	switch v := x.(type) {
	case *graph.Chunk:
		return moveChunk(reg, dst, v)
	case *graph.View:
		base, err := Move(reg, dst, v.Base)
		if err != nil {
			return nil, err
		}
		return sliceView(base, v.Offset, v.Length)
	case *graph.Cat:
		cells := make([]any, len(v.Cells))
		for i, cell := range v.Cells {
			resolved, err := Move(reg, dst, cell)
			if err != nil {
				return nil, fmt.Errorf("moving cat cell %d: %w", i, err)
			}
			cells[i] = resolved
		}
		return &graph.Cat{Domain: v.Domain, ChunkSizes: v.ChunkSizes, ChunkType: v.ChunkType, Cells: cells}, nil
	default:
		return x, nil
	}
}

func moveChunk(reg *Registry, dst *Worker, c *graph.Chunk) (any, error) {
	owner, err := reg.Get(c.Worker)
	if err != nil {
		return nil, err
	}
	if owner.ID == dst.ID {
		return owner.Store.mustGet(c.ID)
	}

	v, err := owner.Store.mustGet(c.ID)
	if err != nil {
		return nil, err
	}

	wire, err := encodeForWire(v)
	if err != nil {
		return nil, fmt.Errorf("worker: encoding chunk %d for move: %w", c.ID, err)
	}
	return decodeFromWire(wire)
}

func encodeForWire(v any) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(&v); err != nil {
		return nil, err
	}
	if raw.Len() < compressionThreshold {
		return append([]byte{0}, raw.Bytes()...), nil
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return append([]byte{1}, compressed.Bytes()...), nil
}

func decodeFromWire(wire []byte) (any, error) {
	if len(wire) == 0 {
		return nil, fmt.Errorf("worker: empty wire payload")
	}
	payload := wire[1:]
	if wire[0] == 1 {
		zr := lz4.NewReader(bytes.NewReader(payload))
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(zr); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	}
	var v any
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func sliceView(base any, offset, length int) (any, error) {
	s, ok := base.([]any)
	if !ok {
		return nil, fmt.Errorf("worker: view base is not a slice (%T)", base)
	}
	if offset < 0 || offset+length > len(s) {
		return nil, fmt.Errorf("worker: view [%d:%d] out of range of base length %d", offset, offset+length, len(s))
	}
	out := make([]any, length)
	copy(out, s[offset:offset+length])
	return out, nil
}
