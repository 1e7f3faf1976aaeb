package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprint returns a stable, content-derived identifier for a Thunk,
// for logging and debug tooling where a NodeID alone doesn't say enough
// about what a node actually does. It hashes the Thunk's ID and its meta
// and cache flags together with each input (recursively for Thunk inputs;
// a chunk by its affinity, a plain value by its printed form),
// length-prefixing each field so distinct structures can't collide by
// concatenation. The function F itself is not hashed.
func Fingerprint(t *Thunk) string {
	if t == nil {
		return ""
	}
	h := sha256.New()
	writeThunk(h, t, make(map[NodeID]bool))
	return hex.EncodeToString(h.Sum(nil))
}

func writeThunk(h interface{ Write([]byte) (int, error) }, t *Thunk, seen map[NodeID]bool) {
	writeField(h, []byte(fmt.Sprintf("thunk:%d:meta=%v:cache=%v", t.ID, t.Meta, t.Cache)))
	if seen[t.ID] {
		writeField(h, []byte("cycle-guard"))
		return
	}
	seen[t.ID] = true
	for _, in := range t.Inputs {
		switch v := in.(type) {
		case *Thunk:
			writeThunk(h, v, seen)
		case AbstractChunk:
			writeField(h, []byte(fmt.Sprintf("chunk:%v", v.Affinity())))
		default:
			writeField(h, []byte(fmt.Sprintf("value:%v", v)))
		}
	}
}

func writeField(h interface{ Write([]byte) (int, error) }, data []byte) {
	length := uint64(len(data))
	lengthBytes := []byte{
		byte(length >> 56), byte(length >> 48), byte(length >> 40), byte(length >> 32),
		byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length),
	}
	h.Write(lengthBytes)
	h.Write(data)
}
