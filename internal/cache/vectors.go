package cache

import (
	"encoding/binary"
	"math"
)

// VectorCache stores embedding vectors keyed by model and input text
type VectorCache struct {
	store Cache
}

// NewVectorCache wraps a byte cache
func NewVectorCache(store Cache) *VectorCache {
	return &VectorCache{store: store}
}

// Get returns the cached vector for text embedded with model
func (v *VectorCache) Get(model, text string) ([]float32, bool) {
	raw, ok := v.store.Get(Key("embedding", model, text))
	if !ok || len(raw)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, true
}

// Set stores vec with the cache default TTL
func (v *VectorCache) Set(model, text string, vec []float32) error {
	raw := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(f))
	}
	return v.store.Set(Key("embedding", model, text), raw, 0)
}
