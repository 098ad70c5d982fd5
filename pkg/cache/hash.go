package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FigureKeyOpts lists everything besides file contents that changes the
// rendered output of a figure.
type FigureKeyOpts struct {
	Format     string  `json:"format"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Background string  `json:"background,omitempty"`
	Font       string  `json:"font,omitempty"`
	Filter     string  `json:"filter,omitempty"`
	Sketch     bool    `json:"sketch,omitempty"`
	Defaults   any     `json:"defaults,omitempty"`
}

// FigureKey derives the cache key for a figure from the hash of its
// description, the hashes of its assets in label order, and the render
// options.
func FigureKey(configHash string, assetHashes []string, opts FigureKeyOpts) string {
	return hashKey("figure", configHash, assetHashes, opts)
}

// hashKey generates a cache key of the form prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data as a 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
