// Package genx's stream_id.go mints the short opaque IDs attached to a call
// leg's sub-streams (MessageChunk.Ctrl.StreamID) so an audio router or log
// can tell two concurrent utterances apart without a UUID's width.
package genx

import (
	"crypto/rand"
	"time"
)

// epoch2025 rebases stream-ID timestamps to 2025-01-01 00:00:00 UTC so the
// time component stays a few characters shorter than a raw Unix second count.
const epoch2025 int64 = 1735689600

const base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewStreamID returns a ~14-character stream identifier: a base62-encoded
// seconds-since-epoch2025 prefix followed by 6 random bytes, also
// base62-encoded. The time prefix keeps IDs roughly sorted by creation
// order, which lowers collision odds over a long-running process without
// needing a counter.
func NewStreamID() string {
	secs := uint64(time.Now().Unix() - epoch2025)
	timePart := base62Encode(secs)

	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	randomPart := base62Encode(bytesToUint64(randomBytes))

	return timePart + randomPart
}

// bytesToUint64 packs up to 8 bytes big-endian into a uint64, the widest
// integer base62Encode knows how to render.
func bytesToUint64(data []byte) uint64 {
	var n uint64
	for _, b := range data {
		n = n*256 + uint64(b)
	}
	return n
}

// base62Encode renders n in base62, "0" for a zero input.
func base62Encode(n uint64) string {
	if n == 0 {
		return "0"
	}

	var result []byte
	for n > 0 {
		result = append([]byte{base62Chars[n%62]}, result...)
		n /= 62
	}
	return string(result)
}
