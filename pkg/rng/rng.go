package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// Source yields floats in [0, 1) for outcome resolution. Implementations
// need not be safe for concurrent use; every draw sequence belongs to a
// single commit attempt.
type Source interface {
	Float64() float64
}

// HMACSource derives a reproducible byte stream from a room seed and a
// nonce using HMAC-SHA256. The same (seed, nonce) pair always yields the
// same stream, so an at-bat resolved against a given room version can be
// replayed bit for bit.
type HMACSource struct {
	seed        string
	nonce       uint64
	round       int
	roundCursor int
	buffer      [sha256.Size]byte
}

// NewHMACSource creates a source keyed by seed and nonce. The nonce is
// expected to be the room record version the draw is resolved against.
func NewHMACSource(seed string, nonce uint64) *HMACSource {
	s := &HMACSource{
		seed:  seed,
		nonce: nonce,
	}
	s.generateRound()
	return s
}

func (s *HMACSource) generateRound() {
	h := hmac.New(sha256.New, []byte(s.seed))
	fmt.Fprintf(h, "%d:%d", s.nonce, s.round)
	copy(s.buffer[:], h.Sum(nil))
}

func (s *HMACSource) next() byte {
	if s.roundCursor >= sha256.Size {
		s.round++
		s.roundCursor = 0
		s.generateRound()
	}
	b := s.buffer[s.roundCursor]
	s.roundCursor++
	return b
}

// Float64 consumes 4 bytes of the stream and maps them onto [0, 1).
func (s *HMACSource) Float64() float64 {
	b0 := s.next()
	b1 := s.next()
	b2 := s.next()
	b3 := s.next()

	return float64(b0)/256.0 +
		float64(b1)/(256.0*256.0) +
		float64(b2)/(256.0*256.0*256.0) +
		float64(b3)/(256.0*256.0*256.0*256.0)
}
