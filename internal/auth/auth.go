// Package auth verifies the credential attached to ingest requests.
package auth

import "crypto/subtle"

// Verifier decides whether a presented credential may write samples.
type Verifier interface {
	Verify(credential string) bool
}

// SharedSecret accepts exactly one configured key.
type SharedSecret struct {
	key []byte
}

// NewSharedSecret returns a verifier for key. An empty key matches nothing.
func NewSharedSecret(key string) *SharedSecret {
	return &SharedSecret{key: []byte(key)}
}

// Verify compares in constant time.
func (s *SharedSecret) Verify(credential string) bool {
	if len(s.key) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), s.key) == 1
}
