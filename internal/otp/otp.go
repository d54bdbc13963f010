package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of decimal digits in a generated code.
const CodeLength = 6

// Generator produces one-time codes with a fixed validity window.
type Generator struct {
	ttl time.Duration
}

// NewGenerator builds a generator. A non-positive ttl falls back to
// five minutes.
func NewGenerator(ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Generator{ttl: ttl}
}

// Code returns a uniform random six digit code in [100000, 999999].
func (g *Generator) Code() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// ExpiresAt returns the expiry for a code created now.
func (g *Generator) ExpiresAt(now time.Time) time.Time {
	return now.Add(g.ttl)
}

// TTL exposes the configured validity window.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}
