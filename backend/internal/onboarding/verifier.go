package onboarding

import "math/rand"

// Verifier decides the outcome of a mock document verification. The
// indirection exists so tests can force either branch; production uses
// the random implementation below.
type Verifier interface {
	Verify() bool
}

// RandomVerifier fails a fixed fraction of verification attempts.
type RandomVerifier struct {
	FailureRate float64
}

// NewRandomVerifier returns the production verifier: 30% of attempts fail.
func NewRandomVerifier() RandomVerifier {
	return RandomVerifier{FailureRate: 0.3}
}

func (v RandomVerifier) Verify() bool {
	return rand.Float64() > v.FailureRate
}
