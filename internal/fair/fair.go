// Package fair implements the commit-reveal number generation protocol.
// The operator commits to sha256(serverSeed) before sales open, mixes in a
// client seed taken from a chain block after sales close, and reveals the
// server seed with the results so anyone can recompute the draw.
package fair

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/tonlotto/platform/internal/domain"
)

// GenerateServerSeed returns 32 bytes of cryptographic randomness, hex-encoded.
func GenerateServerSeed() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate server seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashServerSeed returns the hex sha256 commitment of a server seed.
func HashServerSeed(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment checks a revealed server seed against its stored hash.
// Returns an integrity error on mismatch; a mismatch means the committed
// seed was tampered with and the draw must not proceed.
func VerifyCommitment(serverSeed, serverSeedHash string) error {
	computed := HashServerSeed(serverSeed)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(serverSeedHash)) != 1 {
		return domain.ErrIntegrity("server seed does not match committed hash")
	}
	return nil
}
