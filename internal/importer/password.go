package importer

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const credentialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateCredential returns a random alphanumeric credential of the given
// length, drawn uniformly from crypto/rand. Lengths below one fall back to
// twelve characters.
func GenerateCredential(length int) (string, error) {
	if length < 1 {
		length = 12
	}
	max := big.NewInt(int64(len(credentialAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("credential entropy: %w", err)
		}
		buf[i] = credentialAlphabet[n.Int64()]
	}
	return string(buf), nil
}
