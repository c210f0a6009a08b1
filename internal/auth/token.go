package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewActivationToken generates a random alphanumeric token of the given
// length, used in account activation links.
func NewActivationToken(length int) (string, error) {
	return randomString(tokenAlphabet, length)
}

// NewActivationPin generates a random numeric PIN of the given length.
func NewActivationPin(length int) (string, error) {
	return randomString("0123456789", length)
}

func randomString(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
