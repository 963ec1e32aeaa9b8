package util

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomAlphanumeric returns n characters drawn uniformly from [A-Z0-9].
func RandomAlphanumeric(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("util: length must be positive")
	}

	max := big.NewInt(int64(len(alphanumeric)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphanumeric[idx.Int64()]
	}
	return string(b), nil
}
