package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// MakeRandHexString generates a random hexadecimal string from size random
// bytes. The resulting string is twice as long as size, since each byte
// expands to two hex characters. It returns an error if the random number
// generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// MakeRandDigitString generates a uniformly random decimal string of exactly
// length digits. The first digit is never zero, so the string always has the
// requested width. Randomness comes from crypto/rand.
func MakeRandDigitString(length int) (string, error) {
	if length < 1 {
		return "", ErrorInternal
	}

	// [10^(length-1), 10^length)
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	high := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	n, err := rand.Int(rand.Reader, new(big.Int).Sub(high, low))
	if err != nil {
		return "", err
	}

	return new(big.Int).Add(n, low).String(), nil
}
