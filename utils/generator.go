package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

const confirmationCodeLength = 8
const letterBytes = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// maxCodeAttempts bounds the search; exhausting it means the code space is badly crowded.
const maxCodeAttempts = 20

var ErrCodeSpaceExhausted = errors.New("could not generate a unique confirmation code")

type CodeLookup interface {
	ConfirmationCodeExists(ctx context.Context, code string) (bool, error)
}

func GenerateUniqueConfirmationCode(ctx context.Context, lookup CodeLookup) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := RandomCode(confirmationCodeLength, letterBytes)
		if err != nil {
			return "", err
		}
		exists, err := lookup.ConfirmationCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// RandomCode draws n characters from alphabet with crypto/rand.
func RandomCode(n int, alphabet string) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
