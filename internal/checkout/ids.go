package checkout

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	TokenPrefix       = "tok_"
	tokenSuffixLen    = 16
	orderSuffixLen    = 9
	maxIDAttempts     = 3
	alphanumeric      = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	upperAlphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// generateToken returns tok_ followed by 16 random alphanumerics.
func generateToken() (string, error) {
	suffix, err := randomString(alphanumeric, tokenSuffixLen)
	if err != nil {
		return "", err
	}
	return TokenPrefix + suffix, nil
}

// generateOrderNumber returns ORD-<epoch millis>-<9 random uppercase alphanumerics>.
func generateOrderNumber(now time.Time) (string, error) {
	suffix, err := randomString(upperAlphanumeric, orderSuffixLen)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix), nil
}

func randomString(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
