// Package refid generates the external-facing identifiers used on ledger
// records: withdrawal reference ids and payment transaction ids.
package refid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	upperAlphaNumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	lowerAlphaNumeric = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Withdrawal generates a withdrawal reference id.
// Format: WD-<unix millis>-<6 uppercase alphanumeric>
func Withdrawal() string {
	suffix, err := randomString(6, upperAlphaNumeric)
	if err != nil {
		// crypto/rand failure is not recoverable here; fall back to a UUID
		// fragment so the reference stays unique.
		suffix = uuid.New().String()[:6]
	}
	return fmt.Sprintf("WD-%d-%s", time.Now().UnixMilli(), suffix)
}

// Transaction generates a payment transaction id with a gateway-style prefix,
// e.g. Transaction("ch") -> "ch_k3v9x...".
func Transaction(prefix string) string {
	body, err := randomString(24, lowerAlphaNumeric)
	if err != nil {
		body = uuid.New().String()
	}
	return fmt.Sprintf("%s_%s", prefix, body)
}

// randomString generates a random string of given length from the given charset
func randomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}

	return string(result), nil
}
