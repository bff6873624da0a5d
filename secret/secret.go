// Package secret generates the random tokens and directory-path
// suggestions used during a session's flag-provisioning handshake.
package secret

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	pathAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// SentinelName is the reserved directory name provisioning must
	// never assign, kept distinct from anything a client could
	// legitimately propose.
	SentinelName = "flag_sentinel"

	maxPathLen      = 255
	maxGenAttempts = 32
)

// ErrGenerateFailed covers both entropy-source failures and exhausting
// every retry while avoiding the sentinel name or a banned substring.
var ErrGenerateFailed = errors.New("secret: generation failed")

// GenerateToken returns n cryptographically random printable
// characters, used as the flag's contents.
func GenerateToken(n int) ([]byte, error) {
	s, err := randomString(tokenAlphabet, n)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// GenerateRandomPath returns an n-character random directory name that
// is neither the sentinel name nor contains any of the given banned
// substrings.
func GenerateRandomPath(n int, banned []string) (string, error) {
	if n <= 0 || n > maxPathLen {
		return "", ErrGenerateFailed
	}
	for attempt := 0; attempt < maxGenAttempts; attempt++ {
		candidate, err := randomString(pathAlphabet, n)
		if err != nil {
			return "", err
		}
		if candidate == SentinelName {
			continue
		}
		if containsAny(candidate, banned) {
			continue
		}
		return candidate, nil
	}
	return "", ErrGenerateFailed
}

func randomString(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", ErrGenerateFailed
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if sub == "" {
			continue
		}
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
