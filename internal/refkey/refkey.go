// Package refkey encodes referral keys handed out to validator stashes.
package refkey

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mr-tron/base58"

	"validator-explorer/internal/storage"
)

const (
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// RandLen is the length of the random part of a key.
	RandLen = 30
)

// Key is a decoded referral key.
type Key struct {
	Stash     string
	Timestamp int64 // unix seconds
	Rand      string
}

// Generate returns a new key for stash issued at now.
// Formula: base58(stash|unix_seconds|rand30)
func Generate(stash string, now time.Time) (string, error) {
	r, err := RandomString(rand.Reader, RandLen)
	if err != nil {
		return "", err
	}
	return Encode(Key{Stash: stash, Timestamp: now.Unix(), Rand: r}), nil
}

// Encode encodes k.
func Encode(k Key) string {
	data := fmt.Sprintf("%s|%d|%s", k.Stash, k.Timestamp, k.Rand)
	return base58.Encode([]byte(data))
}

// Decode parses a key produced by Encode. Malformed keys wrap
// storage.ErrInvalidInput.
func Decode(refKey string) (Key, error) {
	raw, err := base58.Decode(refKey)
	if err != nil {
		return Key{}, fmt.Errorf("decode ref key: %v: %w", err, storage.ErrInvalidInput)
	}
	if !utf8.Valid(raw) {
		return Key{}, fmt.Errorf("decode ref key: not utf-8: %w", storage.ErrInvalidInput)
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 || parts[0] == "" {
		return Key{}, fmt.Errorf("decode ref key: want stash|timestamp|rand: %w", storage.ErrInvalidInput)
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("decode ref key timestamp: %v: %w", err, storage.ErrInvalidInput)
	}

	return Key{Stash: parts[0], Timestamp: ts, Rand: parts[2]}, nil
}

// RandomString returns n characters drawn uniformly from [A-Za-z0-9].
func RandomString(src io.Reader, n int) (string, error) {
	limit := big.NewInt(int64(len(alphanumeric)))

	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(src, limit)
		if err != nil {
			return "", fmt.Errorf("random string: %w", err)
		}
		sb.WriteByte(alphanumeric[idx.Int64()])
	}
	return sb.String(), nil
}
