// Package crypto seals the entry reference carried in checkout metadata so a
// completed payment can only be matched to the entry that created it.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gtank/cryptopasta"
)

var (
	ErrInvalidKey   = errors.New("crypto: key must be 32 bytes hex-encoded")
	ErrInvalidToken = errors.New("crypto: token does not open")
)

// Cipher holds a hex-encoded 32 byte AES-GCM key.
type Cipher string

// NewKey returns a fresh hex-encoded key.
func NewKey() string {
	key := cryptopasta.NewEncryptionKey()
	return hex.EncodeToString(key[:])
}

func (c Cipher) secureKey() (*[32]byte, error) {
	raw, err := hex.DecodeString(string(c))
	if err != nil || len(raw) != 32 {
		return nil, ErrInvalidKey
	}
	return (*[32]byte)(raw), nil
}

// Validate checks the key shape without sealing anything.
func (c Cipher) Validate() error {
	_, err := c.secureKey()
	return err
}

// SealEntryRef binds an entry id to its raffle id.
func (c Cipher) SealEntryRef(entryID, raffleID string) (string, error) {
	key, err := c.secureKey()
	if err != nil {
		return "", err
	}
	sealed, err := cryptopasta.Encrypt([]byte(entryID+"|"+raffleID), key)
	if err != nil {
		return "", fmt.Errorf("seal entry ref: %w", err)
	}
	return hex.EncodeToString(sealed), nil
}

// OpenEntryRef returns the entry and raffle ids sealed in token.
func (c Cipher) OpenEntryRef(token string) (entryID, raffleID string, err error) {
	key, err := c.secureKey()
	if err != nil {
		return "", "", err
	}
	raw, err := hex.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	plain, err := cryptopasta.Decrypt(raw, key)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	entryID, raffleID, ok := strings.Cut(string(plain), "|")
	if !ok || entryID == "" || raffleID == "" {
		return "", "", ErrInvalidToken
	}
	return entryID, raffleID, nil
}
