// Package secretbox encrypts credentials at rest (access and refresh
// tokens in the Postgres store) with AES-256-GCM. The encryption key is
// derived from a master key via HKDF so the raw master key never touches
// the cipher directly.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	masterKeyEnvVar   = "GUILDMASTER_MASTER_KEY"
	requiredKeyLength = 32 // AES-256
	hkdfInfo          = "guildmaster token encryption v1"
	sep               = "|" // nonce|ciphertext, both base64
)

var (
	derivedKey []byte
	loadOnce   sync.Once
	loadErr    error
)

// ensureLoaded reads the base64 master key from GUILDMASTER_MASTER_KEY
// once and derives the working key.
func ensureLoaded() error {
	loadOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(masterKeyEnvVar))
		if kb64 == "" {
			loadErr = fmt.Errorf("%s not set; generate one with: openssl rand -base64 32", masterKeyEnvVar)
			return
		}
		master, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", masterKeyEnvVar, err)
			return
		}
		if len(master) != requiredKeyLength {
			loadErr = fmt.Errorf("%s must decode to %d bytes, got %d", masterKeyEnvVar, requiredKeyLength, len(master))
			return
		}
		key := make([]byte, requiredKeyLength)
		kdf := hkdf.New(sha256.New, master, nil, []byte(hkdfInfo))
		if _, err := io.ReadFull(kdf, key); err != nil {
			loadErr = fmt.Errorf("derive key: %w", err)
			return
		}
		derivedKey = key
	})
	return loadErr
}

// Ready reports whether the master key is loaded, for healthchecks.
func Ready() bool {
	return ensureLoaded() == nil
}

func newGCM() (cipher.AEAD, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext and returns "nonce|ciphertext" in base64.
func Encrypt(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	ct := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce) + sep + base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt opens a value produced by Encrypt.
func Decrypt(value string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(value, sep, 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("secretbox: malformed ciphertext")
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("secretbox: decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("secretbox: decode ciphertext: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return "", fmt.Errorf("secretbox: bad nonce length %d", len(nonce))
	}
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("secretbox: decrypt: %w", err)
	}
	return string(pt), nil
}

// UnsafeResetForTests clears the cached key so tests can exercise
// different master keys. Never call outside tests.
func UnsafeResetForTests() {
	loadOnce = sync.Once{}
	derivedKey = nil
	loadErr = nil
}
