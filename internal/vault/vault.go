// Package vault encrypts provider credentials at rest. The wire format is
// hex(iv):hex(gcm tag):hex(ciphertext), AES-256-GCM with a scrypt-derived
// key. Decrypted values are used for the lifetime of a model call and must
// never be persisted or logged.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// EnvKey is the environment variable holding the master passphrase.
const EnvKey = "COLLOQUY_ENCRYPTION_KEY"

const (
	minKeyLength = 32
	ivLength     = 12 // GCM standard nonce size
)

// Vault holds the derived encryption key.
type Vault struct {
	key []byte
}

// New derives a vault key from the passphrase. The passphrase must be at
// least 32 characters.
func New(passphrase string) (*Vault, error) {
	if len(passphrase) < minKeyLength {
		return nil, fmt.Errorf("vault: passphrase must be at least %d characters (got %d)", minKeyLength, len(passphrase))
	}
	key, err := scrypt.Key([]byte(passphrase), []byte("colloquy-credentials"), 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("vault: derive key: %w", err)
	}
	return &Vault{key: key}, nil
}

// FromEnv builds a Vault from the COLLOQUY_ENCRYPTION_KEY environment variable.
func FromEnv() (*Vault, error) {
	passphrase := os.Getenv(EnvKey)
	if passphrase == "" {
		return nil, fmt.Errorf("vault: %s is not set (generate one with: openssl rand -base64 32)", EnvKey)
	}
	return New(passphrase)
}

// Encrypt seals a plaintext credential into the wire format.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("vault: gcm: %w", err)
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a credential in the wire format.
func (v *Vault) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("vault: malformed ciphertext (want iv:tag:data)")
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("vault: decode iv: %w", err)
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("vault: decode tag: %w", err)
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("vault: decode data: %w", err)
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return "", fmt.Errorf("vault: cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return "", fmt.Errorf("vault: gcm: %w", err)
	}

	plain, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("vault: decrypt failed (wrong key or tampered data)")
	}
	return string(plain), nil
}

// IsEncrypted reports whether s looks like vault wire format. Used to
// migrate legacy plaintext rows without double-encrypting.
func IsEncrypted(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		if _, err := hex.DecodeString(p); err != nil {
			return false
		}
	}
	return true
}
