// Package cipher implements the notification broker's authenticated
// symmetric encryption over an opaque byte payload, keyed by a
// (secret, passphrase) pair supplied per call.
package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"ichi-go/internal/applications/notifbroker/dto"
)

var hkdfInfo = []byte("notifbroker-secure-cell")

// deriveKey turns the caller's raw secret/passphrase into a 32-byte AEAD
// key via HKDF-SHA256, using the passphrase as salt.
func deriveKey(secret, passphrase []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, passphrase, hkdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("cipher: key derivation failed: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext under (secret, passphrase), writes the result
// into cfg.Data, and also returns it. secret and passphrase are the raw
// key materials; cfg.SecretKeyHex/PassphraseHex are populated as the
// printable record of what was used.
func Encrypt(plaintext []byte, secret, passphrase []byte, cfg *dto.SecureCellConfig) ([]byte, error) {
	key, err := deriveKey(secret, passphrase)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cipher: failed to generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nonce, nonce, plaintext, nil)

	cfg.SecretKeyHex = hex.EncodeToString(secret)
	cfg.PassphraseHex = hex.EncodeToString(passphrase)
	cfg.Data = ciphertext

	return ciphertext, nil
}

// Decrypt reads cfg.Data as nonce||ciphertext, opens it under
// (secret, passphrase), writes the plaintext back into cfg.Data, and
// returns it. Fails deterministically on key mismatch, corruption, or a
// ciphertext shorter than one nonce.
func Decrypt(secret, passphrase []byte, cfg *dto.SecureCellConfig) ([]byte, error) {
	key, err := deriveKey(secret, passphrase)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: failed to init aead: %w", err)
	}

	if len(cfg.Data) < aead.NonceSize() {
		return nil, fmt.Errorf("cipher: ciphertext truncated")
	}

	nonce, ciphertext := cfg.Data[:aead.NonceSize()], cfg.Data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cipher: decrypt failed: %w", err)
	}

	cfg.Data = plaintext
	return plaintext, nil
}
