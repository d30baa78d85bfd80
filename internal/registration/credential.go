package registration

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SealCredential encrypts a plaintext credential with ChaCha20-Poly1305.
//
// The random nonce is prepended to the ciphertext so the sealed blob is
// self-contained. The key must be 32 bytes.
func SealCredential(key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("initialising credential cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating credential nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// OpenCredential decrypts a blob produced by SealCredential.
//
// Returns ErrCredentialInvalid when the blob is truncated, tampered with,
// or sealed under a different key.
func OpenCredential(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("initialising credential cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return nil, ErrCredentialInvalid
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCredentialInvalid
	}
	return plaintext, nil
}
