package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// The secure API transport: AES-256-GCM keyed with the ECDH shared secret,
// a fresh 12-byte nonce per call, ciphertext and 16-byte tag concatenated
// and base64-encoded.

func encrypt(key, plaintext, nonce []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)), nil
}

func decrypt(key []byte, data string, nonce []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(raw) < gcm.Overhead() {
		return nil, fmt.Errorf("encrypted body too short: %d bytes", len(raw))
	}

	// Open rejects on auth tag mismatch
	plaintext, err := gcm.Open(nil, nonce, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt body: %w", err)
	}

	return plaintext, nil
}
