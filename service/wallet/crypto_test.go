package wallet

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}

	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		t.Fatalf("generate nonce: %v", err)
	}

	testCases := []struct {
		name      string
		plaintext string
	}{
		{"Empty string", ""},
		{"Short text", "Hello, World!"},
		{"JSON payload", `{"jsonrpc":"2.0","id":1,"method":"open_wallet","params":{"name":"default"}}`},
		{"Special characters", "!@#$%^&*()_+{}[]|\\:;\"'<>,.?/~`"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, err := encrypt(key, []byte(tc.plaintext), nonce)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}

			decrypted, err := decrypt(key, ciphertext, nonce)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}

			if string(decrypted) != tc.plaintext {
				t.Errorf("decrypted = %q, want %q", decrypted, tc.plaintext)
			}
		})
	}
}

func TestDecryptInvalidInput(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}

	nonce := make([]byte, 12)

	testCases := []struct {
		name       string
		ciphertext string
	}{
		{"Empty string", ""},
		{"Invalid base64", "This is not base64!"},
		{"Too short after base64 decode", "aGVsbG8="}, // "hello"
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decrypt(key, tc.ciphertext, nonce); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestDecryptRejectsTamperedTag(t *testing.T) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}

	nonce := make([]byte, 12)

	ciphertext, err := encrypt(key, []byte("payload"), nonce)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// flip one bit inside the sealed body
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	raw[len(raw)-1] ^= 1

	if _, err := decrypt(key, base64.StdEncoding.EncodeToString(raw), nonce); err == nil {
		t.Error("expected tampered ciphertext to be rejected")
	}
}
