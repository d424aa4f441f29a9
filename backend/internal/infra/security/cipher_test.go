package security

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, 32)
}

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey())
	if err != nil {
		t.Fatalf("new cipher: %v", err)
	}
	sealed, err := c.Encrypt([]byte("EAAB-token"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(sealed, []byte("EAAB-token")) {
		t.Fatalf("ciphertext leaks plaintext")
	}
	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plain) != "EAAB-token" {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

func TestCipherRejectsTamperedData(t *testing.T) {
	c, _ := NewCipher(testKey())
	sealed, _ := c.Encrypt([]byte("secret"))
	sealed[len(sealed)-1] ^= 0xff
	if _, err := c.Decrypt(sealed); err == nil {
		t.Fatalf("expected tampered ciphertext to fail")
	}
	if _, err := c.Decrypt([]byte{1, 2}); err == nil {
		t.Fatalf("expected short ciphertext to fail")
	}
}

func TestNewCipherFromEnv(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	if _, err := NewCipherFromEnv(); !errors.Is(err, ErrMasterKeyMissing) {
		t.Fatalf("expected ErrMasterKeyMissing, got %v", err)
	}

	t.Setenv(MasterKeyEnv, base64.StdEncoding.EncodeToString([]byte("short")))
	if _, err := NewCipherFromEnv(); err == nil {
		t.Fatalf("expected short key to be rejected")
	}

	t.Setenv(MasterKeyEnv, base64.StdEncoding.EncodeToString(testKey()))
	if _, err := NewCipherFromEnv(); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
}
