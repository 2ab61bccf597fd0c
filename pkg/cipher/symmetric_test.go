package cipher

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNewSymmetric(t *testing.T) {
	c, err := NewSymmetric(testKey())
	if err != nil {
		t.Fatalf("unexpected error with valid key: %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil cipher")
	}

	// Only 32-byte keys are accepted; a 16-byte AES key would silently
	// downgrade to AES-128.
	for _, size := range []int{0, 15, 16, 24, 33} {
		if _, err := NewSymmetric(make([]byte, size)); err == nil {
			t.Errorf("expected error with %d-byte key", size)
		}
	}
}

func TestSymmetricEncryptDecrypt(t *testing.T) {
	c, err := NewSymmetric(testKey())
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	tests := []struct {
		name      string
		aad       []byte
		plaintext []byte
	}{
		{
			name:      "access key",
			aad:       []byte("cloud_account/42/aws/access_key_id"),
			plaintext: []byte("AKIA1234567890ABCD"),
		},
		{
			name:      "empty plaintext",
			aad:       []byte("context"),
			plaintext: []byte(""),
		},
		{
			name:      "long secret",
			aad:       []byte("cloud_account/42/aws/secret_access_key"),
			plaintext: bytes.Repeat([]byte("x"), 4096),
		},
		{
			name:      "binary data",
			aad:       []byte("binary"),
			plaintext: []byte{0x00, 0x01, 0x02, 0xff, 0xfe, 0xfd},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := c.Encrypt(tt.aad, tt.plaintext)
			if err != nil {
				t.Fatalf("encryption failed: %v", err)
			}

			if len(tt.plaintext) > 0 && bytes.Equal(ciphertext, tt.plaintext) {
				t.Error("ciphertext should differ from plaintext")
			}

			decrypted, err := c.Decrypt(tt.aad, ciphertext)
			if err != nil {
				t.Fatalf("decryption failed: %v", err)
			}

			if !bytes.Equal(decrypted, tt.plaintext) {
				t.Errorf("decrypted doesn't match original: got %v, want %v", decrypted, tt.plaintext)
			}
		})
	}
}

func TestSymmetricEncryptionIsNonDeterministic(t *testing.T) {
	c, _ := NewSymmetric(testKey())

	plaintext := []byte("same secret")
	aad := []byte("context")

	ciphertext1, _ := c.Encrypt(aad, plaintext)
	ciphertext2, _ := c.Encrypt(aad, plaintext)

	if bytes.Equal(ciphertext1, ciphertext2) {
		t.Error("encrypting same plaintext twice should produce different ciphertexts")
	}

	decrypted1, _ := c.Decrypt(aad, ciphertext1)
	decrypted2, _ := c.Decrypt(aad, ciphertext2)

	if !bytes.Equal(decrypted1, plaintext) || !bytes.Equal(decrypted2, plaintext) {
		t.Error("both ciphertexts should decrypt to original plaintext")
	}
}

func TestSymmetricDecryptTampered(t *testing.T) {
	c, _ := NewSymmetric(testKey())

	ciphertext, err := c.Encrypt([]byte("context"), []byte("secret data"))
	if err != nil {
		t.Fatalf("encryption failed: %v", err)
	}

	// Flip one byte anywhere past the header.
	for _, idx := range []int{1, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := append([]byte(nil), ciphertext...)
		tampered[idx] ^= 0x01

		_, err := c.Decrypt([]byte("context"), tampered)
		if !errors.Is(err, ErrIntegrity) {
			t.Errorf("byte %d: expected ErrIntegrity, got %v", idx, err)
		}
	}
}

func TestSymmetricDecryptWithWrongAAD(t *testing.T) {
	c, _ := NewSymmetric(testKey())

	ciphertext, err := c.Encrypt([]byte("correct-context"), []byte("secret data"))
	if err != nil {
		t.Fatalf("encryption failed: %v", err)
	}

	_, err = c.Decrypt([]byte("wrong-context"), ciphertext)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity with wrong AAD, got %v", err)
	}
}

func TestSymmetricDecryptWithDifferentKey(t *testing.T) {
	c1, _ := NewSymmetric(testKey())

	otherKey := testKey()
	otherKey[0] ^= 0xff
	c2, _ := NewSymmetric(otherKey)

	ciphertext, _ := c1.Encrypt([]byte("context"), []byte("secret data"))

	_, err := c2.Decrypt([]byte("context"), ciphertext)
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity with different key, got %v", err)
	}
}

func TestSymmetricDecryptMalformed(t *testing.T) {
	c, _ := NewSymmetric(testKey())

	cases := map[string][]byte{
		"empty":        {},
		"too short":    []byte("G123"),
		"wrong magic":  append([]byte{'X'}, make([]byte, 64)...),
		"header only":  append([]byte{versionMagic}, make([]byte, tagSize+ivSize-1)...),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt([]byte("context"), input)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}
