package cipher

import (
	"crypto/aes"
	aescipher "crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const ivSize = 12
const tagSize = aes.BlockSize
const versionMagic = byte('G')

// KeySize is the required length of the data key in bytes (AES-256).
const KeySize = 32

// ErrIntegrity is returned when ciphertext fails authentication: it was
// tampered with, or was produced under a different key or AAD.
var ErrIntegrity = errors.New("ciphertext integrity check failed")

// ErrMalformed is returned when the input is not valid packed ciphertext.
var ErrMalformed = errors.New("malformed ciphertext")

// SymmetricCipher encrypts and decrypts opaque secret values. The aad
// parameter binds a ciphertext to its storage context so values cannot be
// swapped between records.
type SymmetricCipher interface {
	Decrypt(aad, packedText []byte) ([]byte, error)
	Encrypt(aad, plainText []byte) ([]byte, error)
}

type Symmetric struct {
	aesgcm aescipher.AEAD
}

// NewSymmetric builds a cipher from a raw key. The key must be exactly
// KeySize bytes; anything else is rejected so a truncated or corrupted key
// is caught at startup rather than on first use.
func NewSymmetric(key []byte) (SymmetricCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("data key must be %d bytes, got %d", KeySize, len(key))
	}

	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := aescipher.NewGCM(c)
	if err != nil {
		return nil, err
	}

	return &Symmetric{aesgcm: aesgcm}, nil
}

func (s Symmetric) Decrypt(aad, packedText []byte) ([]byte, error) {
	if len(packedText) < 1+tagSize+ivSize {
		return nil, ErrMalformed
	}
	if packedText[0] != versionMagic {
		return nil, ErrMalformed
	}

	cipherText, iv := UnpackCipherData(packedText)

	plainText, err := s.aesgcm.Open(nil, iv, cipherText, aad)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plainText, nil
}

func RandomNonce() ([]byte, error) {
	// Never use more than 2^32 random nonces with a given key because of
	// the risk of a repeat.
	return RandomBytes(ivSize)
}

func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (s Symmetric) encrypt(aad, plainText, nonce []byte) ([]byte, error) {
	if len(nonce) < ivSize {
		return nil, errors.New("nonce size is too short")
	}

	cipherTextWithTag := s.aesgcm.Seal(nil, nonce, plainText, aad)
	packedText := PackCipherData(cipherTextWithTag, nonce)

	return packedText, nil
}

func (s Symmetric) Encrypt(aad, plainText []byte) ([]byte, error) {
	nonce, err := RandomNonce()
	if err != nil {
		return nil, err
	}

	return s.encrypt(aad, plainText, nonce)
}

// PackCipherData lays out a sealed value as versionMagic | tag | iv | ctext.
func PackCipherData(cipherTextWithTag []byte, iv []byte) []byte {
	iv = iv[:ivSize]

	tagStartIndex := len(cipherTextWithTag) - tagSize
	tag := cipherTextWithTag[tagStartIndex:]
	cipherText := cipherTextWithTag[:tagStartIndex]

	dataLength := 1 + tagSize + ivSize + len(cipherText)
	data := make([]byte, dataLength)

	data[0] = versionMagic
	index := 1

	copy(data[index:], tag)
	index += tagSize

	copy(data[index:], iv)
	index += ivSize

	copy(data[index:], cipherText)

	return data
}

// UnpackCipherData splits packed ciphertext back into the sealed value and
// iv expected by the AEAD. The caller must have validated length and magic.
func UnpackCipherData(packedText []byte) ([]byte, []byte) {
	index := 1

	nextIndex := index + tagSize
	tag := packedText[index:nextIndex]
	index = nextIndex

	nextIndex = index + ivSize
	iv := packedText[index:nextIndex]
	index = nextIndex

	cipherText := append(packedText[index:], tag...)

	return cipherText, iv
}
