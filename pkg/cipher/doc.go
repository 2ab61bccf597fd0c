// Package cipher provides authenticated symmetric encryption for
// credential material stored at rest.
//
// Ciphertext is packed as: versionMagic | tag | iv | ciphertext. Every
// encryption uses a fresh random nonce, so encrypting the same plaintext
// twice never yields the same ciphertext. Decryption failures distinguish
// malformed input (ErrMalformed) from tampered or wrong-key ciphertext
// (ErrIntegrity).
package cipher
