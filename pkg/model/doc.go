// Package model contains the database models for users, stored cloud
// credentials and the region reference table.
//
// Secret columns hold ciphertext only. Encryption and decryption are owned
// by the vault package; nothing in this package touches plaintext.
package model
