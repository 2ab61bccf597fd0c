// Package vault owns the at-rest encryption contract for stored provider
// credentials: encrypt on write, decrypt on read, and existence checks by
// decrypted equality. Ciphertext is non-deterministic, so equality can
// never be established by comparing stored bytes; the vault decrypts the
// comparison field of each record instead.
//
// A decrypt failure on a stored record always means data corruption (or a
// rotated key), never "no match". It is surfaced as ErrVaultCorruption so
// operators can tell the two apart.
package vault
