// Package store defines the storage interfaces consumed by the vault,
// registry and HTTP layers. Implementations live in the gorm subpackage.
//
// Credential secret columns cross this boundary as ciphertext only.
package store
