package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/multicloud/vm-service/pkg/cipher"
	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// ErrVaultCorruption is returned when a stored ciphertext fails to
// decrypt. Fatal to that record, not to the process.
var ErrVaultCorruption = errors.New("stored credential failed integrity check")

const maskToken = "XXXX"

// DecryptedCredential holds plaintext secret material for the duration of
// one request. It must never be persisted or logged; callers must not
// retain it past the operation that produced it.
type DecryptedCredential struct {
	AccountID       uint
	UserID          uint
	Provider        model.Provider
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Fingerprint returns the masked display form of the access key: first
// four and last four characters with the rest replaced by a mask token.
// Safe to log and to return to callers.
func (c *DecryptedCredential) Fingerprint() string {
	return Mask(c.AccessKeyID)
}

// Mask renders a secret identifier as first4 + "XXXX" + last4. Values too
// short to keep anything are masked entirely.
func Mask(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("X", len(s))
	}
	return s[:4] + maskToken + s[len(s)-4:]
}

// Vault encrypts credentials on the way into the accounts store and
// decrypts them on the way out. Its operations are stateless over the
// cipher and safe for concurrent use.
type Vault struct {
	accounts store.AccountsStore
	cipher   cipher.SymmetricCipher
	logger   zerolog.Logger
}

// New creates a Vault over an accounts store and a cipher.
func New(accounts store.AccountsStore, c cipher.SymmetricCipher, logger zerolog.Logger) *Vault {
	return &Vault{
		accounts: accounts,
		cipher:   c,
		logger:   logger,
	}
}

// aad binds each ciphertext to its owner, provider and field so stored
// values cannot be swapped between columns or users.
func aad(userID uint, provider model.Provider, field string) []byte {
	return []byte(fmt.Sprintf("cloud_account/%d/%s/%s", userID, provider, field))
}

// StoreCredential encrypts each secret field independently and writes one
// credential record. Returns the new record's identifier.
func (v *Vault) StoreCredential(userID uint, provider model.Provider, accessKeyID, secretAccessKey, region string) (uint, error) {
	encryptedKeyID, err := v.cipher.Encrypt(aad(userID, provider, "access_key_id"), []byte(accessKeyID))
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt access key id: %w", err)
	}

	encryptedSecret, err := v.cipher.Encrypt(aad(userID, provider, "secret_access_key"), []byte(secretAccessKey))
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt secret access key: %w", err)
	}

	return v.accounts.CreateAccount(&store.Account{
		UserID:          userID,
		Provider:        provider,
		AccessKeyID:     encryptedKeyID,
		SecretAccessKey: encryptedSecret,
		Region:          region,
	})
}

// CredentialExists reports whether the user already has a record whose
// access key equals candidateKeyID. Only the comparison field of each
// record is decrypted, and the scan short-circuits on the first match.
// Cost is O(records-for-user) decrypt calls in the worst case; ciphertext
// is non-deterministic so there is nothing cheaper to compare.
func (v *Vault) CredentialExists(userID uint, provider model.Provider, candidateKeyID string) (bool, error) {
	records, err := v.accounts.ListByUser(userID, provider)
	if err != nil {
		return false, err
	}

	fieldAAD := aad(userID, provider, "access_key_id")
	for i := range records {
		plaintext, err := v.cipher.Decrypt(fieldAAD, records[i].AccessKeyID)
		if err != nil {
			// Not a mismatch: the record is unreadable under the
			// current key. Callers must not register on top of it.
			return false, fmt.Errorf("%w: record %d: %v", ErrVaultCorruption, records[i].ID, err)
		}
		if string(plaintext) == candidateKeyID {
			return true, nil
		}
	}
	return false, nil
}

// DecryptForUse decrypts one credential record. The caller owns the
// result's lifetime and must not retain it past the current operation.
func (v *Vault) DecryptForUse(account *store.Account) (*DecryptedCredential, error) {
	keyID, err := v.cipher.Decrypt(aad(account.UserID, account.Provider, "access_key_id"), account.AccessKeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %v", ErrVaultCorruption, account.ID, err)
	}

	secret, err := v.cipher.Decrypt(aad(account.UserID, account.Provider, "secret_access_key"), account.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %v", ErrVaultCorruption, account.ID, err)
	}

	return &DecryptedCredential{
		AccountID:       account.ID,
		UserID:          account.UserID,
		Provider:        account.Provider,
		AccessKeyID:     string(keyID),
		SecretAccessKey: string(secret),
		Region:          account.Region,
	}, nil
}

// DecryptKeyID decrypts only the access-key field of a record, for
// callers that need a maskable identifier without touching the secret key.
func (v *Vault) DecryptKeyID(account *store.Account) (string, error) {
	keyID, err := v.cipher.Decrypt(aad(account.UserID, account.Provider, "access_key_id"), account.AccessKeyID)
	if err != nil {
		return "", fmt.Errorf("%w: record %d: %v", ErrVaultCorruption, account.ID, err)
	}
	return string(keyID), nil
}

// ListDecrypted returns every readable credential for a user, fully
// decrypted. Corrupt records are logged and skipped so one bad row cannot
// hide the user's other credentials.
func (v *Vault) ListDecrypted(userID uint, provider model.Provider) ([]DecryptedCredential, error) {
	records, err := v.accounts.ListByUser(userID, provider)
	if err != nil {
		return nil, err
	}

	credentials := make([]DecryptedCredential, 0, len(records))
	for i := range records {
		credential, err := v.DecryptForUse(&records[i])
		if err != nil {
			v.logger.Error().
				Uint("account_id", records[i].ID).
				Uint("user_id", userID).
				Err(err).
				Msg("skipping unreadable credential record")
			continue
		}
		credentials = append(credentials, *credential)
	}
	return credentials, nil
}
