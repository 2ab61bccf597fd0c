// Package registry coordinates credential registration and listing for a
// user. Registration is idempotent: a credential that already exists for
// the same user and provider is rejected with ErrDuplicateCredential, and
// the exists-check plus insert is serialized per user so two concurrent
// registrations of the same credential cannot both pass the check.
package registry
