// Package identity resolves bearer tokens to application users and
// carries the resolved identity through request contexts.
package identity
