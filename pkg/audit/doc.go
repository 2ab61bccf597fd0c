// Package audit provides audit logging for security-relevant operations.
//
// This package implements structured audit logging in RFC5424 syslog
// format for authentication attempts, credential registration and
// listing, inventory aggregation, and user provisioning.
//
// # Usage
//
//	audit.Log(audit.AuthenticateEvent{Username: "alice", Success: true})
//
// Audit events are written to stdout and optionally persisted to a
// dedicated database when VMSERVICE_AUDIT_DATABASE_URL is set.
package audit
