// Package provider defines the gateway abstraction over cloud provider
// APIs. Each provider implementation turns vendor SDK calls and vendor
// error shapes into the neutral instance and failure types defined here.
package provider
