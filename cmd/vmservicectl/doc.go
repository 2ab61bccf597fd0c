// Package main implements vmservicectl, the CLI for the multi-cloud VM
// inventory service.
//
// The service lets a user register cloud provider credentials once and
// then list the virtual machines those credentials can see, across
// accounts and regions. Credentials are encrypted at rest with
// AES-256-GCM; plaintext secrets never leave the process.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/vault: Credential encryption and masking
//   - pkg/registry: Account registration and user lookup
//   - pkg/identity: Bearer token resolution
//   - pkg/provider: Cloud provider gateways (AWS)
//   - pkg/inventory: Concurrent inventory aggregation
//   - pkg/provisioning: User provisioning event intake
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/audit: Audit logging
//   - pkg/config: Configuration management
//
// # Quick Start
//
// The server is run via the vmservicectl CLI:
//
//	# Generate a data key for credential encryption
//	vmservicectl data-key generate > data_key
//	export VMSERVICE_DATA_KEY=$(cat data_key)
//	export VMSERVICE_JWT_SECRET_KEY=some-shared-secret
//
//	# Run database migrations
//	vmservicectl db migrate
//
//	# Create a user and issue a token for it
//	vmservicectl user create alice alice@example.com
//	vmservicectl token alice
//
//	# Start the server
//	vmservicectl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - VMSERVICE_DATA_KEY: Base64-encoded 256-bit key for credential encryption
//   - VMSERVICE_JWT_SECRET_KEY: Shared HMAC secret for bearer token verification
//   - VMSERVICE_LOG_LEVEL: Log level (debug, info, warn, error)
//   - VMSERVICE_PORT: Server port (default: 8000)
//   - VMSERVICE_AUDIT_ENABLED: Enable RFC 5424 audit logging
//   - VMSERVICE_AUDIT_DATABASE_URL: Optional separate database for audit messages
package main
