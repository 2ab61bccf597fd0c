// Package inventory aggregates virtual machine listings across a user's
// registered cloud credentials and regions. Fan-out is concurrent but
// bounded, each provider call carries its own timeout, and per-cell
// failures are collected rather than aborting the aggregation.
package inventory
