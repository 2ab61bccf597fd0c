package provider

import (
	"context"
	"fmt"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/vault"
)

// FailureReason classifies why a provider call failed. Callers decide
// retry and reporting behavior from the reason alone, without inspecting
// vendor error types.
type FailureReason int

const (
	// FailureUnknown covers errors the gateway could not classify.
	FailureUnknown FailureReason = iota
	// FailureAuthRejected means the provider refused the credential.
	FailureAuthRejected
	// FailureRegionUnavailable means the regional endpoint could not be
	// reached or the region is not enabled for the account.
	FailureRegionUnavailable
	// FailureTransient covers throttling, timeouts and other errors that
	// may succeed on retry.
	FailureTransient
)

func (r FailureReason) String() string {
	switch r {
	case FailureAuthRejected:
		return "auth_rejected"
	case FailureRegionUnavailable:
		return "region_unavailable"
	case FailureTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Failure is a classified provider call error. It records the provider
// and region the call targeted so aggregated reports stay attributable.
type Failure struct {
	Reason   FailureReason
	Provider model.Provider
	Region   string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s call failed in %s (%s): %v", f.Provider, f.Region, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err as a classified Failure.
func NewFailure(reason FailureReason, p model.Provider, region string, err error) *Failure {
	return &Failure{Reason: reason, Provider: p, Region: region, Err: err}
}

// RawInstance is a provider-neutral view of one virtual machine. Optional
// fields are empty when the provider did not report them; the inventory
// layer substitutes its own placeholders.
type RawInstance struct {
	InstanceID       string
	Name             string
	InstanceType     string
	State            string
	Region           string
	AvailabilityZone string
	PublicDNSName    string
	PublicIP         string
	PrivateIP        string
	SecurityGroups   []string
	Platform         string
}

// Region names a provider region with its human description.
type Region struct {
	Name        string
	Description string
}

// Gateway is the per-provider API surface the aggregator fans out over.
// Implementations must classify every returned error as a *Failure.
type Gateway interface {
	// Provider names the cloud this gateway talks to.
	Provider() model.Provider

	// ListInstances returns every instance visible to the credential in
	// one region. A nil error with an empty slice means the region is
	// genuinely empty.
	ListInstances(ctx context.Context, cred *vault.DecryptedCredential, region string) ([]RawInstance, error)

	// ValidateCredential performs a cheap authenticated call to prove the
	// credential is live before it is accepted for storage.
	ValidateCredential(ctx context.Context, cred *vault.DecryptedCredential) error

	// ListRegions returns the regions the credential can see.
	ListRegions(ctx context.Context, cred *vault.DecryptedCredential) ([]Region, error)
}
