package integration

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/vault"
)

// stubGateway stands in for the AWS gateway so scenarios run without
// cloud access. Credentials whose secret is "invalid" are rejected, and
// instances are served from a per-region fixture map.
type stubGateway struct {
	mu        sync.Mutex
	instances map[string][]provider.RawInstance
}

func newStubGateway() *stubGateway {
	return &stubGateway{instances: make(map[string][]provider.RawInstance)}
}

var _ provider.Gateway = (*stubGateway)(nil)

func (g *stubGateway) Provider() model.Provider { return model.ProviderAWS }

// SetInstances replaces the fixture instances for a region.
func (g *stubGateway) SetInstances(region string, instances []provider.RawInstance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances[region] = instances
}

// Reset clears all fixture instances.
func (g *stubGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances = make(map[string][]provider.RawInstance)
}

func (g *stubGateway) ListInstances(ctx context.Context, cred *vault.DecryptedCredential, region string) ([]provider.RawInstance, error) {
	if err := g.ValidateCredential(ctx, cred); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]provider.RawInstance(nil), g.instances[region]...), nil
}

func (g *stubGateway) ValidateCredential(_ context.Context, cred *vault.DecryptedCredential) error {
	if cred.SecretAccessKey == "invalid" || strings.HasPrefix(cred.AccessKeyID, "BADK") {
		return provider.NewFailure(
			provider.FailureAuthRejected,
			model.ProviderAWS,
			cred.Region,
			errors.New("SignatureDoesNotMatch"),
		)
	}
	return nil
}

func (g *stubGateway) ListRegions(_ context.Context, _ *vault.DecryptedCredential) ([]provider.Region, error) {
	return []provider.Region{
		{Name: "us-east-1", Description: "US East (N. Virginia)"},
		{Name: "eu-west-1", Description: "EU (Ireland)"},
	}, nil
}
