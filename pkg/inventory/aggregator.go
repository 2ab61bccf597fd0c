package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server/store"
	"github.com/multicloud/vm-service/pkg/vault"
)

// ErrNoCredential is returned when an aggregation needs a primary
// credential and no account holds one.
var ErrNoCredential = errors.New("inventory: no credential registered")

// Failure records one failed fan-out cell. Failures are diagnostics:
// they are logged and kept on the report but never turn a partial
// aggregation into an overall error.
type Failure struct {
	Provider model.Provider
	KeyID    string // masked
	Region   string
	Reason   provider.FailureReason
	Message  string
}

// Report is the outcome of one aggregation: the instances that could be
// listed plus the cells that failed.
type Report struct {
	Instances []Item
	Failures  []Failure
}

// Aggregator fans inventory listings out across credentials and regions.
type Aggregator struct {
	registry    *registry.Registry
	gateways    []provider.Gateway
	workers     int
	callTimeout time.Duration
	logger      zerolog.Logger
}

// New creates an Aggregator. workers bounds concurrent provider calls
// and callTimeout caps each individual call.
func New(reg *registry.Registry, gateways []provider.Gateway, workers int, callTimeout time.Duration, logger zerolog.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		registry:    reg,
		gateways:    gateways,
		workers:     workers,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// cell is one independent unit of fan-out work.
type cell struct {
	gateway provider.Gateway
	cred    *vault.DecryptedCredential
	region  string
}

// ListRegion lists the primary credential in a single region. userID
// identifies the caller for the request path; the credential itself is
// the service-level default.
func (a *Aggregator) ListRegion(ctx context.Context, userID uint, region string) (*Report, error) {
	gw, cred, err := a.primaryCredential()
	if err != nil {
		return nil, err
	}
	return a.fanOut(ctx, []cell{{gateway: gw, cred: cred, region: region}})
}

// ListConfiguredRegions fans the primary credential out over the
// configured region list. Regions that fail are recorded on the report.
func (a *Aggregator) ListConfiguredRegions(ctx context.Context, userID uint, regions []string) (*Report, error) {
	gw, cred, err := a.primaryCredential()
	if err != nil {
		return nil, err
	}
	cells := make([]cell, 0, len(regions))
	for _, region := range regions {
		cells = append(cells, cell{gateway: gw, cred: cred, region: region})
	}
	return a.fanOut(ctx, cells)
}

// ListUserAccounts fans out over every credential the user has
// registered, each in its own declared region. A user with no
// credentials gets an empty report, not an error.
func (a *Aggregator) ListUserAccounts(ctx context.Context, userID uint) (*Report, error) {
	var cells []cell
	for _, gw := range a.gateways {
		creds, err := a.registry.ListDecryptedCredentials(userID, gw.Provider())
		if err != nil {
			return nil, err
		}
		for i := range creds {
			cells = append(cells, cell{gateway: gw, cred: &creds[i], region: creds[i].Region})
		}
	}
	return a.fanOut(ctx, cells)
}

// primaryCredential returns the service-level default credential: the
// oldest stored credential for the first provider a gateway exists for.
func (a *Aggregator) primaryCredential() (provider.Gateway, *vault.DecryptedCredential, error) {
	for _, gw := range a.gateways {
		cred, err := a.registry.FirstCredential(gw.Provider())
		if errors.Is(err, store.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return gw, cred, nil
	}
	return nil, nil, ErrNoCredential
}

// fanOut runs every cell under the worker bound and collects results.
// Cell failures never propagate as errors; only caller cancellation
// aborts the aggregation, and a cancelled caller gets no partial result.
func (a *Aggregator) fanOut(ctx context.Context, cells []cell) (*Report, error) {
	report := &Report{Instances: []Item{}}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers)

	for _, c := range cells {
		c := c
		group.Go(func() error {
			items, failure := a.runCell(groupCtx, c)
			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				report.Failures = append(report.Failures, *failure)
				return nil
			}
			report.Instances = append(report.Instances, items...)
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.InstancesDiscovered.Observe(float64(len(report.Instances)))
	return report, nil
}

func (a *Aggregator) runCell(ctx context.Context, c cell) ([]Item, *Failure) {
	providerName := c.gateway.Provider().String()
	masked := vault.Mask(c.cred.AccessKeyID)

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	start := time.Now()
	raws, err := c.gateway.ListInstances(callCtx, c.cred, c.region)
	metrics.ProviderCallSeconds.WithLabelValues(providerName, "list_instances").Observe(time.Since(start).Seconds())

	if err != nil {
		reason := provider.FailureUnknown
		var typed *provider.Failure
		if errors.As(err, &typed) {
			reason = typed.Reason
		}
		if errors.Is(err, context.DeadlineExceeded) {
			reason = provider.FailureTransient
		}
		metrics.AggregationCellsTotal.WithLabelValues(providerName, "failure").Inc()
		metrics.AggregationFailuresTotal.WithLabelValues(providerName, reason.String()).Inc()
		a.logger.Warn().
			Str("provider", providerName).
			Str("key_id", masked).
			Str("region", c.region).
			Stringer("reason", reason).
			Err(err).
			Msg("aggregation cell failed")
		return nil, &Failure{
			Provider: c.gateway.Provider(),
			KeyID:    masked,
			Region:   c.region,
			Reason:   reason,
			Message:  err.Error(),
		}
	}

	metrics.AggregationCellsTotal.WithLabelValues(providerName, "success").Inc()
	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		items = append(items, newItem(raw, c.gateway.Provider(), masked))
	}
	return items, nil
}
