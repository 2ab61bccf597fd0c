// Package aws implements the provider gateway for Amazon EC2.
package aws

import (
	"context"
	"errors"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/vault"
)

// instancesClient is the slice of the EC2 API the gateway consumes.
// Narrow interfaces keep the tests free of SDK transport plumbing.
type instancesClient interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, opts ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeRegions(ctx context.Context, in *ec2.DescribeRegionsInput, opts ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

type identityClient interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, opts ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Gateway lists EC2 instances and validates credentials via STS.
type Gateway struct {
	newEC2 func(cred *vault.DecryptedCredential, region string) instancesClient
	newSTS func(cred *vault.DecryptedCredential, region string) identityClient
	logger zerolog.Logger

	// validationRegion is where GetCallerIdentity is sent; STS is global
	// so any enabled region works.
	validationRegion string
}

// NewGateway creates an EC2 gateway. Clients are built per call because
// each call may carry a different credential and region.
func NewGateway(validationRegion string, logger zerolog.Logger) *Gateway {
	return &Gateway{
		newEC2: func(cred *vault.DecryptedCredential, region string) instancesClient {
			return ec2.NewFromConfig(configFor(cred, region))
		},
		newSTS: func(cred *vault.DecryptedCredential, region string) identityClient {
			return sts.NewFromConfig(configFor(cred, region))
		},
		logger:           logger.With().Str("provider", model.ProviderAWS.String()).Logger(),
		validationRegion: validationRegion,
	}
}

func configFor(cred *vault.DecryptedCredential, region string) aws.Config {
	return aws.Config{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey, "",
		),
	}
}

// Provider implements provider.Gateway.
func (g *Gateway) Provider() model.Provider { return model.ProviderAWS }

// ListInstances implements provider.Gateway. It walks every reservation
// page in the region.
func (g *Gateway) ListInstances(ctx context.Context, cred *vault.DecryptedCredential, region string) ([]provider.RawInstance, error) {
	client := g.newEC2(cred, region)

	var instances []provider.RawInstance
	var nextToken *string
	for {
		out, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, g.failure(region, err)
		}
		for _, reservation := range out.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, rawInstance(instance, region))
			}
		}
		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}
	return instances, nil
}

// ValidateCredential implements provider.Gateway.
func (g *Gateway) ValidateCredential(ctx context.Context, cred *vault.DecryptedCredential) error {
	client := g.newSTS(cred, g.validationRegion)
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return g.failure(g.validationRegion, err)
	}
	g.logger.Debug().Str("arn", aws.ToString(out.Arn)).Msg("credential validated")
	return nil
}

// ListRegions implements provider.Gateway.
func (g *Gateway) ListRegions(ctx context.Context, cred *vault.DecryptedCredential) ([]provider.Region, error) {
	client := g.newEC2(cred, g.validationRegion)
	out, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		return nil, g.failure(g.validationRegion, err)
	}
	regions := make([]provider.Region, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, provider.Region{
			Name:        aws.ToString(r.RegionName),
			Description: aws.ToString(r.Endpoint),
		})
	}
	return regions, nil
}

func (g *Gateway) failure(region string, err error) *provider.Failure {
	reason := classify(err)
	g.logger.Warn().Err(err).Str("region", region).Stringer("reason", reason).Msg("provider call failed")
	return provider.NewFailure(reason, model.ProviderAWS, region, err)
}

// classify maps SDK errors onto the neutral failure taxonomy. API error
// codes are matched by name so the mapping survives SDK upgrades.
func classify(err error) provider.FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return provider.FailureTransient
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AuthFailure", "UnauthorizedOperation", "InvalidClientTokenId",
			"SignatureDoesNotMatch", "AccessDenied", "AccessDeniedException",
			"IncompleteSignature", "MissingAuthenticationToken":
			return provider.FailureAuthRejected
		case "OptInRequired", "UnsupportedOperation":
			return provider.FailureRegionUnavailable
		case "RequestLimitExceeded", "Throttling", "ThrottlingException",
			"RequestThrottled", "ServiceUnavailable", "InternalError",
			"InternalFailure", "RequestTimeout", "RequestExpired":
			return provider.FailureTransient
		}
		return provider.FailureUnknown
	}

	// No API error means the request never reached the service, which in
	// a per-region client points at the regional endpoint.
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return provider.FailureTransient
		}
		return provider.FailureRegionUnavailable
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return provider.FailureRegionUnavailable
	}

	return provider.FailureUnknown
}

func rawInstance(instance ec2types.Instance, region string) provider.RawInstance {
	raw := provider.RawInstance{
		InstanceID:    aws.ToString(instance.InstanceId),
		InstanceType:  string(instance.InstanceType),
		Region:        region,
		PublicDNSName: aws.ToString(instance.PublicDnsName),
		PublicIP:      aws.ToString(instance.PublicIpAddress),
		PrivateIP:     aws.ToString(instance.PrivateIpAddress),
		Platform:      string(instance.Platform),
	}
	if instance.State != nil {
		raw.State = string(instance.State.Name)
	}
	if instance.Placement != nil {
		raw.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	for _, group := range instance.SecurityGroups {
		raw.SecurityGroups = append(raw.SecurityGroups, aws.ToString(group.GroupName))
	}
	for _, tag := range instance.Tags {
		if aws.ToString(tag.Key) == "Name" {
			raw.Name = aws.ToString(tag.Value)
			break
		}
	}
	return raw
}

var _ provider.Gateway = (*Gateway)(nil)
