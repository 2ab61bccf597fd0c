package inventory

import (
	"strings"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/provider"
)

// NotAvailable is the placeholder for fields the provider did not report.
const NotAvailable = "N/A"

// defaultPlatform is assumed when the provider omits the platform field.
const defaultPlatform = "Linux"

// Item is one normalized virtual machine in an aggregation result.
type Item struct {
	Provider        string `json:"provider"`
	KeyID           string `json:"keyId"`
	Name            string `json:"name"`
	InstanceID      string `json:"instanceId"`
	Type            string `json:"type"`
	Region          string `json:"region"`
	Zone            string `json:"zone"`
	PublicIPV4DNS   string `json:"publicIPV4Dns"`
	PublicIPV4Addr  string `json:"publicIPV4Address"`
	PrivateIPV4Addr string `json:"privateIPV4Address"`
	SecurityGroup   string `json:"securityGroup"`
	Platform        string `json:"platform"`
	State           string `json:"state"`
}

// newItem normalizes a raw provider instance. maskedKeyID is the
// fingerprint of the credential the instance was found with.
func newItem(raw provider.RawInstance, p model.Provider, maskedKeyID string) Item {
	item := Item{
		Provider:        strings.ToUpper(p.String()),
		KeyID:           maskedKeyID,
		Name:            orNA(raw.Name),
		InstanceID:      raw.InstanceID,
		Type:            raw.InstanceType,
		Region:          raw.Region,
		Zone:            orNA(raw.AvailabilityZone),
		PublicIPV4DNS:   orNA(raw.PublicDNSName),
		PublicIPV4Addr:  orNA(raw.PublicIP),
		PrivateIPV4Addr: orNA(raw.PrivateIP),
		SecurityGroup:   NotAvailable,
		Platform:        raw.Platform,
		State:           raw.State,
	}
	if len(raw.SecurityGroups) > 0 {
		item.SecurityGroup = raw.SecurityGroups[0]
	}
	if item.Platform == "" {
		item.Platform = defaultPlatform
	}
	return item
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
