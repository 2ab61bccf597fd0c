package audit

import "fmt"

// ProvisionUserEvent records a user created (or skipped) from an external
// provisioning event.
type ProvisionUserEvent struct {
	Username     string
	Source       string
	Created      bool
	ErrorMessage string
}

func (e ProvisionUserEvent) MessageID() string {
	return "user-provision"
}

func (e ProvisionUserEvent) Message() string {
	if e.Created {
		return fmt.Sprintf("user %s provisioned from %s", e.Username, e.Source)
	}
	if e.ErrorMessage != "" {
		return fmt.Sprintf("failed to provision user %s from %s: %s", e.Username, e.Source, e.ErrorMessage)
	}
	return fmt.Sprintf("user %s already exists, provisioning event from %s ignored", e.Username, e.Source)
}

func (e ProvisionUserEvent) Severity() Severity {
	if e.ErrorMessage != "" {
		return SeverityWarning
	}
	return SeverityInfo
}

func (e ProvisionUserEvent) Facility() int {
	return FacilityAuth
}

func (e ProvisionUserEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			"user":   e.Username,
			"source": e.Source,
		},
		SDIDAction: {
			"operation": "provision",
			"result":    result(e.ErrorMessage == ""),
		},
	}
}
