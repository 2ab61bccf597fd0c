package audit

import "fmt"

// InventoryEvent records an inventory aggregation run on behalf of a user.
type InventoryEvent struct {
	Username  string
	ClientIP  string
	Scope     string // single-region, configured-regions, user-accounts
	Instances int
	Failures  int
}

func (e InventoryEvent) MessageID() string {
	return "inventory"
}

func (e InventoryEvent) Message() string {
	msg := fmt.Sprintf("%s aggregated inventory (%s): %d instances", e.Username, e.Scope, e.Instances)
	if e.Failures > 0 {
		msg += fmt.Sprintf(", %d cells failed", e.Failures)
	}
	return msg
}

func (e InventoryEvent) Severity() Severity {
	if e.Failures > 0 {
		return SeverityNotice
	}
	return SeverityInfo
}

func (e InventoryEvent) Facility() int {
	return FacilityAuth
}

func (e InventoryEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"scope":     e.Scope,
			"instances": fmt.Sprintf("%d", e.Instances),
			"failures":  fmt.Sprintf("%d", e.Failures),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
}
