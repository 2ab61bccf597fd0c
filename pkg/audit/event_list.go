package audit

import "fmt"

// ListCredentialsEvent records a user listing their stored credentials.
type ListCredentialsEvent struct {
	Username     string
	ClientIP     string
	Provider     string
	Count        int
	Success      bool
	ErrorMessage string
}

func (e ListCredentialsEvent) MessageID() string {
	return "credential-list"
}

func (e ListCredentialsEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s listed %d %s credentials", e.Username, e.Count, e.Provider)
	}
	msg := fmt.Sprintf("%s failed to list %s credentials", e.Username, e.Provider)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ListCredentialsEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ListCredentialsEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ListCredentialsEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"provider": e.Provider,
			"count":    fmt.Sprintf("%d", e.Count),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "list",
			"result":    result(e.Success),
		},
	}
}
