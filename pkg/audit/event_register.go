package audit

import "fmt"

// RegisterCredentialEvent records an attempt to register a cloud
// credential. KeyID must already be masked by the caller.
type RegisterCredentialEvent struct {
	Username     string
	ClientIP     string
	Provider     string
	KeyID        string
	Region       string
	Success      bool
	ErrorMessage string
}

func (e RegisterCredentialEvent) MessageID() string {
	return "credential-register"
}

func (e RegisterCredentialEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s registered %s credential %s in %s", e.Username, e.Provider, e.KeyID, e.Region)
	}
	msg := fmt.Sprintf("%s failed to register %s credential %s", e.Username, e.Provider, e.KeyID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e RegisterCredentialEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityWarning
}

func (e RegisterCredentialEvent) Facility() int {
	return FacilityAuthPriv
}

func (e RegisterCredentialEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.Username,
		},
		SDIDSubject: {
			"provider": e.Provider,
			"key_id":   e.KeyID,
			"region":   e.Region,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "register",
			"result":    result(e.Success),
		},
	}
}
