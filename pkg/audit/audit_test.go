package audit

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := AuthenticateEvent{
		Username: "alice",
		ClientIP: "192.168.1.1",
		Success:  true,
	}

	logger.Log(event)

	output := buf.String()

	if !strings.Contains(output, "vmservice") {
		t.Error("Expected app name 'vmservice' in output")
	}
	if !strings.Contains(output, "authn") {
		t.Error("Expected message ID 'authn' in output")
	}
	if !strings.Contains(output, "alice") {
		t.Error("Expected username in output")
	}
	if !strings.Contains(output, "192.168.1.1") {
		t.Error("Expected client IP in output")
	}
	if !strings.Contains(output, "successfully authenticated") {
		t.Error("Expected success message in output")
	}
}

func TestAuthenticateEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     AuthenticateEvent
		wantMsg   string
		wantSev   Severity
		wantFac   int
		wantMsgID string
	}{
		{
			name: "successful authentication",
			event: AuthenticateEvent{
				Username: "alice",
				ClientIP: "10.0.0.1",
				Success:  true,
			},
			wantMsg:   "successfully authenticated",
			wantSev:   SeverityInfo,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "authn",
		},
		{
			name: "failed authentication",
			event: AuthenticateEvent{
				Username:     "alice",
				ClientIP:     "10.0.0.1",
				Success:      false,
				ErrorMessage: "invalid or expired token",
			},
			wantMsg:   "failed to authenticate",
			wantSev:   SeverityWarning,
			wantFac:   FacilityAuthPriv,
			wantMsgID: "authn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.Facility() != tt.wantFac {
				t.Errorf("Facility() = %v, want %v", tt.event.Facility(), tt.wantFac)
			}
			if tt.event.MessageID() != tt.wantMsgID {
				t.Errorf("MessageID() = %v, want %v", tt.event.MessageID(), tt.wantMsgID)
			}
		})
	}
}

func TestRegisterCredentialEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   RegisterCredentialEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name: "successful registration",
			event: RegisterCredentialEvent{
				Username: "alice",
				ClientIP: "10.0.0.1",
				Provider: "aws",
				KeyID:    "AKIAXXXXABCD",
				Region:   "us-east-1",
				Success:  true,
			},
			wantMsg: "registered aws credential AKIAXXXXABCD in us-east-1",
			wantSev: SeverityNotice,
		},
		{
			name: "duplicate registration",
			event: RegisterCredentialEvent{
				Username:     "alice",
				ClientIP:     "10.0.0.1",
				Provider:     "aws",
				KeyID:        "AKIAXXXXABCD",
				Success:      false,
				ErrorMessage: "credential already registered",
			},
			wantMsg: "failed to register",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
			if tt.event.MessageID() != "credential-register" {
				t.Errorf("MessageID() = %v, want 'credential-register'", tt.event.MessageID())
			}
		})
	}
}

func TestRegisterCredentialEventNeverCarriesFullKey(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	logger.Log(RegisterCredentialEvent{
		Username: "alice",
		Provider: "aws",
		KeyID:    "AKIAXXXXABCD",
		Region:   "us-east-1",
		Success:  true,
	})

	if strings.Contains(buf.String(), "1234567890") {
		t.Error("audit output must only ever contain the masked key")
	}
	if !strings.Contains(buf.String(), "AKIAXXXXABCD") {
		t.Error("Expected masked key in output")
	}
}

func TestInventoryEvent(t *testing.T) {
	event := InventoryEvent{
		Username:  "alice",
		ClientIP:  "10.0.0.1",
		Scope:     "user-accounts",
		Instances: 12,
		Failures:  0,
	}

	if event.MessageID() != "inventory" {
		t.Errorf("MessageID() = %v, want 'inventory'", event.MessageID())
	}
	if !strings.Contains(event.Message(), "12 instances") {
		t.Errorf("Message() = %q, want to contain '12 instances'", event.Message())
	}
	if event.Severity() != SeverityInfo {
		t.Errorf("Severity() = %v, want SeverityInfo", event.Severity())
	}

	event.Failures = 2
	if !strings.Contains(event.Message(), "2 cells failed") {
		t.Errorf("Message() = %q, want to contain '2 cells failed'", event.Message())
	}
	if event.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want SeverityNotice when cells failed", event.Severity())
	}
}

func TestListCredentialsEvent(t *testing.T) {
	event := ListCredentialsEvent{
		Username: "alice",
		ClientIP: "10.0.0.1",
		Provider: "aws",
		Count:    3,
		Success:  true,
	}

	if event.MessageID() != "credential-list" {
		t.Errorf("MessageID() = %v, want 'credential-list'", event.MessageID())
	}
	if !strings.Contains(event.Message(), "listed 3 aws credentials") {
		t.Errorf("Message() = %q, want to contain 'listed 3 aws credentials'", event.Message())
	}
}

func TestProvisionUserEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   ProvisionUserEvent
		wantMsg string
		wantSev Severity
	}{
		{
			name:    "created",
			event:   ProvisionUserEvent{Username: "bob", Source: "user-events", Created: true},
			wantMsg: "provisioned from user-events",
			wantSev: SeverityInfo,
		},
		{
			name:    "duplicate ignored",
			event:   ProvisionUserEvent{Username: "bob", Source: "user-events", Created: false},
			wantMsg: "already exists",
			wantSev: SeverityInfo,
		},
		{
			name:    "failed",
			event:   ProvisionUserEvent{Username: "bob", Source: "user-events", ErrorMessage: "db down"},
			wantMsg: "failed to provision",
			wantSev: SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.event.Message(), tt.wantMsg) {
				t.Errorf("Message() = %q, want to contain %q", tt.event.Message(), tt.wantMsg)
			}
			if tt.event.Severity() != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", tt.event.Severity(), tt.wantSev)
			}
		})
	}
}

func TestStructuredData(t *testing.T) {
	event := RegisterCredentialEvent{
		Username: "alice",
		ClientIP: "10.0.0.1",
		Provider: "aws",
		KeyID:    "AKIAXXXXABCD",
		Region:   "us-east-1",
		Success:  true,
	}

	sd := event.StructuredData()

	if sd[SDIDAuth]["user"] != "alice" {
		t.Errorf("StructuredData auth.user = %v, want 'alice'", sd[SDIDAuth]["user"])
	}
	if sd[SDIDSubject]["key_id"] != "AKIAXXXXABCD" {
		t.Errorf("StructuredData subject.key_id = %v, want 'AKIAXXXXABCD'", sd[SDIDSubject]["key_id"])
	}
	if sd[SDIDClient]["ip"] != "10.0.0.1" {
		t.Errorf("StructuredData client.ip = %v, want '10.0.0.1'", sd[SDIDClient]["ip"])
	}
	if sd[SDIDAction]["result"] != "success" {
		t.Errorf("StructuredData action.result = %v, want 'success'", sd[SDIDAction]["result"])
	}
}

func TestAuditToggle(t *testing.T) {
	originalEnabled := auditEnabled
	defer func() {
		auditEnabled = originalEnabled
	}()

	SetEnabled(false)
	if IsEnabled() {
		t.Error("Expected audit to be disabled")
	}

	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected audit to be enabled")
	}

	// A programmatic setting wins over the environment fallback.
	t.Setenv("VMSERVICE_AUDIT_ENABLED", "false")
	SetEnabled(true)
	if !IsEnabled() {
		t.Error("Expected SetEnabled to take precedence over VMSERVICE_AUDIT_ENABLED")
	}
}

func TestEscapeSDValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", `"simple"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{`with]bracket`, `"with\]bracket"`},
		{`all"special\chars]`, `"all\"special\\chars\]"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := escapeSDValue(tt.input)
			if got != tt.want {
				t.Errorf("escapeSDValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
