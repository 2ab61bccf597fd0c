package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/multicloud/vm-service/pkg/provider"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		s.tc.Gateway.Reset()
		s.authToken = ""
		// Scenarios own their accounts; users persist and are named
		// uniquely per scenario.
		return ctx, s.tc.DB.Exec("DELETE FROM cloud_accounts").Error
	})

	// Background steps
	sc.Step(`^the server is running$`, s.theServerIsRunning)
	sc.Step(`^a user "([^"]*)" exists$`, s.aUserExists)
	sc.Step(`^I am authenticated as "([^"]*)"$`, s.iAmAuthenticatedAs)

	// Request steps
	sc.Step(`^I register a cloud account with access key "([^"]*)" and secret "([^"]*)" in region "([^"]*)"$`, s.iRegisterACloudAccount)
	sc.Step(`^I list my cloud accounts$`, s.iListMyCloudAccounts)
	sc.Step(`^I list my virtual machines$`, s.iListMyVirtualMachines)
	sc.Step(`^I request the region list$`, s.iRequestTheRegionList)
	sc.Step(`^I check the service health$`, s.iCheckTheServiceHealth)
	sc.Step(`^I request "([^"]*)" without a token$`, s.iRequestWithoutAToken)
	sc.Step(`^I request "([^"]*)" as the unknown user "([^"]*)"$`, s.iRequestAsUnknownUser)

	// Fixture steps
	sc.Step(`^the region "([^"]*)" has an instance "([^"]*)" named "([^"]*)"$`, s.theRegionHasAnInstance)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response message should be "([^"]*)"$`, s.theResponseMessageShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
	sc.Step(`^the response should not contain "([^"]*)"$`, s.theResponseShouldNotContain)
}

// Background steps

func (s *StepsContext) theServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aUserExists(username string) error {
	return s.tc.DB.Exec(`
		INSERT INTO users (username, email) VALUES (?, ?)
		ON CONFLICT (username) DO NOTHING
	`, username, username+"@example.com").Error
}

func (s *StepsContext) iAmAuthenticatedAs(username string) error {
	token, err := s.tc.Resolver.Issue(username, time.Hour)
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

// Request steps

func (s *StepsContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iRegisterACloudAccount(accessKey, secret, region string) error {
	payload, err := json.Marshal(map[string]string{
		"access_key_id":     accessKey,
		"secret_access_key": secret,
		"region":            region,
	})
	if err != nil {
		return err
	}
	return s.do("POST", "/vm/aws/addaccount", bytes.NewReader(payload))
}

func (s *StepsContext) iListMyCloudAccounts() error {
	return s.do("GET", "/vm/cloudaccounts", nil)
}

func (s *StepsContext) iListMyVirtualMachines() error {
	return s.do("GET", "/vm/aws/listvms", nil)
}

func (s *StepsContext) iRequestTheRegionList() error {
	return s.do("GET", "/vm/aws/regions", nil)
}

func (s *StepsContext) iCheckTheServiceHealth() error {
	return s.do("GET", "/health", nil)
}

func (s *StepsContext) iRequestWithoutAToken(path string) error {
	s.authToken = ""
	return s.do("GET", path, nil)
}

func (s *StepsContext) iRequestAsUnknownUser(path, username string) error {
	token, err := s.tc.Resolver.Issue(username, time.Hour)
	if err != nil {
		return err
	}
	s.authToken = token
	return s.do("GET", path, nil)
}

// Fixture steps

func (s *StepsContext) theRegionHasAnInstance(region, instanceID, name string) error {
	s.tc.Gateway.SetInstances(region, []provider.RawInstance{
		{
			InstanceID:       instanceID,
			Name:             name,
			InstanceType:     "t3.micro",
			State:            "running",
			Region:           region,
			AvailabilityZone: region + "a",
		},
	})
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseMessageShouldBe(expected string) error {
	var body map[string]any
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response body %q: %w", string(s.responseBody), err)
	}
	if body["message"] != expected {
		return fmt.Errorf("expected message %q, got %v", expected, body["message"])
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(string(s.responseBody), expected) {
		return fmt.Errorf("expected body to contain %q, got: %s", expected, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldNotContain(unexpected string) error {
	if strings.Contains(string(s.responseBody), unexpected) {
		return fmt.Errorf("expected body not to contain %q, got: %s", unexpected, string(s.responseBody))
	}
	return nil
}
