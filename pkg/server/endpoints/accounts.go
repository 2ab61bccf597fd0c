package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multicloud/vm-service/pkg/audit"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/metrics"
	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/provider"
	"github.com/multicloud/vm-service/pkg/registry"
	"github.com/multicloud/vm-service/pkg/server"
	"github.com/multicloud/vm-service/pkg/vault"
)

// AddAccountRequest is the POST /vm/aws/addaccount payload.
type AddAccountRequest struct {
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Region          string `json:"region"`
}

// RegisterAccountsEndpoints registers credential management endpoints on
// the authenticated subrouter.
func RegisterAccountsEndpoints(srv *server.Server, protected *mux.Router) {
	protected.HandleFunc("/aws/addaccount", handleAddAccount(srv)).Methods("POST")
	protected.HandleFunc("/cloudaccounts", handleListAccounts(srv)).Methods("GET")
}

func handleAddAccount(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		var req AddAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithMessage(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		if req.AccessKeyID == "" || req.SecretAccessKey == "" || req.Region == "" {
			respondWithMessage(w, http.StatusBadRequest, "access_key_id, secret_access_key and region are required")
			return
		}

		if srv.Regions != nil {
			known, err := srv.Regions.Exists(req.Region)
			if err != nil {
				srv.Logger.Error().Err(err).Msg("region lookup failed")
				respondWithMessage(w, http.StatusInternalServerError, "Error adding AWS account")
				return
			}
			if !known {
				respondWithMessage(w, http.StatusBadRequest, "Unknown region")
				return
			}
		}

		masked := vault.Mask(req.AccessKeyID)

		// Prove the credential is live before vaulting it.
		cred := &vault.DecryptedCredential{
			UserID:          id.UserID,
			Provider:        model.ProviderAWS,
			AccessKeyID:     req.AccessKeyID,
			SecretAccessKey: req.SecretAccessKey,
			Region:          req.Region,
		}
		if err := srv.Gateway.ValidateCredential(r.Context(), cred); err != nil {
			var failure *provider.Failure
			if errors.As(err, &failure) && failure.Reason == provider.FailureAuthRejected {
				metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
				audit.Log(audit.RegisterCredentialEvent{
					Username: id.Username, ClientIP: r.RemoteAddr, Provider: "aws",
					KeyID: masked, ErrorMessage: "provider rejected credentials",
				})
				respondWithMessage(w, http.StatusBadRequest, "Invalid AWS credentials")
				return
			}
			srv.Logger.Error().Err(err).Msg("credential validation failed")
			respondWithMessage(w, http.StatusInternalServerError, "Unable to validate AWS credentials")
			return
		}

		_, err := srv.Registry.RegisterCredential(id.UserID, model.ProviderAWS, req.AccessKeyID, req.SecretAccessKey, req.Region)
		if err != nil {
			if errors.Is(err, registry.ErrDuplicateCredential) {
				metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
				audit.Log(audit.RegisterCredentialEvent{
					Username: id.Username, ClientIP: r.RemoteAddr, Provider: "aws",
					KeyID: masked, Region: req.Region, ErrorMessage: "already registered",
				})
				respondWithMessage(w, http.StatusBadRequest, "Account already added for this user")
				return
			}
			srv.Logger.Error().Err(err).Msg("credential registration failed")
			respondWithMessage(w, http.StatusInternalServerError, "Error adding AWS account")
			return
		}

		metrics.RegistrationsTotal.WithLabelValues("created").Inc()
		audit.Log(audit.RegisterCredentialEvent{
			Username: id.Username, ClientIP: r.RemoteAddr, Provider: "aws",
			KeyID: masked, Region: req.Region, Success: true,
		})
		respondWithMessage(w, http.StatusCreated, "AWS account added successfully")
	}
}

func handleListAccounts(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		summaries := make([]registry.CredentialSummary, 0)
		for _, p := range model.ProviderValues() {
			s, err := srv.Registry.ListCredentialSummaries(id.UserID, p)
			if err != nil {
				srv.Logger.Error().Err(err).Stringer("provider", p).Msg("failed to list credentials")
				respondWithMessage(w, http.StatusInternalServerError, "Error fetching cloud accounts")
				return
			}
			summaries = append(summaries, s...)
		}

		audit.Log(audit.ListCredentialsEvent{
			Username: id.Username, ClientIP: r.RemoteAddr, Provider: "all",
			Count: len(summaries), Success: true,
		})
		respondWithJSON(w, http.StatusOK, summaries)
	}
}
