package endpoints

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multicloud/vm-service/pkg/audit"
	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/inventory"
	"github.com/multicloud/vm-service/pkg/server"
)

// InstancesResponse wraps an inventory listing.
type InstancesResponse struct {
	Instances []inventory.Item `json:"instances"`
}

// RegisterInventoryEndpoints registers the aggregation endpoints on the
// authenticated subrouter.
func RegisterInventoryEndpoints(srv *server.Server, protected *mux.Router) {
	protected.HandleFunc("/ec2", handleListPrimaryRegion(srv)).Methods("GET")
	protected.HandleFunc("/all", handleListConfiguredRegions(srv)).Methods("GET")
	protected.HandleFunc("/aws/listvms", handleListUserAccounts(srv)).Methods("GET")
}

func handleListPrimaryRegion(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		region := r.URL.Query().Get("region")
		if region == "" {
			region = srv.Config.DefaultRegion
		}

		report, err := srv.Aggregator.ListRegion(r.Context(), id.UserID, region)
		if err != nil {
			writeAggregationError(srv, w, id.Username, err)
			return
		}

		audit.Log(audit.InventoryEvent{
			Username: id.Username, ClientIP: r.RemoteAddr, Scope: "single-region",
			Instances: len(report.Instances), Failures: len(report.Failures),
		})
		respondWithJSON(w, http.StatusOK, InstancesResponse{Instances: report.Instances})
	}
}

func handleListConfiguredRegions(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		report, err := srv.Aggregator.ListConfiguredRegions(r.Context(), id.UserID, srv.Config.Regions)
		if err != nil {
			writeAggregationError(srv, w, id.Username, err)
			return
		}

		audit.Log(audit.InventoryEvent{
			Username: id.Username, ClientIP: r.RemoteAddr, Scope: "configured-regions",
			Instances: len(report.Instances), Failures: len(report.Failures),
		})
		respondWithJSON(w, http.StatusOK, InstancesResponse{Instances: report.Instances})
	}
}

func handleListUserAccounts(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}

		report, err := srv.Aggregator.ListUserAccounts(r.Context(), id.UserID)
		if err != nil {
			writeAggregationError(srv, w, id.Username, err)
			return
		}

		audit.Log(audit.InventoryEvent{
			Username: id.Username, ClientIP: r.RemoteAddr, Scope: "user-accounts",
			Instances: len(report.Instances), Failures: len(report.Failures),
		})
		respondWithJSON(w, http.StatusOK, InstancesResponse{Instances: report.Instances})
	}
}

func writeAggregationError(srv *server.Server, w http.ResponseWriter, username string, err error) {
	if errors.Is(err, inventory.ErrNoCredential) {
		respondWithMessage(w, http.StatusBadRequest, "No cloud account registered")
		return
	}
	srv.Logger.Error().Err(err).Str("username", username).Msg("inventory aggregation failed")
	respondWithError(w, http.StatusInternalServerError, "Error retrieving instances")
}
