package endpoints

import (
	"net/http"

	"github.com/multicloud/vm-service/pkg/server"
)

// RegionsResponse is the GET /vm/aws/regions payload.
type RegionsResponse struct {
	Regions []string `json:"regions"`
}

// RegisterRegionsEndpoint registers the public region listing. Regions
// come from the reference table; no credential is needed to read them.
func RegisterRegionsEndpoint(srv *server.Server) {
	srv.Router.HandleFunc("/vm/aws/regions", handleListRegions(srv)).Methods("GET")
}

func handleListRegions(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regions, err := srv.Regions.List()
		if err != nil {
			srv.Logger.Error().Err(err).Msg("failed to list regions")
			respondWithError(w, http.StatusInternalServerError, "Error retrieving regions")
			return
		}

		names := make([]string, 0, len(regions))
		for _, region := range regions {
			names = append(names, region.Name)
		}
		respondWithJSON(w, http.StatusOK, RegionsResponse{Regions: names})
	}
}
