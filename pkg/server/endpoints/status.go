package endpoints

import (
	"net/http"

	"github.com/multicloud/vm-service/pkg/server"
	gormstore "github.com/multicloud/vm-service/pkg/server/store/gorm"
)

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RegisterStatusEndpoints registers the liveness endpoint.
func RegisterStatusEndpoints(srv *server.Server) {
	srv.Router.HandleFunc("/health", handleHealth(srv)).Methods("GET")
}

func handleHealth(srv *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if srv.DB != nil {
			if err := gormstore.HealthCheck(srv.DB); err != nil {
				respondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
					Status:   "error",
					Database: "unreachable",
				})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
