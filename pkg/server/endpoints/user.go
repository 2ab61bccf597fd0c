package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/multicloud/vm-service/pkg/identity"
	"github.com/multicloud/vm-service/pkg/server"
)

// UserResponse is the GET /vm/user payload.
type UserResponse struct {
	Username string `json:"username"`
	UserID   uint   `json:"user_id"`
}

// RegisterUserEndpoint registers the current-user endpoint on the
// authenticated subrouter.
func RegisterUserEndpoint(srv *server.Server, protected *mux.Router) {
	protected.HandleFunc("/user", handleGetUser()).Methods("GET")
}

func handleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.Get(r.Context())
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "User not authenticated")
			return
		}
		respondWithJSON(w, http.StatusOK, UserResponse{Username: id.Username, UserID: id.UserID})
	}
}
