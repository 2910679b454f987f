package httpx

import (
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	SessionStore string `json:"session_store,omitempty"`
}

// healthHandler answers readiness/liveness checks. HEAD gets headers only.
func healthHandler(store string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", SessionStore: store})
	}
}
