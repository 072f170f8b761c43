package middleware

import (
	"encoding/json"
	"net/http"

	"srcbook/pkg/api"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Err: msg})
}
