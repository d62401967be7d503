package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/iudanet/babysteps/pkg/api"
)

// writeError пишет JSON ошибку в формате api.ErrorResponse
func writeError(w http.ResponseWriter, status int, errText, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: errText, Message: message})
}
