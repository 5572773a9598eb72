package httpapi

import (
	"encoding/json"
	"net/http"

	"log/slog"
)

type errResponse struct {
	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().ErrorContext(r.Context(), "failed to encode response",
			slog.String("err", err.Error()))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	respondJSON(w, r, status, &errResponse{
		StatusText: http.StatusText(status),
		ErrorText:  err.Error(),
	})
}
