package routes

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func formValueOr(r *http.Request, key, fallback string) string {
	v := r.FormValue(key)
	if v == "" {
		return fallback
	}
	return v
}
