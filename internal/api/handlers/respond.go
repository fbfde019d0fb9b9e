package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ashare-daily/backend/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// routeDate parses the {date} path variable. "today" resolves in loc.
func routeDate(r *http.Request, loc *time.Location, now func() time.Time) (time.Time, bool) {
	raw := mux.Vars(r)["date"]
	if raw == "today" {
		n := now().In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), true
	}
	d, err := time.ParseInLocation(contracts.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
