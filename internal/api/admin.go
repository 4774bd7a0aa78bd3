package api

import (
	"context"
	"net/http"
)

// listHandler serves the result of a read-only report.
func listHandler[T any](what string, fn func(context.Context) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := fn(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to load %s: %v", what, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleRooms(s AdminStore) http.HandlerFunc {
	return listHandler("rooms", s.ListRooms)
}

func handlePowerAlerts(s AdminStore) http.HandlerFunc {
	return listHandler("alerts", s.ListPowerAlerts)
}

func handleDailyUsage(s AdminStore) http.HandlerFunc {
	return listHandler("daily usage", s.DailyUsage)
}

func handleSummary(s AdminStore) http.HandlerFunc {
	return listHandler("summary", s.Summary)
}
