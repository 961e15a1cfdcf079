package api

import (
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mwhitfield/leapgate/internal/accessory"
)

// accessoryView is the JSON shape of one accessory.
type accessoryView struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	BridgeID   string    `json:"bridge_id"`
	DeviceType string    `json:"device_type"`
	Serial     string    `json:"serial"`
	CreatedAt  time.Time `json:"created_at"`
}

func viewOf(acc accessory.Accessory) accessoryView {
	return accessoryView{
		UUID:       acc.UUID,
		Name:       acc.Name,
		BridgeID:   acc.Context.BridgeID,
		DeviceType: acc.Context.Device.DeviceType,
		Serial:     acc.Context.Device.SerialNumber.String(),
		CreatedAt:  acc.CreatedAt,
	}
}

// listAccessoriesHandler returns every managed accessory.
func listAccessoriesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accs := deps.Index.All()
		views := make([]accessoryView, 0, len(accs))
		for _, acc := range accs {
			views = append(views, viewOf(acc))
		}
		sort.Slice(views, func(i, j int) bool { return views[i].UUID < views[j].UUID })
		respondJSON(w, http.StatusOK, views)
	}
}

// getAccessoryHandler returns one accessory by UUID.
func getAccessoryHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acc, ok := deps.Index.Get(chi.URLParam(r, "uuid"))
		if !ok {
			respondError(w, http.StatusNotFound, "accessory not found")
			return
		}
		respondJSON(w, http.StatusOK, viewOf(acc))
	}
}

// listBridgesHandler returns the state of every known bridge.
func listBridgesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, deps.Bridges.Bridges())
	}
}

// metricsHandler reports coarse runtime counters.
func metricsHandler(deps Deps, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := 0
		bridges := deps.Bridges.Bridges()
		for _, b := range bridges {
			if b.Connected {
				connected++
			}
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"accessories":          deps.Index.Len(),
			"bridges_known":        len(bridges),
			"bridges_connected":    connected,
			"bridges_unconfigured": len(deps.Bridges.Unconfigured()),
			"goroutines":           runtime.NumGoroutine(),
			"uptime_seconds":       int64(time.Since(started).Seconds()),
		})
	}
}

// healthHandler reports gateway liveness and store reachability.
func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if deps.Health != nil {
			if err := deps.Health(r.Context()); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		respondJSON(w, code, map[string]any{
			"status":      status,
			"version":     deps.Version,
			"accessories": deps.Index.Len(),
		})
	}
}
