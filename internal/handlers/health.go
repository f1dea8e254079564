package handlers

import (
	"net/http"
	"time"

	applog "prepcost/internal/log"
)

type healthResponse struct {
	Status  string    `json:"status"`
	Engine  bool      `json:"engine"`
	Metrics bool      `json:"metrics"`
	Time    time.Time `json:"time"`
}

// Health reports readiness for infrastructure probes. The process is not
// ready until an engine has been configured.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status:  "ok",
		Engine:  costEngine != nil,
		Metrics: registry != nil,
		Time:    time.Now().UTC(),
	}

	status := http.StatusOK
	if !resp.Engine {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
