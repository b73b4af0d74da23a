package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"arxivmon/internal/monitor/interfaces"
	"arxivmon/internal/storage"
)

type HealthController struct {
	store     storage.StorageInterface
	scheduler interfaces.SchedulerInterface
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Papers        int     `json:"papers"`
	SeenIds       int     `json:"seen_ids"`
	AutoFetch     bool    `json:"auto_fetch"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Papers:        hc.store.PaperCount(),
		SeenIds:       hc.store.SeenCount(),
		AutoFetch:     hc.scheduler.Enabled(),
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(store storage.StorageInterface, scheduler interfaces.SchedulerInterface) *HealthController {
	return &HealthController{
		store:     store,
		scheduler: scheduler,
		startTime: time.Now(),
	}
}
