package controllers

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"arxivmon/internal/models"
	"arxivmon/internal/monitor/interfaces"
	"arxivmon/internal/providers"
	"arxivmon/internal/services"
)

const maxRequestBodySize = 1 << 20 // 1 MB

const (
	cacheKeyPapers = "papers"
	cacheKeyStatus = "status"
	cacheKeyConfig = "config"
)

type ApiController struct {
	logger    providers.Logger
	service   services.MonitorServiceInterface
	cache     providers.CacheProviderInterface
	scheduler interfaces.SchedulerInterface
}

func NewApiController(
	logger providers.Logger,
	service services.MonitorServiceInterface,
	cache providers.CacheProviderInterface,
	scheduler interfaces.SchedulerInterface,
) *ApiController {
	return &ApiController{
		logger:    logger,
		service:   service,
		cache:     cache,
		scheduler: scheduler,
	}
}

func (ac *ApiController) writeJSON(w http.ResponseWriter, code int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.logger.Errorf(providers.TypeGet, "compute %s: %s", cacheKey, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetPapers returns every stored paper ordered newest-first, with is_new
// computed against the seen set.
func (ac *ApiController) GetPapers(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, cacheKeyPapers, func() (any, error) {
		return ac.service.Papers()
	})
}

// FetchNow triggers a manual fetch-and-merge, independent of the timer.
// A fetch already in flight yields 409 with a soft "already fetching"
// body rather than a second upstream batch.
func (ac *ApiController) FetchNow(w http.ResponseWriter, r *http.Request) {
	status, err := ac.service.FetchAndMerge(r.Context())
	if errors.Is(err, services.ErrFetchInProgress) {
		ac.writeJSON(w, http.StatusConflict, map[string]any{
			"status":  "already_fetching",
			"message": "fetch already in progress",
		})
		return
	}
	if err != nil {
		ac.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": status.Message,
		})
		return
	}

	ac.cache.Del(cacheKeyPapers)
	ac.cache.Del(cacheKeyStatus)

	ac.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "success",
		"papers_fetched": status.PapersFound,
		"new_papers":     status.NewPapers,
	})
}

func (ac *ApiController) GetStatus(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, cacheKeyStatus, func() (any, error) {
		return ac.service.Status()
	})
}

func (ac *ApiController) MarkAllSeen(w http.ResponseWriter, r *http.Request) {
	count, err := ac.service.MarkAllSeen()
	if err != nil {
		ac.logger.Errorf(providers.TypePost, "mark all seen: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Del(cacheKeyPapers)

	ac.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"seen_ids": count,
	})
}

// ToggleAutoFetch flips the scheduler flag and reports the new state.
func (ac *ApiController) ToggleAutoFetch(w http.ResponseWriter, r *http.Request) {
	enabled := ac.scheduler.Toggle()
	ac.writeJSON(w, http.StatusOK, map[string]any{"enabled": enabled})
}

func (ac *ApiController) GetConfig(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, cacheKeyConfig, func() (any, error) {
		return ac.service.Categories()
	})
}

func (ac *ApiController) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var categories []models.CategoryConfig
	if err := json.NewDecoder(r.Body).Decode(&categories); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if err := ac.service.SetCategories(categories); err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			ac.writeJSON(w, http.StatusBadRequest, map[string]any{
				"status":  "error",
				"message": err.Error(),
			})
			return
		}
		ac.logger.Errorf(providers.TypePost, "save config: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Del(cacheKeyConfig)

	ac.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "configuration updated",
	})
}

// ClearData empties papers, seen ids and status together; the category
// config survives.
func (ac *ApiController) ClearData(w http.ResponseWriter, r *http.Request) {
	if err := ac.service.ClearAll(); err != nil {
		ac.logger.Errorf(providers.TypePost, "clear data: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Del(cacheKeyPapers)
	ac.cache.Del(cacheKeyStatus)

	ac.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "all data cleared",
	})
}
