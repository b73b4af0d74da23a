package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"arxivmon/internal/arxiv"
	"arxivmon/internal/models"
	"arxivmon/internal/providers"
	"arxivmon/internal/storage"
	"arxivmon/internal/structures"
)

// ErrFetchInProgress is returned when a fetch is triggered while another
// one (scheduled or manual) is still running. Callers treat it as a soft
// no-op, not a failure.
var ErrFetchInProgress = errors.New("fetch already in progress")

// ErrInvalidConfig is returned when a submitted category list cannot be
// accepted.
var ErrInvalidConfig = errors.New("invalid category config")

type MonitorServiceInterface interface {
	FetchAndMerge(ctx context.Context) (models.FetchStatus, error)
	Papers() ([]models.Paper, error)
	MarkAllSeen() (int, error)
	ClearAll() error
	Categories() ([]models.CategoryConfig, error)
	SetCategories(categories []models.CategoryConfig) error
	Status() (models.FetchStatus, error)
}

// MonitorService coordinates the feed client and the snapshot storage.
// fetchMu guarantees at most one upstream query batch and one merge in
// flight; stateMu serializes every read-modify-write cycle on the
// snapshot files so merges, seen updates and clears never interleave.
type MonitorService struct {
	conf    *structures.Config
	logger  providers.Logger
	store   storage.StorageInterface
	client  arxiv.ClientInterface
	metrics providers.MetricsProviderInterface

	fetchMu sync.Mutex
	stateMu sync.Mutex
}

func NewMonitorService(
	conf *structures.Config,
	logger providers.Logger,
	store storage.StorageInterface,
	client arxiv.ClientInterface,
	metrics providers.MetricsProviderInterface,
) MonitorServiceInterface {
	return &MonitorService{
		conf:    conf,
		logger:  logger,
		store:   store,
		client:  client,
		metrics: metrics,
	}
}

// FetchAndMerge queries every enabled category, merges the batch into
// storage and records the outcome in the status snapshot. A concurrent
// call returns ErrFetchInProgress without touching anything. Panics are
// recovered into an error status so a bad fetch never takes down the
// process.
func (ms *MonitorService) FetchAndMerge(ctx context.Context) (status models.FetchStatus, err error) {
	if !ms.fetchMu.TryLock() {
		return models.FetchStatus{}, ErrFetchInProgress
	}
	defer ms.fetchMu.Unlock()

	start := time.Now()
	lastSuccess := ms.lastFetchTime()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
			status = ms.failFetch(lastSuccess, err)
		}
	}()

	ms.recordStatus(models.FetchStatus{
		State:     models.StateFetching,
		LastFetch: lastSuccess,
		Message:   "fetch in progress",
	})

	categories, err := ms.store.LoadConfig()
	if err != nil {
		return ms.failFetch(lastSuccess, fmt.Errorf("load config: %w", err)), err
	}

	var batch []models.Paper
	for _, cat := range categories {
		if !cat.Enabled {
			continue
		}
		papers, ferr := ms.client.FetchCategory(ctx, cat.Category, cat.MaxResults)
		if ferr != nil {
			err = fmt.Errorf("fetch %s: %w", cat.Category, ferr)
			return ms.failFetch(lastSuccess, err), err
		}
		ms.logger.Infof(providers.TypeFetch, "fetched %d entries for %s", len(papers), cat.Category)
		batch = append(batch, papers...)
	}

	newCount, total, err := ms.merge(batch)
	if err != nil {
		err = fmt.Errorf("merge batch: %w", err)
		return ms.failFetch(lastSuccess, err), err
	}

	now := time.Now().UTC()
	status = models.FetchStatus{
		State:       models.StateSuccess,
		LastFetch:   &now,
		PapersFound: len(batch),
		NewPapers:   newCount,
		Message:     fmt.Sprintf("fetched %d papers, %d new", len(batch), newCount),
	}
	ms.recordStatus(status)

	ms.metrics.IncFetchesTotal("success")
	ms.metrics.ObserveFetchDuration(time.Since(start))
	ms.logger.Infof(providers.TypeFetch, "fetch complete: %d fetched, %d new, %d stored", len(batch), newCount, total)

	return status, nil
}

// merge inserts papers whose id is not yet stored. For a known id only
// the Updated timestamp is refreshed from the new response; everything
// else is first-write-wins. Returns the count of genuinely new records
// and the stored total.
func (ms *MonitorService) merge(batch []models.Paper) (int, int, error) {
	ms.stateMu.Lock()
	defer ms.stateMu.Unlock()

	papers, err := ms.store.LoadPapers()
	if err != nil {
		return 0, 0, err
	}

	newCount := 0
	for _, p := range batch {
		existing, ok := papers[p.ID]
		if ok {
			if p.Updated.After(existing.Updated) {
				existing.Updated = p.Updated
				papers[p.ID] = existing
			}
			continue
		}
		papers[p.ID] = p
		newCount++
	}

	if err := ms.store.SavePapers(papers); err != nil {
		return 0, 0, err
	}
	return newCount, len(papers), nil
}

// Papers returns the stored collection ordered by Updated descending,
// with IsNew derived against the seen set at call time.
func (ms *MonitorService) Papers() ([]models.Paper, error) {
	papers, err := ms.store.LoadPapers()
	if err != nil {
		return nil, err
	}
	seen, err := ms.store.LoadSeen()
	if err != nil {
		return nil, err
	}

	list := make([]models.Paper, 0, len(papers))
	for _, p := range papers {
		_, wasSeen := seen[p.ID]
		p.IsNew = !wasSeen
		list = append(list, p)
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].Updated.Equal(list[j].Updated) {
			return list[i].Updated.After(list[j].Updated)
		}
		return list[i].ID < list[j].ID
	})

	return list, nil
}

// MarkAllSeen adds every currently stored id to the seen set and returns
// how many ids the set now holds.
func (ms *MonitorService) MarkAllSeen() (int, error) {
	ms.stateMu.Lock()
	defer ms.stateMu.Unlock()

	papers, err := ms.store.LoadPapers()
	if err != nil {
		return 0, err
	}
	seen, err := ms.store.LoadSeen()
	if err != nil {
		return 0, err
	}

	for id := range papers {
		seen[id] = struct{}{}
	}

	if err := ms.store.SaveSeen(seen); err != nil {
		return 0, err
	}
	return len(seen), nil
}

func (ms *MonitorService) ClearAll() error {
	ms.stateMu.Lock()
	defer ms.stateMu.Unlock()

	ms.logger.Infof(providers.TypeApp, "clearing papers, seen ids and status")
	return ms.store.Clear()
}

func (ms *MonitorService) Categories() ([]models.CategoryConfig, error) {
	return ms.store.LoadConfig()
}

func (ms *MonitorService) SetCategories(categories []models.CategoryConfig) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: empty category list", ErrInvalidConfig)
	}
	for i := range categories {
		if categories[i].Category == "" {
			return fmt.Errorf("%w: empty category code at index %d", ErrInvalidConfig, i)
		}
		if categories[i].MaxResults <= 0 {
			categories[i].MaxResults = models.DefaultMaxResults
		}
	}

	ms.stateMu.Lock()
	defer ms.stateMu.Unlock()
	return ms.store.SaveConfig(categories)
}

func (ms *MonitorService) Status() (models.FetchStatus, error) {
	return ms.store.LoadStatus()
}

func (ms *MonitorService) lastFetchTime() *time.Time {
	status, err := ms.store.LoadStatus()
	if err != nil {
		return nil
	}
	return status.LastFetch
}

func (ms *MonitorService) failFetch(lastSuccess *time.Time, ferr error) models.FetchStatus {
	status := models.FetchStatus{
		State:     models.StateError,
		LastFetch: lastSuccess,
		Message:   ferr.Error(),
	}
	ms.recordStatus(status)
	ms.metrics.IncFetchesTotal("error")
	ms.logger.Errorf(providers.TypeFetch, "fetch failed: %s", ferr)
	return status
}

func (ms *MonitorService) recordStatus(status models.FetchStatus) {
	ms.stateMu.Lock()
	defer ms.stateMu.Unlock()

	if err := ms.store.SaveStatus(status); err != nil {
		ms.logger.Errorf(providers.TypeApp, "persist status: %s", err)
	}
}
