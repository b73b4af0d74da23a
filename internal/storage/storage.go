package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"arxivmon/internal/models"
	"arxivmon/internal/providers"
	"arxivmon/internal/structures"
)

const (
	papersFile = "papers.json"
	seenFile   = "seen_ids.json"
	configFile = "config.json"
	statusFile = "status.json"
)

type StorageInterface interface {
	LoadPapers() (map[string]models.Paper, error)
	SavePapers(papers map[string]models.Paper) error
	LoadSeen() (map[string]struct{}, error)
	SaveSeen(seen map[string]struct{}) error
	LoadConfig() ([]models.CategoryConfig, error)
	SaveConfig(categories []models.CategoryConfig) error
	LoadStatus() (models.FetchStatus, error)
	SaveStatus(status models.FetchStatus) error
	Clear() error
	PaperCount() int
	SeenCount() int
}

// DataStorage keeps each entity in its own snapshot file under the data
// directory. Every write replaces the whole file via temp-then-rename,
// so readers always see either the old or the new complete snapshot.
// Callers that read-modify-write must serialize themselves; the service
// layer holds that lock.
type DataStorage struct {
	dir    string
	codec  *SnapshotCodec
	logger providers.Logger
}

func NewDataStorage(conf *structures.Config, codec *SnapshotCodec, logger providers.Logger) (StorageInterface, error) {
	if err := os.MkdirAll(conf.Storage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DataStorage{
		dir:    conf.Storage.Dir,
		codec:  codec,
		logger: logger,
	}, nil
}

func (ds *DataStorage) LoadPapers() (map[string]models.Paper, error) {
	papers := make(map[string]models.Paper)
	if _, err := ds.readSnapshot(papersFile, &papers); err != nil {
		return nil, err
	}
	return papers, nil
}

func (ds *DataStorage) SavePapers(papers map[string]models.Paper) error {
	return ds.writeSnapshot(papersFile, papers)
}

func (ds *DataStorage) LoadSeen() (map[string]struct{}, error) {
	var ids []string
	if _, err := ds.readSnapshot(seenFile, &ids); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

func (ds *DataStorage) SaveSeen(seen map[string]struct{}) error {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	// Stable file content for identical sets
	sort.Strings(ids)
	return ds.writeSnapshot(seenFile, ids)
}

func (ds *DataStorage) LoadConfig() ([]models.CategoryConfig, error) {
	var categories []models.CategoryConfig
	found, err := ds.readSnapshot(configFile, &categories)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.DefaultCategories(), nil
	}
	return categories, nil
}

func (ds *DataStorage) SaveConfig(categories []models.CategoryConfig) error {
	return ds.writeSnapshot(configFile, categories)
}

func (ds *DataStorage) LoadStatus() (models.FetchStatus, error) {
	var status models.FetchStatus
	found, err := ds.readSnapshot(statusFile, &status)
	if err != nil {
		return models.FetchStatus{}, err
	}
	if !found {
		return models.FetchStatus{
			State:   models.StateIdle,
			Message: "no fetches performed yet",
		}, nil
	}
	return status, nil
}

func (ds *DataStorage) SaveStatus(status models.FetchStatus) error {
	return ds.writeSnapshot(statusFile, status)
}

// Clear resets papers, seen ids and status together. The category config
// is user intent, not fetched data, and survives.
func (ds *DataStorage) Clear() error {
	if err := ds.SavePapers(map[string]models.Paper{}); err != nil {
		return err
	}
	if err := ds.SaveSeen(map[string]struct{}{}); err != nil {
		return err
	}
	return ds.SaveStatus(models.FetchStatus{
		State:   models.StateIdle,
		Message: "all data cleared",
	})
}

func (ds *DataStorage) PaperCount() int {
	papers, err := ds.LoadPapers()
	if err != nil {
		return 0
	}
	return len(papers)
}

func (ds *DataStorage) SeenCount() int {
	seen, err := ds.LoadSeen()
	if err != nil {
		return 0
	}
	return len(seen)
}

func (ds *DataStorage) writeSnapshot(name string, v any) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data, err := ds.codec.Encode(jsonData)
	if err != nil {
		return err
	}

	target := filepath.Join(ds.dir, name)
	tmpFile := target + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, target)
}

// readSnapshot reports whether the file existed; a missing snapshot is
// not an error, the caller supplies the zero value.
func (ds *DataStorage) readSnapshot(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(ds.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	decoded, err := ds.codec.Decode(data)
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(decoded, v); err != nil {
		return false, fmt.Errorf("corrupt snapshot %s: %w", name, err)
	}
	return true, nil
}

// NewPaperCounter exposes the storage counts to the metrics provider.
func NewPaperCounter(s StorageInterface) providers.PaperCounter {
	return s
}
