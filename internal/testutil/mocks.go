package testutil

import (
	"context"
	"sync"
	"time"

	"arxivmon/internal/models"
	"arxivmon/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu            sync.Mutex
	Requests      int
	CacheHits     int
	CacheMisses   int
	FetchResults  []string
	FetchDuration []time.Duration
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}

func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}

func (m *MockMetrics) IncCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *MockMetrics) IncCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *MockMetrics) IncFetchesTotal(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchResults = append(m.FetchResults, result)
}

func (m *MockMetrics) ObserveFetchDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchDuration = append(m.FetchDuration, d)
}

// MockFeedClient implements arxiv.ClientInterface. FetchFn overrides the
// canned Papers response when set.
type MockFeedClient struct {
	mu      sync.Mutex
	Papers  []models.Paper
	Err     error
	FetchFn func(ctx context.Context, category string, maxResults int) ([]models.Paper, error)
	Calls   []string
}

func (m *MockFeedClient) FetchCategory(ctx context.Context, category string, maxResults int) ([]models.Paper, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, category)
	m.mu.Unlock()

	if m.FetchFn != nil {
		return m.FetchFn(ctx, category, maxResults)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Papers, nil
}

func (m *MockFeedClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockCache implements providers.CacheProviderInterface over a plain map.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}
