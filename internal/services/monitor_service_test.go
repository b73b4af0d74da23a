package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxivmon/internal/models"
	"arxivmon/internal/storage"
	"arxivmon/internal/structures"
	"arxivmon/internal/testutil"
)

func serviceConfig(dir string) *structures.Config {
	return &structures.Config{
		Storage: structures.StorageConfig{Dir: dir},
		Fetch: structures.FetchConfig{
			Interval:   time.Hour,
			MaxResults: 50,
		},
	}
}

func newTestService(t *testing.T, client *testutil.MockFeedClient) (MonitorServiceInterface, storage.StorageInterface) {
	t.Helper()
	conf := serviceConfig(t.TempDir())
	codec, err := storage.NewSnapshotCodec(conf)
	require.NoError(t, err)
	store, err := storage.NewDataStorage(conf, codec, &testutil.MockLogger{})
	require.NoError(t, err)

	svc := NewMonitorService(conf, &testutil.MockLogger{}, store, client, &testutil.MockMetrics{})
	return svc, store
}

func paper(id string, updated time.Time) models.Paper {
	return models.Paper{
		ID:        id,
		Title:     "Paper " + id,
		Abstract:  "Abstract " + id,
		Authors:   []string{"Author"},
		Published: updated.Add(-24 * time.Hour),
		Updated:   updated,
		ArxivURL:  "https://arxiv.org/abs/" + id,
		PdfURL:    "https://arxiv.org/pdf/" + id + ".pdf",
		FetchedAt: updated,
	}
}

func singleCategory(t *testing.T, store storage.StorageInterface) {
	t.Helper()
	require.NoError(t, store.SaveConfig([]models.CategoryConfig{
		{Category: "cs.CV", Enabled: true, MaxResults: 10},
	}))
}

func TestFetchAndMerge_StoresNewPapers(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{
		paper("2301.00001", base),
		paper("2301.00002", base.Add(time.Hour)),
	}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	status, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateSuccess, status.State)
	assert.Equal(t, 2, status.PapersFound)
	assert.Equal(t, 2, status.NewPapers)
	require.NotNil(t, status.LastFetch)

	papers, err := svc.Papers()
	require.NoError(t, err)
	require.Len(t, papers, 2)
	for _, p := range papers {
		assert.True(t, p.IsNew)
	}
}

func TestFetchAndMerge_Idempotent(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{
		paper("2301.00001", base),
		paper("2301.00002", base),
	}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	first, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewPapers)

	second, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, second.PapersFound)
	assert.Equal(t, 0, second.NewPapers)

	papers, err := svc.Papers()
	require.NoError(t, err)
	assert.Len(t, papers, 2)
}

func TestFetchAndMerge_KnownIdKeepsFirstWrite(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	original := paper("2301.00001", base)
	client := &testutil.MockFeedClient{Papers: []models.Paper{original}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	_, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)

	// Re-fetch returns the same id with a changed title and a newer
	// updated timestamp; only the timestamp may move.
	refetched := original
	refetched.Title = "Renamed upstream"
	refetched.Updated = base.Add(2 * time.Hour)
	client.Papers = []models.Paper{refetched}

	status, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, status.NewPapers)

	papers, err := svc.Papers()
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, original.Title, papers[0].Title)
	assert.Equal(t, refetched.Updated, papers[0].Updated)
}

func TestFetchAndMerge_UpstreamError(t *testing.T) {
	client := &testutil.MockFeedClient{Err: errors.New("connection refused")}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	status, err := svc.FetchAndMerge(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.StateError, status.State)
	assert.Contains(t, status.Message, "connection refused")

	// Status snapshot reflects the failure
	persisted, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, models.StateError, persisted.State)
}

func TestFetchAndMerge_ErrorKeepsLastSuccessTime(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{paper("2301.00001", base)}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	ok, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ok.LastFetch)

	client.Err = errors.New("boom")
	failed, err := svc.FetchAndMerge(context.Background())
	require.Error(t, err)
	require.NotNil(t, failed.LastFetch)
	assert.Equal(t, *ok.LastFetch, *failed.LastFetch)
}

func TestFetchAndMerge_SkipsDisabledCategories(t *testing.T) {
	client := &testutil.MockFeedClient{}
	svc, store := newTestService(t, client)
	require.NoError(t, store.SaveConfig([]models.CategoryConfig{
		{Category: "cs.CV", Enabled: true, MaxResults: 10},
		{Category: "cs.LG", Enabled: false, MaxResults: 10},
	}))

	_, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cs.CV"}, client.Calls)
}

func TestFetchAndMerge_Exclusive(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &testutil.MockFeedClient{
		FetchFn: func(ctx context.Context, category string, maxResults int) ([]models.Paper, error) {
			close(started)
			<-release
			return nil, nil
		},
	}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	done := make(chan error, 1)
	go func() {
		_, err := svc.FetchAndMerge(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.FetchAndMerge(context.Background())
	assert.ErrorIs(t, err, ErrFetchInProgress)

	close(release)
	require.NoError(t, <-done)

	// Exactly one upstream query batch ran
	assert.Equal(t, 1, client.CallCount())
}

func TestFetchAndMerge_RecoversPanic(t *testing.T) {
	client := &testutil.MockFeedClient{
		FetchFn: func(ctx context.Context, category string, maxResults int) ([]models.Paper, error) {
			panic("feed client exploded")
		},
	}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	status, err := svc.FetchAndMerge(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed client exploded")
	assert.Equal(t, models.StateError, status.State)

	// Lock was released: the next fetch runs
	client.FetchFn = nil
	_, err = svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
}

func TestPapers_SortedByUpdatedDescending(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{
		paper("2301.00001", base),
		paper("2301.00003", base.Add(2*time.Hour)),
		paper("2301.00002", base.Add(time.Hour)),
	}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	_, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)

	papers, err := svc.Papers()
	require.NoError(t, err)
	require.Len(t, papers, 3)
	assert.Equal(t, "2301.00003", papers[0].ID)
	assert.Equal(t, "2301.00002", papers[1].ID)
	assert.Equal(t, "2301.00001", papers[2].ID)
}

func TestMarkAllSeen_ThenNewPapersStayNew(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{
		paper("2301.00001", base),
		paper("2301.00002", base),
	}}
	svc, store := newTestService(t, client)
	singleCategory(t, store)

	_, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)

	count, err := svc.MarkAllSeen()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	papers, err := svc.Papers()
	require.NoError(t, err)
	for _, p := range papers {
		assert.False(t, p.IsNew)
	}

	// A later fetch brings one more paper; only it is new
	client.Papers = append(client.Papers, paper("2301.00003", base.Add(time.Hour)))
	_, err = svc.FetchAndMerge(context.Background())
	require.NoError(t, err)

	papers, err = svc.Papers()
	require.NoError(t, err)
	require.Len(t, papers, 3)
	for _, p := range papers {
		assert.Equal(t, p.ID == "2301.00003", p.IsNew)
	}
}

func TestClearAll_PreservesCategories(t *testing.T) {
	base := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)
	client := &testutil.MockFeedClient{Papers: []models.Paper{paper("2301.00001", base)}}
	svc, store := newTestService(t, client)
	categories := []models.CategoryConfig{{Category: "cs.CR", Enabled: true, MaxResults: 20}}
	require.NoError(t, store.SaveConfig(categories))

	_, err := svc.FetchAndMerge(context.Background())
	require.NoError(t, err)
	_, err = svc.MarkAllSeen()
	require.NoError(t, err)

	require.NoError(t, svc.ClearAll())

	papers, err := svc.Papers()
	require.NoError(t, err)
	assert.Empty(t, papers)

	status, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, status.State)

	loaded, err := svc.Categories()
	require.NoError(t, err)
	assert.Equal(t, categories, loaded)
}

func TestSetCategories_Validation(t *testing.T) {
	svc, _ := newTestService(t, &testutil.MockFeedClient{})

	err := svc.SetCategories(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = svc.SetCategories([]models.CategoryConfig{{Category: "", Enabled: true}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSetCategories_DefaultsMaxResults(t *testing.T) {
	svc, _ := newTestService(t, &testutil.MockFeedClient{})

	require.NoError(t, svc.SetCategories([]models.CategoryConfig{{Category: "cs.CV", Enabled: true}}))

	loaded, err := svc.Categories()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.DefaultMaxResults, loaded[0].MaxResults)
}

func TestStatus_IdleBeforeFirstFetch(t *testing.T) {
	svc, _ := newTestService(t, &testutil.MockFeedClient{})

	status, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, status.State)
	assert.Nil(t, status.LastFetch)
}
