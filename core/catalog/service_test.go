package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"CadenceFM/core/clock"
	"CadenceFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory CatalogRepository that counts writes and can
// inject failures.
type memRepo struct {
	events   []model.Event
	writes   int
	readErr  error
	writeErr error
}

func (r *memRepo) ReadAll(ctx context.Context) ([]model.Event, error) {
	if r.readErr != nil {
		return nil, r.readErr
	}
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out, nil
}

func (r *memRepo) ReplaceAll(ctx context.Context, events []model.Event) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	stored := make([]model.Event, len(events))
	copy(stored, events)
	r.events = stored
	r.writes++
	return nil
}

// fakeCleaner records every batch it was asked to remove and can fail.
type fakeCleaner struct {
	batches [][]string
	err     error
}

func (c *fakeCleaner) RemoveAll(ctx context.Context, locators []string) error {
	c.batches = append(c.batches, locators)
	return c.err
}

func newTestService(t *testing.T) (*Service, *memRepo, *fakeCleaner) {
	t.Helper()
	normalizer, err := clock.NewNormalizer("+01:00")
	require.NoError(t, err)
	repo := &memRepo{}
	cleaner := &fakeCleaner{}
	return NewService(repo, cleaner, normalizer), repo, cleaner
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"name":      "Sunrise Session",
		"artist":    "DJ X",
		"startTime": "2024-01-01T00:00:00Z",
		"endTime":   "2024-01-01T02:00:00Z",
		"tracks": []interface{}{
			map[string]interface{}{
				"trackId":   "t1",
				"trackName": "Track 1",
				"trackUrl":  "https://cdn/t1.mp3",
				"duration":  300.0,
			},
		},
	}
}

func storedEvent(id string, start, end time.Time, urls ...string) model.Event {
	tracks := make([]model.Track, 0, len(urls))
	for i, u := range urls {
		tracks = append(tracks, model.Track{
			ID:       fmt.Sprintf("%s-t%d", id, i),
			Name:     fmt.Sprintf("Track %d", i),
			URL:      u,
			Duration: 60,
		})
	}
	return model.Event{
		ID:        id,
		Name:      "Event " + id,
		Artist:    "Artist",
		StartTime: start,
		EndTime:   end,
		Tracks:    tracks,
	}
}

func TestCreateEvent(t *testing.T) {
	svc, repo, _ := newTestService(t)

	event, err := svc.CreateEvent(context.Background(), validPayload())
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "Sunrise Session", event.Name)
	assert.Equal(t, "DJ X", event.Artist)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), event.StartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), event.EndTime)
	require.Len(t, repo.events, 1)
	assert.Equal(t, event.ID, repo.events[0].ID)
}

func TestCreateEventAssignsUniqueIDs(t *testing.T) {
	svc, repo, _ := newTestService(t)

	first, err := svc.CreateEvent(context.Background(), validPayload())
	require.NoError(t, err)
	second, err := svc.CreateEvent(context.Background(), validPayload())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, repo.events, 2)
}

func TestCreateEventDerivesEndFromTrackDurations(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validPayload()
	delete(payload, "endTime")
	payload["tracks"] = []interface{}{
		map[string]interface{}{"trackId": "t1", "trackName": "a", "trackUrl": "u1", "duration": 300.0},
		map[string]interface{}{"trackId": "t2", "trackName": "b", "trackUrl": "u2", "duration": 120.0},
	}

	event, err := svc.CreateEvent(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, event.StartTime.Add(420*time.Second), event.EndTime)
}

func TestCreateEventAcceptsWallClockInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validPayload()
	payload["startTime"] = "2024-01-01T01:00" // +01:00 local
	payload["endTime"] = "2024-01-01T03:00"

	event, err := svc.CreateEvent(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), event.StartTime)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), event.EndTime)
}

func TestCreateEventRejectsEndNotAfterStart(t *testing.T) {
	svc, repo, _ := newTestService(t)

	payload := validPayload()
	payload["endTime"] = payload["startTime"]

	_, err := svc.CreateEvent(context.Background(), payload)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "endTime", validationErr.Field)
	assert.Zero(t, repo.writes, "validation must reject before any storage write")
}

func TestCreateEventValidatesBeforeAnyWrite(t *testing.T) {
	svc, repo, _ := newTestService(t)

	for _, mutate := range []func(map[string]interface{}){
		func(p map[string]interface{}) { p["name"] = "" },
		func(p map[string]interface{}) { delete(p, "artist") },
		func(p map[string]interface{}) { p["tracks"] = []interface{}{} },
		func(p map[string]interface{}) { p["startTime"] = "garbage" },
		func(p map[string]interface{}) { p["coverUrl"] = 7.0 },
	} {
		payload := validPayload()
		mutate(payload)
		_, err := svc.CreateEvent(context.Background(), payload)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
	}
	assert.Zero(t, repo.writes)
}

func TestCreateEventReportsStorageWriteError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.writeErr = errors.New("disk full")

	_, err := svc.CreateEvent(context.Background(), validPayload())
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "write", storageErr.Op)
}

func TestListEventsSortedByStartTime(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.events = []model.Event{
		storedEvent("late", base.Add(48*time.Hour), base.Add(50*time.Hour), "https://cdn/l.mp3"),
		storedEvent("early", base, base.Add(2*time.Hour), "https://cdn/e.mp3"),
		storedEvent("mid", base.Add(24*time.Hour), base.Add(26*time.Hour), "https://cdn/m.mp3"),
	}

	events, err := svc.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{events[0].ID, events[1].ID, events[2].ID})

	// Presentation-time sort only: the stored document keeps insertion order.
	assert.Equal(t, "late", repo.events[0].ID)
}

func TestUpdateEventPartial(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	original := storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3")
	original.CoverURL = "https://cdn/cover.jpg"
	repo.events = []model.Event{original}

	updated, err := svc.UpdateEvent(context.Background(), "e1", map[string]interface{}{
		"name": "New Name",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, original.Artist, updated.Artist)
	assert.Equal(t, original.StartTime, updated.StartTime)
	assert.Equal(t, original.EndTime, updated.EndTime)
	assert.Equal(t, original.Tracks, updated.Tracks)
	assert.Equal(t, original.CoverURL, updated.CoverURL)
	assert.Equal(t, "New Name", repo.events[0].Name)
}

func TestUpdateEventNotFound(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.UpdateEvent(context.Background(), "missing", map[string]interface{}{"name": "x"})
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "missing", notFoundErr.EventID)
	assert.Zero(t, repo.writes)
}

func TestUpdateEventEnforcesTimeInvariantAfterApply(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.events = []model.Event{storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3")}

	_, err := svc.UpdateEvent(context.Background(), "e1", map[string]interface{}{
		"endTime": "2024-01-01T00:00:00Z",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Zero(t, repo.writes)
	assert.Equal(t, base.Add(2*time.Hour), repo.events[0].EndTime)
}

func TestUpdateEventClearsCoverWithEmptyString(t *testing.T) {
	svc, repo, _ := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	event := storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3")
	event.CoverURL = "https://cdn/cover.jpg"
	repo.events = []model.Event{event}

	updated, err := svc.UpdateEvent(context.Background(), "e1", map[string]interface{}{
		"coverUrl": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "", updated.CoverURL)
}

func TestUpdateEventDoesNotReclaimReplacedAssets(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.events = []model.Event{storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/old.mp3")}

	_, err := svc.UpdateEvent(context.Background(), "e1", map[string]interface{}{
		"tracks": []interface{}{
			map[string]interface{}{"trackId": "t9", "trackName": "new", "trackUrl": "https://cdn/new.mp3", "duration": 60.0},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, cleaner.batches, "replaced assets are not garbage-collected on update")
}

func TestDeleteEvent(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	event := storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3", "https://cdn/t2.mp3")
	event.CoverURL = "https://cdn/cover.jpg"
	keep := storedEvent("e2", base, base.Add(2*time.Hour), "https://cdn/keep.mp3")
	repo.events = []model.Event{event, keep}

	deletedID, err := svc.DeleteEvent(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", deletedID)

	require.Len(t, cleaner.batches, 1)
	assert.Equal(t, []string{"https://cdn/t1.mp3", "https://cdn/t2.mp3", "https://cdn/cover.jpg"}, cleaner.batches[0])
	require.Len(t, repo.events, 1)
	assert.Equal(t, "e2", repo.events[0].ID)
}

func TestDeleteEventNotFoundLeavesCatalogUntouched(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := []model.Event{storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3")}
	repo.events = before

	_, err := svc.DeleteEvent(context.Background(), "missing")
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Empty(t, cleaner.batches)
	assert.Zero(t, repo.writes)
	assert.Equal(t, before, repo.events)
}

func TestDeleteEventAbortsOnCleanerFailure(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := []model.Event{storedEvent("e1", base, base.Add(2*time.Hour), "https://cdn/t1.mp3")}
	repo.events = before
	cleaner.err = &UpstreamStorageError{Failed: []string{"https://cdn/t1.mp3"}, Err: errors.New("503")}

	_, err := svc.DeleteEvent(context.Background(), "e1")
	var upstreamErr *UpstreamStorageError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, repo.writes, "catalog must stay unchanged so the delete can be retried")
	assert.Equal(t, before, repo.events)
}

func TestDeleteAllEvents(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := storedEvent("e1", base, base.Add(time.Hour), "https://cdn/shared.mp3", "https://cdn/a.mp3")
	second := storedEvent("e2", base, base.Add(time.Hour), "https://cdn/shared.mp3", "https://cdn/b.mp3")
	repo.events = []model.Event{first, second}

	count, err := svc.DeleteAllEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Empty(t, repo.events)

	require.Len(t, cleaner.batches, 1)
	// A locator referenced by two events is deleted once.
	assert.Equal(t, []string{"https://cdn/shared.mp3", "https://cdn/a.mp3", "https://cdn/b.mp3"}, cleaner.batches[0])
}

func TestDeleteAllEventsAbortsOnCleanerFailure(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := []model.Event{
		storedEvent("e1", base, base.Add(time.Hour), "https://cdn/a.mp3"),
		storedEvent("e2", base, base.Add(time.Hour), "https://cdn/b.mp3"),
	}
	repo.events = before
	cleaner.err = &UpstreamStorageError{Failed: []string{"https://cdn/b.mp3"}, Err: errors.New("timeout")}

	_, err := svc.DeleteAllEvents(context.Background())
	var upstreamErr *UpstreamStorageError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, repo.writes, "partial failure must not partially clear the catalog")
	assert.Equal(t, before, repo.events)
}

func TestDeleteExpiredEvents(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := storedEvent("past", now.Add(-4*time.Hour), now.Add(-2*time.Hour), "https://cdn/past.mp3")
	future := storedEvent("future", now.Add(2*time.Hour), now.Add(4*time.Hour), "https://cdn/future.mp3")
	repo.events = []model.Event{past, future}

	count, err := svc.DeleteExpiredEvents(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, repo.events, 1)
	assert.Equal(t, "future", repo.events[0].ID)
	require.Len(t, cleaner.batches, 1)
	assert.Equal(t, []string{"https://cdn/past.mp3"}, cleaner.batches[0])
}

func TestDeleteExpiredEventsEndAtNowIsExpired(t *testing.T) {
	svc, repo, _ := newTestService(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.events = []model.Event{storedEvent("edge", now.Add(-time.Hour), now, "https://cdn/e.mp3")}

	count, err := svc.DeleteExpiredEvents(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, repo.events)
}

func TestDeleteExpiredEventsNothingExpired(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.events = []model.Event{storedEvent("future", now.Add(time.Hour), now.Add(2*time.Hour), "https://cdn/f.mp3")}

	count, err := svc.DeleteExpiredEvents(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Zero(t, repo.writes, "an empty sweep must not touch storage")
	assert.Empty(t, cleaner.batches)
}

func TestDeleteExpiredEventsAbortsOnCleanerFailure(t *testing.T) {
	svc, repo, cleaner := newTestService(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	before := []model.Event{
		storedEvent("past", now.Add(-4*time.Hour), now.Add(-2*time.Hour), "https://cdn/past.mp3"),
		storedEvent("future", now.Add(2*time.Hour), now.Add(4*time.Hour), "https://cdn/future.mp3"),
	}
	repo.events = before
	cleaner.err = &UpstreamStorageError{Failed: []string{"https://cdn/past.mp3"}, Err: errors.New("503")}

	_, err := svc.DeleteExpiredEvents(context.Background(), now)
	var upstreamErr *UpstreamStorageError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Zero(t, repo.writes)
	assert.Equal(t, before, repo.events)
}

func TestReadFailureIsStorageError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.readErr = errors.New("io error")

	_, err := svc.ListEvents(context.Background())
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "read", storageErr.Op)
}
