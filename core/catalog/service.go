package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"CadenceFM/core/clock"
	"CadenceFM/logger"
	"CadenceFM/model"
	"CadenceFM/repository"

	"github.com/google/uuid"
)

// AssetCleaner deletes the bucket objects behind a set of locators as a
// best-effort batch. Implemented by storage.Cleaner.
type AssetCleaner interface {
	RemoveAll(ctx context.Context, locators []string) error
}

// Service orchestrates the catalog operations. Every destructive path runs
// the same pipeline: validate, delete assets, persist — and aborts without
// persisting on any failure, so the catalog document stays the single source
// of truth for which assets must still exist.
//
// Mutations are serialized behind a mutex: the catalog is replaced at
// whole-document granularity and the last write wins, so two racing writers
// must at least not interleave.
type Service struct {
	repo       repository.CatalogRepository
	cleaner    AssetCleaner
	normalizer *clock.Normalizer

	mu sync.Mutex
}

// NewService creates a catalog service.
func NewService(repo repository.CatalogRepository, cleaner AssetCleaner, normalizer *clock.Normalizer) *Service {
	return &Service{
		repo:       repo,
		cleaner:    cleaner,
		normalizer: normalizer,
	}
}

// CreateEvent validates the full payload, assigns a fresh event id and
// appends the event to the catalog. Validation failures reject the payload
// before any storage write.
func (s *Service) CreateEvent(ctx context.Context, payload map[string]interface{}) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := normalizeString(payload["name"], "name")
	if err != nil {
		return nil, err
	}
	artist, err := normalizeString(payload["artist"], "artist")
	if err != nil {
		return nil, err
	}
	tracks, err := normalizeTracks(payload["tracks"])
	if err != nil {
		return nil, err
	}
	cover, err := normalizeCover(payload["coverUrl"])
	if err != nil {
		return nil, err
	}

	start, err := s.parseTimestamp(payload["startTime"], "startTime")
	if err != nil {
		return nil, err
	}

	var end time.Time
	if raw, present := payload["endTime"]; present && raw != nil && raw != "" {
		end, err = s.parseTimestamp(raw, "endTime")
		if err != nil {
			return nil, err
		}
	} else {
		// No end supplied: derive it from the track durations.
		end = clock.DeriveEnd(start, totalDuration(tracks))
		logger.Debug("Derived event end time",
			logger.String("endTime", s.normalizer.FormatWithOffset(end)))
	}
	if !end.After(start) {
		return nil, newValidationError("endTime", "must be after startTime")
	}

	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}

	event := model.Event{
		ID:        uuid.NewString(),
		Name:      name,
		Artist:    artist,
		StartTime: start,
		EndTime:   end,
		Tracks:    tracks,
		CoverURL:  cover,
	}
	events = append(events, event)

	if err := s.repo.ReplaceAll(ctx, events); err != nil {
		return nil, &StorageError{Op: "write", Err: err}
	}

	logger.Info("Event created",
		logger.String("eventId", event.ID),
		logger.String("name", event.Name),
		logger.Int("tracks", len(event.Tracks)))
	return &event, nil
}

// ListEvents returns all events sorted by start time ascending. The sort is
// presentation-time only; the stored document keeps insertion order.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events, nil
}

// UpdateEvent applies a partial update: every field present in the payload is
// re-validated and overwritten, fields absent from the payload keep their
// prior value. Assets no longer referenced after a track or cover change are
// not reclaimed here.
func (s *Service) UpdateEvent(ctx context.Context, id string, payload map[string]interface{}) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return nil, &StorageError{Op: "read", Err: err}
	}
	idx := indexOf(events, id)
	if idx < 0 {
		return nil, &NotFoundError{EventID: id}
	}

	event := events[idx]

	if raw, present := payload["name"]; present {
		if event.Name, err = normalizeString(raw, "name"); err != nil {
			return nil, err
		}
	}
	if raw, present := payload["artist"]; present {
		if event.Artist, err = normalizeString(raw, "artist"); err != nil {
			return nil, err
		}
	}
	if raw, present := payload["startTime"]; present {
		if event.StartTime, err = s.parseTimestamp(raw, "startTime"); err != nil {
			return nil, err
		}
	}
	if raw, present := payload["endTime"]; present {
		if event.EndTime, err = s.parseTimestamp(raw, "endTime"); err != nil {
			return nil, err
		}
	}
	if raw, present := payload["tracks"]; present {
		if event.Tracks, err = normalizeTracks(raw); err != nil {
			return nil, err
		}
	}
	if raw, present := payload["coverUrl"]; present {
		if event.CoverURL, err = normalizeCover(raw); err != nil {
			return nil, err
		}
	}

	if !event.EndTime.After(event.StartTime) {
		return nil, newValidationError("endTime", "must be after startTime")
	}

	events[idx] = event
	if err := s.repo.ReplaceAll(ctx, events); err != nil {
		return nil, &StorageError{Op: "write", Err: err}
	}

	logger.Info("Event updated", logger.String("eventId", event.ID))
	return &event, nil
}

// DeleteEvent deletes one event's assets and then removes it from the
// catalog. If any asset deletion fails the catalog is left untouched, so
// both stores stay consistent and a retry remains possible.
func (s *Service) DeleteEvent(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return "", &StorageError{Op: "read", Err: err}
	}
	idx := indexOf(events, id)
	if idx < 0 {
		return "", &NotFoundError{EventID: id}
	}

	if err := s.cleaner.RemoveAll(ctx, events[idx].AssetLocators()); err != nil {
		return "", err
	}

	remaining := append(events[:idx:idx], events[idx+1:]...)
	if err := s.repo.ReplaceAll(ctx, remaining); err != nil {
		return "", &StorageError{Op: "write", Err: err}
	}

	logger.Info("Event deleted", logger.String("eventId", id))
	return id, nil
}

// DeleteAllEvents deletes every event's assets and then persists an empty
// catalog. Partial asset failure leaves the catalog fully intact.
func (s *Service) DeleteAllEvents(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return 0, &StorageError{Op: "read", Err: err}
	}

	if err := s.cleaner.RemoveAll(ctx, unionLocators(events)); err != nil {
		return 0, err
	}

	if err := s.repo.ReplaceAll(ctx, []model.Event{}); err != nil {
		return 0, &StorageError{Op: "write", Err: err}
	}

	logger.Info("Catalog cleared", logger.Int("deleted", len(events)))
	return len(events), nil
}

// DeleteExpiredEvents removes every event whose end time is at or before
// now. With nothing expired it succeeds without touching storage.
func (s *Service) DeleteExpiredEvents(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.repo.ReadAll(ctx)
	if err != nil {
		return 0, &StorageError{Op: "read", Err: err}
	}

	var expired, active []model.Event
	for _, event := range events {
		if event.Expired(now) {
			expired = append(expired, event)
		} else {
			active = append(active, event)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.cleaner.RemoveAll(ctx, unionLocators(expired)); err != nil {
		return 0, err
	}

	if active == nil {
		active = []model.Event{}
	}
	if err := s.repo.ReplaceAll(ctx, active); err != nil {
		return 0, &StorageError{Op: "write", Err: err}
	}

	logger.Info("Expired events deleted",
		logger.Int("deleted", len(expired)),
		logger.Time("now", now))
	return len(expired), nil
}

func (s *Service) parseTimestamp(v interface{}, field string) (time.Time, error) {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return time.Time{}, newValidationError(field, "must be a non-empty timestamp string")
	}
	t, err := s.normalizer.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, newValidationError(field, err.Error())
	}
	return t, nil
}

func indexOf(events []model.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func totalDuration(tracks []model.Track) float64 {
	var total float64
	for _, t := range tracks {
		total += t.Duration
	}
	return total
}

// unionLocators collects the deduplicated locators of all given events.
func unionLocators(events []model.Event) []string {
	seen := make(map[string]bool)
	var locators []string
	for i := range events {
		for _, locator := range events[i].AssetLocators() {
			if seen[locator] {
				continue
			}
			seen[locator] = true
			locators = append(locators, locator)
		}
	}
	return locators
}
