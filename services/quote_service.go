package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"train-reservation/models"
	"train-reservation/pricing"
)

// ScheduleSource loads the stop list of a train
type ScheduleSource interface {
	GetScheduleForTrain(ctx context.Context, trainID int) (models.Route, error)
}

// StationSource resolves station ids to stations
type StationSource interface {
	GetStation(ctx context.Context, id int) (*models.Station, error)
}

// RecordMirror shares consistency records between replicas.
// Implementations must treat a miss as (record{}, false, nil).
type RecordMirror interface {
	Publish(ctx context.Context, record pricing.ConsistencyRecord) error
	Lookup(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, bool, error)
	Invalidate(ctx context.Context, trainID int) error
}

// QuoteService is the single entry point to the consistency cache.
// Search, booking and the quote endpoint all read their numbers through it.
type QuoteService struct {
	cache     *pricing.Cache
	schedules ScheduleSource
	stations  StationSource
	mirror    RecordMirror
}

// NewQuoteService creates a QuoteService. mirror may be nil.
func NewQuoteService(cache *pricing.Cache, schedules ScheduleSource, stations StationSource, mirror RecordMirror) *QuoteService {
	return &QuoteService{
		cache:     cache,
		schedules: schedules,
		stations:  stations,
		mirror:    mirror,
	}
}

// quoteAttempts bounds how often a quote restarts because the schedule changed underneath it
const quoteAttempts = 3

// Quote returns the consistency record of a leg, computing and publishing it on first use
func (s *QuoteService) Quote(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, error) {
	if record, ok := s.cache.Lookup(trainID, originID, destinationID); ok {
		return record, nil
	}

	if record, ok := s.fromMirror(ctx, trainID, originID, destinationID); ok {
		return record, nil
	}

	origin, err := s.stations.GetStation(ctx, originID)
	if err != nil {
		return pricing.ConsistencyRecord{}, err
	}
	destination, err := s.stations.GetStation(ctx, destinationID)
	if err != nil {
		return pricing.ConsistencyRecord{}, err
	}

	for attempt := 1; ; attempt++ {
		generation := s.cache.Generation(trainID)

		route, err := s.schedules.GetScheduleForTrain(ctx, trainID)
		if err != nil {
			return pricing.ConsistencyRecord{}, fmt.Errorf("failed to load schedule: %w", err)
		}

		record, err := s.cache.GetOrComputeAt(generation, trainID, route, originID, destinationID, origin.Name, destination.Name)
		if errors.Is(err, pricing.ErrScheduleChanged) && attempt < quoteAttempts {
			log.Debug().Int("train", trainID).Int("attempt", attempt).Msg("Schedule changed during quote, reloading")
			continue
		}
		if err != nil {
			return pricing.ConsistencyRecord{}, err
		}

		s.publish(ctx, generation, record)
		return record, nil
	}
}

// publish shares a record with other replicas. If the train was invalidated meanwhile,
// the shared copy is dropped again so it cannot outlive the schedule it was built from.
func (s *QuoteService) publish(ctx context.Context, generation uint64, record pricing.ConsistencyRecord) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Publish(ctx, record); err != nil {
		log.Warn().Err(err).Int("train", record.TrainID).Msg("Failed to publish consistency record")
		return
	}
	if s.cache.Generation(record.TrainID) != generation {
		if err := s.mirror.Invalidate(ctx, record.TrainID); err != nil {
			log.Error().Err(err).Int("train", record.TrainID).Msg("Failed to withdraw stale shared record")
		}
	}
}

// Lookup returns a record already known locally or to the mirror, without computing
func (s *QuoteService) Lookup(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, bool) {
	if record, ok := s.cache.Lookup(trainID, originID, destinationID); ok {
		return record, true
	}
	return s.fromMirror(ctx, trainID, originID, destinationID)
}

// ScheduleChanged drops every record of a train locally and in the mirror
func (s *QuoteService) ScheduleChanged(ctx context.Context, trainID int) error {
	removed := s.cache.Invalidate(trainID)
	log.Info().Int("train", trainID).Int("records", removed).Msg("Invalidated consistency records")

	if s.mirror == nil {
		return nil
	}
	if err := s.mirror.Invalidate(ctx, trainID); err != nil {
		return fmt.Errorf("failed to invalidate shared records: %w", err)
	}
	return nil
}

// fromMirror adopts a record published by another replica into the local cache
func (s *QuoteService) fromMirror(ctx context.Context, trainID, originID, destinationID int) (pricing.ConsistencyRecord, bool) {
	if s.mirror == nil {
		return pricing.ConsistencyRecord{}, false
	}

	generation := s.cache.Generation(trainID)
	record, ok, err := s.mirror.Lookup(ctx, trainID, originID, destinationID)
	if err != nil {
		log.Warn().Err(err).Int("train", trainID).Msg("Shared record lookup failed")
		return pricing.ConsistencyRecord{}, false
	}
	if !ok {
		return pricing.ConsistencyRecord{}, false
	}

	kept, _, err := s.cache.Store(generation, record)
	if err != nil {
		return pricing.ConsistencyRecord{}, false
	}
	return kept, true
}
