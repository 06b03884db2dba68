package pricing

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"train-reservation/models"
)

// ErrScheduleChanged is returned when the train was invalidated while its record was being computed
var ErrScheduleChanged = errors.New("schedule changed while the record was computed")

// Placeholder timing shown when the schedule cannot answer for a station pair
const (
	FallbackDeparture = "06:00"
	FallbackArrival   = "18:30"
	FallbackDuration  = "12h 30m"
)

// ConsistencyRecord is the authoritative timing and fare snapshot of one train leg.
// Every screen showing the leg, and every amount charged for it, reads this record.
type ConsistencyRecord struct {
	TrainID              int    `json:"train_id"`
	OriginStationID      int    `json:"origin_station_id"`
	DestinationStationID int    `json:"destination_station_id"`
	DistanceKm           int    `json:"distance_km"`
	DepartureTime        string `json:"departure_time"`
	ArrivalTime          string `json:"arrival_time"`
	Duration             string `json:"duration"`
	Halts                int    `json:"halts"`
	Popular              bool   `json:"popular"`
	Fallback             bool   `json:"fallback"`
	Fares                Fares  `json:"fares"`
}

// Key identifies the record
func (r ConsistencyRecord) Key() RecordKey {
	return RecordKey{TrainID: r.TrainID, OriginID: r.OriginStationID, DestinationID: r.DestinationStationID}
}

func (r ConsistencyRecord) copy() ConsistencyRecord {
	r.Fares = r.Fares.clone()
	return r
}

// RecordKey is the (train, origin, destination) triple a record is stored under
type RecordKey struct {
	TrainID       int
	OriginID      int
	DestinationID int
}

// Cache memoizes consistency records for the lifetime of the process.
// Records are replaced only through Invalidate, which also advances the train's generation
// so that records computed from the previous schedule are never stored.
type Cache struct {
	index    ScheduleIndex
	distance DistanceModel
	pricer   Pricer

	mu          sync.Mutex
	records     map[RecordKey]ConsistencyRecord
	generations map[int]uint64
}

// NewCache wires the engine components together
func NewCache(index ScheduleIndex, distance DistanceModel, pricer Pricer) *Cache {
	return &Cache{
		index:       index,
		distance:    distance,
		pricer:      pricer,
		records:     make(map[RecordKey]ConsistencyRecord),
		generations: make(map[int]uint64),
	}
}

// GetOrCompute returns the stored record for the leg, computing it on first use.
// Schedule problems are absorbed into fallback values. A broken fare table is returned as an error,
// as is ErrScheduleChanged when the train is invalidated during the computation.
func (c *Cache) GetOrCompute(trainID int, route models.Route, originID, destinationID int, originName, destinationName string) (ConsistencyRecord, error) {
	return c.GetOrComputeAt(c.Generation(trainID), trainID, route, originID, destinationID, originName, destinationName)
}

// GetOrComputeAt is GetOrCompute for a route read at the given generation.
// If the train was invalidated since, nothing is stored and ErrScheduleChanged is returned.
func (c *Cache) GetOrComputeAt(generation uint64, trainID int, route models.Route, originID, destinationID int, originName, destinationName string) (ConsistencyRecord, error) {
	key := RecordKey{TrainID: trainID, OriginID: originID, DestinationID: destinationID}

	if record, ok := c.Lookup(trainID, originID, destinationID); ok {
		return record, nil
	}

	record, err := c.compute(key, route, originName, destinationName)
	if err != nil {
		return ConsistencyRecord{}, err
	}

	stored, inserted, err := c.Store(generation, record)
	if err != nil {
		return ConsistencyRecord{}, err
	}
	if !inserted {
		return stored, nil
	}

	log.Debug().
		Int("train", trainID).
		Int("origin", originID).
		Int("destination", destinationID).
		Int("distance_km", record.DistanceKm).
		Bool("fallback", record.Fallback).
		Str("fares", record.Fares.String()).
		Msg("Computed consistency record")

	return record.copy(), nil
}

// Lookup returns the current record of a leg without computing anything
func (c *Cache) Lookup(trainID, originID, destinationID int) (ConsistencyRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.records[RecordKey{TrainID: trainID, OriginID: originID, DestinationID: destinationID}]
	if !ok {
		return ConsistencyRecord{}, false
	}
	return record.copy(), true
}

// Generation returns how many times the train's records have been invalidated
func (c *Cache) Generation(trainID int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[trainID]
}

// Store inserts a record unless its leg is already present and returns the record that is kept,
// reporting whether it was the one passed in.
// A concurrent caller may have stored the same leg first; theirs wins so every reader sees one record.
// generation is the train's generation when the record's source was read.
func (c *Cache) Store(generation uint64, record ConsistencyRecord) (ConsistencyRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[record.TrainID] != generation {
		return ConsistencyRecord{}, false, ErrScheduleChanged
	}

	key := record.Key()
	if existing, ok := c.records[key]; ok {
		return existing.copy(), false, nil
	}
	record = record.copy()
	c.records[key] = record
	return record.copy(), true, nil
}

// Invalidate drops every record of a train and returns how many were removed.
// Call it whenever the train's schedule changes.
func (c *Cache) Invalidate(trainID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generations[trainID]++

	removed := 0
	for key := range c.records {
		if key.TrainID == trainID {
			delete(c.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func (c *Cache) compute(key RecordKey, route models.Route, originName, destinationName string) (ConsistencyRecord, error) {
	record := ConsistencyRecord{
		TrainID:              key.TrainID,
		OriginStationID:      key.OriginID,
		DestinationStationID: key.DestinationID,
	}

	if err := c.fillTiming(&record, route); err != nil {
		var notFound *NotFoundError
		var invalid *InvalidRouteError
		if !errors.As(err, &notFound) && !errors.As(err, &invalid) {
			return ConsistencyRecord{}, err
		}

		log.Warn().Err(err).Int("train", key.TrainID).Msg("Using fallback schedule for leg")
		record.DepartureTime = FallbackDeparture
		record.ArrivalTime = FallbackArrival
		record.Duration = FallbackDuration
		record.Halts = 0
		record.Fallback = true
	}

	record.DistanceKm = c.distance.DistanceBetween(route, key.OriginID, key.DestinationID)
	record.Popular = c.pricer.IsPopularRoute(originName, destinationName)

	fares, err := c.pricer.QuoteAllClasses(record.DistanceKm, record.Popular)
	if err != nil {
		return ConsistencyRecord{}, err
	}
	record.Fares = fares

	return record, nil
}

func (c *Cache) fillTiming(record *ConsistencyRecord, route models.Route) error {
	elapsed, err := c.index.ElapsedBetween(route, record.OriginStationID, record.DestinationStationID)
	if err != nil {
		return err
	}
	departure, err := c.index.DepartureTimeAt(route, record.OriginStationID)
	if err != nil {
		return err
	}
	arrival, err := c.index.ArrivalTimeAt(route, record.DestinationStationID)
	if err != nil {
		return err
	}
	halts, err := c.index.HaltsBetween(route, record.OriginStationID, record.DestinationStationID)
	if err != nil {
		return err
	}

	record.DepartureTime = departure.Format("15:04")
	record.ArrivalTime = arrival.Format("15:04")
	record.Duration = FormatDuration(elapsed)
	record.Halts = halts
	return nil
}
