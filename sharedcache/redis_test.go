package sharedcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"train-reservation/pricing"
)

func newTestMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client, err := Connect(context.Background(), server.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedisMirror(client, time.Hour), server
}

func record(trainID, originID, destinationID int, fare float64) pricing.ConsistencyRecord {
	return pricing.ConsistencyRecord{
		TrainID:              trainID,
		OriginStationID:      originID,
		DestinationStationID: destinationID,
		DistanceKm:           350,
		DepartureTime:        "06:00",
		ArrivalTime:          "13:00",
		Duration:             "7h 0m",
		Halts:                1,
		Popular:              true,
		Fares: pricing.Fares{
			pricing.ClassSleeper:   241.5,
			pricing.ClassThreeTier: fare,
		},
	}
}

func TestPublishAndLookup(t *testing.T) {
	mirror, _ := newTestMirror(t)
	ctx := context.Background()

	if _, ok, err := mirror.Lookup(ctx, 12951, 1, 3); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := mirror.Publish(ctx, record(12951, 1, 3, 483)); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	got, ok, err := mirror.Lookup(ctx, 12951, 1, 3)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.Fares[pricing.ClassThreeTier] != 483 || got.Duration != "7h 0m" || !got.Popular {
		t.Errorf("record changed in transit: %+v", got)
	}
}

func TestPublishKeepsFirstRecord(t *testing.T) {
	mirror, _ := newTestMirror(t)
	ctx := context.Background()

	mirror.Publish(ctx, record(12951, 1, 3, 483))
	mirror.Publish(ctx, record(12951, 1, 3, 999))

	got, _, _ := mirror.Lookup(ctx, 12951, 1, 3)
	if got.Fares[pricing.ClassThreeTier] != 483 {
		t.Errorf("expected first published fare to stay, got %v", got.Fares[pricing.ClassThreeTier])
	}
}

func TestConcurrentReplicasAgreeOnOneRecord(t *testing.T) {
	server := miniredis.RunT(t)
	ctx := context.Background()

	replicas := make([]*RedisMirror, 2)
	for i := range replicas {
		client, err := Connect(ctx, server.Addr(), "", 0)
		if err != nil {
			t.Fatalf("failed to connect: %v", err)
		}
		t.Cleanup(func() { client.Close() })
		replicas[i] = NewRedisMirror(client, time.Hour)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := replicas[i%2].Publish(ctx, record(12951, 1, 3, float64(400+i))); err != nil {
				t.Errorf("publish %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	first, ok, err := replicas[0].Lookup(ctx, 12951, 1, 3)
	if err != nil || !ok {
		t.Fatalf("expected a shared record, got ok=%v err=%v", ok, err)
	}
	second, _, _ := replicas[1].Lookup(ctx, 12951, 1, 3)
	if first.Fares[pricing.ClassThreeTier] != second.Fares[pricing.ClassThreeTier] {
		t.Errorf("replicas disagree: %v and %v", first.Fares[pricing.ClassThreeTier], second.Fares[pricing.ClassThreeTier])
	}

	if err := replicas[1].Invalidate(ctx, 12951); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}
	if _, ok, _ := replicas[0].Lookup(ctx, 12951, 1, 3); ok {
		t.Error("record claimed with SETNX was not tagged for invalidation")
	}
}

func TestInvalidateByTrain(t *testing.T) {
	mirror, _ := newTestMirror(t)
	ctx := context.Background()

	mirror.Publish(ctx, record(12951, 1, 3, 483))
	mirror.Publish(ctx, record(12951, 1, 2, 120))
	mirror.Publish(ctx, record(12627, 10, 13, 300))

	if err := mirror.Invalidate(ctx, 12951); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	for _, leg := range [][3]int{{12951, 1, 3}, {12951, 1, 2}} {
		if _, ok, _ := mirror.Lookup(ctx, leg[0], leg[1], leg[2]); ok {
			t.Errorf("leg %v survived invalidation", leg)
		}
	}
	if _, ok, _ := mirror.Lookup(ctx, 12627, 10, 13); !ok {
		t.Error("other train lost its record")
	}
}

func TestRecordsExpire(t *testing.T) {
	mirror, server := newTestMirror(t)
	ctx := context.Background()

	mirror.Publish(ctx, record(12951, 1, 3, 483))
	server.FastForward(2 * time.Hour)

	if _, ok, _ := mirror.Lookup(ctx, 12951, 1, 3); ok {
		t.Error("record outlived its expiration")
	}
}

func TestCorruptRecord(t *testing.T) {
	mirror, server := newTestMirror(t)

	server.Set(recordKey(12951, 1, 3), "{not json")

	if _, _, err := mirror.Lookup(context.Background(), 12951, 1, 3); err == nil {
		t.Error("expected an error for a corrupt record")
	}
}

func TestConnectFailure(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	if _, err := Connect(context.Background(), addr, "", 0); err == nil {
		t.Error("expected connection error")
	}
}
