package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mimrai-org/mimrai-sub004/internal/clients/redis"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type countingUserRepo struct {
	*fakeUserRepo
	getCalls int
}

func (c *countingUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	c.getCalls++
	return c.fakeUserRepo.GetByID(ctx, tx, userID)
}

func contextFixtures() (*countingUserRepo, *fakeTeamRepo, uuid.UUID, uuid.UUID) {
	userID := uuid.New()
	teamID := uuid.New()
	users := &countingUserRepo{fakeUserRepo: &fakeUserRepo{users: map[uuid.UUID]*types.User{
		userID: {ID: userID, FullName: "Dana Reyes", Locale: "en-US", DateFormat: "MM/DD/YYYY", CountryCode: "US"},
	}}}
	teams := &fakeTeamRepo{teams: map[uuid.UUID]*types.Team{
		teamID: {ID: teamID, Name: "Platform", Description: "Core platform team"},
	}}
	return users, teams, userID, teamID
}

func waitForCache(t *testing.T, kv redis.KV, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok, _ := kv.Get(context.Background(), key); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("cache entry %s never written back", key)
}

func TestContextGetMissFetchesAndWritesBack(t *testing.T) {
	users, teams, userID, teamID := contextFixtures()
	kv := redis.NewMemoryKV()
	svc := NewContextService(logger.NewNop(), kv, users, teams, time.Hour)

	cc, err := svc.Get(context.Background(), userID, teamID, RequestGeo{Country: "DE", City: "Berlin", Timezone: "Europe/Berlin"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cc.FullName != "Dana Reyes" || cc.TeamName != "Platform" {
		t.Errorf("snapshot = %+v", cc)
	}
	if cc.RequestCity != "Berlin" || cc.RequestTimezone != "Europe/Berlin" {
		t.Errorf("request geo not overlaid: %+v", cc)
	}
	if users.getCalls != 1 {
		t.Errorf("user fetches = %d, want 1", users.getCalls)
	}

	waitForCache(t, kv, contextCacheKey(userID, teamID))
}

func TestContextGetHitSkipsAuthoritativeFetch(t *testing.T) {
	users, teams, userID, teamID := contextFixtures()
	kv := redis.NewMemoryKV()
	svc := NewContextService(logger.NewNop(), kv, users, teams, time.Hour)

	ctx := context.Background()
	if _, err := svc.Get(ctx, userID, teamID, RequestGeo{}); err != nil {
		t.Fatalf("warm Get: %v", err)
	}
	waitForCache(t, kv, contextCacheKey(userID, teamID))

	cc, err := svc.Get(ctx, userID, teamID, RequestGeo{City: "Lisbon"})
	if err != nil {
		t.Fatalf("cached Get: %v", err)
	}
	if users.getCalls != 1 {
		t.Errorf("user fetches = %d, want 1 (second read from cache)", users.getCalls)
	}
	if cc.FullName != "Dana Reyes" {
		t.Errorf("cached snapshot = %+v", cc)
	}
	if cc.RequestCity != "Lisbon" {
		t.Errorf("request geo must overlay cached reads too: %+v", cc)
	}
}

func TestContextGetExpiredEntryRefetches(t *testing.T) {
	users, teams, userID, teamID := contextFixtures()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	kv := redis.NewMemoryKVWithClock(func() time.Time { return now })
	svc := NewContextService(logger.NewNop(), kv, users, teams, time.Hour)

	ctx := context.Background()
	// Seed synchronously so the test does not race the async write-back.
	snapshot := ConversationContext{FullName: "Dana Reyes"}
	if err := svc.Set(ctx, userID, teamID, snapshot, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.Get(ctx, userID, teamID, RequestGeo{}); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if users.getCalls != 1 {
		t.Errorf("user fetches = %d, want 1 after the cache entry lapsed", users.getCalls)
	}
}

func TestContextSnapshotNeverCachesRequestGeo(t *testing.T) {
	users, teams, userID, teamID := contextFixtures()
	kv := redis.NewMemoryKV()
	svc := NewContextService(logger.NewNop(), kv, users, teams, time.Hour)

	ctx := context.Background()
	if _, err := svc.Get(ctx, userID, teamID, RequestGeo{Country: "JP", City: "Osaka", Timezone: "Asia/Tokyo"}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	waitForCache(t, kv, contextCacheKey(userID, teamID))

	// A later request with no geo must not inherit the earlier request's.
	cc, err := svc.Get(ctx, userID, teamID, RequestGeo{})
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if cc.RequestCountry != "" || cc.RequestCity != "" || cc.RequestTimezone != "" {
		t.Errorf("request geo leaked into the cached snapshot: %+v", cc)
	}
}
