package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mimrai-org/mimrai-sub004/internal/clients/redis"
	"github.com/mimrai-org/mimrai-sub004/internal/pkg/logger"
	"github.com/mimrai-org/mimrai-sub004/internal/repos"
)

// ConversationContext is the per-(user, team) snapshot fed into agent
// prompts. It is immutable: when the underlying user or team row changes the
// cached copy simply expires, it is never patched in place.
type ConversationContext struct {
	FullName        string `json:"full_name"`
	Locale          string `json:"locale"`
	DateFormat      string `json:"date_format"`
	TeamName        string `json:"team_name"`
	TeamDescription string `json:"team_description"`
	CountryCode     string `json:"country_code"`

	// Request-scoped, never cached.
	RequestCountry  string `json:"-"`
	RequestCity     string `json:"-"`
	RequestTimezone string `json:"-"`
}

// RequestGeo carries the per-request location hints overlaid on the cached
// snapshot.
type RequestGeo struct {
	Country  string
	City     string
	Timezone string
}

type ContextService interface {
	Get(ctx context.Context, userID, teamID uuid.UUID, geo RequestGeo) (ConversationContext, error)
	Set(ctx context.Context, userID, teamID uuid.UUID, snapshot ConversationContext, ttl time.Duration) error
}

type contextService struct {
	log      *logger.Logger
	kv       redis.KV
	userRepo repos.UserRepo
	teamRepo repos.TeamRepo
	ttl      time.Duration
}

func NewContextService(log *logger.Logger, kv redis.KV, userRepo repos.UserRepo, teamRepo repos.TeamRepo, ttl time.Duration) ContextService {
	return &contextService{
		log:      log.With("service", "ContextService"),
		kv:       kv,
		userRepo: userRepo,
		teamRepo: teamRepo,
		ttl:      ttl,
	}
}

func contextCacheKey(userID, teamID uuid.UUID) string {
	return fmt.Sprintf("convctx:%s:%s", userID, teamID)
}

func (s *contextService) Get(ctx context.Context, userID, teamID uuid.UUID, geo RequestGeo) (ConversationContext, error) {
	key := contextCacheKey(userID, teamID)

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		// A broken cache read degrades to the authoritative lookup.
		s.log.Warn("context cache read failed", "key", key, "error", err)
	}
	if ok {
		var cc ConversationContext
		if uErr := json.Unmarshal([]byte(raw), &cc); uErr == nil {
			applyGeo(&cc, geo)
			return cc, nil
		}
		s.log.Warn("context cache entry undecodable, refetching", "key", key)
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return ConversationContext{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return ConversationContext{}, fmt.Errorf("load team %s: %w", teamID, err)
	}

	cc := ConversationContext{
		FullName:        user.FullName,
		Locale:          user.Locale,
		DateFormat:      user.DateFormat,
		TeamName:        team.Name,
		TeamDescription: team.Description,
		CountryCode:     user.CountryCode,
	}

	// Write-back is fire-and-forget: a cache failure must never fail the
	// read path. Detached context so a finished request doesn't cancel it.
	snapshot := cc
	go func() {
		wctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Set(wctx, userID, teamID, snapshot, s.ttl); err != nil {
			s.log.Warn("context cache write failed", "key", key, "error", err)
		}
	}()

	applyGeo(&cc, geo)
	return cc, nil
}

func (s *contextService) Set(ctx context.Context, userID, teamID uuid.UUID, snapshot ConversationContext, ttl time.Duration) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, contextCacheKey(userID, teamID), string(raw), ttl)
}

func applyGeo(cc *ConversationContext, geo RequestGeo) {
	cc.RequestCountry = geo.Country
	cc.RequestCity = geo.City
	cc.RequestTimezone = geo.Timezone
}
