package stats

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/repository"
)

const (
	cacheKey = "stats:overview"
	cacheTTL = 60 * time.Second
)

type Overview struct {
	OpenRequests      int64 `json:"open_requests"`
	VerifiedRequests  int64 `json:"verified_requests"`
	ReopenedRequests  int64 `json:"reopened_requests"`
	ClosedRequests    int64 `json:"closed_requests"`
	FulfilledRequests int64 `json:"fulfilled_requests"`
	UnitsDonated      int64 `json:"units_donated"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	requestRepo  repository.RequestRepository
	donationRepo repository.DonationLogRepository
	redis        *redis.Client
}

func NewService(requestRepo repository.RequestRepository, donationRepo repository.DonationLogRepository, redisClient *redis.Client) Service {
	return &service{
		requestRepo:  requestRepo,
		donationRepo: donationRepo,
		redis:        redisClient,
	}
}

// Overview serves the public counters. Results are cached in redis for a
// minute; the landing page hits this on every load.
func (s *service) Overview(ctx context.Context) (*Overview, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.requestRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	fulfilled, err := s.requestRepo.CountFulfilledClosures(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.donationRepo.CountUnitsDonated(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		OpenRequests:      counts[domain.StatusOpen],
		VerifiedRequests:  counts[domain.StatusVerified],
		ReopenedRequests:  counts[domain.StatusReopened],
		ClosedRequests:    counts[domain.StatusClosed],
		FulfilledRequests: fulfilled,
		UnitsDonated:      units,
	}

	s.toCache(ctx, overview)
	return overview, nil
}

func (s *service) fromCache(ctx context.Context) *Overview {
	if s.redis == nil {
		return nil
	}

	raw, err := s.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil
	}

	var overview Overview
	if err := json.Unmarshal(raw, &overview); err != nil {
		return nil
	}
	return &overview
}

func (s *service) toCache(ctx context.Context, overview *Overview) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(overview)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		log.Printf("stats: failed to cache overview: %v", err)
	}
}
