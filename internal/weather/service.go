package weather

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Current(ctx context.Context, lat, lng float64) (*ForecastResponse, error)
}

// Service fetches weather for workouts and caches it by workout key.
type Service struct {
	client Fetcher
	cache  Cache
	log    *zap.Logger
}

func NewService(client Fetcher, cache Cache, log *zap.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, cache: cache, log: log}
}

// Fetch always calls the API and overwrites the cached entry.
func (s *Service) Fetch(ctx context.Context, key string, lat, lng float64) (Entry, error) {
	fc, err := s.client.Current(ctx, lat, lng)
	if err != nil {
		return Entry{}, fmt.Errorf("fetch weather: %w", err)
	}
	e := fc.Entry()
	if err := s.cache.Set(ctx, key, e); err != nil {
		s.log.Warn("weather cache write failed", zap.String("key", key), zap.Error(err))
	}
	return e, nil
}

// Ensure returns the cached entry, fetching it on a miss.
func (s *Service) Ensure(ctx context.Context, key string, lat, lng float64) (Entry, error) {
	e, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("weather cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		return e, nil
	}
	return s.Fetch(ctx, key, lat, lng)
}

func (s *Service) Get(ctx context.Context, key string) (Entry, bool, error) {
	return s.cache.Get(ctx, key)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, key)
}
