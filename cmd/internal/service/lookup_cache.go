package service

import (
	"context"
	"rastru/cmd/internal/domain/entity"
	"rastru/cmd/internal/domain/fiscal"
	"rastru/cmd/internal/infrastructure/infosimples"
	"rastru/cmd/internal/utils"
	"time"

	"github.com/labstack/gommon/log"
)

type LookupCacheRepository interface {
	FindFresh(accessKey string, notBefore int64) (*entity.LookupCache, error)
	Save(cached *entity.LookupCache) error
}

// CachedLookup fronts the provider client with the lookup cache. A zero TTL
// (or a nil repository) disables caching entirely.
type CachedLookup struct {
	Client    infosimples.LookupClient
	CacheRepo LookupCacheRepository
	TTL       time.Duration
}

func NewCachedLookup(client infosimples.LookupClient, cacheRepo LookupCacheRepository, ttl time.Duration) *CachedLookup {
	return &CachedLookup{
		Client:    client,
		CacheRepo: cacheRepo,
		TTL:       ttl,
	}
}

// Fetch returns the provider envelope and whether it came from the cache.
func (c *CachedLookup) Fetch(ctx context.Context, key *fiscal.AccessKey, timeoutSeconds int) (*infosimples.Envelope, bool, error) {
	if env := c.findCached(key); env != nil {
		return env, true, nil
	}

	env, err := c.Client.Lookup(ctx, key, timeoutSeconds)
	if err != nil {
		return nil, false, err
	}

	c.save(key, env)
	return env, false, nil
}

func (c *CachedLookup) enabled() bool {
	return c.CacheRepo != nil && c.TTL > 0
}

func (c *CachedLookup) findCached(key *fiscal.AccessKey) *infosimples.Envelope {
	if !c.enabled() {
		return nil
	}

	notBefore := utils.NowUTC() - c.TTL.Milliseconds()
	cached, err := c.CacheRepo.FindFresh(key.Raw, notBefore)
	if err != nil {
		log.Errorf("failed to read lookup cache for %s: %v", key.Raw, err)
		return nil
	}
	if cached == nil {
		return nil
	}

	env, err := infosimples.DecodeEnvelope(cached.Payload)
	if err != nil || env.Err() != nil {
		log.Warnf("discarding unusable cached lookup for %s", key.Raw)
		return nil
	}
	return env
}

// Only successful lookups reach here; failures are never cached.
func (c *CachedLookup) save(key *fiscal.AccessKey, env *infosimples.Envelope) {
	if !c.enabled() {
		return
	}

	err := c.CacheRepo.Save(&entity.LookupCache{
		AccessKey: key.Raw,
		Model:     string(key.Model),
		Payload:   env.Raw,
		CachedAt:  utils.NowUTC(),
	})
	if err != nil {
		// The lookup itself succeeded, only the cache write failed.
		log.Errorf("failed to save lookup cache for %s: %v", key.Raw, err)
	}
}
