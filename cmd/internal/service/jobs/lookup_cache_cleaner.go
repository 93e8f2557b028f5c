package jobs

import (
	"context"
	"rastru/cmd/internal/utils"
	"time"

	"github.com/labstack/gommon/log"
)

const CleanInterval = 1 * time.Hour

type LookupCacheRepository interface {
	DeleteExpired(before int64) (int64, error)
}

type LookupCacheCleaner struct {
	cacheRepo LookupCacheRepository
	ttl       time.Duration
	interval  time.Duration
}

func NewLookupCacheCleaner(repo LookupCacheRepository, ttl time.Duration) *LookupCacheCleaner {
	return &LookupCacheCleaner{
		cacheRepo: repo,
		ttl:       ttl,
		interval:  CleanInterval,
	}
}

func (c *LookupCacheCleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	log.Info("Lookup cache cleaner cron started")

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping lookup cache cleaner...")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *LookupCacheCleaner) cleanup() {
	cutoff := utils.NowUTC() - c.ttl.Milliseconds()

	deleted, err := c.cacheRepo.DeleteExpired(cutoff)
	if err != nil {
		log.Errorf("Cleaner: failed to delete expired lookup cache: %v", err)
		return
	}

	log.Debugf("Cleaner: swept %d cached lookups older than %d", deleted, cutoff)
}
