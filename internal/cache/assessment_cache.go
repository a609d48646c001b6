// Package cache provides a two-tier read-through cache for assessment
// results: an in-process LRU in front of an optional shared Redis tier.
// Assessments are deterministic for identical input, so cached entries
// never go stale; the TTL only bounds memory in the shared tier.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/domain"
)

const redisKeyPrefix = "cardio:cache:assessment:"

// Stats tracks cache performance counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// AssessmentCache caches completed risk assessments keyed by a digest of
// the canonical patient record JSON.
type AssessmentCache struct {
	enabled    bool
	ttl        time.Duration
	memory     *lru.Cache[string, *domain.RiskAssessment]
	redis      *redis.Client
	log        *logrus.Logger
	statsMutex sync.Mutex
	stats      Stats
}

// New creates an assessment cache. The redis client may be nil, in which
// case only the in-process LRU tier is used.
func New(cfg domain.CacheConfig, redisClient *redis.Client, logger *logrus.Logger) (*AssessmentCache, error) {
	if !cfg.Enabled {
		return &AssessmentCache{enabled: false, log: logger}, nil
	}

	memory, err := lru.New[string, *domain.RiskAssessment](cfg.LRUSize)
	if err != nil {
		return nil, err
	}

	return &AssessmentCache{
		enabled: true,
		ttl:     cfg.DefaultTTL,
		memory:  memory,
		redis:   redisClient,
		log:     logger,
	}, nil
}

// Key derives the cache key from the patient record's canonical JSON.
// PatientRecord marshals with a fixed field order, so equal records always
// produce equal keys.
func Key(record *domain.PatientRecord) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Get returns the cached assessment for a key, checking the memory tier
// first and falling back to Redis. Redis failures degrade to a miss.
func (c *AssessmentCache) Get(ctx context.Context, key string) (*domain.RiskAssessment, bool) {
	if !c.enabled {
		return nil, false
	}

	if assessment, ok := c.memory.Get(key); ok {
		c.count(true)
		return assessment, true
	}

	if c.redis != nil {
		data, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
		if err == nil {
			var assessment domain.RiskAssessment
			if err := json.Unmarshal(data, &assessment); err == nil {
				c.memory.Add(key, &assessment)
				c.count(true)
				return &assessment, true
			}
		} else if err != redis.Nil {
			c.log.WithError(err).Debug("Redis cache read failed")
		}
	}

	c.count(false)
	return nil, false
}

// Set stores an assessment in both tiers. Redis write failures are logged
// and ignored; the memory tier always succeeds.
func (c *AssessmentCache) Set(ctx context.Context, key string, assessment *domain.RiskAssessment) {
	if !c.enabled {
		return
	}

	c.memory.Add(key, assessment)

	if c.redis != nil {
		data, err := json.Marshal(assessment)
		if err != nil {
			return
		}
		if err := c.redis.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
			c.log.WithError(err).Debug("Redis cache write failed")
		}
	}
}

// Purge clears the memory tier. The Redis tier expires via TTL.
func (c *AssessmentCache) Purge() {
	if c.enabled {
		c.memory.Purge()
	}
}

// GetStats returns a snapshot of the cache counters.
func (c *AssessmentCache) GetStats() Stats {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()
	return c.stats
}

// Healthy reports whether the shared tier is reachable. A nil Redis client
// is healthy: the cache simply runs single-tier.
func (c *AssessmentCache) Healthy(ctx context.Context) bool {
	if !c.enabled || c.redis == nil {
		return true
	}
	return c.redis.Ping(ctx).Err() == nil
}

func (c *AssessmentCache) count(hit bool) {
	c.statsMutex.Lock()
	defer c.statsMutex.Unlock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}
