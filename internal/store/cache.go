// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "eligibility-workers/internal/common/errors"
	"eligibility-workers/internal/common/logger"
	"eligibility-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const decisionKeyPrefix = "decision:"

// DecisionCache keeps recent decisions in Redis so follow-up workflow
// steps read them without hitting Postgres.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewDecisionCache(client *redis.Client, ttl time.Duration, log logger.Logger) *DecisionCache {
	return &DecisionCache{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "decision-cache"}),
	}
}

// Put stores a decision record under decision:<applicationId>.
func (c *DecisionCache) Put(ctx context.Context, record models.DecisionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return commonerrors.NewCacheWriteFailedError(fmt.Errorf("marshal decision: %w", err))
	}

	key := decisionKeyPrefix + record.ApplicationID
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return commonerrors.NewCacheWriteFailedError(err)
	}

	c.logger.Debug("decision cached", map[string]interface{}{
		"applicationId": record.ApplicationID,
		"ttl":           c.ttl.String(),
	})

	return nil
}

// Get returns the cached decision, or (nil, nil) on a cache miss.
func (c *DecisionCache) Get(ctx context.Context, applicationID string) (*models.DecisionRecord, error) {
	payload, err := c.client.Get(ctx, decisionKeyPrefix+applicationID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read for %s: %w", applicationID, err)
	}

	var record models.DecisionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal cached decision for %s: %w", applicationID, err)
	}

	return &record, nil
}

// Invalidate removes a cached decision.
func (c *DecisionCache) Invalidate(ctx context.Context, applicationID string) error {
	return c.client.Del(ctx, decisionKeyPrefix+applicationID).Err()
}
