// internal/store/cache/professionals.go

// Package cache keeps professional profiles in Redis in front of the store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"award-engine/internal/common/logger"
	"award-engine/internal/models"

	"github.com/redis/go-redis/v9"
)

const professionalKeyPrefix = "award:pro:"

// Backend is the store behind the cache.
type Backend interface {
	GetProfessionals(ctx context.Context, ids []string) (map[string]models.Professional, error)
	CommitAward(ctx context.Context, c models.AwardCommit) (*models.AwardReceipt, error)
}

// Professionals serves profile reads from Redis and drops the winner's entry
// after every award, since the award changes its stats. Redis errors fall
// back to the backend.
type Professionals struct {
	next   Backend
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewProfessionals(next Backend, client redis.Cmdable, ttl time.Duration, log logger.Logger) *Professionals {
	return &Professionals{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Component(log, "professional-cache"),
	}
}

func ProfessionalKey(id string) string {
	return professionalKeyPrefix + id
}

func (c *Professionals) GetProfessionals(ctx context.Context, ids []string) (map[string]models.Professional, error) {
	out := make(map[string]models.Professional, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ProfessionalKey(id)
	}

	missing := ids
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("profile cache read failed", map[string]interface{}{"error": err})
	} else {
		missing = nil
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var pro models.Professional
			if err := json.Unmarshal([]byte(s), &pro); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			out[ids[i]] = pro
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.next.GetProfessionals(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, pro := range loaded {
		out[id] = pro
		data, err := json.Marshal(pro)
		if err != nil {
			continue
		}
		if err := c.client.Set(ctx, ProfessionalKey(id), data, c.ttl).Err(); err != nil {
			c.logger.Warn("profile cache write failed", map[string]interface{}{
				"professionalId": id,
				"error":          err,
			})
		}
	}
	return out, nil
}

func (c *Professionals) CommitAward(ctx context.Context, commit models.AwardCommit) (*models.AwardReceipt, error) {
	receipt, err := c.next.CommitAward(ctx, commit)
	if err != nil {
		return nil, err
	}
	if err := c.client.Del(ctx, ProfessionalKey(commit.ProfessionalID)).Err(); err != nil {
		c.logger.Warn("profile cache invalidation failed", map[string]interface{}{
			"professionalId": commit.ProfessionalID,
			"error":          err,
		})
	}
	return receipt, nil
}
