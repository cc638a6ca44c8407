package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"reetrack-billing/internal/domain/model"
	"reetrack-billing/internal/domain/ports/repository"
	"reetrack-billing/internal/infra/metrics"
	red "reetrack-billing/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Transactional reads
// bypass the cache entirely: a FOR UPDATE lookup must hit the database.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func planKey(id string) string      { return fmt.Sprintf("plan:%s", id) }
func planListKey(org string) string { return fmt.Sprintf("plans:org:%s", org) }

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := planKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	} else if err != redis.Nil {
		metrics.IncCacheRequest("plan", "error")
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListByOrg(ctx context.Context, tx repository.Tx, orgID string) ([]*model.Plan, error) {
	if tx != nil {
		return d.inner.ListByOrg(ctx, tx, orgID)
	}
	key := planListKey(orgID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListByOrg(ctx, tx, orgID)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plans, nil
}

// Write operations invalidate both the row key and the org list key.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	_ = d.cache.Del(ctx, planKey(plan.ID), planListKey(plan.OrgID))
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	// The org list key needs the plan's org, which Delete does not carry.
	if plan, err := d.inner.FindByID(ctx, repository.NoTX, id); err == nil {
		_ = d.cache.Del(ctx, planListKey(plan.OrgID))
	}
	_ = d.cache.Del(ctx, planKey(id))
	return d.inner.Delete(ctx, tx, id)
}
