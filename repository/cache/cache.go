// Package cache puts a Redis read-through cache in front of a task store.
// Listings are cached per owner; any write by that owner evicts them.
//
// Every eviction also bumps a per-owner generation. A listing is stored only
// if the generation it was read under is still current, so a slow read that
// overlaps a write cannot put the pre-write listing back.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"taskboard/internal/domain/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type backend interface {
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) error
}

type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// New wraps base. A nil client or a zero ttl disables caching.
func New(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("cache.New: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if tasks, ok := c.load(ctx, filter); ok {
		return tasks, nil
	}
	gen, genOK := c.generation(ctx, filter.OwnerID)
	tasks, err := c.base.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	if genOK {
		c.store(ctx, filter, tasks, gen)
	}
	return tasks, nil
}

func (c *Cache) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	return c.base.GetTaskByID(ctx, id)
}

func (c *Cache) CreateTask(ctx context.Context, task *models.Task) error {
	if err := c.base.CreateTask(ctx, task); err != nil {
		return err
	}
	c.evict(ctx, task.OwnerID)
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*models.Task, error) {
	task, err := c.base.UpdateTask(ctx, id, ownerID, patch)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, ownerID)
	return task, nil
}

func (c *Cache) DeleteTask(ctx context.Context, id, ownerID string) error {
	if err := c.base.DeleteTask(ctx, id, ownerID); err != nil {
		return err
	}
	c.evict(ctx, ownerID)
	return nil
}

// Evict drops every cached listing of the owner.
func (c *Cache) Evict(ctx context.Context, ownerID string) {
	c.evict(ctx, ownerID)
}

func (c *Cache) load(ctx context.Context, filter models.TaskFilter) ([]models.Task, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	key := tasksCacheKey(filter.OwnerID)
	data, err := c.redis.HGet(ctx, key, filterField(filter)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			log.WithError(err).Warn("task cache read failed")
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) generation(ctx context.Context, ownerID string) (int64, bool) {
	if c.redis == nil || c.ttl == 0 {
		return 0, false
	}
	gen, err := c.redis.Get(ctx, genKey(ownerID)).Int64()
	if err != nil && err != redis.Nil {
		log.WithError(err).Warn("task cache generation read failed")
		return 0, false
	}
	return gen, true
}

// store writes the listing unless the owner's generation moved past gen.
func (c *Cache) store(ctx context.Context, filter models.TaskFilter, tasks []models.Task, gen int64) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	key := tasksCacheKey(filter.OwnerID)
	gk := genKey(filter.OwnerID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, filterField(filter), data)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, gk)
	if err != nil && !stderrors.Is(err, redis.TxFailedErr) {
		log.WithError(err).Warn("task cache write failed")
	}
}

func (c *Cache) evict(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, genKey(ownerID))
	pipe.Del(ctx, tasksCacheKey(ownerID))
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("owner", ownerID).Warn("task cache evict failed")
	}
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}

func genKey(ownerID string) string {
	return "tasks:gen:" + ownerID
}

func filterField(filter models.TaskFilter) string {
	if filter.Status == nil {
		return "all"
	}
	return "status:" + string(*filter.Status)
}
