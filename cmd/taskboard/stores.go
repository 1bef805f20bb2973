package main

import (
	"context"
	"fmt"

	"taskboard/internal/server"
	"taskboard/internal/service"
	"taskboard/repository/cache"
	"taskboard/repository/db"
	storage "taskboard/repository/inmemory"
	"taskboard/repository/sqlite"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type stores struct {
	kind    string
	users   service.UserStore
	tasks   service.TaskStore
	closers []func()
}

// Close releases the stores in reverse order of opening.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *stores) useMemory() {
	mem := storage.NewStorage()
	s.kind = server.StoreMemory
	s.users, s.tasks = mem, mem
}

// openStores builds the configured store. An unreachable Postgres falls
// back to memory; a broken SQLite file or redis URL is an error. The redis
// cache is skipped when the server does not answer a ping.
func openStores(ctx context.Context, cfg *server.Config) (*stores, error) {
	st := &stores{}

	switch cfg.Store {
	case server.StorePostgres:
		if err := db.Migration(cfg.DBStr, cfg.MigratePath); err != nil {
			log.WithError(err).Warn("migrations not applied, using in-memory store")
			st.useMemory()
			break
		}
		pg, err := db.NewStorage(ctx, cfg.DBStr)
		if err != nil {
			log.WithError(err).Warn("database unreachable, using in-memory store")
			st.useMemory()
			break
		}
		st.kind = server.StorePostgres
		st.users, st.tasks = pg, pg
		st.closers = append(st.closers, pg.Close)
	case server.StoreSQLite:
		lite, err := sqlite.NewStorage(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		st.kind = server.StoreSQLite
		st.users, st.tasks = lite, lite
		st.closers = append(st.closers, func() {
			if err := lite.Close(); err != nil {
				log.WithError(err).Warn("closing sqlite")
			}
		})
	default:
		st.useMemory()
	}
	log.WithField("store", st.kind).Info("task store ready")

	if cfg.RedisURL == "" || cfg.CacheTTL.Duration <= 0 {
		return st, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, task list cache disabled")
		_ = client.Close()
		return st, nil
	}
	st.tasks = cache.New(st.tasks, client, cfg.CacheTTL.Duration)
	st.closers = append(st.closers, func() { _ = client.Close() })
	log.WithField("ttl", cfg.CacheTTL.Duration).Info("task list cache enabled")
	return st, nil
}
