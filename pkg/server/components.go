package server

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/application/dispatcher/memory"
	"github.com/distsudoku/master/internal/application/dispatcher/redisq"
	"github.com/distsudoku/master/internal/config"
	"github.com/distsudoku/master/internal/domain/registry"
	"github.com/distsudoku/master/internal/infrastructure/logger"
	"github.com/distsudoku/master/internal/infrastructure/storage"
)

// components holds every collaborator the Server wires together,
// mirroring the teacher's layered-struct-of-dependencies split
// between server.go (lifecycle) and components.go (wiring).
type components struct {
	cfg *config.Config
	log *logger.Logger

	db          *bun.DB
	redis       redis.UniversalClient
	dispatcher  dispatcher.Dispatcher
	sink        aggregator.SolutionSink
	registry    *registry.Registry
	aggregator  *aggregator.Aggregator
	coordinator *coordinator.Coordinator
	cron        *cron.Cron
}

// initComponents wires every collaborator in dependency order: data
// backends first (Redis/Postgres if configured, falling back to the
// in-memory defaults otherwise), then the coordination core, then the
// periodic maintenance jobs of spec.md §4.3/§4.4/§5.
func initComponents(cfg *config.Config, log *logger.Logger) (*components, error) {
	c := &components{cfg: cfg, log: log}

	if err := c.initDispatcher(); err != nil {
		return nil, fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	if err := c.initSink(); err != nil {
		return nil, fmt.Errorf("failed to initialize solution sink: %w", err)
	}

	c.registry = registry.NewRegistry()
	c.aggregator = aggregator.New(c.registry, c.dispatcher, c.sink, aggregator.Config{
		StallBaseline:      cfg.Solver.StallBaseline,
		BaselineN:          cfg.Solver.BaselineN,
		AbandonAfterRounds: cfg.Solver.AbandonAfterRound,
		TickInterval:       time.Second,
	}, log)
	c.coordinator = coordinator.New(c.registry, c.dispatcher, c.aggregator, c.sink, log)

	c.initCron()

	return c, nil
}

// initDispatcher picks the redisq.Dispatcher when RedisConfig.Addr is
// set, the memory.Dispatcher otherwise — the queue/worker-table is
// the only piece of state that benefits from surviving a master
// restart, per spec.md §1's at-least-once delivery model.
func (c *components) initDispatcher() error {
	if c.cfg.Redis.Addr == "" {
		c.dispatcher = memory.New()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	c.redis = client
	c.dispatcher = redisq.New(client)
	c.log.Info("dispatcher backed by redis", "addr", c.cfg.Redis.Addr)
	return nil
}

// initSink picks the bun/Postgres-backed RepositorySink when
// DatabaseConfig.DSN is set, the MemorySink otherwise.
func (c *components) initSink() error {
	if c.cfg.Database.DSN == "" {
		c.sink = storage.NewMemorySink()
		return nil
	}

	db, err := storage.NewDB(&storage.Config{
		DSN:             c.cfg.Database.DSN,
		MaxOpenConns:    c.cfg.Database.MaxOpenConns,
		MaxIdleConns:    c.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: c.cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: c.cfg.Database.ConnMaxIdleTime,
		Debug:           c.cfg.Database.Debug,
	})
	if err != nil {
		return err
	}

	c.db = db
	repo := storage.NewSolutionRepository(db)
	c.sink = storage.NewRepositorySink(repo, "")
	c.log.Info("solution sink backed by postgres")
	return nil
}

// initCron registers the fleet-wide maintenance jobs of spec.md
// §4.3/§4.4/§5 — the dead-worker sweep and the terminal-job TTL sweep
// — as robfig/cron entries rather than hand-rolled tickers, the way
// the teacher schedules its recurring trigger/maintenance work.
func (c *components) initCron() {
	c.cron = cron.New(cron.WithSeconds())

	deadAfter := c.cfg.Dispatcher.DeadAfter
	c.cron.Schedule(cron.Every(c.cfg.Dispatcher.SweepInterval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		requeued, err := c.dispatcher.Sweep(ctx, deadAfter)
		if err != nil {
			c.log.Error("dead-worker sweep failed", "err", err)
			return
		}
		if len(requeued) > 0 {
			c.log.Info("dead-worker sweep requeued sub-jobs", "count", len(requeued))
		}
	}))

	resultTTL := c.cfg.Dispatcher.ResultTTL
	c.cron.Schedule(cron.Every(time.Minute), cron.FuncJob(func() {
		n := c.aggregator.SweepTerminalJobs(resultTTL)
		if n > 0 {
			c.log.Info("terminal-job sweep released jobs", "count", n)
		}
	}))
}

// start launches the background goroutines: the Aggregator's own 1 Hz
// combine/stall ticker and the cron scheduler.
func (c *components) start(ctx context.Context) {
	c.aggregator.Start(ctx)
	c.cron.Start()
}

// stop shuts down the background goroutines in reverse order.
func (c *components) stop() {
	cronCtx := c.cron.Stop()
	<-cronCtx.Done()
	c.aggregator.Stop()

	if c.db != nil {
		_ = storage.Close(c.db)
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
