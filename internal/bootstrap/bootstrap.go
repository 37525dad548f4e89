// Package bootstrap wires every client and service into a samber/do
// injector. Nothing is constructed until it is first invoked; shutdown runs
// in reverse invocation order.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/infra/cache"
	"github.com/roomforge/api/internal/infra/db"
	"github.com/roomforge/api/internal/infra/imagegen"
	"github.com/roomforge/api/internal/infra/logger"
	mq "github.com/roomforge/api/internal/infra/queue"
	"github.com/roomforge/api/internal/infra/telemetry"
	"github.com/roomforge/api/internal/modules/handler"
	"github.com/roomforge/api/internal/modules/repo"
	"github.com/roomforge/api/internal/modules/service"
	"github.com/roomforge/api/internal/router"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const flushTimeout = 5 * time.Second

// Tracing owns the tracer provider flush.
type Tracing struct {
	shutdown telemetry.ShutdownFunc
}

func (t *Tracing) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return t.shutdown(ctx)
}

type Database struct {
	*gorm.DB
}

func (d *Database) HealthCheck() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (d *Database) Shutdown() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Redis is empty when redis.addr is not configured.
type Redis struct {
	Client *redis.Client
}

func (r *Redis) HealthCheck() error {
	if r.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) Shutdown() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

type Events struct {
	mq.EventPublisher
}

func (e *Events) Shutdown() error { return e.Close() }

// New registers every provider. ctx bounds client construction (AWS config
// loading, gemini client, otlp exporter), not their lifetime.
func New(ctx context.Context, cfg *config.Config) *do.Injector {
	i := do.New()
	do.ProvideValue(i, cfg)

	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		log, err := logger.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		return log.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env)), nil
	})

	do.Provide(i, func(i *do.Injector) (*Tracing, error) {
		shutdown, err := telemetry.Setup(ctx, cfg.App, cfg.Telemetry, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}
		return &Tracing{shutdown: shutdown}, nil
	})

	do.Provide(i, func(i *do.Injector) (*Database, error) {
		gdb, err := db.Open(cfg.Database, do.MustInvoke[*zap.Logger](i).Named("db"))
		if err != nil {
			return nil, err
		}
		return &Database{DB: gdb}, nil
	})

	do.Provide(i, func(i *do.Injector) (*Redis, error) {
		if cfg.Redis.Addr == "" {
			return &Redis{}, nil
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("instrument redis: %w", err)
		}
		return &Redis{Client: rdb}, nil
	})

	do.Provide(i, func(i *do.Injector) (*Events, error) {
		p, err := mq.NewEventPublisher(cfg.RabbitMQ, cfg.App.Name, do.MustInvoke[*zap.Logger](i))
		if err != nil {
			return nil, err
		}
		return &Events{EventPublisher: p}, nil
	})

	do.Provide(i, func(i *do.Injector) (*blob.S3Deps, error) {
		return blob.NewS3(ctx, cfg.S3, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (service.URLSigner, error) {
		log := do.MustInvoke[*zap.Logger](i)
		signer := blob.NewSigner(do.MustInvoke[*blob.S3Deps](i), cfg.Signing, log)
		if !cfg.Redis.CacheEnabled {
			return signer, nil
		}
		rdb, err := do.Invoke[*Redis](i)
		if err != nil {
			return nil, err
		}
		if rdb.Client == nil {
			log.Warn("redis.cache_enabled is set without redis.addr, signed URLs are not cached")
			return signer, nil
		}
		return cache.NewCachingSigner(signer, rdb.Client, log), nil
	})

	do.Provide(i, func(i *do.Injector) (imagegen.Generator, error) {
		return imagegen.New(ctx, cfg.Generator, do.MustInvoke[*zap.Logger](i))
	})

	provideModules(i, cfg)
	return i
}

func provideModules(i *do.Injector, cfg *config.Config) {
	do.Provide(i, func(i *do.Injector) (repo.DesignRepo, error) {
		d, err := do.Invoke[*Database](i)
		if err != nil {
			return nil, err
		}
		return repo.NewDesignRepo(d.DB), nil
	})
	do.Provide(i, func(i *do.Injector) (repo.DesignOutputRepo, error) {
		d, err := do.Invoke[*Database](i)
		if err != nil {
			return nil, err
		}
		return repo.NewDesignOutputRepo(d.DB), nil
	})

	do.Provide(i, func(i *do.Injector) (service.LineageService, error) {
		r, err := do.Invoke[repo.DesignRepo](i)
		if err != nil {
			return nil, err
		}
		return service.NewLineageService(r, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (service.UploadService, error) {
		return service.NewUploadService(do.MustInvoke[*blob.S3Deps](i), cfg.Upload, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (service.ImageResolver, error) {
		signer, err := do.Invoke[service.URLSigner](i)
		if err != nil {
			return nil, err
		}
		return service.NewImageResolver(signer, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (service.GenerationService, error) {
		lineage, err := do.Invoke[service.LineageService](i)
		if err != nil {
			return nil, err
		}
		outputs, err := do.Invoke[repo.DesignOutputRepo](i)
		if err != nil {
			return nil, err
		}
		gen, err := do.Invoke[imagegen.Generator](i)
		if err != nil {
			return nil, err
		}
		events, err := do.Invoke[*Events](i)
		if err != nil {
			return nil, err
		}
		return service.NewGenerationService(
			lineage,
			outputs,
			gen,
			do.MustInvoke[service.UploadService](i),
			do.MustInvoke[*blob.S3Deps](i),
			events,
			cfg.Generator,
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (service.DesignService, error) {
		designs, err := do.Invoke[repo.DesignRepo](i)
		if err != nil {
			return nil, err
		}
		generation, err := do.Invoke[service.GenerationService](i)
		if err != nil {
			return nil, err
		}
		signer, err := do.Invoke[service.URLSigner](i)
		if err != nil {
			return nil, err
		}
		return service.NewDesignService(service.DesignServiceDeps{
			Designs:    designs,
			Outputs:    do.MustInvoke[repo.DesignOutputRepo](i),
			Lineage:    do.MustInvoke[service.LineageService](i),
			Generation: generation,
			Uploader:   do.MustInvoke[service.UploadService](i),
			Resolver:   do.MustInvoke[service.ImageResolver](i),
			Signer:     signer,
			Store:      do.MustInvoke[*blob.S3Deps](i),
			Events:     do.MustInvoke[*Events](i),
			Signing:    cfg.Signing,
		}, do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gin.Engine, error) {
		svc, err := do.Invoke[service.DesignService](i)
		if err != nil {
			return nil, err
		}
		log := do.MustInvoke[*zap.Logger](i)
		return router.NewRouter(router.RouterDeps{
			AppName:       cfg.App.Name,
			Log:           log,
			DesignHandler: handler.NewDesignHandler(svc, log),
			UploadHandler: handler.NewUploadHandler(svc, log),
			Ready:         func(context.Context) error { return Ready(i) },
			Swagger:       cfg.App.Env != "production",
			MaxBodyBytes:  cfg.App.MaxBodyBytes,
		})
	})

	do.Provide(i, func(i *do.Injector) (*http.Server, error) {
		engine, err := do.Invoke[*gin.Engine](i)
		if err != nil {
			return nil, err
		}
		return &http.Server{
			Addr:              cfg.App.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		}, nil
	})
}

// Ready reports the first failing health check among constructed services.
func Ready(i *do.Injector) error {
	checks := i.HealthCheck()
	names := make([]string, 0, len(checks))
	for name, err := range checks {
		if err != nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)
	return fmt.Errorf("%s: %w", names[0], checks[names[0]])
}
