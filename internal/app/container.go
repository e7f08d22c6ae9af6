package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/acme/call-task-dispatcher/internal/config"
	"github.com/acme/call-task-dispatcher/internal/gateway"
	gatewaymock "github.com/acme/call-task-dispatcher/internal/gateway/mock"
	"github.com/acme/call-task-dispatcher/internal/gateway/twilio"
	"github.com/acme/call-task-dispatcher/internal/gateway/vapi"
	"github.com/acme/call-task-dispatcher/internal/infra/db"
	"github.com/acme/call-task-dispatcher/internal/infra/redis"
	"github.com/acme/call-task-dispatcher/internal/queue"
	"github.com/acme/call-task-dispatcher/internal/repository"
	pgrepo "github.com/acme/call-task-dispatcher/internal/repository/postgres"
	scyllarepo "github.com/acme/call-task-dispatcher/internal/repository/scylla"
	"github.com/acme/call-task-dispatcher/internal/service/concurrency"
	"github.com/acme/call-task-dispatcher/internal/service/dispatch"
	"github.com/acme/call-task-dispatcher/pkg/logger"
)

// Container wires together shared infrastructure dependencies.
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	Postgres *db.Postgres
	Scylla   *db.Scylla
	Redis    *redis.Client
	Kafka    *queue.Kafka

	// lazily initialised components
	components struct {
		once         sync.Once
		repositories *Repos
		services     *Services
		queues       *Queues
		providers    *Providers
	}
}

// Repos exposes the initialized repositories.
type Repos struct {
	Tasks       repository.TaskRepository
	Contacts    repository.ContactRepository
	Credentials repository.CredentialRepository
	Agents      repository.AgentSettingsRepository
	Campaigns   repository.CampaignRepository
	CallLogs    repository.CallLogStore
}

// Services exposes the initialized services.
type Services struct {
	Dispatch *dispatch.Service
}

// Queues exposes queue components.
type Queues struct {
	Delayed  *queue.DelayedQueue
	Outcomes *queue.OutcomePublisher
}

// Providers exposes external gateway clients.
type Providers struct {
	Voice   gateway.Voice
	Numbers gateway.NumberLister
}

// Build constructs a container for the given configuration path.
func Build(ctx context.Context, configPath string) (*Container, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	lg, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, err
	}

	pg, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres: %w", err)
	}

	scylla, err := db.NewScylla(cfg.Scylla)
	if err != nil {
		return nil, fmt.Errorf("bootstrap scylla: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}

	kafka, err := queue.NewKafka(cfg.Kafka)
	if err != nil {
		return nil, fmt.Errorf("bootstrap kafka: %w", err)
	}

	return &Container{
		Config:   cfg,
		Logger:   lg,
		Postgres: pg,
		Scylla:   scylla,
		Redis:    redisClient,
		Kafka:    kafka,
	}, nil
}

func (c *Container) initComponents() {
	c.components.once.Do(func() {
		repos := &Repos{
			Tasks:       pgrepo.NewTaskRepository(c.Postgres.DB()),
			Contacts:    pgrepo.NewContactRepository(c.Postgres.DB()),
			Credentials: pgrepo.NewCredentialRepository(c.Postgres.DB()),
			Agents:      pgrepo.NewAgentSettingsRepository(c.Postgres.DB()),
			Campaigns:   pgrepo.NewCampaignRepository(c.Postgres.DB()),
			CallLogs:    scyllarepo.NewCallLogStore(c.Scylla.Session()),
		}

		queues := &Queues{
			Delayed:  queue.NewDelayedQueue(c.Redis.Inner(), c.Config.Queue.Key),
			Outcomes: queue.NewOutcomePublisher(c.Kafka, c.Config.Kafka.OutcomeTopic),
		}

		providers := c.buildProviders()

		var limiter dispatch.AccountLimiter
		if c.Config.Dispatcher.PerAccountCap > 0 {
			limiter = concurrency.NewLimiter(c.Redis.Inner(), c.Config.Dispatcher.PerAccountCap, c.Config.Dispatcher.AccountSlotTTL)
		}

		dispatchCfg := dispatch.Config{
			BatchSize:          c.Config.Dispatcher.BatchSize,
			Concurrency:        c.Config.Dispatcher.Concurrency,
			MaxAttempts:        c.Config.Dispatcher.MaxAttempts,
			RequestTimeout:     c.Config.Gateway.RequestTimeout,
			DefaultVoiceID:     c.Config.Gateway.DefaultVoiceID,
			DefaultCallerID:    c.Config.Gateway.DefaultCallerID,
			DefaultCountryCode: c.Config.Gateway.DefaultCountryCode,
		}

		services := &Services{
			Dispatch: dispatch.NewService(
				dispatchCfg,
				repos.Tasks,
				repos.Contacts,
				repos.Credentials,
				repos.Agents,
				repos.Campaigns,
				providers.Voice,
				providers.Numbers,
				queues.Outcomes,
				limiter,
				c.Logger,
			),
		}

		c.components.repositories = repos
		c.components.queues = queues
		c.components.providers = providers
		c.components.services = services
	})
}

func (c *Container) buildProviders() *Providers {
	if c.Config.Gateway.Provider == "mock" {
		provider := gatewaymock.NewProvider()
		return &Providers{Voice: provider, Numbers: provider}
	}
	return &Providers{
		Voice:   vapi.NewClient(c.Config.Gateway),
		Numbers: twilio.NewNumberClient(c.Config.Telephony),
	}
}

// Repositories exposes initialized repositories.
func (c *Container) Repositories() *Repos {
	c.initComponents()
	return c.components.repositories
}

// Services exposes initialized services.
func (c *Container) Services() *Services {
	c.initComponents()
	return c.components.services
}

// Queues exposes queue components.
func (c *Container) Queues() *Queues {
	c.initComponents()
	return c.components.queues
}

// Providers exposes external gateway clients.
func (c *Container) Providers() *Providers {
	c.initComponents()
	return c.components.providers
}

// EnsureTopics ensures required Kafka topics exist.
func (c *Container) EnsureTopics(ctx context.Context) error {
	if c.Config.Kafka.OutcomeTopic == "" {
		return nil
	}
	return c.Kafka.EnsureTopics(ctx, []string{c.Config.Kafka.OutcomeTopic}, 12, 1)
}

// Close releases all held resources.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.components.queues != nil && c.components.queues.Outcomes != nil {
		if err := c.components.queues.Outcomes.Close(); err != nil {
			errs = append(errs, fmt.Errorf("outcome publisher close: %w", err))
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka close: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if c.Scylla != nil {
		if err := c.Scylla.Close(); err != nil {
			errs = append(errs, fmt.Errorf("scylla close: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres close: %w", err))
		}
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
