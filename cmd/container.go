// Root composition root. Owns infrastructure (DB, Redis, notifier) and
// composes the bounded-context containers. This is the only place that knows
// about all modules.
package main

import (
	"context"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/gestionsaas/identity/pkg/asyncx"
	"github.com/gestionsaas/identity/pkg/config"
	"github.com/gestionsaas/identity/pkg/database"
	"github.com/gestionsaas/identity/pkg/iam/iamcontainer"
	"github.com/gestionsaas/identity/pkg/logx"
	"github.com/gestionsaas/identity/pkg/notifx"
	"github.com/gestionsaas/identity/pkg/notifx/notifxconsole"
	"github.com/gestionsaas/identity/pkg/notifx/notifxqueue"
	"github.com/gestionsaas/identity/pkg/notifx/notifxses"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB         *sqlx.DB
	Redis      *redis.Client
	Notifier   *notifx.Client
	MailWorker *notifxqueue.Worker
	dispatcher *notifxqueue.Dispatcher

	// Bounded-context containers
	IAM *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis, notifier
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	ctx := context.Background()

	// A scheduler restart can race the backing services coming up, so both
	// connects retry with backoff before giving up.
	db, err := asyncx.RetryWithBackoff(ctx, 5, 500*time.Millisecond,
		func(ctx context.Context) (*sqlx.DB, error) {
			return database.Connect(c.Config.Database)
		})
	if err != nil {
		logx.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		logx.Fatalf("failed to apply schema: %v", err)
	}
	c.DB = db
	logx.Info("database connected")

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := asyncx.RetryWithBackoff(ctx, 5, 500*time.Millisecond,
		func(ctx context.Context) (string, error) {
			return c.Redis.Ping(ctx).Result()
		}); err != nil {
		logx.Fatalf("failed to connect to Redis: %v (Redis is required for refresh rotation)", err)
	}
	logx.Info("redis connected")

	c.initNotifier()
	c.initMailQueue()
}

func (c *Container) initNotifier() {
	switch c.Config.Notif.Provider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(c.Config.Notif.AWSRegion))
		if err != nil {
			logx.Fatalf("unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notif.FromAddress)
		c.Notifier = notifx.NewClient(provider, c.Config.Notif.FromAddress)
		logx.Infof("SES notifier configured (region: %s)", c.Config.Notif.AWSRegion)

	case "console":
		c.Notifier = notifx.NewClient(notifxconsole.NewConsoleProvider(), c.Config.Notif.FromAddress)
		logx.Info("console notifier configured")

	default:
		logx.Fatalf("unknown NOTIF_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notif.Provider)
	}
}

// initMailQueue puts a Redis-backed outbox in front of the notifier so
// invitation emails survive provider hiccups and never block a request.
func (c *Container) initMailQueue() {
	outbox := notifxqueue.NewRedisOutbox(c.Redis)
	c.dispatcher = notifxqueue.NewDispatcher(outbox, 3)
	c.MailWorker = notifxqueue.NewWorker(outbox, c.Notifier,
		notifxqueue.WithConcurrency(2),
		notifxqueue.WithRetryDelay(30*time.Second),
	)
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	c.IAM = iamcontainer.New(iamcontainer.Deps{
		DB:       c.DB,
		Redis:    c.Redis,
		Cfg:      c.Config,
		Notifier: c.dispatcher,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("error closing database: %v", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("error closing Redis: %v", err)
		}
	}
	logx.Info("cleanup complete")
}
