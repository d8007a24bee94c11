// Package container is the composition root: it builds every dependency of
// the service, wires the use cases to their adapters and owns the shutdown
// order.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	redislib "github.com/redis/go-redis/v9"

	httpadapter "github.com/purplewallet/walletcore/internal/adapters/http"
	"github.com/purplewallet/walletcore/internal/adapters/http/handlers"
	"github.com/purplewallet/walletcore/internal/application/ports"
	"github.com/purplewallet/walletcore/internal/application/usecases/transaction"
	"github.com/purplewallet/walletcore/internal/application/usecases/user"
	"github.com/purplewallet/walletcore/internal/application/usecases/wallet"
	"github.com/purplewallet/walletcore/internal/config"
	cacheredis "github.com/purplewallet/walletcore/internal/infrastructure/cache/redis"
	natsinfra "github.com/purplewallet/walletcore/internal/infrastructure/messaging/nats"
	"github.com/purplewallet/walletcore/internal/infrastructure/persistence/postgres"
	"github.com/purplewallet/walletcore/internal/pkg/logger"
	"github.com/purplewallet/walletcore/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
)

// Container holds the wired application.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool     *pgxpool.Pool
	redis    *redislib.Client
	natsConn *nats.Conn

	// Repositories
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository

	uow        ports.UnitOfWork
	uowFactory ports.UnitOfWorkFactory

	// Read-side helpers
	listingCache     ports.ListingCache
	idempotencyStore ports.IdempotencyStore
	notifier         ports.NotificationPublisher

	// Use cases
	registerUserUC   *user.RegisterUserUseCase
	createWalletUC   *wallet.CreateWalletUseCase
	getWalletUC      *wallet.GetWalletUseCase
	depositUC        *transaction.DepositUseCase
	ingestWebhookUC  *transaction.IngestDepositWebhookUseCase
	transferUC       *transaction.TransferUseCase
	processActionUC  *transaction.ProcessActionUseCase
	withdrawUC       *transaction.WithdrawUseCase
	cashOutRequestUC *transaction.CashOutRequestUseCase
	cashOutVerifyUC  *transaction.CashOutVerifyUseCase
	listUC           *transaction.ListTransactionsUseCase
	getTransactionUC *transaction.GetTransactionUseCase
	expirePendingUC  *transaction.ExpirePendingUseCase

	// HTTP and background work
	httpServer   *httpadapter.Server
	expiryWorker *worker.ExpiryWorker
}

// New creates an empty container for the given configuration.
func New(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Initialize builds every dependency. Connections are verified eagerly, so a
// misconfigured deployment fails at startup rather than on first request.
func (c *Container) Initialize(ctx context.Context) error {
	c.initLogger()
	c.logger.Info("initializing container")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.logger.Info("postgres connected")

	if err := c.initRedis(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	c.logger.Info("redis connected")

	if err := c.initNATS(); err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	c.logger.Info("nats connected")

	c.initRepositories()
	c.initUseCases()
	c.initHTTPServer()
	c.initWorker()

	c.logger.Info("container initialized")
	return nil
}

func (c *Container) initLogger() {
	if c.logger != nil {
		return
	}
	c.logger = logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    os.Stdout,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(c.logger)
}

func (c *Container) initDatabase(ctx context.Context) error {
	if c.pool != nil {
		return nil
	}
	pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		Database:        c.config.Database.Database,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		SSLMode:         c.config.Database.SSLMode,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
		ConnectTimeout:  5 * time.Second,
	})
	if err != nil {
		return err
	}
	c.pool = pool
	return nil
}

func (c *Container) initRedis(ctx context.Context) error {
	if c.redis != nil {
		return nil
	}
	client, err := cacheredis.NewClient(ctx, cacheredis.Config{
		Host:     c.config.Redis.Host,
		Port:     c.config.Redis.Port,
		Password: c.config.Redis.Password,
		DB:       c.config.Redis.DB,
	})
	if err != nil {
		return err
	}
	c.redis = client
	return nil
}

func (c *Container) initNATS() error {
	if c.natsConn != nil {
		return nil
	}
	conn, err := natsinfra.Connect(natsinfra.Config{
		URL:  c.config.NATS.URL,
		Name: c.config.NATS.Name,
	})
	if err != nil {
		return err
	}
	c.natsConn = conn
	return nil
}

func (c *Container) initRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)

	c.uow = postgres.NewUnitOfWork(c.pool)
	c.uowFactory = postgres.NewUnitOfWorkFactory(c.pool)

	c.listingCache = cacheredis.NewListingCache(c.redis, c.config.Business.ListCacheTTL)
	c.idempotencyStore = cacheredis.NewIdempotencyStore(c.redis, c.config.Business.IdempotencyTTL)

	if c.notifier == nil {
		c.notifier = natsinfra.NewPublisher(c.natsConn)
	}
}

func (c *Container) initUseCases() {
	business := &c.config.Business

	c.registerUserUC = user.NewRegisterUserUseCase(c.userRepo, c.walletRepo, c.notifier, c.uow)

	c.createWalletUC = wallet.NewCreateWalletUseCase(c.userRepo, c.walletRepo, c.notifier, c.uow)
	c.getWalletUC = wallet.NewGetWalletUseCase(c.walletRepo)

	c.depositUC = transaction.NewDepositUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
	)
	c.ingestWebhookUC = transaction.NewIngestDepositWebhookUseCase(c.depositUC, c.idempotencyStore)

	c.transferUC = transaction.NewTransferUseCase(
		c.userRepo, c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
		business.TransferExpiry(),
	)
	c.processActionUC = transaction.NewProcessActionUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
	)
	c.withdrawUC = transaction.NewWithdrawUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
	)
	c.cashOutRequestUC = transaction.NewCashOutRequestUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
		business.CashOutExpiry(),
	)
	c.cashOutVerifyUC = transaction.NewCashOutVerifyUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uow,
	)

	c.listUC = transaction.NewListTransactionsUseCase(c.transactionRepo, c.listingCache)
	c.getTransactionUC = transaction.NewGetTransactionUseCase(c.walletRepo, c.transactionRepo)

	c.expirePendingUC = transaction.NewExpirePendingUseCase(
		c.walletRepo, c.transactionRepo, c.notifier, c.listingCache, c.uowFactory, 0,
	)
}

func (c *Container) initHTTPServer() {
	routerConfig := &httpadapter.RouterConfig{
		Logger:         c.logger,
		Version:        c.config.App.Version,
		BuildTime:      "unknown",
		Environment:    c.config.App.Environment,
		AllowedOrigins: c.config.CORS.AllowedOrigins,
		JWTSecret:      []byte(c.config.Auth.JWTSecret),
		WebhookSecret:  []byte(c.config.Webhook.PaysendSecret),
		IPWhitelist:    c.config.Webhook.IPWhitelist,
		ReadinessChecks: map[string]handlers.CheckFunc{
			"postgres": func(ctx context.Context) error {
				return c.pool.Ping(ctx)
			},
			"redis": func(ctx context.Context) error {
				return c.redis.Ping(ctx).Err()
			},
			"nats": func(ctx context.Context) error {
				if !c.natsConn.IsConnected() {
					return fmt.Errorf("not connected: %s", c.natsConn.Status())
				}
				return nil
			},
		},
	}

	router := httpadapter.NewRouterBuilder(routerConfig).
		WithUserUseCases(&httpadapter.UserUseCases{
			RegisterUser: c.registerUserUC,
		}).
		WithWalletUseCases(&httpadapter.WalletUseCases{
			CreateWallet: c.createWalletUC,
			GetWallet:    c.getWalletUC,
		}).
		WithTransactionUseCases(&httpadapter.TransactionUseCases{
			Transfer:         c.transferUC,
			ProcessAction:    c.processActionUC,
			Withdraw:         c.withdrawUC,
			CashOutRequest:   c.cashOutRequestUC,
			CashOutVerify:    c.cashOutVerifyUC,
			ListTransactions: c.listUC,
			GetTransaction:   c.getTransactionUC,
		}).
		WithWebhookIngest(c.ingestWebhookUC).
		WithIdempotencyStore(c.idempotencyStore).
		Build()

	serverConfig := &httpadapter.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            fmt.Sprintf("%d", c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = httpadapter.NewServer(serverConfig, router)
}

func (c *Container) initWorker() {
	c.expiryWorker = worker.NewExpiryWorker(
		c.expirePendingUC,
		c.config.Business.ExpiryWorkerPeriod,
		c.logger,
	)
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool returns the Postgres pool.
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// HTTPServer returns the HTTP server.
func (c *Container) HTTPServer() *httpadapter.Server {
	return c.httpServer
}

// ExpiryWorker returns the background expiry worker.
func (c *Container) ExpiryWorker() *worker.ExpiryWorker {
	return c.expiryWorker
}

// Run starts the expiry worker and serves HTTP until SIGINT or SIGTERM.
func (c *Container) Run() error {
	c.logger.Info("starting service",
		slog.String("name", c.config.App.Name),
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	go c.expiryWorker.Run(workerCtx)

	return c.httpServer.Run()
}

// Shutdown releases every resource the container owns. The HTTP server drains
// first so in-flight requests still reach the database and the publisher.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("shutting down container")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("nats drain: %w", err))
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("postgres close: %w", ctx.Err()))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("container shutdown complete")
	return nil
}
