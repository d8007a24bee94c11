// Package http assembles handlers and middleware into the HTTP entry point.
//
// The router is the composition root of the API surface: handlers receive
// only the use cases they serve, and each route group carries exactly the
// middleware its trust level requires (user auth, source-IP filtering, or
// none).
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/purplewallet/walletcore/internal/adapters/http/common"
	"github.com/purplewallet/walletcore/internal/adapters/http/handlers"
	"github.com/purplewallet/walletcore/internal/adapters/http/middleware"
	"github.com/purplewallet/walletcore/internal/application/ports"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	Logger      *slog.Logger
	Version     string
	BuildTime   string
	Environment string
	// AllowedOrigins pins CORS origins in production.
	AllowedOrigins []string
	// JWTSecret verifies user bearer tokens.
	JWTSecret []byte
	// WebhookSecret verifies provider webhook signatures.
	WebhookSecret []byte
	// IPWhitelist guards the machine-facing endpoints. Empty admits all.
	IPWhitelist []string
	// ReadinessChecks are mounted on /ready, keyed by dependency name.
	ReadinessChecks map[string]handlers.CheckFunc
}

// DefaultRouterConfig returns a development configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:         slog.Default(),
		Version:        "dev",
		BuildTime:      "unknown",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
		JWTSecret:      []byte("dev-secret"),
		WebhookSecret:  []byte("dev-webhook-secret"),
	}
}

// UserUseCases provides the user-facing identity operations.
type UserUseCases struct {
	RegisterUser handlers.RegisterUserUseCase
}

// WalletUseCases provides the wallet operations.
type WalletUseCases struct {
	CreateWallet handlers.CreateWalletUseCase
	GetWallet    handlers.GetWalletUseCase
}

// TransactionUseCases provides the money-movement and history operations.
type TransactionUseCases struct {
	Transfer         handlers.TransferUseCase
	ProcessAction    handlers.ProcessActionUseCase
	Withdraw         handlers.WithdrawUseCase
	CashOutRequest   handlers.CashOutRequestUseCase
	CashOutVerify    handlers.CashOutVerifyUseCase
	ListTransactions handlers.ListTransactionsUseCase
	GetTransaction   handlers.GetTransactionUseCase
}

// RouterBuilder assembles the router step by step.
type RouterBuilder struct {
	config       *RouterConfig
	users        *UserUseCases
	wallets      *WalletUseCases
	transactions *TransactionUseCases
	ingest       handlers.IngestWebhookUseCase
	idempotency  ports.IdempotencyStore
}

// NewRouterBuilder creates the builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{config: config}
}

// WithUserUseCases adds the user operations.
func (b *RouterBuilder) WithUserUseCases(useCases *UserUseCases) *RouterBuilder {
	b.users = useCases
	return b
}

// WithWalletUseCases adds the wallet operations.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithTransactionUseCases adds the transaction operations.
func (b *RouterBuilder) WithTransactionUseCases(useCases *TransactionUseCases) *RouterBuilder {
	b.transactions = useCases
	return b
}

// WithWebhookIngest adds the provider webhook ingestion.
func (b *RouterBuilder) WithWebhookIngest(ingest handlers.IngestWebhookUseCase) *RouterBuilder {
	b.ingest = ingest
	return b
}

// WithIdempotencyStore adds the store backing the verify endpoint.
func (b *RouterBuilder) WithIdempotencyStore(store ports.IdempotencyStore) *RouterBuilder {
	b.idempotency = store
	return b
}

// Build creates the configured gin engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupValidator()

	// Recovery first, then request IDs so every log line carries one.
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))
	router.Use(middleware.RequestID())

	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}))
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(b.config.Version, b.config.BuildTime)
	for name, check := range b.config.ReadinessChecks {
		healthHandler.AddCheck(name, check)
	}
	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")

	// Registration is the only public endpoint.
	if b.users != nil {
		userHandler := handlers.NewUserHandler(b.users.RegisterUser)
		v1.POST("/users", userHandler.Register)
	}

	// User-facing endpoints authenticate the caller.
	protected := v1.Group("")
	protected.Use(middleware.Auth(&middleware.AuthConfig{Secret: b.config.JWTSecret}))
	{
		if b.wallets != nil {
			walletHandler := handlers.NewWalletHandler(b.wallets.CreateWallet, b.wallets.GetWallet)
			wallets := protected.Group("/wallets")
			{
				wallets.POST("", walletHandler.Create)
				wallets.GET("/me", walletHandler.Me)
			}
		}

		if b.transactions != nil {
			txHandler := b.transactionHandler()

			// Money movement carries a stricter per-user rate limit.
			money := protected.Group("")
			money.Use(middleware.TransactionRateLimit())
			{
				money.POST("/transfers", txHandler.Transfer)
				money.POST("/transfers/actions", txHandler.ProcessAction)
				money.POST("/withdrawals", txHandler.Withdraw)
				money.POST("/cash-outs", txHandler.CashOutCreate)
			}

			transactions := protected.Group("/transactions")
			{
				transactions.GET("", txHandler.List)
				transactions.GET("/:id", txHandler.Get)
			}
		}
	}

	// Machine-facing endpoints authenticate the calling system: source IP
	// filtering here, signatures and idempotency in the handlers.
	machine := v1.Group("")
	machine.Use(middleware.IPWhitelist(b.config.IPWhitelist))
	{
		if b.transactions != nil {
			machine.POST("/cash-outs/verify", b.transactionHandler().CashOutVerify)
		}
		if b.ingest != nil {
			webhookHandler := handlers.NewWebhookHandler(b.ingest, b.config.WebhookSecret)
			machine.POST("/webhooks/paysend", webhookHandler.Paysend)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, "endpoint not found")
	})

	return router
}

func (b *RouterBuilder) transactionHandler() *handlers.TransactionHandler {
	return handlers.NewTransactionHandler(
		b.transactions.Transfer,
		b.transactions.ProcessAction,
		b.transactions.Withdraw,
		b.transactions.CashOutRequest,
		b.transactions.CashOutVerify,
		b.transactions.ListTransactions,
		b.transactions.GetTransaction,
		b.idempotency,
	)
}

// NewRouter creates a router in one call.
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
