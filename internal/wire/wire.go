// Package wire provides dependency injection for assetflow.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	cliadapter "github.com/example/assetflow/internal/adapters/cli"
	"github.com/example/assetflow/internal/adapters/gatewayclient"
	"github.com/example/assetflow/internal/adapters/httpapi"
	"github.com/example/assetflow/internal/adapters/kafka"
	"github.com/example/assetflow/internal/adapters/metrics"
	"github.com/example/assetflow/internal/adapters/sqlite"
	"github.com/example/assetflow/internal/app"
	"github.com/example/assetflow/internal/config"
	"github.com/example/assetflow/internal/ctxutil"
	"github.com/example/assetflow/internal/db"
	"github.com/example/assetflow/internal/ports/primary"
	"github.com/example/assetflow/internal/ports/secondary"
)

// ErrRemoteGateway is returned for operations that need the local store
// while a remote gateway is configured.
var ErrRemoteGateway = errors.New("operation requires the local database; unset gateway.url")

// Services is one assembled object graph.
type Services struct {
	Config   *config.Config
	Gateway  primary.TransferGateway
	Registry primary.AssetRegistry
	// Admin is nil when talking to a remote gateway.
	Admin     primary.RegistryAdmin
	Metrics   *metrics.TransferMetrics
	Gatherer  prometheus.Gatherer
	Publisher secondary.EventPublisher
	Logger    *slog.Logger
}

// NewLocal assembles services over a local SQLite database. reg receives
// the transition counters and is served at /metrics.
func NewLocal(database *sql.DB, cfg *config.Config, reg *prometheus.Registry, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	repos := app.GatewayRepositories{
		Transfers:  sqlite.NewTransferRepository(database),
		Assets:     sqlite.NewAssetRepository(database),
		Sectors:    sqlite.NewSectorRepository(database),
		Custodians: sqlite.NewCustodianRepository(database),
		AuditLogs:  sqlite.NewAuditLogRepository(database),
	}
	audit := sqlite.NewAuditWriterAdapter(repos.AuditLogs)

	var publisher secondary.EventPublisher = kafka.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	transitions := metrics.NewTransferMetrics(reg)
	executor := app.NewEffectExecutor(audit, publisher, logger)
	policy := app.Policy{AllowSelfApproval: cfg.Policy.AllowSelfApproval}

	// Create services (primary ports implementation)
	gateway := app.NewGatewayService(repos, audit, executor, transitions, policy, logger)
	registry := app.NewAssetService(repos.Assets, repos.Sectors, repos.Custodians, audit, logger)

	return &Services{
		Config:    cfg,
		Gateway:   gateway,
		Registry:  registry,
		Admin:     registry,
		Metrics:   transitions,
		Gatherer:  reg,
		Publisher: publisher,
		Logger:    logger,
	}
}

// NewRemote assembles services that reach the gateway over HTTP.
func NewRemote(cfg *config.Config, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	client := gatewayclient.New(cfg.Gateway.URL, cfg.Gateway.Timeout)
	return &Services{
		Config:    cfg,
		Gateway:   client,
		Registry:  client,
		Publisher: kafka.NoopPublisher{},
		Logger:    logger,
	}
}

// Policy returns the configured workflow rules.
func (s *Services) Policy() app.Policy {
	return app.Policy{AllowSelfApproval: s.Config.Policy.AllowSelfApproval}
}

// CallerContext attaches the configured actor to ctx.
func (s *Services) CallerContext(ctx context.Context) context.Context {
	return ctxutil.WithCaller(ctx, ctxutil.Caller{ID: s.Config.Actor.ID, Role: s.Config.Actor.Role})
}

// NewTransferWizard starts a request wizard for the configured actor.
func (s *Services) NewTransferWizard() *app.TransferWizard {
	return app.NewTransferWizard(s.Gateway, s.Registry, s.Config.Caller(), s.Logger)
}

// NewTransferActions returns approve/reject/effectuate for the configured actor.
func (s *Services) NewTransferActions() *app.TransferActionsImpl {
	return app.NewTransferActions(s.Gateway, s.Config.Caller(), s.Policy(), s.Logger)
}

// TransferAdapter returns a TransferAdapter writing to out.
func (s *Services) TransferAdapter(out io.Writer) *cliadapter.TransferAdapter {
	return cliadapter.NewTransferAdapter(s.Gateway, s.NewTransferActions(), out)
}

// AssetAdapter returns an AssetAdapter writing to out.
func (s *Services) AssetAdapter(out io.Writer) *cliadapter.AssetAdapter {
	return cliadapter.NewAssetAdapter(s.Registry, s.Admin, out)
}

// HTTPServer returns the gateway HTTP server. Only a local graph can serve.
func (s *Services) HTTPServer() (*httpapi.Server, error) {
	if s.Admin == nil {
		return nil, ErrRemoteGateway
	}
	return httpapi.NewServer(s.Gateway, s.Registry, s.Gatherer, s.Logger), nil
}

// Close releases the event publisher.
func (s *Services) Close() error {
	return s.Publisher.Close()
}

var (
	services *Services
	once     sync.Once
)

// Get returns the singleton Services, built from the config in the working
// directory on first use.
func Get() *Services {
	once.Do(initServices)
	return services
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatalf("failed to get working directory: %v", err)
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if cfg.IsRemote() {
		services = NewRemote(cfg, logger)
		return
	}

	if cfg.Database.Path != "" {
		db.SetPath(cfg.Database.Path)
	}
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	services = NewLocal(database, cfg, reg, logger)
}

// TransferAdapter returns a new TransferAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func TransferAdapter() *cliadapter.TransferAdapter {
	return TransferAdapterWithOutput(os.Stdout)
}

// TransferAdapterWithOutput returns a new TransferAdapter writing to the given output.
func TransferAdapterWithOutput(out io.Writer) *cliadapter.TransferAdapter {
	return Get().TransferAdapter(out)
}

// AssetAdapter returns a new AssetAdapter writing to stdout.
func AssetAdapter() *cliadapter.AssetAdapter {
	return AssetAdapterWithOutput(os.Stdout)
}

// AssetAdapterWithOutput returns a new AssetAdapter writing to the given output.
func AssetAdapterWithOutput(out io.Writer) *cliadapter.AssetAdapter {
	return Get().AssetAdapter(out)
}

// CallerContext attaches the configured actor to ctx.
func CallerContext(ctx context.Context) context.Context {
	return Get().CallerContext(ctx)
}

// Database returns the local database connection. Fails when a remote
// gateway is configured.
func Database() (*sql.DB, error) {
	if Get().Admin == nil {
		return nil, ErrRemoteGateway
	}
	return db.GetDB()
}
