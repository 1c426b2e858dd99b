package di

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/Anidipta/Node-Learner/application/commands"
	"github.com/Anidipta/Node-Learner/application/commands/bus"
	commandhandlers "github.com/Anidipta/Node-Learner/application/commands/handlers"
	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/application/queries"
	querybus "github.com/Anidipta/Node-Learner/application/queries/bus"
	queryhandlers "github.com/Anidipta/Node-Learner/application/queries/handlers"
	"github.com/Anidipta/Node-Learner/application/services"
	domainconfig "github.com/Anidipta/Node-Learner/domain/config"
	"github.com/Anidipta/Node-Learner/domain/events"
	"github.com/Anidipta/Node-Learner/infrastructure/ai"
	"github.com/Anidipta/Node-Learner/infrastructure/config"
	"github.com/Anidipta/Node-Learner/infrastructure/messaging/eventbridge"
	cloudwatchmetrics "github.com/Anidipta/Node-Learner/infrastructure/metrics"
	"github.com/Anidipta/Node-Learner/infrastructure/persistence/dynamodb"
	"github.com/Anidipta/Node-Learner/infrastructure/persistence/schema"
	"github.com/Anidipta/Node-Learner/interfaces/http/rest/middleware"
	"github.com/Anidipta/Node-Learner/pkg/auth"
	"github.com/Anidipta/Node-Learner/pkg/extensions"
	"github.com/Anidipta/Node-Learner/pkg/observability"
	"github.com/Anidipta/Node-Learner/pkg/ratelimit"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// dashboardStatsTTLSecs bounds how stale the cached dashboard view may
// get. The stats aggregate every saved tree and session record, so they
// are the one read worth caching at the bus.
const dashboardStatsTTLSecs = 30

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	DomainConfig   *domainconfig.DomainConfig
	Logger         *zap.Logger
	TreeRepo       ports.TreeRepository
	SessionRepo    ports.SessionRepository
	EventBus       ports.EventBus
	Cache          ports.Cache
	Registry       *services.SessionRegistry
	CommandBus     *bus.CommandBus
	QueryBus       *querybus.QueryBus
	AuthMiddleware middleware.AuthFunc
	TokenRefresh   *middleware.TokenRefreshMiddleware
	Collector      *observability.Collector
	Hooks          *extensions.HookManager
	Plugins        *extensions.PluginManager
}

// Shutdown stops plugins and flushes buffered log entries. Meant to run
// once, after the HTTP server has drained.
func (c *Container) Shutdown(ctx context.Context) {
	if c.Plugins != nil {
		for _, err := range c.Plugins.Shutdown(ctx) {
			c.Logger.Warn("Plugin shutdown failed", zap.Error(err))
		}
	}
	_ = c.Logger.Sync()
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// ProvideDomainConfig selects the domain rule set for the environment
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMigrator creates the document schema migrator
func ProvideMigrator(logger *zap.Logger) *schema.Migrator {
	return schema.NewMigrator(logger)
}

// ProvideTreeRepository creates the tree document store
func ProvideTreeRepository(
	client *awsdynamodb.Client,
	cfg *config.Config,
	migrator *schema.Migrator,
	logger *zap.Logger,
) ports.TreeRepository {
	return dynamodb.NewTreeRepository(
		client,
		cfg.DynamoDBTable,
		cfg.TreeIndexName, // GSI1 for tree-id lookups
		migrator,
		logger,
	)
}

// ProvideSessionRepository creates the learning-session record store
func ProvideSessionRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SessionRepository {
	return dynamodb.NewSessionRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideSaveLocker creates the save lock when enabled. Deployments that
// accept last-write-wins on concurrent saves run with a nil locker.
func ProvideSaveLocker(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SaveLocker {
	if !cfg.SaveLockEnabled {
		return nil
	}
	return dynamodb.NewSaveLock(client, cfg.DynamoDBTable, cfg.SaveLockTTL, logger)
}

// ProvideEventBus creates an event bus
func ProvideEventBus(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventBus {
	return eventbridge.NewEventBridgePublisher(
		client,
		cfg.EventBusName,
		logger,
	)
}

// ProvideHookManager creates the extension hook registry
func ProvideHookManager(logger *zap.Logger) *extensions.HookManager {
	return extensions.NewHookManager(logger)
}

// ProvideCollector creates the Prometheus metrics collector
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector("nodelearner")
}

// ProvideTracer creates the X-Ray tracer when tracing is enabled
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.EnableTracing {
		return nil
	}
	return observability.NewTracer("nodelearner")
}

// ProvidePluginManager wires observer plugins onto the hook manager. The
// Prometheus bridge always runs; CloudWatch emission is opt-in because
// it costs money per datapoint.
func ProvidePluginManager(
	hooks *extensions.HookManager,
	cwClient *awscloudwatch.Client,
	collector *observability.Collector,
	registry *services.SessionRegistry,
	cfg *config.Config,
	logger *zap.Logger,
) (*extensions.PluginManager, error) {
	plugins := extensions.NewPluginManager(hooks)

	if err := plugins.Register(newPrometheusPlugin(collector, registry)); err != nil {
		return nil, err
	}

	if cfg.EnableMetrics {
		emitter := cloudwatchmetrics.NewEmitter(
			fmt.Sprintf("NodeLearner/%s", cfg.Environment),
			cwClient,
			logger,
		)
		if err := plugins.Register(cloudwatchmetrics.NewCloudWatchPlugin(emitter)); err != nil {
			return nil, err
		}
	}

	return plugins, nil
}

// ProvideEventPublisher creates an event publisher (adapter for EventBus)
func ProvideEventPublisher(eventBus ports.EventBus, hooks *extensions.HookManager) ports.EventPublisher {
	return &eventPublisherAdapter{eventBus: eventBus, hooks: hooks}
}

// eventPublisherAdapter adapts EventBus to EventPublisher and mirrors
// every published event onto the local hook points, so in-process
// observers see the same stream the bus does.
type eventPublisherAdapter struct {
	eventBus ports.EventBus
	hooks    *extensions.HookManager
}

func (a *eventPublisherAdapter) Publish(ctx context.Context, event events.DomainEvent) error {
	a.notifyHooks(ctx, event)
	return a.eventBus.Publish(ctx, event)
}

func (a *eventPublisherAdapter) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for _, event := range domainEvents {
		a.notifyHooks(ctx, event)
	}
	return a.eventBus.PublishBatch(ctx, domainEvents)
}

func (a *eventPublisherAdapter) notifyHooks(ctx context.Context, event events.DomainEvent) {
	point, ok := hookPointFor(event.GetEventType())
	if !ok {
		return
	}
	a.hooks.ExecuteAsync(ctx, point, &extensions.HookData{
		SessionID: event.GetAggregateID(),
		Operation: event.GetEventType(),
		Payload:   event,
	})
}

// hookPointFor maps a domain event type to its local hook point.
func hookPointFor(eventType string) (extensions.HookPoint, bool) {
	switch eventType {
	case "session.started":
		return extensions.HookSessionStarted, true
	case "session.ended":
		return extensions.HookSessionEnded, true
	case "session.recorded":
		return extensions.HookSessionRecorded, true
	case "graph.expanded":
		return extensions.HookGraphExpanded, true
	case "concept.added":
		return extensions.HookConceptAdded, true
	case "concept.removed":
		return extensions.HookConceptRemoved, true
	case "concepts.linked":
		return extensions.HookConceptsLinked, true
	case "focus.changed":
		return extensions.HookFocusChanged, true
	case "tree.saved":
		return extensions.HookTreeSaved, true
	}
	return "", false
}

// ProvideExplorer selects the concept explorer. Without an API key the
// mock keeps every flow usable locally.
func ProvideExplorer(cfg *config.Config, logger *zap.Logger) ports.Explorer {
	if cfg.ExplorerProvider == "mock" || cfg.ExplorerAPIKey == "" {
		logger.Info("Using mock explorer",
			zap.String("provider", cfg.ExplorerProvider),
		)
		return ai.NewMockExplorer()
	}
	return ai.NewExplorer(ai.NewOpenAIClient(cfg, logger), logger)
}

// ProvideSessionBudget creates the per-session explorer-call budget. In
// Lambda the counter must live in DynamoDB because invocations do not
// share memory.
func ProvideSessionBudget(client *awsdynamodb.Client, cfg *config.Config) ratelimit.SessionBudget {
	if cfg.ExpansionsPerMinute <= 0 {
		return nil
	}
	if cfg.IsLambda {
		return ratelimit.NewDistributedSessionBudget(client, cfg.DynamoDBTable, cfg.ExpansionsPerMinute)
	}
	return ratelimit.NewExpansionBudget(cfg.ExpansionsPerMinute)
}

// ProvideTreeCodec creates the graph/document codec
func ProvideTreeCodec(domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *services.TreeCodec {
	return services.NewTreeCodec(domainCfg, logger)
}

// ProvideExpansionService creates the expansion service
func ProvideExpansionService(
	explorer ports.Explorer,
	budget ratelimit.SessionBudget,
	domainCfg *domainconfig.DomainConfig,
	cfg *config.Config,
	logger *zap.Logger,
) *services.ExpansionService {
	return services.NewExpansionService(explorer, budget, domainCfg, cfg.ExplorerTimeout, logger)
}

// ProvidePersistenceService creates the save/resume service
func ProvidePersistenceService(
	trees ports.TreeRepository,
	locker ports.SaveLocker,
	codec *services.TreeCodec,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.PersistenceService {
	return services.NewPersistenceService(trees, locker, codec, domainCfg, logger)
}

// ProvideSessionRegistry creates the live-session registry. The idle
// sweeper is started by the server entrypoint, not here, so Lambda can
// skip it.
func ProvideSessionRegistry(domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *services.SessionRegistry {
	return services.NewSessionRegistry(domainCfg, logger)
}

// ProvideSessionRecorder creates the session recorder
func ProvideSessionRecorder(sessions ports.SessionRepository, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *services.SessionRecorder {
	return services.NewSessionRecorder(sessions, domainCfg, logger)
}

// ProvideExplanationService creates the explanation service
func ProvideExplanationService(
	explorer ports.Explorer,
	cache ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) *services.ExplanationService {
	return services.NewExplanationService(explorer, cache, cfg.ExplanationTTLSecs, cfg.ExplorerTimeout, logger)
}

// ProvideCache creates the application cache, instrumented so hit rates
// show up on the scrape endpoint.
func ProvideCache(collector *observability.Collector) ports.Cache {
	return newInstrumentedCache(NewInMemoryCache(), collector)
}

// ProvideAuthMiddleware picks the authentication strategy for the runtime
// environment: header trust behind the API Gateway authorizer in Lambda,
// local JWT validation everywhere else.
func ProvideAuthMiddleware(cfg *config.Config, logger *zap.Logger) (middleware.AuthFunc, error) {
	if cfg.IsLambda || cfg.LambdaFunctionName != "" {
		return middleware.AuthenticateFromGateway(logger), nil
	}

	secret := cfg.JWTSecret
	if secret == "" {
		// Config validation rejects a missing secret in production, so
		// this fallback only ever runs in development.
		secret = "development-secret-change-in-production"
		logger.Warn("JWT_SECRET not set, using the development secret")
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     secret,
		Issuer:        cfg.JWTIssuer,
		Audience:      auth.DefaultAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build JWT validator: %w", err)
	}

	return middleware.Authenticate(validator, cfg.RequestsPerMinute, logger), nil
}

// ProvideTokenRefresh builds the token refresh handler. Without a signing
// secret there is nothing to mint against and the route stays unmounted.
func ProvideTokenRefresh(cfg *config.Config) (*middleware.TokenRefreshMiddleware, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return middleware.NewTokenRefreshMiddleware(cfg.JWTSecret)
}

// instrumentCommand wraps a command handler so every dispatch is traced
// and announced on the hook points.
func instrumentCommand(
	name string,
	hooks *extensions.HookManager,
	tracer *observability.Tracer,
	handle func(context.Context, bus.Command) error,
) bus.CommandHandler {
	return bus.CommandHandlerFunc(
		func(ctx context.Context, cmd bus.Command) error {
			sessionID, userID := commandScope(cmd)

			hooks.ExecuteAsync(ctx, extensions.HookBeforeCommandExecute, &extensions.HookData{
				SessionID: sessionID,
				UserID:    userID,
				Operation: name,
			})

			started := time.Now()
			var err error
			if tracer != nil {
				err = tracer.TraceCommand(ctx, name, sessionID, userID, func(ctx context.Context) error {
					return handle(ctx, cmd)
				})
			} else {
				err = handle(ctx, cmd)
			}

			data := &extensions.HookData{
				SessionID: sessionID,
				UserID:    userID,
				Operation: name,
				Metadata: map[string]interface{}{
					"duration": time.Since(started),
					"error":    err,
				},
			}
			hooks.ExecuteAsync(ctx, extensions.HookAfterCommandExecute, data)
			if err != nil {
				hooks.ExecuteAsync(ctx, extensions.HookCommandFailed, data)
			}
			return err
		})
}

// commandScope pulls the session and user ids off a command by field
// name. The bus already keys dispatch on reflected command types, so the
// ids ride the same mechanism instead of widening the Command interface.
func commandScope(cmd bus.Command) (sessionID, userID string) {
	v := reflect.ValueOf(cmd)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", ""
	}
	if f := v.FieldByName("SessionID"); f.IsValid() && f.Kind() == reflect.String {
		sessionID = f.String()
	}
	if f := v.FieldByName("UserID"); f.IsValid() && f.Kind() == reflect.String {
		userID = f.String()
	}
	return sessionID, userID
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	expansion *services.ExpansionService,
	persistence *services.PersistenceService,
	registry *services.SessionRegistry,
	recorder *services.SessionRecorder,
	publisher ports.EventPublisher,
	hooks *extensions.HookManager,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()

	pipeline := bus.NewPipeline(bus.LoggingMiddleware(logger))
	register := func(cmdType bus.Command, name string, handle func(context.Context, bus.Command) error) {
		commandBus.Register(cmdType, pipeline.Execute(instrumentCommand(name, hooks, tracer, handle)))
	}

	startHandler := commandhandlers.NewStartExplorationHandler(expansion, registry, publisher, logger)
	register(&commands.StartExplorationCommand{}, "StartExploration", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.StartExplorationCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return startHandler.Handle(ctx, c)
	})

	resumeHandler := commandhandlers.NewResumeExplorationHandler(persistence, registry, publisher, logger)
	register(&commands.ResumeExplorationCommand{}, "ResumeExploration", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.ResumeExplorationCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return resumeHandler.Handle(ctx, c)
	})

	expandHandler := commandhandlers.NewExpandConceptHandler(expansion, registry, publisher, logger)
	register(&commands.ExpandConceptCommand{}, "ExpandConcept", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.ExpandConceptCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return expandHandler.Handle(ctx, c)
	})

	autoExpandHandler := commandhandlers.NewAutoExpandStepHandler(expansion, registry, publisher, logger)
	register(&commands.AutoExpandStepCommand{}, "AutoExpandStep", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.AutoExpandStepCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return autoExpandHandler.Handle(ctx, c)
	})

	focusHandler := commandhandlers.NewFocusConceptHandler(registry, publisher, logger)
	register(&commands.FocusConceptCommand{}, "FocusConcept", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.FocusConceptCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return focusHandler.Handle(ctx, c)
	})

	removeHandler := commandhandlers.NewRemoveConceptHandler(registry, publisher, logger)
	register(&commands.RemoveConceptCommand{}, "RemoveConcept", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.RemoveConceptCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return removeHandler.Handle(ctx, c)
	})

	linkHandler := commandhandlers.NewLinkConceptsHandler(registry, publisher, logger)
	register(&commands.LinkConceptsCommand{}, "LinkConcepts", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.LinkConceptsCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return linkHandler.Handle(ctx, c)
	})

	saveHandler := commandhandlers.NewSaveTreeHandler(persistence, registry, publisher, logger)
	register(&commands.SaveTreeCommand{}, "SaveTree", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.SaveTreeCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return saveHandler.Handle(ctx, c)
	})

	endHandler := commandhandlers.NewEndSessionHandler(recorder, registry, publisher, logger)
	register(&commands.EndSessionCommand{}, "EndSession", func(ctx context.Context, cmd bus.Command) error {
		c, ok := cmd.(*commands.EndSessionCommand)
		if !ok {
			return fmt.Errorf("invalid command type %T", cmd)
		}
		return endHandler.Handle(ctx, c)
	})

	return commandBus
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	trees ports.TreeRepository,
	sessions ports.SessionRepository,
	registry *services.SessionRegistry,
	explanations *services.ExplanationService,
	codec *services.TreeCodec,
	cache ports.Cache,
	collector *observability.Collector,
	logger *zap.Logger,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	metricsMW := querybus.NewMetricsMiddleware(&collectorMetrics{collector: collector})
	cachingMW := querybus.NewCachingMiddleware(cache, dashboardStatsTTLSecs)

	register := func(queryType querybus.Query, handler querybus.QueryHandler) {
		queryBus.Register(queryType, metricsMW.Wrap(handler))
	}

	getGraphHandler := queryhandlers.NewGetGraphHandler(registry, logger)
	register(queries.GetGraphQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetGraphQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getGraphHandler.Handle(ctx, q)
		}))

	getTreeHandler := queryhandlers.NewGetTreeHandler(trees, codec, logger)
	register(queries.GetTreeQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetTreeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getTreeHandler.Handle(ctx, q)
		}))

	listTreesHandler := queryhandlers.NewListTreesHandler(trees, logger)
	register(queries.ListTreesQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.ListTreesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return listTreesHandler.Handle(ctx, q)
		}))

	searchTopicsHandler := queryhandlers.NewSearchTopicsHandler(trees, logger)
	register(queries.SearchTopicsQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.SearchTopicsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return searchTopicsHandler.Handle(ctx, q)
		}))

	getHistoryHandler := queryhandlers.NewGetHistoryHandler(sessions, logger)
	register(queries.GetHistoryQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetHistoryQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getHistoryHandler.Handle(ctx, q)
		}))

	// Dashboard stats fan out across both repositories, so this one
	// handler also goes through the caching middleware.
	getDashboardStatsHandler := queryhandlers.NewGetDashboardStatsHandler(trees, sessions, logger)
	queryBus.Register(queries.GetDashboardStatsQuery{}, metricsMW.Wrap(cachingMW.Wrap(querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetDashboardStatsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getDashboardStatsHandler.Handle(ctx, q)
		}))))

	getExplanationHandler := queryhandlers.NewGetExplanationHandler(explanations, logger)
	register(queries.GetExplanationQuery{}, querybus.QueryHandlerFunc(
		func(ctx context.Context, query querybus.Query) (interface{}, error) {
			q, ok := query.(queries.GetExplanationQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", query)
			}
			return getExplanationHandler.Handle(ctx, q)
		}))

	return queryBus
}

// collectorMetrics adapts the Prometheus collector to the query bus
// metrics interface.
type collectorMetrics struct {
	collector *observability.Collector
}

func (m *collectorMetrics) StartTimer(metric, label string) querybus.Timer {
	return &collectorTimer{collector: m.collector, query: label, started: time.Now()}
}

func (m *collectorMetrics) Increment(metric, label string) {
	m.collector.IncrementQueryOp(metric, label)
}

type collectorTimer struct {
	collector *observability.Collector
	query     string
	started   time.Time
}

func (t *collectorTimer) Stop() {
	t.collector.ObserveQueryDuration(t.query, time.Since(t.started))
}

// prometheusPlugin mirrors hook-point notifications into the Prometheus
// collector. The active-session gauge is read back from the registry so
// idle eviction cannot make it drift.
type prometheusPlugin struct {
	collector *observability.Collector
	registry  *services.SessionRegistry
}

func newPrometheusPlugin(collector *observability.Collector, registry *services.SessionRegistry) *prometheusPlugin {
	return &prometheusPlugin{collector: collector, registry: registry}
}

func (p *prometheusPlugin) Name() string    { return "prometheus-metrics" }
func (p *prometheusPlugin) Version() string { return "1.0.0" }

func (p *prometheusPlugin) Initialize(ctx context.Context) error { return nil }
func (p *prometheusPlugin) Shutdown(ctx context.Context) error   { return nil }

func (p *prometheusPlugin) RegisterHooks(manager *extensions.HookManager) error {
	manager.Register(extensions.HookSessionStarted, p.onDomainEvent)
	manager.Register(extensions.HookSessionEnded, p.onDomainEvent)
	manager.Register(extensions.HookGraphExpanded, p.onDomainEvent)
	manager.Register(extensions.HookConceptRemoved, p.onDomainEvent)
	manager.Register(extensions.HookConceptsLinked, p.onDomainEvent)
	manager.Register(extensions.HookTreeSaved, p.onDomainEvent)
	manager.Register(extensions.HookAfterCommandExecute, p.onCommandExecuted)
	manager.Register(extensions.HookCommandFailed, p.onCommandFailed)
	return nil
}

func (p *prometheusPlugin) onDomainEvent(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	switch event := hookData.Payload.(type) {
	case events.SessionStarted:
		p.collector.SessionsStarted.Inc()
		p.collector.ActiveSessions.Set(float64(p.registry.Count()))
	case events.SessionEnded:
		p.collector.SessionsEnded.Inc()
		p.collector.ActiveSessions.Set(float64(p.registry.Count()))
	case events.GraphExpanded:
		p.collector.ExpansionsTotal.WithLabelValues(event.Mode, "success").Inc()
		p.collector.ConceptsAdded.Add(float64(len(event.NewLabels)))
	case events.ConceptRemoved:
		p.collector.ConceptsRemoved.Add(float64(len(event.RemovedLabels)))
	case events.ConceptsLinked:
		p.collector.EdgesCreated.Inc()
	case events.TreeSaved:
		p.collector.TreesSaved.Inc()
	}
	return nil
}

func (p *prometheusPlugin) onCommandExecuted(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	if duration, ok := hookData.Metadata["duration"].(time.Duration); ok {
		switch hookData.Operation {
		case "StartExploration", "ExpandConcept", "AutoExpandStep":
			p.collector.ExpansionDuration.Observe(duration.Seconds())
		}
	}
	return nil
}

func (p *prometheusPlugin) onCommandFailed(ctx context.Context, data interface{}) error {
	hookData, ok := data.(*extensions.HookData)
	if !ok {
		return nil
	}

	switch hookData.Operation {
	case "StartExploration":
		p.collector.ExpansionsTotal.WithLabelValues("initial", "failure").Inc()
	case "ExpandConcept", "AutoExpandStep":
		p.collector.ExpansionsTotal.WithLabelValues("deep", "failure").Inc()
	}
	return nil
}
