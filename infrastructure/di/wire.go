//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/Anidipta/Node-Learner/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideMigrator,
	ProvideTreeRepository,
	ProvideSessionRepository,
	ProvideSaveLocker,
	ProvideEventBus,
	ProvideHookManager,
	ProvideCollector,
	ProvideTracer,
	ProvidePluginManager,
	ProvideEventPublisher,
	ProvideExplorer,
	ProvideSessionBudget,
	ProvideTreeCodec,
	ProvideExpansionService,
	ProvidePersistenceService,
	ProvideSessionRegistry,
	ProvideSessionRecorder,
	ProvideExplanationService,
	ProvideCache,
	ProvideAuthMiddleware,
	ProvideTokenRefresh,
	ProvideCommandBus,
	ProvideQueryBus,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
