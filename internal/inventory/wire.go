//go:build wireinject
// +build wireinject

package inventory

import (
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/tair/stock-scanner/internal/config"
	"github.com/tair/stock-scanner/internal/workflow"
)

// Wire sets
var StoreSet = wire.NewSet(
	ProvideStoreChain,
	ProvideCatalogStore,
	ProvideFeed,
)

var ScanSet = wire.NewSet(
	ProvideNotificationQueue,
	ProvideWorkflow,
	ProvidePushCamera,
	ProvideFrameScanner,
	ProvideSessionManager,
)

var HandlerSet = wire.NewSet(
	ProvideListProductsHandler,
	ProvideGetProductHandler,
	ProvideLowStockHandler,
	ProvideDeleteProductHandler,
	ProvideRecordSaleHandler,
	ProvideReconcileHandler,
	ProvideScanHandler,
	ProvideHealthServer,
)

// InitializeApp builds the scanner application. rdb and alerts may be nil.
func InitializeApp(cfg *config.Config, backend CatalogBackend, rdb *redis.Client, alerts workflow.AlertPublisher) (*App, error) {
	wire.Build(
		StoreSet,
		ScanSet,
		HandlerSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
