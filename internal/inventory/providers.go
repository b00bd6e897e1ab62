package inventory

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/stock-scanner/internal/config"
	grpcDelivery "github.com/tair/stock-scanner/internal/inventory/delivery/grpc"
	httpDelivery "github.com/tair/stock-scanner/internal/inventory/delivery/http"
	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/inventory/feed"
	"github.com/tair/stock-scanner/internal/inventory/repository"
	"github.com/tair/stock-scanner/internal/inventory/usecase/command"
	"github.com/tair/stock-scanner/internal/inventory/usecase/query"
	"github.com/tair/stock-scanner/internal/notification"
	"github.com/tair/stock-scanner/internal/scanner"
	"github.com/tair/stock-scanner/internal/session"
	"github.com/tair/stock-scanner/internal/workflow"
)

const (
	breakerMaxFailures = 5
	breakerOpenFor     = 30 * time.Second
	healthInterval     = 15 * time.Second
)

// CatalogBackend is the concrete store (postgres or memory) under the
// decorators
type CatalogBackend interface {
	domain.CatalogStore
	Ping(ctx context.Context) error
}

// App holds everything cmd/scanner starts and stops
type App struct {
	HTTPHandler   *httpDelivery.ScanHandler
	Health        *grpcDelivery.HealthServer
	Feed          *feed.Feed
	Sessions      *session.Manager
	Notifications *notification.Queue
	RecordSale    *command.RecordSaleHandler
	Reconcile     *command.ReconcileHandler
}

// StoreChain is the decorated store and the feed it refreshes
type StoreChain struct {
	Store domain.CatalogStore
	Feed  *feed.Feed
}

// ProvideStoreChain wraps backend as guard -> tracing -> redis cache -> feed
// notifications. rdb may be nil.
func ProvideStoreChain(cfg *config.Config, backend CatalogBackend, rdb *redis.Client) *StoreChain {
	breaker := repository.NewCircuitBreaker(breakerMaxFailures, breakerOpenFor)

	var store domain.CatalogStore = repository.NewGuardedCatalogStore(backend, cfg.StoreTimeout, breaker)
	store = repository.NewTracedCatalogStore(store)
	if rdb != nil {
		store = repository.NewCachedCatalogStore(store, rdb, cfg.BarcodeCacheTTL)
	}

	catalogFeed := feed.New(store)
	return &StoreChain{
		Store: feed.NewNotifyingStore(store, catalogFeed),
		Feed:  catalogFeed,
	}
}

func ProvideCatalogStore(chain *StoreChain) domain.CatalogStore {
	return chain.Store
}

func ProvideFeed(chain *StoreChain) *feed.Feed {
	return chain.Feed
}

func ProvideNotificationQueue() *notification.Queue {
	return notification.NewQueue()
}

// ProvideWorkflow provides the scan workflow. alerts may be nil.
func ProvideWorkflow(store domain.CatalogStore, queue *notification.Queue, alerts workflow.AlertPublisher) *workflow.Workflow {
	var opts []workflow.Option
	if alerts != nil {
		opts = append(opts, workflow.WithAlertPublisher(alerts))
	}
	return workflow.New(store, queue, opts...)
}

func ProvidePushCamera(cfg *config.Config) *scanner.PushCamera {
	return scanner.NewPushCamera(cfg.CameraEnabled)
}

func ProvideFrameScanner(cfg *config.Config, camera *scanner.PushCamera) *scanner.FrameScanner {
	return scanner.NewFrameScanner(camera, scanner.NewZXingDecoder(),
		scanner.WithInterval(cfg.ScanInterval),
		scanner.WithCooldown(cfg.ScanCooldown),
	)
}

// ProvideSessionManager provides the session manager and routes fatal scanner
// errors to it
func ProvideSessionManager(sc *scanner.FrameScanner, wf *workflow.Workflow, queue *notification.Queue) *session.Manager {
	m := session.NewManager(sc, wf, queue)
	sc.SetErrorHandler(m.HandleScannerError)
	return m
}

// Query Handlers Providers
func ProvideListProductsHandler(store domain.CatalogStore) *query.ListProductsHandler {
	return query.NewListProductsHandler(store)
}

func ProvideGetProductHandler(store domain.CatalogStore) *query.GetProductHandler {
	return query.NewGetProductHandler(store)
}

func ProvideLowStockHandler(store domain.CatalogStore) *query.LowStockHandler {
	return query.NewLowStockHandler(store)
}

// Command Handlers Providers
func ProvideDeleteProductHandler(store domain.CatalogStore, queue *notification.Queue) *command.DeleteProductHandler {
	return command.NewDeleteProductHandler(store, queue)
}

func ProvideRecordSaleHandler(store domain.CatalogStore, queue *notification.Queue, alerts workflow.AlertPublisher) *command.RecordSaleHandler {
	return command.NewRecordSaleHandler(store, queue, alerts)
}

func ProvideReconcileHandler(store domain.CatalogStore) *command.ReconcileHandler {
	return command.NewReconcileHandler(store)
}

func ProvideScanHandler(
	sessions *session.Manager,
	wf *workflow.Workflow,
	sc *scanner.FrameScanner,
	camera *scanner.PushCamera,
	queue *notification.Queue,
	catalogFeed *feed.Feed,
	listHandler *query.ListProductsHandler,
	getHandler *query.GetProductHandler,
	lowStockHandler *query.LowStockHandler,
	deleteHandler *command.DeleteProductHandler,
	backend CatalogBackend,
) *httpDelivery.ScanHandler {
	return httpDelivery.NewScanHandler(
		sessions, wf, sc, camera, queue, catalogFeed,
		listHandler, getHandler, lowStockHandler, deleteHandler,
		backend,
	)
}

func ProvideHealthServer(backend CatalogBackend) *grpcDelivery.HealthServer {
	return grpcDelivery.NewHealthServer(backend, healthInterval)
}
