package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stock-scanner/internal/config"
	"github.com/tair/stock-scanner/internal/inventory/domain"
	"github.com/tair/stock-scanner/internal/inventory/repository"
	"github.com/tair/stock-scanner/internal/inventory/usecase/command"
)

type alertSink struct {
	products []string
}

func (a *alertSink) PublishLowStock(_ context.Context, p domain.Product) error {
	a.products = append(a.products, p.Barcode)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		StoreTimeout:  time.Second,
		ScanInterval:  10 * time.Millisecond,
		ScanCooldown:  time.Second,
		CameraEnabled: true,
	}
}

func TestInitializeApp_SaleReachesFeedAndAlerts(t *testing.T) {
	backend := repository.NewMemoryCatalogStore(domain.Product{
		Barcode:        "12345678",
		Name:           "Motor Oil",
		Price:          decimal.NewFromInt(12),
		WholesalePrice: decimal.NewFromInt(9),
		Stock:          6,
		StockThreshold: 5,
		Category:       "Aceites",
	})
	alerts := &alertSink{}

	app, err := InitializeApp(testConfig(), backend, nil, alerts)
	require.NoError(t, err)
	require.NotNil(t, app.HTTPHandler)
	require.NotNil(t, app.Health)

	ctx := context.Background()
	require.NoError(t, app.Feed.Refresh(ctx))

	change, err := app.RecordSale.Handle(ctx, command.RecordSaleCommand{Barcode: "12345678", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, change.Current)
	assert.Equal(t, []string{"12345678"}, alerts.products)

	snapshot := app.Feed.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 4, snapshot[0].Stock)
	assert.True(t, snapshot[0].LowStock)

	repaired, err := app.Reconcile.Handle(ctx)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}

func TestInitializeApp_WithoutAlerts(t *testing.T) {
	app, err := InitializeApp(testConfig(), repository.NewMemoryCatalogStore(), nil, nil)
	require.NoError(t, err)
	assert.False(t, app.Sessions.IsOpen())
	assert.Zero(t, app.Notifications.Len())
}
