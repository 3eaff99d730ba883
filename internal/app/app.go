package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/SofiaPH25/Quick-Shop/internal/cart"
	"github.com/SofiaPH25/Quick-Shop/internal/checkout"
	"github.com/SofiaPH25/Quick-Shop/internal/config"
	"github.com/SofiaPH25/Quick-Shop/internal/inventory"
	"github.com/SofiaPH25/Quick-Shop/internal/orders"

	"go.uber.org/zap"
)

// Application holds all the components and manages the application lifecycle
type Application struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container *Container
	factory   *ServiceFactory

	ledger   *inventory.Ledger
	history  *orders.History
	checkout *checkout.Service
	consumer inventory.ConsumerService
}

// NewApplication creates and fully initializes a new Application instance
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewApplicationWithConfig(ctx, cfg)
}

// NewApplicationWithConfig is NewApplication with explicit configuration.
func NewApplicationWithConfig(ctx context.Context, cfg *config.Config) (*Application, error) {
	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, os.Kill)

	app := &Application{
		ctx:    appCtx,
		cancel: cancel,
	}

	container, err := NewContainerWithConfig(app.ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	app.container = container
	app.factory = NewServiceFactory(container)

	if err := app.wire(); err != nil {
		app.Shutdown()
		return nil, err
	}

	app.container.Logger().Info("Application initialized successfully")
	return app, nil
}

func (app *Application) wire() error {
	ledger, err := app.factory.CreateLedger(app.ctx)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}
	app.ledger = ledger
	app.history = app.factory.CreateHistory()

	notifier, err := app.factory.CreateNotifier()
	if err != nil {
		return err
	}

	svc, err := app.factory.CreateCheckoutService(ledger, app.history, app.factory.CreateGateway(), notifier)
	if err != nil {
		return err
	}
	app.checkout = svc
	app.consumer = app.factory.CreateConsumerService(ledger)
	return nil
}

// Seed loads the configured catalog into the ledger if the store holds none yet.
func (app *Application) Seed() error {
	products, err := inventory.LoadCatalogFile(app.container.Config().CatalogFile)
	if err != nil {
		return err
	}

	seeded, err := app.ledger.Seed(app.ctx, products)
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if !seeded {
		app.container.Logger().Info("Catalog already present, skipping seed",
			zap.Int("products", len(app.ledger.Products())),
		)
	}
	return nil
}

// Run seeds the catalog, then consumes stock adjustments until shutdown. Without Kafka
// it just waits for a signal.
func (app *Application) Run() error {
	if err := app.Seed(); err != nil {
		return err
	}

	if app.consumer != nil {
		return app.consumer.Start(app.ctx)
	}

	app.container.Logger().Info("Kafka not configured, waiting for shutdown signal")
	<-app.ctx.Done()
	return nil
}

// Shutdown gracefully shuts down all application components
func (app *Application) Shutdown() {
	if app.container != nil {
		app.container.Logger().Info("Starting application shutdown...")
	}

	if app.cancel != nil {
		app.cancel()
	}

	if app.container != nil {
		app.container.Shutdown(context.Background())
	}
}

func (app *Application) Ledger() *inventory.Ledger   { return app.ledger }
func (app *Application) History() *orders.History    { return app.history }
func (app *Application) Checkout() *checkout.Service { return app.checkout }
func (app *Application) Container() *Container       { return app.container }

// OpenCart loads the cart of userID.
func (app *Application) OpenCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return app.factory.OpenCart(ctx, userID)
}
