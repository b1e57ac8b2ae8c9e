package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/api"
	"storefront/api/health"
	apiorder "storefront/api/order"
	apipayment "storefront/api/payment"
	apiuser "storefront/api/user"
	orderapp "storefront/application/order"
	paymentapp "storefront/application/payment"
	userapp "storefront/application/user"
	"storefront/config"
	"storefront/domain/catalog"
	"storefront/domain/notification"
	"storefront/domain/order"
	"storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/infrastructure/outbox"
	"storefront/infrastructure/payment/razorpay"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg       *config.Config
	seed      []catalog.Product
	sender    notification.Sender
	gateway   payment.Gateway
	publisher outbox.Publisher
	clock     func() time.Time
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{
		cfg:   cfg,
		seed:  DemoProducts(cfg.Payment.Currency),
		clock: time.Now,
	}
}

// WithProducts replaces the in-memory catalog seed
func (b *AppBuilder) WithProducts(products ...catalog.Product) *AppBuilder {
	b.seed = products
	return b
}

// WithSender overrides the configured notification provider
func (b *AppBuilder) WithSender(sender notification.Sender) *AppBuilder {
	b.sender = sender
	return b
}

// WithGateway overrides the razorpay gateway
func (b *AppBuilder) WithGateway(gateway payment.Gateway) *AppBuilder {
	b.gateway = gateway
	return b
}

// WithPublisher overrides the configured outbox publisher
func (b *AppBuilder) WithPublisher(publisher outbox.Publisher) *AppBuilder {
	b.publisher = publisher
	return b
}

func (b *AppBuilder) WithClock(clock func() time.Time) *AppBuilder {
	b.clock = clock
	return b
}

// Build creates the App instance. Resources opened before a failure are closed.
func (b *AppBuilder) Build(ctx context.Context) (app *App, err error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env),
		zap.String("database", b.cfg.Database.Type))

	backend, err := OpenBackend(ctx, b.cfg, b.seed)
	if err != nil {
		return nil, err
	}
	closers := []func(context.Context) error{backend.Close}
	defer func() {
		if err != nil {
			closeAll(context.Background(), closers)
		}
	}()

	sender := b.sender
	if sender == nil {
		if sender, err = NewSender(b.cfg); err != nil {
			return nil, err
		}
	}

	publisher := b.publisher
	if publisher == nil {
		var closePublisher func() error
		publisher, closePublisher, err = NewPublisher(ctx, b.cfg, backend, sender)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func(context.Context) error { return closePublisher() })
	}

	var worker *outbox.Worker
	if b.cfg.Worker.Enabled || b.cfg.Database.Type == "memory" {
		// 内存模式下 outbox 只能由本进程消费
		if worker, err = NewWorker(b.cfg, backend, publisher); err != nil {
			return nil, fmt.Errorf("failed to create outbox worker: %w", err)
		}
	}

	verifier, err := payment.NewSignatureVerifier(b.cfg.Payment.Razorpay.KeySecret)
	if err != nil {
		return nil, err
	}

	gateway := b.gateway
	if gateway == nil {
		if rzp, gwErr := razorpay.NewGateway(b.cfg.Payment.Razorpay.KeyID, b.cfg.Payment.Razorpay.KeySecret); gwErr != nil {
			logger.Warn("Razorpay gateway disabled", zap.Error(gwErr))
		} else {
			gateway = rzp
		}
	}

	access := user.NewAccessPolicy(backend.Users)
	orderService := orderapp.NewApplicationService(orderapp.Dependencies{
		Orders:           backend.Orders,
		Catalog:          backend.Catalog,
		UnitOfWork:       backend.UnitOfWork,
		Access:           access,
		Shipping:         order.NewShippingPolicy(b.clock, nil),
		Verifier:         verifier,
		Gateway:          gateway,
		RefundViaGateway: b.cfg.Payment.RefundViaGateway,
		Currency:         b.cfg.Payment.Currency,
		Clock:            b.clock,
	})
	paymentService := paymentapp.NewApplicationService(
		gateway,
		verifier,
		backend.Orders,
		backend.UnitOfWork,
		b.cfg.Payment.Razorpay.KeyID,
		b.cfg.Payment.Currency,
	)
	userService := userapp.NewApplicationService(backend.Users, access, backend.UnitOfWork)

	router := api.NewRouter(
		b.cfg,
		health.NewController(b.cfg, health.Database(backend.Ping), gatewayProbe(gateway)),
		apiorder.NewController(orderService),
		apipayment.NewController(paymentService),
		apiuser.NewController(userService),
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config:  b.cfg,
		router:  router,
		server:  server,
		worker:  worker,
		closers: closers,
	}, nil
}

// DemoProducts catalog used by the in-memory backend
func DemoProducts(currency string) []catalog.Product {
	price := func(minor int64) shared.Money { return *shared.NewMoney(minor, currency) }
	return []catalog.Product{
		{ID: "prod-tshirt", Name: "Classic Cotton T-Shirt", Price: price(49900), Image: "/images/tshirt.jpg", Stock: 100},
		{ID: "prod-sneakers", Name: "Everyday Sneakers", Price: price(249900), Image: "/images/sneakers.jpg", Stock: 25},
		{ID: "prod-backpack", Name: "Canvas Backpack", Price: price(129900), Image: "/images/backpack.jpg", Stock: 10},
	}
}

// gatewayProbe non-critical: checkout and gateway refunds need it, the rest of
// the order flow does not.
func gatewayProbe(gateway payment.Gateway) health.Probe {
	return health.Probe{
		Name: "payment_gateway",
		Check: func(context.Context) error {
			if gateway == nil {
				return payment.ErrGatewayUnavailable
			}
			return nil
		},
	}
}

func closeAll(ctx context.Context, closers []func(context.Context) error) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			logger.Warn("Failed to release resource", zap.Error(err))
		}
	}
}
