package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/backend"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/config"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/handlers"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/middleware"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/notify"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/orders"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/pos"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/repository"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/service"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/pkg/logger"
)

const (
	version = "1.0.0"

	// notifyTimeout bounds one debounced delivery to the notification sinks
	notifyTimeout = 10 * time.Second
)

func main() {
	// Load configuration from the optional file and environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting pos admin server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"backend", cfg.Backend.BaseURL,
		"log_level", cfg.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize coupon validator
	couponValidator := coupon.NewValidator(coupon.WithLogger(log))
	if err := loadCoupons(ctx, couponValidator, cfg.Coupon); err != nil {
		log.Error("failed to load coupon data", "error", err)
		os.Exit(1)
	}

	// Initialize backend client and collections
	client := backend.NewClient(backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.BackendTimeout(),
	}, log)
	orderStore := backend.NewResource[models.Order](client, "orders")
	customers := backend.NewResource[models.Customer](client, "customers")
	banners := backend.NewResource[models.Banner](client, "banners")
	coupons := backend.NewResource[models.Coupon](client, "coupons")

	// Initialize repositories and services
	productRepo := repository.NewInMemoryProductRepository()
	productService := service.NewProductService(productRepo)
	orderService := service.NewOrderService(orderStore, couponValidator)
	ordersService := orders.NewService(orderStore, log)
	terminal := pos.NewTerminal(pos.Options{
		TaxRate:     cfg.TaxRate(),
		IdleTimeout: cfg.SessionIdleTimeout(),
	}, productService, orderService, log)

	// Start the latest-order poller
	var notifications *handlers.NotificationHandler
	if cfg.Notify.Enabled {
		poller, shutdown := startPoller(ctx, cfg.Notify, client, log)
		defer shutdown()
		notifications = handlers.NewNotificationHandler(poller, log)
	} else {
		notifications = handlers.NewNotificationHandler(nil, log)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log, version, map[string]handlers.HealthCheck{
		"backend": func(ctx context.Context) error {
			return client.Get(ctx, "orders", url.Values{"limit": {"1"}}, nil)
		},
	})
	productHandler := handlers.NewProductHandler(productService, log)
	couponHandler := handlers.NewCouponHandler(couponValidator, log)
	ordersHandler := handlers.NewOrdersHandler(ordersService, cfg.Export.CurrencySymbol, log)
	posHandler := handlers.NewPOSHandler(terminal, log)
	layoutHandler := handlers.NewLayoutHandler(cfg.Layout, log)
	customerHandler := handlers.NewResourceHandler[models.Customer](customers, "customer", log)
	bannerHandler := handlers.NewResourceHandler[models.Banner](banners, "banner", log)
	couponAdminHandler := handlers.NewResourceHandler[models.Coupon](coupons, "coupon", log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware; Actor runs before Logger so the operator is logged
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Actor)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "api_key", "X-API-Key", middleware.ActorHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// API routes
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.Auth))
		r.Use(limiter.Handler)

		// Catalog endpoints
		r.Get("/product", productHandler.ListProducts)
		r.Get("/product/{productId}", productHandler.GetProduct)

		// Coupon endpoints
		r.Get("/coupon/stats", couponHandler.GetStats)
		r.Get("/coupon/{couponCode}", couponHandler.ValidateCoupon)

		// Shell endpoints
		r.Get("/layout", layoutHandler.GetLayout)
		r.Get("/notifications/latest", notifications.LatestOrder)

		// Order status views
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/buckets", ordersHandler.ListBuckets)
			r.Get("/summary", ordersHandler.Summary)
			r.Get("/export", ordersHandler.Export)
			r.Get("/{orderId}", ordersHandler.GetOrder)
			r.Patch("/{orderId}/status", ordersHandler.UpdateStatus)
		})

		// Point of sale
		r.Route("/pos/sessions", func(r chi.Router) {
			r.Post("/", posHandler.OpenSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", posHandler.GetSession)
				r.Delete("/", posHandler.CloseSession)
				r.Post("/items", posHandler.AddItem)
				r.Patch("/items/{itemId}", posHandler.UpdateQuantity)
				r.Delete("/items/{itemId}", posHandler.RemoveItem)
				r.Put("/settings", posHandler.Configure)
				r.Post("/reset", posHandler.Reset)
				r.Post("/submit", posHandler.Submit)
			})
		})

		// Managed collections
		r.Route("/customers", customerHandler.Routes)
		r.Route("/banners", bannerHandler.Routes)
		r.Route("/coupons", couponAdminHandler.Routes)
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for an interrupt signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error("server failed to start", "error", err)
		os.Exit(1)
	}

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// loadCoupons reads the configured coupon bases. Local files win over URLs.
// With no sources configured every coupon code is rejected.
func loadCoupons(ctx context.Context, v *coupon.Validator, cfg config.CouponConfig) error {
	switch {
	case len(cfg.Files) > 0:
		if err := v.LoadFromFiles(ctx, cfg.Files); err != nil {
			return err
		}
	case len(cfg.URLs) > 0:
		if err := v.LoadFromURLs(ctx, cfg.URLs); err != nil {
			return err
		}
	default:
		slog.Warn("no coupon sources configured, coupon codes will be rejected")
		return nil
	}

	stats := v.GetStats()
	slog.Info("coupon data loaded successfully",
		"total_files", stats["total_files"],
		"total_coupons", stats["total_coupons"],
	)
	return nil
}

// startPoller wires the notification sinks and starts polling for new
// orders. The returned function stops the poller and releases the sinks.
func startPoller(ctx context.Context, cfg config.NotifyConfig, client *backend.Client, log *slog.Logger) (*notify.Poller, func()) {
	sinks := notify.MultiSink{notify.NewLogSink(log)}

	var amqpSink *notify.AMQPSink
	if cfg.AMQPURL != "" {
		s, err := notify.DialAMQP(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			log.Warn("order events will not be published", "error", err)
		} else {
			amqpSink = s
			sinks = append(sinks, s)
			log.Info("publishing order events", "exchange", cfg.Exchange)
		}
	}

	var sink notify.Sink = sinks
	var debounced *notify.DebouncedSink
	if cfg.Debounce > 0 {
		debounced = notify.NewDebouncedSink(sinks, time.Duration(cfg.Debounce)*time.Millisecond, notifyTimeout, log)
		sink = debounced
	}

	poller := notify.NewPoller(notify.NewBackendFetcher(client), sink, time.Duration(cfg.Interval)*time.Second, log)
	poller.Start(ctx)

	return poller, func() {
		poller.Stop()
		if debounced != nil {
			debounced.Stop()
		}
		if amqpSink != nil {
			if err := amqpSink.Close(); err != nil {
				log.Warn("failed to close amqp connection", "error", err)
			}
		}
	}
}
