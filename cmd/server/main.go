package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrorder-be/internal/api"
	"qrorder-be/internal/checkout"
	"qrorder-be/internal/config"
	"qrorder-be/internal/db"
	"qrorder-be/internal/logger"
	"qrorder-be/internal/menu"
	"qrorder-be/internal/middleware"
	"qrorder-be/internal/notification"
	"qrorder-be/internal/order"
	"qrorder-be/internal/payment"
	"qrorder-be/internal/payment/webhook"
	"qrorder-be/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// Order numbers carry the store's local date.
var storeLocation = time.FixedZone("KST", 9*60*60)

var (
	initDBFunc      = db.InitDB
	startServerFunc = listenAndServe
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	database := initDBFunc(cfg)
	defer database.Close()

	app, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go app.limiter.Cleanup(ctx, time.Minute)

	logger.L().Info("🚀 server running", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, ":"+cfg.AppPort, app)
}

type application struct {
	http.Handler
	dispatcher *notification.Dispatcher
	kafka      *notification.KafkaPublisher
	limiter    *middleware.RateLimiter
}

// Close drains pending notifications and releases the Kafka producer.
func (a *application) Close() {
	a.dispatcher.Wait()
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			logger.L().Warn("failed to close kafka producer", zap.Error(err))
		}
	}
}

func newServer(cfg *config.Config, database *sql.DB) (*application, error) {
	hub := notification.NewHub(cfg.CORSOrigin)
	pushers := []notification.Pusher{hub}

	var kafka *notification.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		var err error
		kafka, err = notification.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaNotificationTopic)
		if err != nil {
			return nil, err
		}
		pushers = append(pushers, kafka)
	}

	notificationRepo := notification.NewRepository(database)
	dispatcher := notification.NewDispatcher(notificationRepo, pushers...)

	ledger := payment.NewRepository(database)
	gateway := payment.NewTossGateway(payment.TossConfig{
		SecretKey:    cfg.TossSecretKey,
		BaseURL:      cfg.TossBaseURL,
		Sandbox:      cfg.GatewaySandbox,
		SandboxCodes: cfg.GatewaySandboxCodes,
	})

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, dispatcher)

	catalog := menu.NewRepository(database)
	materializer := checkout.NewMaterializer(
		ledger,
		orderRepo,
		catalog,
		order.NewNumberGenerator(storeLocation),
		dispatcher,
	)
	workflow := checkout.NewWorkflow(
		ledger,
		gateway,
		store.NewRepository(database),
		catalog,
		materializer,
		orderSvc,
		checkout.RedirectURLs{Success: cfg.PaymentSuccessURL, Fail: cfg.PaymentFailURL},
	)

	auth := middleware.NewAuthenticator(cfg.SecretKey)
	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)

	apiHandler := api.NewHandler(workflow, orderSvc, notificationRepo, hub)
	webhookHandler := webhook.NewWebhookHandler(workflow, cfg.WebhookToken)

	router := setupRouter(
		apiHandler.Routes(),
		webhookHandler.PaymentWebhookHandler,
		logger.RequestIDMiddleware,
		logger.LoggingMiddleware,
		chimw.Recoverer,
		middleware.CORS(cfg.CORSOrigin),
		auth.Middleware,
		limiter.Middleware,
	)

	return &application{
		Handler:    router,
		dispatcher: dispatcher,
		kafka:      kafka,
		limiter:    limiter,
	}, nil
}

func setupRouter(apiRoutes http.Handler, webhookHandler http.HandlerFunc, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Post("/webhook/payment", webhookHandler)
	r.Mount("/", apiRoutes)

	return r
}

// listenAndServe serves until ctx is cancelled, then shuts down gracefully.
func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
