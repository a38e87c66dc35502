package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"tinyhouse/internal/app/commands"
	availabilityapp "tinyhouse/internal/app/handlers/availability"
	bookingapp "tinyhouse/internal/app/handlers/booking"
	listingapp "tinyhouse/internal/app/handlers/listings"
	meapp "tinyhouse/internal/app/handlers/me"
	userapp "tinyhouse/internal/app/handlers/users"
	"tinyhouse/internal/app/middleware"
	"tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/policies"
	"tinyhouse/internal/app/queries"
	authsvc "tinyhouse/internal/app/services/auth"
	"tinyhouse/internal/app/uow"
	domainauth "tinyhouse/internal/domain/auth"
	domainbooking "tinyhouse/internal/domain/booking"
	"tinyhouse/internal/infra/broker/kafka"
	"tinyhouse/internal/infra/config"
	mongodb "tinyhouse/internal/infra/db/mongo"
	"tinyhouse/internal/infra/geo/here"
	ginserver "tinyhouse/internal/infra/http/gin"
	"tinyhouse/internal/infra/inbox"
	"tinyhouse/internal/infra/obs"
	outboxinfra "tinyhouse/internal/infra/outbox"
	"tinyhouse/internal/infra/payments/stripe"
	"tinyhouse/internal/infra/reconciliation"
	"tinyhouse/internal/infra/security"
	"tinyhouse/internal/infra/storage/memory"
	redisstore "tinyhouse/internal/infra/storage/redis"
	"tinyhouse/internal/infra/storage/s3"
	"tinyhouse/internal/infra/validation"
)

// storeBackend is what the composition root needs from a storage mode.
type storeBackend interface {
	bookingapp.ReservationStore
	uow.UoWFactory
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	store    bookingapp.ReservationStore
	auth     *authsvc.Service
	geocoder *memory.Geocoder
	workers  map[string]func(context.Context) error
	closers  []func(context.Context) error
	logger   *slog.Logger
}

// infrastructure holds the adapters chosen for the configured storage mode.
type infrastructure struct {
	store       storeBackend
	idempotency middleware.IdempotencyStore
	outbox      outbox.Outbox
	sessions    domainauth.SessionStore
	payments    policies.PaymentsPort
	geocoder    policies.Geocoder
	uploader    policies.ImageUploader
	images      ginserver.ImageSource
	fallbackGeo *memory.Geocoder
	checks      map[string]obs.Check
	workers     map[string]func(context.Context) error
	closers     []func(context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	var (
		infra *infrastructure
		err   error
	)
	switch cfg.StorageMode {
	case config.StorageMongo:
		infra, err = buildMongoInfrastructure(ctx, cfg, logger)
	default:
		infra = buildMemoryInfrastructure(cfg, logger)
	}
	if err != nil {
		return nil, err
	}
	attachExternalClients(cfg, logger, infra)

	commandBus := commands.NewInMemoryBus()
	bookingHandler := &bookingapp.CreateBookingHandler{
		Store:       infra.store,
		Payments:    infra.payments,
		Validator:   domainbooking.Validator{WindowDays: cfg.BookingWindowDays},
		Outbox:      infra.outbox,
		Encoder:     outbox.JSONEventEncoder{},
		Logger:      logger.With("component", "booking"),
		MaxAttempts: cfg.BookingMaxAttempts,
		Currency:    cfg.Currency,
	}
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), bookingHandler)
	hostHandler := &listingapp.HostListingHandler{
		Geocoder: infra.geocoder,
		Uploader: infra.uploader,
		Outbox:   infra.outbox,
		Encoder:  outbox.JSONEventEncoder{},
		Logger:   logger.With("component", "listings"),
	}
	commands.RegisterHandler(commandBus, listingapp.HostListingCommand{}.Key(), hostHandler)
	commands.RegisterHandler(commandBus, meapp.ConnectWalletCommand{}.Key(), &meapp.ConnectWalletHandler{
		Payments: infra.payments,
		Logger:   logger.With("component", "wallet"),
	})
	commands.RegisterHandler(commandBus, meapp.DisconnectWalletCommand{}.Key(), &meapp.DisconnectWalletHandler{
		Logger: logger.With("component", "wallet"),
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetCalendarQuery{}.Key(), &availabilityapp.GetCalendarHandler{
		UoWFactory: infra.store,
	})
	queries.RegisterHandler(queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{
		UoWFactory: infra.store,
	})
	queries.RegisterHandler(queryBus, listingapp.SearchListingsQuery{}.Key(), &listingapp.SearchListingsHandler{
		UoWFactory: infra.store,
		Geocoder:   infra.geocoder,
	})
	queries.RegisterHandler(queryBus, userapp.GetUserQuery{}.Key(), &userapp.GetUserHandler{
		UoWFactory: infra.store,
	})

	logger.Debug("handlers registered", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Authorization(authsvc.ViewerAuthorizer{}),
		middleware.Validation(validator),
		middleware.IdempotencyWithPolicy(infra.idempotency, nil, bookingapp.IdempotencyErrors, logger.With("component", "idempotency")),
		middleware.Transaction(infra.store, nil),
		middleware.OutboxFlush(infra.outbox, logger.With("component", "outbox")),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
	)

	authService := &authsvc.Service{
		Users:      infra.store.Users(),
		Sessions:   infra.sessions,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger.With("component", "auth"),
	}

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Logger:   logger,
		},
		Availability: ginserver.AvailabilityHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Listing: ginserver.ListingHandler{
			Queries:  queryBusWithMiddleware,
			Commands: commandBusWithMiddleware,
			Logger:   logger,
		},
		User: ginserver.UserHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Me: ginserver.MeHandler{
			Commands: commandBusWithMiddleware,
			Logger:   logger,
		},
		Auth: ginserver.AuthHandler{
			Service: authService,
			Logger:  logger,
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}
	if infra.images != nil {
		handlers.Images = ginserver.ImageHandler{Source: infra.images}
	}

	return &application{
		handlers: handlers,
		health:   obs.HealthHandlers{Checks: infra.checks, Timeout: 2 * time.Second},
		store:    infra.store,
		auth:     authService,
		geocoder: infra.fallbackGeo,
		workers:  infra.workers,
		closers:  infra.closers,
		logger:   logger,
	}, nil
}

func buildMemoryInfrastructure(cfg config.Config, logger *slog.Logger) *infrastructure {
	store := memory.NewStore()
	geo := memory.NewGeocoder(nil)
	images := memory.NewImageStore("/images")
	return &infrastructure{
		store:       store,
		idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		outbox:      memory.NewOutbox(logger.With("component", "outbox")),
		sessions:    memory.NewSessionStore(),
		payments:    memory.NewPaymentGateway(),
		geocoder:    geo,
		uploader:    images,
		images:      images,
		fallbackGeo: geo,
		checks:      map[string]obs.Check{},
		workers:     map[string]func(context.Context) error{},
	}
}

func buildMongoInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	store := mongodb.NewStore(client.DB)
	box := outboxinfra.NewStore(client.DB)
	geo := memory.NewGeocoder(nil)
	images := memory.NewImageStore("/images")

	infra := &infrastructure{
		store:       mongoBackend{Store: store, Factory: mongodb.Factory{DB: client.DB, Store: store}},
		idempotency: mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
		outbox:      box,
		sessions:    memory.NewSessionStore(),
		payments:    memory.NewPaymentGateway(),
		geocoder:    geo,
		uploader:    images,
		images:      images,
		fallbackGeo: geo,
		checks: map[string]obs.Check{
			"mongo":  client.Ping,
			"outbox": box.Ping,
		},
		workers: map[string]func(context.Context) error{},
		closers: []func(context.Context) error{client.Close},
	}

	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay pending")
		return infra, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	worker := &outboxinfra.Worker{
		Store:       box,
		Producer:    producer,
		Logger:      logger.With("component", "outbox_worker"),
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
	}
	infra.workers["outbox"] = worker.Run
	infra.closers = append(infra.closers, func(context.Context) error { return producer.Close() })

	reconciler := &reconciliation.Handler{
		Inbox:  inbox.NewStore(client.DB, "reconciliation"),
		Queue:  reconciliation.NewMongoQueue(client.DB),
		Logger: logger.With("component", "reconciliation"),
	}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, reconciler, logger.With("component", "kafka_consumer"))
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	topic := outboxinfra.TopicFor(cfg.KafkaTopicPrefix, domainbooking.PersistenceInconsistent{}.EventName())
	infra.workers["reconciliation"] = func(ctx context.Context) error {
		return consumer.Run(ctx, []string{topic})
	}
	infra.closers = append(infra.closers, func(context.Context) error { return consumer.Close() })
	return infra, nil
}

// attachExternalClients swaps the in-process fallbacks for real clients when they are configured.
func attachExternalClients(cfg config.Config, logger *slog.Logger, infra *infrastructure) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(cfg.RedisURL)
		if err != nil {
			logger.Warn("redis disabled", "error", err)
		} else {
			infra.sessions = &redisstore.SessionStore{Client: client}
			infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
			infra.closers = append(infra.closers, closeRedis(client))
		}
	}
	if cfg.StripeSecretKey != "" {
		infra.payments = &stripe.Client{
			HTTP:       httpClient,
			SecretKey:  cfg.StripeSecretKey,
			APIURL:     cfg.StripeAPIURL,
			ConnectURL: cfg.StripeConnectURL,
			Logger:     logger.With("component", "stripe"),
		}
	}
	if cfg.HereAPIKey != "" {
		infra.geocoder = &here.Client{HTTP: httpClient, APIKey: cfg.HereAPIKey, APIURL: cfg.HereAPIURL}
	}
	if cfg.S3Endpoint != "" {
		client, err := s3.NewClient(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicEndpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		}, logger.With("component", "s3"))
		if err != nil {
			logger.Warn("s3 disabled", "error", err)
		} else {
			infra.uploader = client
			infra.images = nil
			infra.checks["s3"] = client.Ping
		}
	}
}

func closeRedis(client *goredis.Client) func(context.Context) error {
	return func(context.Context) error { return client.Close() }
}

// mongoBackend joins the record level store with the session backed unit of work factory.
type mongoBackend struct {
	*mongodb.Store
	mongodb.Factory
}

func (b mongoBackend) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return b.Factory.Begin(ctx, opts)
}

func (a *application) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.logger != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
}
